package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/pipeline"
)

func TestEstimator_KnownType_NoCapabilityCall(t *testing.T) {
	completer := &mockCompleter{}
	e := pipeline.NewEstimator(completer, testMetrics(), discardLogger())

	km := e.EstimateRadius(context.Background(), domain.EventCandidate{EventType: "concert"})

	assert.Equal(t, 2.0, km)
	assert.Equal(t, 0, completer.callCount())
}

func TestEstimator_UnknownType_ParsesModelNumber(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
	}{
		{"bare number", "2.3", 2.3},
		{"number with unit", "about 3.5 km", 3.5},
		{"integer", "4", 4.0},
		{"above max clamped", "40", domain.MaxInfluenceRadiusKm},
		{"below min clamped", "0.1", domain.MinInfluenceRadiusKm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &mockCompleter{response: tt.response}
			e := pipeline.NewEstimator(completer, testMetrics(), discardLogger())

			km := e.EstimateRadius(context.Background(), domain.EventCandidate{EventType: "air show"})
			assert.Equal(t, tt.want, km)
		})
	}
}

func TestEstimator_NonNumericResponse_Default(t *testing.T) {
	completer := &mockCompleter{response: "I cannot estimate that."}
	e := pipeline.NewEstimator(completer, testMetrics(), discardLogger())

	km := e.EstimateRadius(context.Background(), domain.EventCandidate{EventType: "air show"})
	assert.Equal(t, domain.DefaultInfluenceRadiusKm, km)
}

func TestEstimator_CapabilityError_Default(t *testing.T) {
	completer := &mockCompleter{err: errors.New("timeout")}
	e := pipeline.NewEstimator(completer, testMetrics(), discardLogger())

	km := e.EstimateRadius(context.Background(), domain.EventCandidate{EventType: "air show"})
	assert.Equal(t, domain.DefaultInfluenceRadiusKm, km)
}

func TestEstimator_AlwaysInClampInterval(t *testing.T) {
	responses := []string{"0", "-5", "999", "2.2", "nonsense", "0.5", "5.0"}
	for _, resp := range responses {
		completer := &mockCompleter{response: resp}
		e := pipeline.NewEstimator(completer, testMetrics(), discardLogger())

		km := e.EstimateRadius(context.Background(), domain.EventCandidate{EventType: "air show"})
		assert.GreaterOrEqual(t, km, domain.MinInfluenceRadiusKm, "response %q", resp)
		assert.LessOrEqual(t, km, domain.MaxInfluenceRadiusKm, "response %q", resp)
	}
}
