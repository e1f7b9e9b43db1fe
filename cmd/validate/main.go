// Command validate checks the integrity of per-city event logs: every record
// must decode, carry the ID its content hashes to, keep its influence radius
// inside the clamp interval, and preserve append order via created_at.
//
// Usage:
//
//	go run ./cmd/validate -data data
//	go run ./cmd/validate -data data -city "San Francisco"
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data", "data", "directory containing per-city event logs")
	city := flag.String("city", "", "validate only this city's log (default: all)")
	flag.Parse()

	if code := run(*dataDir, *city); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, city string) int {
	paths, err := logPaths(dataDir, city)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	if len(paths) == 0 {
		fmt.Println("no event logs found")
		return 0
	}

	fmt.Println("=== Event Log Integrity Validation ===")
	fmt.Println()

	allPassed := true
	total := 0
	for _, path := range paths {
		events, decodePhase := loadLog(path)
		phases := []*phase{
			decodePhase,
			validateIdentity(events),
			validateRadii(events),
			validateOrder(events),
		}

		fmt.Printf("%s (%d events)\n", filepath.Base(path), len(events))
		for _, p := range phases {
			status := "\033[32mPASS\033[0m"
			if !p.passed() {
				status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
				allPassed = false
			}
			fmt.Printf("  %-32s %s\n", p.name, status)
			for i, e := range p.errors {
				fmt.Printf("    [%d] %s\n", i+1, e)
			}
		}
		total += len(events)
	}

	fmt.Printf("\nTotal: %d events across %d logs\n", total, len(paths))
	if allPassed {
		fmt.Println("All validations passed.")
		return 0
	}
	fmt.Println("Validation FAILED.")
	return 1
}

func logPaths(dataDir, city string) ([]string, error) {
	if city != "" {
		slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(city)), " ", "_")
		return []string{filepath.Join(dataDir, slug+".jsonl")}, nil
	}
	return filepath.Glob(filepath.Join(dataDir, "*.jsonl"))
}

// loadLog decodes every line of an event log, collecting decode failures
// instead of stopping at the first.
func loadLog(path string) ([]domain.StoredEvent, *phase) {
	p := &phase{name: "Phase 1: Decode"}

	f, err := os.Open(path)
	if err != nil {
		p.errorf("open: %v", err)
		return nil, p
	}
	defer f.Close()

	var events []domain.StoredEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var event domain.StoredEvent
		if err := json.Unmarshal([]byte(text), &event); err != nil {
			p.errorf("line %d: %v", line, err)
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		p.errorf("read: %v", err)
	}
	return events, p
}

// validateIdentity recomputes each event's content hash and checks required
// identity fields.
func validateIdentity(events []domain.StoredEvent) *phase {
	p := &phase{name: "Phase 2: Identity"}
	for i, e := range events {
		if e.ID == "" {
			p.errorf("event %d: missing id", i)
			continue
		}
		if want := domain.EventID(e.GeoTaggedEvent); e.ID != want {
			p.errorf("event %d: id %q does not match content hash %q", i, e.ID, want)
		}
		if e.City == "" {
			p.errorf("event %d (%s): missing city", i, e.ID)
		}
		if e.CreatedAt.IsZero() {
			p.errorf("event %d (%s): created_at is zero", i, e.ID)
		}
	}
	return p
}

func validateRadii(events []domain.StoredEvent) *phase {
	p := &phase{name: "Phase 3: Influence radius"}
	for i, e := range events {
		if e.InfluenceRadiusKm < domain.MinInfluenceRadiusKm || e.InfluenceRadiusKm > domain.MaxInfluenceRadiusKm {
			p.errorf("event %d (%s): radius %g outside [%g, %g]",
				i, e.ID, e.InfluenceRadiusKm, domain.MinInfluenceRadiusKm, domain.MaxInfluenceRadiusKm)
		}
		if e.Coordinates != nil {
			if e.Coordinates.Lat < -90 || e.Coordinates.Lat > 90 {
				p.errorf("event %d (%s): latitude %g out of range", i, e.ID, e.Coordinates.Lat)
			}
			if e.Coordinates.Lon < -180 || e.Coordinates.Lon > 180 {
				p.errorf("event %d (%s): longitude %g out of range", i, e.ID, e.Coordinates.Lon)
			}
		}
	}
	return p
}

// validateOrder checks that created_at never decreases across the log.
func validateOrder(events []domain.StoredEvent) *phase {
	p := &phase{name: "Phase 4: Append order"}
	var prev time.Time
	for i, e := range events {
		if i > 0 && e.CreatedAt.Before(prev) {
			p.errorf("event %d (%s): created_at %s before previous %s",
				i, e.ID, e.CreatedAt.Format(time.RFC3339Nano), prev.Format(time.RFC3339Nano))
		}
		prev = e.CreatedAt
	}
	return p
}
