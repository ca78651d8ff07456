// Package conflict finds scheduled jobs whose time intervals overlap.
//
// Detection is a sweep over jobs sorted by start time: each job is compared
// with the jobs that follow it until one starts after it ends. Since starts
// never decrease along the sweep, no later job can overlap either. Touching
// intervals (one starting exactly when the other ends) count as overlapping.
//
// Which overlapping pairs are reported is decided by a Scope. Global reports
// every overlap regardless of lane (a shared labor pool); SameLane only
// reports overlaps on the same work center.
package conflict

import (
	"fmt"
	"sort"

	"github.com/0xPuncker/production-timeline/pkg/lanes"
	"github.com/0xPuncker/production-timeline/pkg/types"
)

// Scope decides whether an overlapping pair counts as a conflict.
type Scope func(a, b types.ScheduledJob) bool

// Global treats every overlap as a conflict.
func Global(_, _ types.ScheduledJob) bool { return true }

// SameLane only treats overlaps on the same lane as conflicts.
func SameLane(a, b types.ScheduledJob) bool { return lanes.Key(a) == lanes.Key(b) }

const (
	ScopeGlobal = "global"
	ScopeLane   = "lane"
)

// ParseScope maps a configuration value onto a Scope.
func ParseScope(name string) (Scope, error) {
	switch name {
	case "", ScopeGlobal:
		return Global, nil
	case ScopeLane:
		return SameLane, nil
	default:
		return nil, fmt.Errorf("unknown conflict scope %q", name)
	}
}

// Stats instruments one detection run.
type Stats struct {
	Jobs        int
	Comparisons int
	Conflicts   int
}

type Detector struct {
	scope Scope
}

func NewDetector(scope Scope) *Detector {
	if scope == nil {
		scope = Global
	}
	return &Detector{scope: scope}
}

func (d *Detector) Detect(jobs []types.ScheduledJob) []types.ConflictPair {
	pairs, _ := d.DetectWithStats(jobs)
	return pairs
}

func (d *Detector) DetectWithStats(jobs []types.ScheduledJob) ([]types.ConflictPair, Stats) {
	sorted := make([]types.ScheduledJob, len(jobs))
	copy(sorted, jobs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	stats := Stats{Jobs: len(sorted)}
	pairs := make([]types.ConflictPair, 0)

	for i := range sorted {
		current := sorted[i]
		for j := i + 1; j < len(sorted); j++ {
			next := sorted[j]
			stats.Comparisons++
			if next.Start.After(current.End) {
				break
			}
			if d.scope(current, next) {
				pairs = append(pairs, types.ConflictPair{A: current.ID, B: next.ID})
			}
		}
	}

	stats.Conflicts = len(pairs)
	return pairs, stats
}

// Detect runs a global-scope detection.
func Detect(jobs []types.ScheduledJob) []types.ConflictPair {
	return NewDetector(Global).Detect(jobs)
}

// Index flags every job id that takes part in at least one conflict.
func Index(pairs []types.ConflictPair) map[string]bool {
	flagged := make(map[string]bool, len(pairs)*2)
	for _, p := range pairs {
		flagged[p.A] = true
		flagged[p.B] = true
	}
	return flagged
}
