// Package lanes partitions scheduled jobs into parallel tracks by work center.
package lanes

import (
	"github.com/0xPuncker/production-timeline/pkg/types"
)

// Lane is one horizontal track of the timeline.
type Lane struct {
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name"`
	Jobs        []types.ScheduledJob `json:"jobs"`
}

// Grouper assigns jobs to lanes. Configured lanes come first, in their
// configured order, and are kept even when no job runs on them.
type Grouper struct {
	order        []string
	displayNames map[string]string
}

type Option func(*Grouper)

// WithLaneOrder pins the given lanes to the top of the board.
func WithLaneOrder(names ...string) Option {
	return func(g *Grouper) {
		g.order = append(g.order, names...)
	}
}

// WithDisplayName sets the label shown for a lane.
func WithDisplayName(name, display string) Option {
	return func(g *Grouper) {
		g.displayNames[name] = display
	}
}

func NewGrouper(opts ...Option) *Grouper {
	g := &Grouper{displayNames: make(map[string]string)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Group partitions jobs by lane, preserving input order within each lane.
func (g *Grouper) Group(jobs []types.ScheduledJob) []Lane {
	var (
		result []Lane
		index  = make(map[string]int)
	)

	add := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		result = append(result, Lane{Name: name, DisplayName: g.DisplayName(name), Jobs: []types.ScheduledJob{}})
		index[name] = len(result) - 1
		return len(result) - 1
	}

	for _, name := range g.order {
		add(name)
	}

	for _, job := range jobs {
		i := add(Key(job))
		result[i].Jobs = append(result[i].Jobs, job)
	}

	return result
}

// DisplayName returns the configured label for a lane, or its name.
func (g *Grouper) DisplayName(name string) string {
	if display := g.displayNames[name]; display != "" {
		return display
	}
	return name
}

// Group partitions jobs with no configured lane order.
func Group(jobs []types.ScheduledJob) []Lane {
	return NewGrouper().Group(jobs)
}

// Key returns the lane a job belongs to.
func Key(job types.ScheduledJob) string {
	if job.Lane == "" {
		return types.DefaultLane
	}
	return job.Lane
}
