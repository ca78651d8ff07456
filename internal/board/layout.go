package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/0xPuncker/production-timeline/internal/drag"
	"github.com/0xPuncker/production-timeline/pkg/conflict"
	"github.com/0xPuncker/production-timeline/pkg/timeaxis"
	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/0xPuncker/production-timeline/pkg/utils"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const tooltipOffset = 12.0

// Region is an interactive part of a job block.
type Region string

const (
	RegionBody        Region = "body"
	RegionStartHandle Region = "start-handle"
	RegionEndHandle   Region = "end-handle"
)

// Interactive maps a region of a block to the drag mode it starts.
type Interactive struct {
	Region Region    `json:"region"`
	Mode   drag.Mode `json:"mode"`
}

// Block is a job positioned on its lane. Left and Width are fractions of the
// track, clipped to the visible window.
type Block struct {
	Job          types.ScheduledJob `json:"job"`
	Left         float64            `json:"left"`
	Width        float64            `json:"width"`
	ClippedStart bool               `json:"clipped_start"`
	ClippedEnd   bool               `json:"clipped_end"`
	Conflict     bool               `json:"conflict"`
	Dragging     bool               `json:"dragging"`
	Regions      []Interactive      `json:"regions"`
}

type LaneLayout struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Blocks      []Block `json:"blocks"`
}

// Layout is a snapshot of the board ready to draw.
type Layout struct {
	Window    types.Window         `json:"window"`
	Lanes     []LaneLayout         `json:"lanes"`
	Conflicts []types.ConflictPair `json:"conflicts"`
	Dragging  string               `json:"dragging,omitempty"`
	HandlePx  float64              `json:"handle_px"`
	Today     *float64             `json:"today,omitempty"`
}

// Hit is the job and region under a pointer.
type Hit struct {
	JobID  string    `json:"job_id"`
	Region Region    `json:"region"`
	Mode   drag.Mode `json:"mode"`
}

// Tooltip describes the hover card for one job.
type Tooltip struct {
	JobID         string   `json:"job_id"`
	Product       string   `json:"product"`
	Lane          string   `json:"lane"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Duration      string   `json:"duration"`
	Status        string   `json:"status,omitempty"`
	Priority      string   `json:"priority,omitempty"`
	Progress      float64  `json:"progress"`
	ConflictsWith []string `json:"conflicts_with,omitempty"`
	CalendarURL   string   `json:"calendar_url,omitempty"`
	X             float64  `json:"x"`
	Y             float64  `json:"y"`
}

// Layout positions every job visible in the window.
func (b *Board) Layout() Layout {
	b.mu.Lock()
	window := b.window
	now := b.now()
	b.mu.Unlock()

	jobs := b.sched.Jobs()
	pairs, stats := b.detector.DetectWithStats(jobs)
	b.metrics.SetConflicts(len(pairs))
	flagged := conflict.Index(pairs)
	dragging, _ := b.Dragging()

	layout := Layout{
		Window:    window,
		Conflicts: pairs,
		Dragging:  dragging,
		HandlePx:  b.handlePx,
	}
	if window.Contains(now) {
		pos := timeaxis.ToPosition(now, window)
		layout.Today = &pos
	}

	for _, lane := range b.grouper.Group(jobs) {
		ll := LaneLayout{Name: lane.Name, DisplayName: lane.DisplayName, Blocks: []Block{}}
		for _, job := range lane.Jobs {
			block, visible := place(job, window, b.minDuration)
			if !visible {
				continue
			}
			block.Conflict = flagged[job.ID]
			block.Dragging = job.ID == dragging
			ll.Blocks = append(ll.Blocks, block)
		}
		layout.Lanes = append(layout.Lanes, ll)
	}

	b.logger.WithField("comparisons", stats.Comparisons).
		Tracef("Laid out %d jobs in %d lanes", len(jobs), len(layout.Lanes))
	return layout
}

// place maps job onto the track. Jobs shorter than minDuration are drawn
// minDuration wide; the job itself is left untouched.
func place(job types.ScheduledJob, window types.Window, minDuration time.Duration) (Block, bool) {
	displayEnd := job.End
	if floor := job.Start.Add(minDuration); displayEnd.Before(floor) {
		displayEnd = floor
	}

	start := timeaxis.ToPosition(job.Start, window)
	end := timeaxis.ToPosition(displayEnd, window)
	if end < 0 || start > 1 {
		return Block{}, false
	}

	left := timeaxis.Clip(start)
	block := Block{
		Job:          job,
		Left:         left,
		Width:        timeaxis.Clip(end) - left,
		ClippedStart: start < 0,
		ClippedEnd:   end > 1,
		Regions:      []Interactive{{Region: RegionBody, Mode: drag.ModeMove}},
	}
	if !block.ClippedStart {
		block.Regions = append(block.Regions, Interactive{Region: RegionStartHandle, Mode: drag.ModeResizeStart})
	}
	if !block.ClippedEnd {
		block.Regions = append(block.Regions, Interactive{Region: RegionEndHandle, Mode: drag.ModeResizeEnd})
	}
	return block, true
}

// HitTest resolves pointer position x on lane to a job and region. Later
// blocks are drawn on top and win. Within handle_px of an unclipped edge the
// pointer grabs that edge; the nearer edge wins on narrow blocks.
func (b *Board) HitTest(lane string, x, trackWidth float64) (Hit, bool) {
	if trackWidth <= 0 {
		return Hit{}, false
	}

	layout := b.Layout()
	for _, ll := range layout.Lanes {
		if ll.Name != lane {
			continue
		}
		for i := len(ll.Blocks) - 1; i >= 0; i-- {
			block := ll.Blocks[i]
			left := block.Left * trackWidth
			right := (block.Left + block.Width) * trackWidth
			if x < left || x > right {
				continue
			}

			hit := Hit{JobID: block.Job.ID, Region: RegionBody, Mode: drag.ModeMove}
			fromLeft, fromRight := x-left, right-x
			nearStart := !block.ClippedStart && fromLeft <= layout.HandlePx
			nearEnd := !block.ClippedEnd && fromRight <= layout.HandlePx

			switch {
			case nearStart && (!nearEnd || fromLeft <= fromRight):
				hit.Region, hit.Mode = RegionStartHandle, drag.ModeResizeStart
			case nearEnd:
				hit.Region, hit.Mode = RegionEndHandle, drag.ModeResizeEnd
			}
			return hit, true
		}
	}
	return Hit{}, false
}

// Hover builds the tooltip for jobID with the pointer at (x, y).
func (b *Board) Hover(jobID string, x, y float64) (Tooltip, error) {
	job, ok := b.sched.Job(jobID)
	if !ok {
		return Tooltip{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	tip := Tooltip{
		JobID:    job.ID,
		Product:  job.Product,
		Lane:     b.grouper.DisplayName(job.Lane),
		Start:    job.Start.Format("2006-01-02 15:04"),
		End:      job.End.Format("2006-01-02 15:04"),
		Duration: utils.FormatDuration(job.Duration()),
		Priority: job.Priority,
		Progress: job.Progress,
		X:        x + tooltipOffset,
		Y:        y + tooltipOffset,
	}
	if tip.Product == "" {
		tip.Product = job.ID
	}
	if job.Status != "" {
		tip.Status = cases.Title(language.English).String(strings.ReplaceAll(job.Status, "_", " "))
	}

	for _, p := range b.Conflicts() {
		switch jobID {
		case p.A:
			tip.ConflictsWith = append(tip.ConflictsWith, p.B)
		case p.B:
			tip.ConflictsWith = append(tip.ConflictsWith, p.A)
		}
	}

	if link, err := b.calendar.CreateJobEvent(job); err == nil {
		tip.CalendarURL = link
	} else {
		b.logger.WithField("job_id", jobID).Debugf("No calendar link: %v", err)
	}
	return tip, nil
}

func dayTicks(window types.Window) []time.Time {
	step := 1
	if days := int(window.Span().Hours() / 24); days > 62 {
		step = 7
	}

	y, m, d := window.From.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, window.From.Location())
	if t.Before(window.From) {
		t = t.AddDate(0, 0, 1)
	}

	var ticks []time.Time
	for ; !t.After(window.To); t = t.AddDate(0, 0, step) {
		ticks = append(ticks, t)
	}
	return ticks
}
