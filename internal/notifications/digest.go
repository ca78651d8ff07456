package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxDigestConflicts caps the conflict lines in one Slack message.
const maxDigestConflicts = 10

// ScheduleDigest summarizes the board for periodic reports.
type ScheduleDigest struct {
	Window    types.Window
	Jobs      int
	Lanes     []string
	Conflicts []types.ConflictPair
	Scope     string
}

func FormatDigest(d ScheduleDigest) *SlackMessage {
	color := "#36a64f"
	title := "📅 Production schedule: no conflicts"
	if len(d.Conflicts) > 0 {
		color = "#ff0000"
		title = fmt.Sprintf("⚠️ Production schedule: %d conflicting pair(s)", len(d.Conflicts))
	}

	titleCase := cases.Title(language.English)
	laneNames := make([]string, 0, len(d.Lanes))
	for _, lane := range d.Lanes {
		laneNames = append(laneNames, titleCase.String(lane))
	}

	fields := []Field{
		{
			Title: "Window",
			Value: fmt.Sprintf("%s → %s", d.Window.From.Format("2006-01-02"), d.Window.To.Format("2006-01-02")),
			Short: true,
		},
		{
			Title: "Jobs",
			Value: fmt.Sprintf("%d", d.Jobs),
			Short: true,
		},
		{
			Title: "Conflict scope",
			Value: d.Scope,
			Short: true,
		},
	}

	if len(laneNames) > 0 {
		fields = append(fields, Field{
			Title: "Lanes",
			Value: strings.Join(laneNames, ", "),
			Short: false,
		})
	}

	if len(d.Conflicts) > 0 {
		var lines []string
		for i, pair := range d.Conflicts {
			if i == maxDigestConflicts {
				lines = append(lines, fmt.Sprintf("… and %d more", len(d.Conflicts)-maxDigestConflicts))
				break
			}
			lines = append(lines, fmt.Sprintf("%s ↔ %s", pair.A, pair.B))
		}
		fields = append(fields, Field{
			Title: "Conflicts",
			Value: strings.Join(lines, "\n"),
			Short: false,
		})
	}

	return &SlackMessage{
		Text: title,
		Attachments: []Attachment{
			{
				Color:  color,
				Fields: fields,
				Footer: fmt.Sprintf("Generated %s", time.Now().Format("Mon, 02 Jan 2006 15:04:05 MST")),
				Ts:     time.Now().Unix(),
			},
		},
	}
}

// SendDigest posts a schedule digest to Slack.
func (s *SlackService) SendDigest(d ScheduleDigest) error {
	return s.SendSlackMessage(FormatDigest(d))
}
