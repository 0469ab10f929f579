package export

import (
	"fmt"
	"strings"

	"github.com/wayline-labs/tripweaver/internal/trip"
)

// GenerateMermaid produces a Mermaid gantt chart from an itinerary: one
// section per day, one bar per slot.
func GenerateMermaid(it *trip.Itinerary) string {
	var sb strings.Builder
	sb.WriteString("gantt\n")
	fmt.Fprintf(&sb, "  title %s\n", sanitize(it.Destination))
	sb.WriteString("  dateFormat HH:mm\n")
	sb.WriteString("  axisFormat %H:%M\n")

	for _, day := range it.Days {
		fmt.Fprintf(&sb, "  section Day %d (%s)\n", day.Day+1, day.Date.Format("Jan 2"))
		for _, s := range day.Slots {
			fmt.Fprintf(&sb, "    %s (%s) :%s, %s\n",
				sanitize(s.Name), s.Category, s.Window.Start, s.Window.End)
		}
	}

	return sb.String()
}

// sanitize strips characters that break Mermaid labels.
func sanitize(s string) string {
	return strings.NewReplacer(":", " ", "#", "", ";", ",").Replace(s)
}
