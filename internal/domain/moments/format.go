package moments

import (
	"fmt"
	"strings"

	"github.com/forPelevin/viralscan/internal/types"
)

// FormatTranscript renders segments as "[12.3s] text" lines for the prompt.
// Segments without a start time or with blank text are skipped.
func FormatTranscript(segs []types.Segment) string {
	lines := make([]string, 0, len(segs))
	for _, s := range segs {
		if !s.HasStart() {
			continue
		}
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%.1fs] %s", s.Start, text))
	}
	return strings.Join(lines, "\n")
}
