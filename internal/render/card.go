package render

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/naka-gawa/nestbox/internal/domain"
)

var (
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Reverse(true).Align(lipgloss.Center)
	statsStyle  = lipgloss.NewStyle().MarginTop(1)
	commitStyle = lipgloss.NewStyle().Faint(true)
)

// Card renders the same blocks as Layout as text for a terminal of the given width.
func Card(repo domain.RepoSummary, now time.Time, width, maxLines int) string {
	c := NewContents(repo, now)
	inner := width - cardStyle.GetHorizontalFrameSize()
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	stats := fmt.Sprintf("issues %s   prs %s   stars %s", c.IssueCount, c.PullRequestCount, c.StarCount)
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Width(inner).Render(c.Title),
		statsStyle.Width(inner).Render(stats),
		commitStyle.Width(inner).Render(c.LastCommit),
		lipgloss.NewStyle().Width(inner).MaxHeight(maxLines).Render(c.Message),
	)
	return cardStyle.Render(body)
}
