// Package slack posts generated pulse reports to a configured channel.
package slack

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"pulsebot/internal/domain"
)

// PostPulse sends the pulse document to the channel, preceded by a one-line
// headline summarizing the run.
func PostPulse(api *slack.Client, channelID, markdown string, summary domain.PeriodSummary) error {
	if api == nil || channelID == "" {
		return nil
	}
	headline := fmt.Sprintf("Weekly pulse ready: %d reviews analyzed, %d with issues.", summary.TotalItems, summary.IssueItems)
	if len(summary.ThemeStats) > 0 {
		headline += fmt.Sprintf(" Top issue: %s (%d mentions).", summary.ThemeStats[0].Name, summary.ThemeStats[0].Count)
	}
	text := headline + "\n\n" + mrkdwn(markdown)
	_, _, err := api.PostMessage(channelID, slack.MsgOptionText(text, false))
	return err
}

// mrkdwn converts the Markdown pulse into Slack's mrkdwn dialect: headings
// become bold lines, ** bold becomes *, rules are dropped.
func mrkdwn(markdown string) string {
	var out []string
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			out = append(out, "*"+strings.TrimSpace(strings.TrimLeft(trimmed, "# "))+"*")
		case trimmed == "---":
			// skip
		default:
			out = append(out, strings.ReplaceAll(line, "**", "*"))
		}
	}
	return strings.Join(out, "\n")
}
