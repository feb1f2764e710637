package gchat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lwai/timeback-onboarding/internal/usecase"
)

// Chat messages list at most this many per-lead detail lines.
const maxDetailLines = 10

// Notifier formats run lifecycle events for the stakeholder chat space.
type Notifier struct {
	Client *Client
	Now    func() time.Time
}

func NewNotifier(client *Client) *Notifier {
	return &Notifier{Client: client, Now: time.Now}
}

func (n *Notifier) NotifyStart(ctx context.Context, totalLeads int) error {
	text := fmt.Sprintf("🤖 *Account Creation Automation - Started*\n📅 %s\n\nProcessing %d lead(s)...",
		n.Now().Format("2006-01-02 15:04:05"), totalLeads)
	return n.Client.send(ctx, text, "")
}

func (n *Notifier) NotifyComplete(ctx context.Context, s usecase.Summary, results []usecase.LeadResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "🤖 *Account Creation Automation - Summary*\n📅 *Completed:* %s\n\n",
		n.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "📊 *Overall Results:*\n")
	fmt.Fprintf(&b, "• Total Leads: %d\n", s.TotalLeads)
	fmt.Fprintf(&b, "• Eligible: %d\n", s.Eligible)
	fmt.Fprintf(&b, "• ✅ Accounts Created: %d\n", s.AccountsCreated)
	fmt.Fprintf(&b, "• ❌ Accounts Failed: %d\n", s.AccountsFailed)
	fmt.Fprintf(&b, "• 📈 Success Rate: %.1f%%\n", s.SuccessRate())
	fmt.Fprintf(&b, "• ⏱️ Execution Time: %s", s.FinishedAt.Sub(s.StartedAt).Round(time.Second))

	var successes, failures []string
	for _, r := range results {
		if r.AccountCreated() {
			successes = append(successes, fmt.Sprintf("• %s → %s", r.Lead.Email, r.Plan.AppName))
			continue
		}
		for _, o := range r.Outcomes {
			if o.Operation == usecase.OpAccountCreation && o.Status == usecase.StatusFailure {
				failures = append(failures, fmt.Sprintf("• %s: %s", r.Lead.Email, o.Detail))
			}
		}
	}

	appendDetail(&b, fmt.Sprintf("\n\n✅ *Successful Accounts (%d):*", len(successes)), successes)
	appendDetail(&b, fmt.Sprintf("\n\n❌ *Failed Accounts (%d):*", len(failures)), failures)

	return n.Client.send(ctx, b.String(), "")
}

func (n *Notifier) NotifyError(ctx context.Context, message string) error {
	text := fmt.Sprintf("🚨 *Account Creation Automation - Error*\n📅 %s\n\n%s",
		n.Now().Format("2006-01-02 15:04:05"), message)
	return n.Client.send(ctx, text, "")
}

func appendDetail(b *strings.Builder, header string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(header)
	for i, line := range lines {
		if i == maxDetailLines {
			fmt.Fprintf(b, "\n• ... and %d more", len(lines)-maxDetailLines)
			break
		}
		b.WriteString("\n" + line)
	}
}
