package display

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/claude-token-tray/internal/models"
	"github.com/j-veylop/claude-token-tray/internal/usage"
)

// NotifyFunc shows a desktop notification.
type NotifyFunc func(title, message string) error

func beeepNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Notifier raises a desktop notification when the monthly total crosses a
// threshold. It fires at most once per month and never for the first
// summary it sees.
type Notifier struct {
	mu        sync.Mutex
	threshold uint64
	notify    NotifyFunc

	seen       bool
	lastMonth  string
	lastTokens uint64
	firedFor   string
}

// NewNotifier creates a Notifier. A zero threshold disables it.
func NewNotifier(threshold uint64) *Notifier {
	return &Notifier{threshold: threshold, notify: beeepNotify}
}

// WithNotifyFunc replaces the notification backend.
func (n *Notifier) WithNotifyFunc(fn NotifyFunc) *Notifier {
	n.notify = fn
	return n
}

// Enabled reports whether a threshold is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.threshold > 0
}

// Observe records summary and notifies if the threshold was crossed since
// the previous observation. It reports whether a notification was sent.
func (n *Notifier) Observe(summary models.MonthSummary) bool {
	if !n.Enabled() {
		return false
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	prevTokens := n.lastTokens
	if summary.Month != n.lastMonth {
		prevTokens = 0
	}
	first := !n.seen

	n.seen = true
	n.lastMonth = summary.Month
	n.lastTokens = summary.Tokens

	if first || n.firedFor == summary.Month {
		if first && summary.Tokens >= n.threshold {
			n.firedFor = summary.Month
		}
		return false
	}
	if prevTokens >= n.threshold || summary.Tokens < n.threshold {
		return false
	}

	n.firedFor = summary.Month
	title := fmt.Sprintf("Token usage: %s", summary.Title)
	body := fmt.Sprintf("Usage for %s passed %s tokens", summary.Month, usage.FormatMagnitude(n.threshold))
	_ = n.notify(title, body)
	return true
}
