package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"secscan/internal/model"
)

// VerdictWatcher notifies when a file's verdict flips between clean and
// issues found. The first observation only notifies when issues are present.
type VerdictWatcher struct {
	notifier Notifier

	mu    sync.Mutex
	clean map[string]bool
}

func NewVerdictWatcher(n Notifier) *VerdictWatcher {
	return &VerdictWatcher{notifier: n, clean: make(map[string]bool)}
}

// Observe records res and sends a notification if its verdict changed.
// It reports whether a notification was sent.
func (w *VerdictWatcher) Observe(ctx context.Context, res model.ScanResult) (bool, error) {
	clean := res.Clean()

	w.mu.Lock()
	prev, seen := w.clean[res.FilePath]
	w.clean[res.FilePath] = clean
	w.mu.Unlock()

	if seen && prev == clean {
		return false, nil
	}
	if !seen && clean {
		return false, nil
	}
	if err := w.notifier.Notify(ctx, Message(res)); err != nil {
		return false, err
	}
	return true, nil
}

// Message is the one-line notification text for res.
func Message(res model.ScanResult) string {
	name := filepath.Base(res.FilePath)
	if res.Clean() {
		return fmt.Sprintf(":white_check_mark: %s: No security issues found.", name)
	}
	var parts []string
	for _, sev := range model.Severities() {
		if n := res.Summary.Get(sev); n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", sev, n))
		}
	}
	return fmt.Sprintf(":warning: %s: Security issues found (%s).", name, strings.Join(parts, ", "))
}
