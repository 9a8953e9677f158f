// Package report aggregates per-space outcomes into the human-readable
// Markdown document published at the end of every run. The report is a
// point-in-time snapshot: publishing overwrites the previous report
// wholesale.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/gifttotost1449/huggingface-sync/pkg/sync"
)

// An AccountSummary aggregates the outcomes for all spaces under one
// account. Tokens never appear here -- only the resolved username and the
// mirror folder.
type AccountSummary struct {
	// Username is the resolved account name, or the configured one when
	// resolution failed.
	Username string

	// Folder is the directory under the root the account syncs into.
	Folder string

	// Err is the account-level error (username resolution or enumeration
	// failure), or empty.
	Err string

	// Outcomes are the per-space results, in enumeration order.
	Outcomes []sync.Outcome
}

// CountByStatus returns how many of the account's spaces finished with the
// given status.
func (s AccountSummary) CountByStatus(status sync.Status) int {
	count := 0
	for _, outcome := range s.Outcomes {
		if outcome.Status == status {
			count++
		}
	}
	return count
}

// BytesWritten returns the total bytes downloaded for the account.
func (s AccountSummary) BytesWritten() int64 {
	var total int64
	for _, outcome := range s.Outcomes {
		total += outcome.BytesWritten
	}
	return total
}

// Elapsed returns the total wall time spent syncing the account's spaces.
func (s AccountSummary) Elapsed() time.Duration {
	var total time.Duration
	for _, outcome := range s.Outcomes {
		total += outcome.Duration
	}
	return total
}

// A Report is the full output of one run.
type Report struct {
	GeneratedAt time.Time
	Root        string

	// Accounts are in configuration order, and their outcomes in
	// enumeration order, so that report diffs between runs stay minimal.
	Accounts []AccountSummary
}

// Failed returns whether the run had any item- or account-level failure.
func (r Report) Failed() bool {
	for _, account := range r.Accounts {
		if account.Err != "" || account.CountByStatus(sync.StatusFailed) > 0 {
			return true
		}
	}
	return false
}

func (r Report) countByStatus(status sync.Status) int {
	count := 0
	for _, account := range r.Accounts {
		count += account.CountByStatus(status)
	}
	return count
}

func (r Report) totalSpaces() int {
	count := 0
	for _, account := range r.Accounts {
		count += len(account.Outcomes)
	}
	return count
}

// Render produces the Markdown document.
func (r Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Sync Report\n\n")
	fmt.Fprintf(&b, "- Generated at: %s\n",
		r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Root directory: `%s`\n", r.Root)
	fmt.Fprintf(&b, "- Accounts: %d | Spaces: %d | Unchanged: %d | Updated: %d | Added: %d | Failed: %d\n",
		len(r.Accounts), r.totalSpaces(),
		r.countByStatus(sync.StatusUnchanged),
		r.countByStatus(sync.StatusUpdated),
		r.countByStatus(sync.StatusAdded),
		r.countByStatus(sync.StatusFailed))

	for _, account := range r.Accounts {
		b.WriteString("\n")
		renderAccount(&b, account)
	}
	return b.String()
}

func renderAccount(b *strings.Builder, account AccountSummary) {
	fmt.Fprintf(b, "## %s\n\n", account.Username)
	fmt.Fprintf(b, "- Folder: `%s`\n", account.Folder)
	fmt.Fprintf(b, "- Spaces: %d | Unchanged: %d | Updated: %d | Added: %d | Failed: %d | Size: %s | Elapsed: %s\n",
		len(account.Outcomes),
		account.CountByStatus(sync.StatusUnchanged),
		account.CountByStatus(sync.StatusUpdated),
		account.CountByStatus(sync.StatusAdded),
		account.CountByStatus(sync.StatusFailed),
		formatBytes(account.BytesWritten()),
		formatDuration(account.Elapsed()))
	if account.Err != "" {
		fmt.Fprintf(b, "- Error: %s\n", NormalizeError(account.Err))
	}

	if len(account.Outcomes) == 0 {
		b.WriteString("\nNo spaces.\n")
		return
	}

	b.WriteString("\n| Space | Status | Files | Size | Duration | Synced At | Error |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
	for _, outcome := range account.Outcomes {
		errText := "-"
		if outcome.Err != "" {
			errText = NormalizeError(outcome.Err)
		}

		fmt.Fprintf(b, "| %s | %s | %d | %s | %s | %s | %s |\n",
			outcome.Space.ID(),
			outcome.Status,
			outcome.FilesChanged,
			formatBytes(outcome.BytesWritten),
			formatDuration(outcome.Duration),
			outcome.FinishedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
			errText)
	}
}

const maxErrorLength = 160

// NormalizeError collapses an error message onto one line and truncates it
// so a single bad response can't blow up the report table. Truncation is by
// rune so a multi-byte character is never split.
func NormalizeError(message string) string {
	text := strings.Join(strings.Fields(message), " ")
	if runes := []rune(text); len(runes) > maxErrorLength {
		return string(runes[:maxErrorLength-3]) + "..."
	}
	return text
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	return d.Round(10 * time.Millisecond).String()
}
