// Package console renders the human-facing output of the CLI commands.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Width is the width of banners and rules.
const Width = 80

// BarWidth is the width of the ingestion progress bar.
const BarWidth = 40

// Console writes styled text to a writer. Styles degrade to plain text when
// the writer is not a terminal.
type Console struct {
	w io.Writer

	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

// New creates a console writing to w.
func New(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:       w,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		success: r.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8")),
	}
}

// Writer returns the underlying writer.
func (c *Console) Writer() io.Writer {
	return c.w
}

// Printf writes formatted text without styling.
func (c *Console) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.w, format, args...)
}

// Println writes its arguments followed by a newline.
func (c *Console) Println(args ...any) {
	_, _ = fmt.Fprintln(c.w, args...)
}

// Rule prints a full-width line of "=".
func (c *Console) Rule() {
	c.Println(strings.Repeat("=", Width))
}

// Banner prints title framed by rules, preceded by a blank line.
func (c *Console) Banner(title string) {
	c.Println()
	c.Rule()
	c.Println(c.title.Render(title))
	c.Rule()
}

// Heading prints title framed by thin rules, preceded by a blank line.
func (c *Console) Heading(title string) {
	thin := strings.Repeat("-", Width)
	c.Println()
	c.Println(thin)
	c.Println(c.title.Render(title))
	c.Println(thin)
}

// Muted prints a de-emphasized line.
func (c *Console) Muted(format string, args ...any) {
	c.Println(c.muted.Render(fmt.Sprintf(format, args...)))
}

// Success prints a line prefixed with a check mark.
func (c *Console) Success(format string, args ...any) {
	c.Println(c.success.Render("✓ " + fmt.Sprintf(format, args...)))
}

// Pending prints a line prefixed with an hourglass.
func (c *Console) Pending(format string, args ...any) {
	c.Println(c.warning.Render("⏳ " + fmt.Sprintf(format, args...)))
}

// Failure prints a line prefixed with a cross.
func (c *Console) Failure(format string, args ...any) {
	c.Println(c.failure.Render("✗ " + fmt.Sprintf(format, args...)))
}

// Error prints "ERROR: <err>".
func (c *Console) Error(err error) {
	c.Println(c.failure.Render("ERROR: " + err.Error()))
}

// StageProgress maps an ingestion stage to a percentage. Unknown stages are 0.
func StageProgress(status string) int {
	switch status {
	case "training":
		return 50
	case "complete":
		return 100
	default:
		return 0
	}
}

// ProgressLine renders the ingestion status as a bar, e.g.
// "[████████████████████░░░░░░░░░░░░░░░░░░░░] 50% - TRAINING".
func ProgressLine(status string, documents int) string {
	pct := StageProgress(status)
	bar := progress.New(
		progress.WithWidth(BarWidth),
		progress.WithoutPercentage(),
		progress.WithFillCharacters('█', '░'),
		progress.WithSolidFill("#7C3AED"),
	).ViewAs(float64(pct) / 100)

	if status == "complete" && documents > 0 {
		return fmt.Sprintf("[%s] %d%% - Complete (%d documents indexed)", bar, pct, documents)
	}
	return fmt.Sprintf("[%s] %d%% - %s", bar, pct, strings.ToUpper(status))
}
