package sanitize

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// Glyphs emitted by terminal progress spinners. A line whose visible content
// consists solely of these (plus whitespace) carries no information once the
// output is re-rendered as a chat message.
const _spinnerGlyphs = "⠁⠂⠄⡀⢀⠠⠐⠈⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏·✢✳✶✻✽"

// ASCII spinner frames. These overlap with markdown (---, ***, | table rows),
// so they only count as spinner output when the line is a single character.
const _asciiSpinners = "*-\\|/"

// Output normalizes captured assistant stdout into chat-safe text, in order:
// strip ANSI escape sequences, drop carriage returns, drop spinner-only
// lines, collapse runs of 3+ blank lines to a single blank line, and trim
// surrounding whitespace.
func Output(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r", "")

	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if isSpinnerLine(line) {
			continue
		}
		kept = append(kept, line)
	}

	kept = collapseBlankRuns(kept)
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// isSpinnerLine reports whether the line's visible content is made up
// entirely of progress-indicator glyphs.
func isSpinnerLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if utf8.RuneCountInString(trimmed) == 1 {
		r, _ := utf8.DecodeRuneInString(trimmed)
		if strings.ContainsRune(_asciiSpinners, r) {
			return true
		}
	}
	for _, r := range trimmed {
		if !strings.ContainsRune(_spinnerGlyphs, r) && r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}

// collapseBlankRuns replaces every run of 3 or more consecutive blank lines
// with exactly one blank line. Shorter runs are left alone.
func collapseBlankRuns(lines []string) []string {
	out := make([]string, 0, len(lines))
	blanks := 0
	flush := func() {
		if blanks >= 3 {
			out = append(out, "")
		} else {
			for i := 0; i < blanks; i++ {
				out = append(out, "")
			}
		}
		blanks = 0
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blanks++
			continue
		}
		flush()
		out = append(out, line)
	}
	flush()
	return out
}
