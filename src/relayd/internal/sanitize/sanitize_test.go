package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text unchanged",
			in:   "hello world",
			want: "hello world",
		},
		{
			name: "ansi color codes stripped",
			in:   "\x1b[31mred\x1b[0m and \x1b[1;32mbold green\x1b[0m",
			want: "red and bold green",
		},
		{
			name: "cursor movement stripped",
			in:   "\x1b[2K\x1b[1Gdone",
			want: "done",
		},
		{
			name: "carriage returns removed",
			in:   "progress 10%\rprogress 50%\rdone\n",
			want: "progress 10%progress 50%done",
		},
		{
			name: "spinner only lines dropped",
			in:   "⠋ thinking\n⠙\n✶\nresult\n",
			want: "⠋ thinking\nresult",
		},
		{
			name: "single character ascii spinner dropped",
			in:   "/\n-\nanswer",
			want: "answer",
		},
		{
			name: "markdown rules survive",
			in:   "above\n---\nbelow\n***\nend",
			want: "above\n---\nbelow\n***\nend",
		},
		{
			name: "table rows survive",
			in:   "| a | b |\n| - | - |",
			want: "| a | b |\n| - | - |",
		},
		{
			name: "short blank runs kept",
			in:   "a\n\n\nb",
			want: "a\n\n\nb",
		},
		{
			name: "long blank runs collapsed to one",
			in:   "a\n\n\n\n\n\nb",
			want: "a\n\nb",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "\n\n  answer  \n\n",
			want: "answer",
		},
		{
			name: "combined",
			in:   "\x1b[?25l⠸\r\n⠼\n\n\n\n\nThe fix is in \x1b[1mmain.go\x1b[0m.\n\x1b[?25h",
			want: "The fix is in main.go.",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Output(tt.in))
		})
	}
}

func TestIsSpinnerLine(t *testing.T) {
	assert.True(t, isSpinnerLine("⠋"))
	assert.True(t, isSpinnerLine("  ✻ ✽  "))
	assert.True(t, isSpinnerLine("|"))
	assert.True(t, isSpinnerLine("  - "))
	assert.False(t, isSpinnerLine(""))
	assert.False(t, isSpinnerLine("   "))
	assert.False(t, isSpinnerLine("⠋ loading"))
	assert.False(t, isSpinnerLine("a-b"))
	assert.False(t, isSpinnerLine("---"))
	assert.False(t, isSpinnerLine("***"))
	assert.False(t, isSpinnerLine("| / - \\"))
}
