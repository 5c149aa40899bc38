package sizefmt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/sizefmt"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bytes    int64
		opts     sizefmt.Options
		expected string
	}{
		{"zero", 0, sizefmt.Options{}, "0 B"},
		{"zero diff has no sign", 0, sizefmt.Options{Diff: true}, "0 B"},
		{"small", 10, sizefmt.Options{}, "10 B"},
		{"kilobytes", 1200, sizefmt.Options{}, "1.2 kB"},
		{"megabytes", 1_500_000, sizefmt.Options{}, "1.5 MB"},
		{"positive diff", 1200, sizefmt.Options{Diff: true}, "+1.2 kB"},
		{"negative diff", -300, sizefmt.Options{Diff: true}, "-300 B"},
		{"negative without diff keeps sign", -12_000, sizefmt.Options{}, "-12 kB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, sizefmt.Format(tt.bytes, tt.opts))
		})
	}
}

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"0", 0},
		{"10kB", 10_000},
		{"1 KiB", 1024},
		{"+2KB", 2000},
		{"-500", -500},
		{" 1MB ", 1_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := sizefmt.ParseSize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseSize_Invalid(t *testing.T) {
	t.Parallel()

	_, err := sizefmt.ParseSize("lots")
	require.ErrorIs(t, err, sizefmt.ErrInvalidSize)
}
