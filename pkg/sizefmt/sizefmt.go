// Package sizefmt formats byte counts and signed size deltas for reports.
package sizefmt

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// ErrInvalidSize is returned when a human-readable size cannot be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// Options controls how a byte count is rendered.
type Options struct {
	// Diff renders the value as a signed delta: "+1.2 kB", "-300 B".
	Diff bool
}

// Format renders bytes with SI units. Negative values always keep their sign;
// with Options.Diff positive values get a leading "+".
func Format(bytes int64, opts Options) string {
	magnitude := humanize.Bytes(abs(bytes))

	switch {
	case bytes < 0:
		return "-" + magnitude
	case bytes > 0 && opts.Diff:
		return "+" + magnitude
	default:
		return magnitude
	}
}

// ParseSize parses a human-readable size such as "10kB", "1.5 MiB" or "-2KB".
// An empty string parses as zero.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}

	negative := strings.HasPrefix(trimmed, "-")
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "-"), "+")

	parsed, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, value)
	}

	if parsed > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, value)
	}

	size := int64(parsed)
	if negative {
		size = -size
	}

	return size, nil
}

func abs(n int64) uint64 {
	if n < 0 {
		return uint64(-n)
	}

	return uint64(n)
}
