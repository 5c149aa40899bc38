package commands

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/config"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/report"
)

var errDiskFull = errors.New("disk full")

type failingCloser struct {
	bytes.Buffer

	closeErr error
	closed   bool
}

func (f *failingCloser) Close() error {
	f.closed = true

	return f.closeErr
}

func TestReportWrite_CloseError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		closeErr error
	}{
		{name: "close fails", closeErr: errDiskFull},
		{name: "close succeeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			file := &failingCloser{closeErr: tt.closeErr}

			rc := &reportCommand{
				output: "report.md",
				create: func(string) (io.WriteCloser, error) { return file, nil },
			}

			doc := report.Document{
				Transformations: report.DefaultTransformations(),
				Groups:          []report.GroupImpact{{Name: "dist"}},
			}

			err := rc.write(&bytes.Buffer{}, doc, config.FormatMarkdown)

			assert.True(t, file.closed)
			assert.Contains(t, file.String(), "#### dist")

			if tt.closeErr != nil {
				require.ErrorIs(t, err, tt.closeErr)

				return
			}

			require.NoError(t, err)
		})
	}
}
