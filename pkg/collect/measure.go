package collect

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"slices"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
)

// Transformation names understood by the collector.
const (
	TransformationRaw  = snapshot.RawTransformation
	TransformationGzip = "gzip"
	TransformationLZ4  = "lz4"
)

type measureFunc func(content []byte) (int64, error)

var measures = map[string]measureFunc{
	TransformationRaw:  measureRaw,
	TransformationGzip: measureGzip,
	TransformationLZ4:  measureLZ4,
}

// Transformations returns the supported transformation names, sorted.
func Transformations() []string {
	names := make([]string, 0, len(measures))
	for name := range measures {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// ValidateTransformations fails with ErrUnknownTransformation on the first
// name the collector cannot measure.
func ValidateTransformations(names []string) error {
	for _, name := range names {
		if _, ok := measures[name]; !ok {
			return fmt.Errorf("%w: %q (supported: %v)", ErrUnknownTransformation, name, Transformations())
		}
	}

	return nil
}

// Measure hashes content and computes the size of every transformation.
func Measure(content []byte, transformations []string) (snapshot.SizeRecord, error) {
	sum := sha256.Sum256(content)
	rec := snapshot.SizeRecord{Hash: hex.EncodeToString(sum[:]), SizeMap: make(map[string]int64, len(transformations))}

	for _, name := range transformations {
		measure, ok := measures[name]
		if !ok {
			return snapshot.SizeRecord{}, fmt.Errorf("%w: %q", ErrUnknownTransformation, name)
		}

		size, err := measure(content)
		if err != nil {
			return snapshot.SizeRecord{}, fmt.Errorf("measure %s: %w", name, err)
		}

		rec.SizeMap[name] = size
	}

	return rec, nil
}

// countingWriter discards bytes and counts them.
type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))

	return len(p), nil
}

func measureRaw(content []byte) (int64, error) {
	return int64(len(content)), nil
}

func measureGzip(content []byte) (int64, error) {
	var counter countingWriter

	zw, err := gzip.NewWriterLevel(&counter, gzip.BestCompression)
	if err != nil {
		return 0, err
	}

	return compressedSize(zw, &counter, content)
}

func measureLZ4(content []byte) (int64, error) {
	var counter countingWriter

	return compressedSize(lz4.NewWriter(&counter), &counter, content)
}

func compressedSize(zw io.WriteCloser, counter *countingWriter, content []byte) (int64, error) {
	_, writeErr := zw.Write(content)
	if writeErr != nil {
		return 0, writeErr
	}

	closeErr := zw.Close()
	if closeErr != nil {
		return 0, closeErr
	}

	return counter.n, nil
}
