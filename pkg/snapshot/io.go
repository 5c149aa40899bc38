package snapshot

import (
	"context"
	"fmt"
)

// Source provides the bytes of a stored snapshot.
type Source interface {
	Read(ctx context.Context) ([]byte, error)
}

// Sink persists the bytes of a snapshot.
type Sink interface {
	Write(ctx context.Context, data []byte) error
}

// Load reads and decodes a snapshot from src.
func Load(ctx context.Context, src Source, format Format) (Snapshot, error) {
	data, err := src.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	snap, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return snap, nil
}

// Save encodes s and writes it to dst.
func Save(ctx context.Context, dst Sink, s Snapshot, format Format) error {
	data, err := Encode(s, format)
	if err != nil {
		return err
	}

	err = dst.Write(ctx, data)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return nil
}
