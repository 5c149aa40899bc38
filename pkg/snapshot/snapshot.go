// Package snapshot defines file size snapshots and their JSON/YAML encodings.
//
// A snapshot maps a group name (a logical output area such as "dist") to the
// group's manifest, tracking policy and per-file size report. Size records are
// normalized at ingestion: a scalar "size" becomes SizeMap{"raw": size}.
package snapshot

import (
	"errors"
	"maps"
	"slices"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/track"
)

// RawTransformation is the transformation name a scalar size is stored under.
const RawTransformation = "raw"

// ErrMalformed is returned when a snapshot does not have the expected shape.
var ErrMalformed = errors.New("malformed snapshot")

// Snapshot maps group names to group snapshots.
type Snapshot map[string]GroupSnapshot

// GroupSnapshot is the state of one group at one point in time.
type GroupSnapshot struct {
	// Manifest maps a rename-stable identity to the output path on disk.
	Manifest map[string]string `json:"manifest,omitempty" yaml:"manifest,omitempty"`

	// TrackingConfig is nil when the snapshot declares no policy.
	TrackingConfig *track.Config `json:"trackingConfig,omitempty" yaml:"trackingConfig,omitempty"`

	// Report maps output paths to their size records.
	Report map[string]SizeRecord `json:"report" yaml:"report"`
}

// Groups returns the group names in lexicographic order.
func (s Snapshot) Groups() []string {
	return slices.Sorted(maps.Keys(s))
}

// SizeRecord holds the content hash and the named sizes of one file.
type SizeRecord struct {
	Hash    string
	SizeMap map[string]int64
}

// NewSizeRecord builds a single-metric record stored under RawTransformation.
func NewSizeRecord(size int64, hash string) SizeRecord {
	return SizeRecord{Hash: hash, SizeMap: map[string]int64{RawTransformation: size}}
}

// Size returns the size stored for transformation.
func (r SizeRecord) Size(transformation string) (int64, bool) {
	size, ok := r.SizeMap[transformation]

	return size, ok
}

// WireRecord is the serialized form of a SizeRecord.
type WireRecord struct {
	Hash    string           `json:"hash"              yaml:"hash"`
	Size    *int64           `json:"size,omitempty"    yaml:"size,omitempty"`
	SizeMap map[string]int64 `json:"sizeMap,omitzero" yaml:"sizeMap,omitempty"`
}

// Wire returns the serialized form: "size" when the record only holds a raw
// size, "sizeMap" otherwise. A record without sizes gets an empty "sizeMap".
func (r SizeRecord) Wire() WireRecord {
	if raw, ok := r.SizeMap[RawTransformation]; ok && len(r.SizeMap) == 1 {
		return WireRecord{Hash: r.Hash, Size: &raw}
	}

	if r.SizeMap == nil {
		return WireRecord{Hash: r.Hash, SizeMap: map[string]int64{}}
	}

	return WireRecord{Hash: r.Hash, SizeMap: r.SizeMap}
}

// Record converts the wire form back into a normalized SizeRecord.
func (w WireRecord) Record() (SizeRecord, error) {
	switch {
	case w.SizeMap != nil:
		for name, size := range w.SizeMap {
			if size < 0 {
				return SizeRecord{}, &FieldError{Field: "sizeMap." + name, Reason: "must not be negative"}
			}
		}

		sizeMap := maps.Clone(w.SizeMap)
		if w.Size != nil {
			if _, ok := sizeMap[RawTransformation]; !ok {
				sizeMap[RawTransformation] = *w.Size
			}
		}

		return SizeRecord{Hash: w.Hash, SizeMap: sizeMap}, nil
	case w.Size != nil:
		if *w.Size < 0 {
			return SizeRecord{}, &FieldError{Field: "size", Reason: "must not be negative"}
		}

		return NewSizeRecord(*w.Size, w.Hash), nil
	default:
		return SizeRecord{}, &FieldError{Field: "size", Reason: "is missing"}
	}
}

// FieldError describes a structural problem inside a size record.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason
}

// Normalize returns a copy of g with nil maps replaced by empty ones.
// TrackingConfig stays nil when absent.
func (g GroupSnapshot) Normalize() GroupSnapshot {
	if g.Manifest == nil {
		g.Manifest = map[string]string{}
	}

	if g.Report == nil {
		g.Report = map[string]SizeRecord{}
	}

	return g
}
