// Package compare reconciles two file size snapshots into a per-file diff.
//
// Files are correlated by identity: a manifest key when the build hashes
// output names, the output path itself otherwise. Only identities tracked by
// the group's effective policy are emitted.
package compare

import (
	"encoding/json"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/track"
)

// Comparison maps group names to their per-identity entries.
type Comparison map[string]GroupComparison

// GroupComparison maps identities to entries.
type GroupComparison map[string]Entry

// Entry holds the state of one identity on each side. At least one side is set.
type Entry struct {
	Base *FileRecord `json:"base" yaml:"base"`
	Head *FileRecord `json:"head" yaml:"head"`
}

// FileRecord is a size record together with the output path it was read from.
type FileRecord struct {
	RelativeURL string
	snapshot.SizeRecord
}

type wireFileRecord struct {
	RelativeURL string `json:"relativeUrl" yaml:"relativeUrl"`

	snapshot.WireRecord `yaml:",inline"`
}

// MarshalJSON flattens the record: {"relativeUrl", "hash", "size"|"sizeMap"}.
func (r FileRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireFileRecord{RelativeURL: r.RelativeURL, WireRecord: r.Wire()})
}

// UnmarshalJSON reads the flattened form written by MarshalJSON.
func (r *FileRecord) UnmarshalJSON(data []byte) error {
	var wire wireFileRecord

	err := json.Unmarshal(data, &wire)
	if err != nil {
		return err
	}

	rec, err := wire.Record()
	if err != nil {
		return err
	}

	*r = FileRecord{RelativeURL: wire.RelativeURL, SizeRecord: rec}

	return nil
}

// MarshalYAML flattens the record like MarshalJSON.
func (r FileRecord) MarshalYAML() (any, error) {
	wire := r.Wire()
	if wire.Size != nil {
		return wireFileRecord{RelativeURL: r.RelativeURL, WireRecord: wire}, nil
	}

	return map[string]any{"relativeUrl": r.RelativeURL, "hash": wire.Hash, "sizeMap": wire.SizeMap}, nil
}

// UnmarshalYAML reads the flattened form written by MarshalYAML.
func (r *FileRecord) UnmarshalYAML(node *yaml.Node) error {
	var wire wireFileRecord

	err := node.Decode(&wire)
	if err != nil {
		return err
	}

	rec, err := wire.Record()
	if err != nil {
		return err
	}

	*r = FileRecord{RelativeURL: wire.RelativeURL, SizeRecord: rec}

	return nil
}

// Groups returns the group names in lexicographic order.
func (c Comparison) Groups() []string {
	return slices.Sorted(maps.Keys(c))
}

// Identities returns the identities of the group in lexicographic order.
func (g GroupComparison) Identities() []string {
	return slices.Sorted(maps.Keys(g))
}

// Compare reconciles base and head. Groups for which neither side declares a
// tracking policy are left out of the result.
func Compare(base, head snapshot.Snapshot) Comparison {
	result := Comparison{}

	for _, name := range groupNames(base, head) {
		baseGroup := normalizeGroup(base, name)
		headGroup := normalizeGroup(head, name)

		policy := effectivePolicy(baseGroup, headGroup)
		if policy == nil {
			continue
		}

		result[name] = compareGroup(baseGroup, headGroup, policy.Compile())
	}

	return result
}

// normalizeGroup returns the named group with every missing part defaulted
// to empty, so a group absent on one side compares as an empty group.
func normalizeGroup(s snapshot.Snapshot, name string) snapshot.GroupSnapshot {
	return s[name].Normalize()
}

func groupNames(base, head snapshot.Snapshot) []string {
	names := make(map[string]struct{}, len(base)+len(head))
	for name := range base {
		names[name] = struct{}{}
	}

	for name := range head {
		names[name] = struct{}{}
	}

	return slices.Sorted(maps.Keys(names))
}

// effectivePolicy prefers head's policy and falls back to base's.
func effectivePolicy(base, head snapshot.GroupSnapshot) *track.Config {
	if head.TrackingConfig != nil {
		return head.TrackingConfig
	}

	return base.TrackingConfig
}

func compareGroup(base, head snapshot.GroupSnapshot, policy *track.Policy) GroupComparison {
	group := GroupComparison{}

	for _, identity := range identities(base, head) {
		if !policy.Tracks(identity) {
			continue
		}

		entry := Entry{
			Base: resolve(base, identity),
			Head: resolve(head, identity),
		}

		if entry.Base == nil && entry.Head == nil {
			continue
		}

		group[identity] = entry
	}

	return group
}

// identities returns manifest keys of both sides plus report keys that no
// manifest maps to.
func identities(base, head snapshot.GroupSnapshot) []string {
	set := map[string]struct{}{}
	referenced := map[string]struct{}{}

	for _, manifest := range []map[string]string{base.Manifest, head.Manifest} {
		for identity, output := range manifest {
			set[identity] = struct{}{}
			referenced[output] = struct{}{}
		}
	}

	for _, report := range []map[string]snapshot.SizeRecord{base.Report, head.Report} {
		for output := range report {
			if _, ok := referenced[output]; ok {
				continue
			}

			set[output] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(set))
}

// resolve finds the record of identity on one side, or nil.
func resolve(g snapshot.GroupSnapshot, identity string) *FileRecord {
	output, ok := g.Manifest[identity]
	if !ok {
		output = identity
	}

	rec, ok := g.Report[output]
	if !ok {
		return nil
	}

	return &FileRecord{RelativeURL: output, SizeRecord: rec}
}
