// Package report turns a snapshot comparison into a size impact document and
// renders it as HTML, Markdown, terminal text or a chart page.
package report

import (
	"github.com/Sumatoshi-tech/sizeimpact/pkg/compare"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/sizefmt"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
)

// Transformation names a size metric and the column title it renders under.
type Transformation struct {
	Name  string `mapstructure:"name"  json:"name"  yaml:"name"`
	Title string `mapstructure:"title" json:"title" yaml:"title"`
}

// Label returns the column title, falling back to the name.
func (t Transformation) Label() string {
	if t.Title != "" {
		return t.Title
	}

	return t.Name
}

// DefaultTransformations reports the raw size only.
func DefaultTransformations() []Transformation {
	return []Transformation{{Name: snapshot.RawTransformation, Title: snapshot.RawTransformation}}
}

// SizeFormatter renders a byte count, as a signed delta when opts.Diff is set.
type SizeFormatter func(bytes int64, opts sizefmt.Options) string

// Event classifies the change of one file.
type Event string

// Events.
const (
	EventAdded    Event = "added"
	EventDeleted  Event = "deleted"
	EventModified Event = "modified"
)

// Cell is the size after the change and the signed delta for one
// transformation.
type Cell struct {
	Size int64 `json:"size"`
	Diff int64 `json:"diff"`
}

// FileImpact is one impacted file. Cells are aligned with
// Document.Transformations.
type FileImpact struct {
	Identity string `json:"identity"`
	Event    Event  `json:"event"`
	Cells    []Cell `json:"cells"`
}

// GroupImpact holds the impacted files of one group in identity order.
type GroupImpact struct {
	Name   string       `json:"name"`
	Files  []FileImpact `json:"files"`
	Totals []Cell       `json:"totals"`
}

// HasImpact reports whether any file of the group changed.
func (g GroupImpact) HasImpact() bool {
	return len(g.Files) > 0
}

// Document is the format-independent size impact report.
type Document struct {
	Transformations []Transformation `json:"transformations"`
	Groups          []GroupImpact    `json:"groups"`
}

// HasImpact reports whether any group has an impacted file.
func (d Document) HasImpact() bool {
	for _, g := range d.Groups {
		if g.HasImpact() {
			return true
		}
	}

	return false
}

// TotalDiff sums the delta of the i-th transformation over all groups.
func (d Document) TotalDiff(i int) int64 {
	var total int64

	for _, g := range d.Groups {
		if i < len(g.Totals) {
			total += g.Totals[i].Diff
		}
	}

	return total
}

// Build classifies every entry of cmp and computes per-file cells and group
// totals. Unchanged files are excluded. An empty transformations list means
// DefaultTransformations.
func Build(cmp compare.Comparison, transformations []Transformation) Document {
	if len(transformations) == 0 {
		transformations = DefaultTransformations()
	}

	doc := Document{Transformations: transformations, Groups: make([]GroupImpact, 0, len(cmp))}

	for _, name := range cmp.Groups() {
		doc.Groups = append(doc.Groups, buildGroup(name, cmp[name], transformations))
	}

	return doc
}

func buildGroup(name string, group compare.GroupComparison, transformations []Transformation) GroupImpact {
	impact := GroupImpact{Name: name, Totals: make([]Cell, len(transformations))}

	for _, identity := range group.Identities() {
		entry := group[identity]

		event, ok := Classify(entry, transformations)
		if !ok {
			continue
		}

		file := FileImpact{Identity: identity, Event: event, Cells: make([]Cell, len(transformations))}

		for i, tr := range transformations {
			cell := cellFor(event, entry, tr.Name)
			file.Cells[i] = cell
			impact.Totals[i].Size += cell.Size
			impact.Totals[i].Diff += cell.Diff
		}

		impact.Files = append(impact.Files, file)
	}

	return impact
}

// Classify returns the event of entry, or false when the file is unchanged
// for every transformation. A transformation present on one side only counts
// as a change.
func Classify(entry compare.Entry, transformations []Transformation) (Event, bool) {
	switch {
	case entry.Base == nil && entry.Head != nil:
		return EventAdded, true
	case entry.Base != nil && entry.Head == nil:
		return EventDeleted, true
	case entry.Base == nil && entry.Head == nil:
		return "", false
	}

	for _, tr := range transformations {
		baseSize, baseOK := entry.Base.Size(tr.Name)
		headSize, headOK := entry.Head.Size(tr.Name)

		if baseOK != headOK || baseSize != headSize {
			return EventModified, true
		}
	}

	return "", false
}

// cellFor computes the cell of one transformation. A size missing on a side
// the event needs yields a zero cell.
func cellFor(event Event, entry compare.Entry, transformation string) Cell {
	switch event {
	case EventAdded:
		if size, ok := entry.Head.Size(transformation); ok {
			return Cell{Size: size, Diff: size}
		}
	case EventDeleted:
		if size, ok := entry.Base.Size(transformation); ok {
			return Cell{Size: 0, Diff: -size}
		}
	case EventModified:
		baseSize, baseOK := entry.Base.Size(transformation)
		headSize, headOK := entry.Head.Size(transformation)

		if baseOK && headOK {
			return Cell{Size: headSize, Diff: headSize - baseSize}
		}
	}

	return Cell{}
}
