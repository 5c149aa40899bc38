package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot/schema"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/track"
)

// Format is a snapshot serialization format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const jsonIndent = "  "

// ErrUnknownFormat is returned for an unsupported serialization format.
var ErrUnknownFormat = errors.New("unknown snapshot format")

var schemaLoader = gojsonschema.NewBytesLoader(schema.Snapshot)

// FormatFromPath picks the format from a file name extension. Anything that
// is not .yaml or .yml is treated as JSON.
func FormatFromPath(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses and validates a snapshot document.
func Decode(data []byte, format Format) (Snapshot, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Encode serializes a snapshot.
func Encode(s Snapshot, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", jsonIndent)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}

		return data, nil
	case FormatYAML:
		var buf bytes.Buffer

		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(len(jsonIndent))

		err := enc.Encode(s)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}

		closeErr := enc.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("encode snapshot: %w", closeErr)
		}

		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MarshalJSON writes the record as {"hash", "size"} or {"hash", "sizeMap"}.
func (r SizeRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Wire())
}

// UnmarshalJSON accepts both record shapes.
func (r *SizeRecord) UnmarshalJSON(data []byte) error {
	var wire WireRecord

	err := json.Unmarshal(data, &wire)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	rec, err := wire.Record()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	*r = rec

	return nil
}

// MarshalYAML writes the record in its wire form. yaml.v3 drops empty maps
// under omitempty, so a "sizeMap" record is written as a plain map.
func (r SizeRecord) MarshalYAML() (any, error) {
	wire := r.Wire()
	if wire.Size != nil {
		return wire, nil
	}

	return map[string]any{"hash": wire.Hash, "sizeMap": wire.SizeMap}, nil
}

// UnmarshalYAML accepts both record shapes.
func (r *SizeRecord) UnmarshalYAML(node *yaml.Node) error {
	var wire WireRecord

	err := node.Decode(&wire)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	rec, err := wire.Record()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	*r = rec

	return nil
}

type jsonGroup struct {
	Manifest       map[string]string          `json:"manifest"`
	TrackingConfig *track.Config              `json:"trackingConfig"`
	Report         map[string]json.RawMessage `json:"report"`
}

type yamlGroup struct {
	Manifest       map[string]string    `yaml:"manifest"`
	TrackingConfig *track.Config        `yaml:"trackingConfig"`
	Report         map[string]yaml.Node `yaml:"report"`
}

func decodeJSON(data []byte) (Snapshot, error) {
	validateErr := validate(gojsonschema.NewBytesLoader(data))
	if validateErr != nil {
		return nil, validateErr
	}

	var groups map[string]json.RawMessage

	err := json.Unmarshal(data, &groups)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	snap := make(Snapshot, len(groups))

	for name, raw := range groups {
		var group jsonGroup

		groupErr := json.Unmarshal(raw, &group)
		if groupErr != nil {
			return nil, fmt.Errorf("%w: group %q: %w", ErrMalformed, name, groupErr)
		}

		report := make(map[string]SizeRecord, len(group.Report))

		for key, rawRecord := range group.Report {
			var rec SizeRecord

			recErr := json.Unmarshal(rawRecord, &rec)
			if recErr != nil {
				return nil, fmt.Errorf("group %q: report entry %q: %w", name, key, recErr)
			}

			report[key] = rec
		}

		snap[name] = GroupSnapshot{Manifest: group.Manifest, TrackingConfig: group.TrackingConfig, Report: report}
	}

	return snap, nil
}

func decodeYAML(data []byte) (Snapshot, error) {
	var generic any

	err := yaml.Unmarshal(data, &generic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if generic == nil {
		return Snapshot{}, nil
	}

	validateErr := validate(gojsonschema.NewGoLoader(generic))
	if validateErr != nil {
		return nil, validateErr
	}

	var groups map[string]yamlGroup

	err = yaml.Unmarshal(data, &groups)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	snap := make(Snapshot, len(groups))

	for name, group := range groups {
		report := make(map[string]SizeRecord, len(group.Report))

		for key, node := range group.Report {
			var rec SizeRecord

			recErr := node.Decode(&rec)
			if recErr != nil {
				return nil, fmt.Errorf("group %q: report entry %q: %w", name, key, recErr)
			}

			report[key] = rec
		}

		snap[name] = GroupSnapshot{Manifest: group.Manifest, TrackingConfig: group.TrackingConfig, Report: report}
	}

	return snap, nil
}

// validate checks a document against the embedded schema and reports every
// violation with its field path.
func validate(doc gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return fmt.Errorf("%w: %s", ErrMalformed, strings.Join(problems, "; "))
}
