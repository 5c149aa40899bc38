// Package track implements ordered tracking policies: a list of glob
// patterns mapped to booleans, resolved with "last match wins, default false".
package track

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/glob"
)

// ErrInvalidConfig is returned when a tracking config cannot be decoded.
var ErrInvalidConfig = errors.New("invalid tracking config")

// Rule associates a glob pattern with a tracking decision.
type Rule struct {
	Pattern string `mapstructure:"pattern" json:"pattern" yaml:"pattern"`
	Track   bool   `mapstructure:"track"   json:"track"   yaml:"track"`
}

// Config is an ordered list of rules. Its JSON and YAML forms are objects
// whose key order is significant: {"**/*": true, "**/*.map": false}.
type Config []Rule

// New returns a pointer to a Config holding rules, for use in snapshot
// literals where a nil Config means "no policy".
func New(rules ...Rule) *Config {
	cfg := Config(rules)

	return &cfg
}

// Set assigns track to pattern. An existing pattern keeps its position.
func (c *Config) Set(pattern string, track bool) {
	for i := range *c {
		if (*c)[i].Pattern == pattern {
			(*c)[i].Track = track

			return
		}
	}

	*c = append(*c, Rule{Pattern: pattern, Track: track})
}

// Tracks reports whether path is tracked by the config.
func (c Config) Tracks(path string) bool {
	return c.Compile().Tracks(path)
}

// Compile prepares the config for repeated matching.
func (c Config) Compile() *Policy {
	rules := make([]compiledRule, len(c))
	for i, r := range c {
		rules[i] = compiledRule{pattern: glob.Compile(r.Pattern), track: r.Track}
	}

	return &Policy{rules: rules}
}

// MarshalJSON writes the rules as an ordered JSON object.
func (c Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, r := range c {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("marshal pattern %q: %w", r.Pattern, err)
		}

		buf.Write(key)
		buf.WriteByte(':')

		if r.Track {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON reads an ordered JSON object of pattern to boolean.
func (c *Config) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected an object, got %v", ErrInvalidConfig, tok)
	}

	cfg := Config{}

	for dec.More() {
		keyTok, keyErr := dec.Token()
		if keyErr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, keyErr)
		}

		pattern, _ := keyTok.(string)

		valTok, valErr := dec.Token()
		if valErr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, valErr)
		}

		value, ok := valTok.(bool)
		if !ok {
			return fmt.Errorf("%w: value of %q must be a boolean", ErrInvalidConfig, pattern)
		}

		cfg.Set(pattern, value)
	}

	_, err = dec.Token()
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	*c = cfg

	return nil
}

// MarshalYAML writes the rules as an ordered YAML mapping.
func (c Config) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, r := range c {
		value := "false"
		if r.Track {
			value = "true"
		}

		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r.Pattern},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: value},
		)
	}

	return node, nil
}

// UnmarshalYAML reads an ordered YAML mapping of pattern to boolean.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: expected a mapping at line %d", ErrInvalidConfig, node.Line)
	}

	cfg := Config{}

	for i := 0; i+1 < len(node.Content); i += 2 {
		pattern := node.Content[i].Value

		var value bool

		decodeErr := node.Content[i+1].Decode(&value)
		if decodeErr != nil {
			return fmt.Errorf("%w: value of %q must be a boolean", ErrInvalidConfig, pattern)
		}

		cfg.Set(pattern, value)
	}

	*c = cfg

	return nil
}

// Policy is a compiled Config.
type Policy struct {
	rules []compiledRule
}

type compiledRule struct {
	pattern *glob.Pattern
	track   bool
}

// Tracks returns the decision of the last rule matching path, or false when
// no rule matches.
func (p *Policy) Tracks(path string) bool {
	tracked := false

	for _, r := range p.rules {
		if r.pattern.Match(path) {
			tracked = r.track
		}
	}

	return tracked
}
