package track_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/track"
)

func TestTracks_LastMatchWins(t *testing.T) {
	t.Parallel()

	cfg := track.Config{
		{Pattern: "**/*", Track: true},
		{Pattern: "bar.js", Track: false},
	}

	policy := cfg.Compile()

	assert.True(t, policy.Tracks("foo.js"))
	assert.True(t, policy.Tracks("dir/bar.js"))
	assert.False(t, policy.Tracks("bar.js"))
}

func TestTracks_LaterBroadRuleOverridesEarlierExact(t *testing.T) {
	t.Parallel()

	cfg := track.Config{
		{Pattern: "bar.js", Track: false},
		{Pattern: "**/*", Track: true},
	}

	assert.True(t, cfg.Tracks("bar.js"))
}

func TestTracks_DefaultFalse(t *testing.T) {
	t.Parallel()

	cfg := track.Config{{Pattern: "*.js", Track: true}}

	assert.False(t, cfg.Tracks("style.css"))
	assert.False(t, track.Config{}.Tracks("anything"))
}

func TestSet_KeepsPosition(t *testing.T) {
	t.Parallel()

	cfg := track.Config{}
	cfg.Set("a", true)
	cfg.Set("b", true)
	cfg.Set("a", false)

	assert.Equal(t, track.Config{{Pattern: "a", Track: false}, {Pattern: "b", Track: true}}, cfg)
}

func TestJSON_PreservesOrder(t *testing.T) {
	t.Parallel()

	input := `{"./**/*":true,"./**/*.map":false,"keep.map":true}`

	var cfg track.Config

	require.NoError(t, json.Unmarshal([]byte(input), &cfg))

	assert.Equal(t, track.Config{
		{Pattern: "./**/*", Track: true},
		{Pattern: "./**/*.map", Track: false},
		{Pattern: "keep.map", Track: true},
	}, cfg)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
	assert.Equal(t, input, string(out))
}

func TestJSON_EmptyObject(t *testing.T) {
	t.Parallel()

	var cfg *track.Config

	require.NoError(t, json.Unmarshal([]byte(`{}`), &cfg))
	require.NotNil(t, cfg)
	assert.Empty(t, *cfg)
}

func TestJSON_RejectsNonBoolean(t *testing.T) {
	t.Parallel()

	var cfg track.Config

	err := json.Unmarshal([]byte(`{"**/*": "yes"}`), &cfg)
	require.Error(t, err)
	require.ErrorIs(t, err, track.ErrInvalidConfig)
	assert.Contains(t, err.Error(), `"**/*"`)
}

func TestJSON_RejectsArray(t *testing.T) {
	t.Parallel()

	var cfg track.Config

	err := json.Unmarshal([]byte(`[true]`), &cfg)
	require.ErrorIs(t, err, track.ErrInvalidConfig)
}

func TestYAML_PreservesOrder(t *testing.T) {
	t.Parallel()

	input := "z.js: true\na.js: false\n"

	var cfg track.Config

	require.NoError(t, yaml.Unmarshal([]byte(input), &cfg))
	assert.Equal(t, track.Config{
		{Pattern: "z.js", Track: true},
		{Pattern: "a.js", Track: false},
	}, cfg)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestYAML_RejectsSequence(t *testing.T) {
	t.Parallel()

	var cfg track.Config

	err := yaml.Unmarshal([]byte("- a\n- b\n"), &cfg)
	require.ErrorIs(t, err, track.ErrInvalidConfig)
}
