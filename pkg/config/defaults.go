package config

import (
	"github.com/Sumatoshi-tech/sizeimpact/pkg/github"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
)

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// Snapshot defaults.
const (
	DefaultSnapshotFile    = "filesize-snapshot.json"
	DefaultSnapshotWorkers = 0
)

// Report defaults.
const (
	DefaultReportFormat      = FormatHTML
	DefaultReportGeneratedBy = true
)

// DefaultGitHubAPIURL is the public GitHub REST endpoint.
const DefaultGitHubAPIURL = github.DefaultAPIURL

// DefaultGroup is the group snapshotted when none is configured.
const DefaultGroup = "dist"

// defaultGroups tracks every file of dist except source maps.
func defaultGroups() []map[string]any {
	return []map[string]any{
		{
			"name":      DefaultGroup,
			"directory": DefaultGroup,
			"manifest":  "",
			"track": []map[string]any{
				{"pattern": "**/*", "track": true},
				{"pattern": "**/*.map", "track": false},
			},
		},
	}
}

func defaultTransformations() []map[string]any {
	return []map[string]any{
		{"name": snapshot.RawTransformation, "title": snapshot.RawTransformation},
	}
}
