// Package schema embeds the JSON Schema of snapshot files.
package schema

import _ "embed"

// Snapshot is the JSON Schema every snapshot document must satisfy.
//
//go:embed snapshot.schema.json
var Snapshot []byte
