// Package api embeds the OpenAPI description of the railcar trips HTTP API.
// The server publishes it at /openapi.yaml.
package api

import _ "embed"

// OpenAPI contains the raw bytes of openapi.yaml, embedded at compile time.
//
//go:embed openapi.yaml
var OpenAPI []byte
