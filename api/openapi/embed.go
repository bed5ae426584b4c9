// Package openapi embeds the API description served at /api/v1/openapi.{yaml,json}.
package openapi

import _ "embed"

// Spec is the OpenAPI document in YAML.
//
//go:embed openapi.yaml
var Spec []byte
