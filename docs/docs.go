// Package docs embeds the OpenAPI document served by the swagger UI.
package docs

import _ "embed"

//go:embed openapi.json
var OpenAPI []byte
