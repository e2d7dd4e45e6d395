// Package static embeds the API docs page and its assets.
package static

import "embed"

//go:embed openapi.html openapi.css openapi.js openapi.json
var Files embed.FS
