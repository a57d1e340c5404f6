// Package admin provides the embedded web shell served for page routes.
package admin

import "embed"

// WebFS holds index.html (the SPA shell) and the static/ assets it loads.
//
//go:embed all:web
var WebFS embed.FS
