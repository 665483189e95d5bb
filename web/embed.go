// Package web embeds the dashboard templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the static assets rooted at their own directory.
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
