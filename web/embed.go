// Package web provides the embedded static assets (stylesheet and the
// search script) served at /static/ by both the admin and the public site.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:static
var staticFS embed.FS

// Static returns the asset tree rooted at web/static, ready for
// http.FileServerFS.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The directory is embedded at build time; a failure here is a
		// broken build, not a runtime condition.
		panic(err)
	}
	return sub
}
