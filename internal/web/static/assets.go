// Package static provides the embedded static assets of the dashboard.
package static

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
)

//go:embed css/*.css
var assetsFS embed.FS

// Handler returns an http.Handler serving the embedded assets. Panics if
// the embedded filesystem is corrupted, which cannot happen at runtime
// since assets are embedded at compile time.
func Handler() http.Handler {
	sub, err := fs.Sub(assetsFS, ".")
	if err != nil {
		panic(fmt.Sprintf("static: failed to create sub-filesystem: %v", err))
	}
	return http.FileServer(http.FS(sub))
}
