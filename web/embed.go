// Package web ships the browser client: the mood page, its subscription
// manager script and the service worker.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:dist
var staticFS embed.FS

// ServiceWorker is the path the worker script is served from. It must sit at
// the root so its scope covers the whole app.
const ServiceWorker = "sw.js"

// FS returns the client files rooted at dist.
func FS() (fs.FS, error) {
	return fs.Sub(staticFS, "dist")
}
