package api

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/moodtracker/internal/middleware"
	"github.com/charlesng35/moodtracker/web"
)

const serviceWorkerPath = "/" + web.ServiceWorker

// registerStaticRoutes serves the embedded web client. Anything that is not an
// existing asset falls through to the JSON 404 handler.
func registerStaticRoutes(r *gin.Engine, static fs.FS) {
	if static == nil {
		r.NoRoute(middleware.NotFoundHandler)
		return
	}

	files := http.FS(static)

	r.GET(serviceWorkerPath, func(c *gin.Context) {
		// The worker must control the whole origin and be revalidated on every load.
		c.Header("Service-Worker-Allowed", "/")
		c.Header("Cache-Control", "no-cache")
		c.FileFromFS(serviceWorkerPath, files)
	})

	r.NoRoute(func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodGet && method != http.MethodHead {
			middleware.NotFoundHandler(c)
			return
		}

		name := path.Clean("/" + c.Request.URL.Path)
		if strings.HasPrefix(name, "/api/") {
			middleware.NotFoundHandler(c)
			return
		}

		if name == "/" {
			c.Header("Cache-Control", "no-cache")
			c.FileFromFS("/", files)
			return
		}

		info, err := fs.Stat(static, strings.TrimPrefix(name, "/"))
		if err != nil || info.IsDir() {
			middleware.NotFoundHandler(c)
			return
		}

		c.FileFromFS(name, files)
	})
}
