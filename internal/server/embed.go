// Package server handles serving of the embedded Web UI. Static files are
// embedded via the root-level webui package, which can access the sibling
// web/ directory via go:embed.
package server

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taavik/phigate/webui"
)

// RegisterStaticFiles mounts the embedded frontend on the Gin engine:
// GET / serves index.html, GET /static/* serves assets. Requests that try
// to escape the static root are rejected with 403.
func RegisterStaticFiles(r *gin.Engine) {
	webRoot, err := fs.Sub(webui.FS, "web")
	if err != nil {
		panic("embed: web sub-fs failed: " + err.Error())
	}

	r.GET("/", func(c *gin.Context) {
		serveEmbedded(c, webRoot, "index.html")
	})

	r.GET("/static/*filepath", func(c *gin.Context) {
		rel := strings.TrimPrefix(c.Param("filepath"), "/")
		cleaned := path.Clean(rel)
		if cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		serveEmbedded(c, webRoot, path.Join("static", cleaned))
	})
}

func serveEmbedded(c *gin.Context, root fs.FS, name string) {
	data, err := fs.ReadFile(root, name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return
	}
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}
