package statusapi

import (
	"embed"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

//go:embed dashboard/*
var embeddedDashboard embed.FS

// mountDashboard serves the embedded status page at "/", leaving
// "/api" and "/swagger" untouched.
func mountDashboard(r *gin.Engine, logger *slog.Logger) {
	fs, err := static.EmbedFolder(embeddedDashboard, "dashboard")
	if err != nil {
		if logger != nil {
			logger.Error("failed to load embedded dashboard", "err", err)
		}
		return
	}
	r.Use(static.Serve("/", fs))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.RequestURI, "/api") || strings.HasPrefix(c.Request.RequestURI, "/swagger") {
			return
		}
		index, err := fs.Open("index.html")
		if err != nil {
			return
		}
		defer index.Close()
		stat, err := index.Stat()
		if err != nil {
			return
		}
		http.ServeContent(c.Writer, c.Request, "index.html", stat.ModTime(), index)
	})
}
