package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultPostLimit = 50
	defaultRunLimit  = 20
)

// NewHandler wires the routes to the archive. journal may be nil when the
// journal is disabled; humanDate formats an entry date for display.
func NewHandler(scanner ArchiveScanner, generator GeneratorInterface, journal JournalReader,
	humanDate func(date string) string, version string) *Handler {
	return &Handler{
		archive:   scanner,
		generator: generator,
		journal:   journal,
		humanDate: humanDate,
		version:   version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"journal":   h.journal != nil,
	}

	if posts, incomplete, err := h.archive.Scan(); err == nil {
		health["posts"] = len(posts)
		health["incomplete"] = len(incomplete)
	} else {
		slog.Error("Archive scan failed", "error", err)
		health["status"] = "degraded"
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetPosts(c *gin.Context) {
	limit, ok := queryLimit(c, defaultPostLimit)
	if !ok {
		return
	}

	posts, _, err := h.archive.Scan()
	if err != nil {
		slog.Error("Archive scan failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Archive unavailable"})
		return
	}

	total := len(posts)
	if len(posts) > limit {
		posts = posts[:limit]
	}

	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		images := make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			images = append(images, "/media/"+img)
		}
		out = append(out, postResponse{
			Name:   p.Name,
			Date:   p.Date,
			Title:  h.humanDate(p.Date),
			Text:   p.Text,
			Images: images,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": out,
		"total": total,
	})
}

func (h *Handler) GetFeed(c *gin.Context) {
	posts, _, err := h.archive.Scan()
	if err != nil {
		slog.Error("Archive scan failed", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(posts)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(posts)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) APIListRuns(c *gin.Context) {
	if !h.journalEnabled(c) {
		return
	}
	limit, ok := queryLimit(c, defaultRunLimit)
	if !ok {
		return
	}

	runs, err := h.journal.ListRuns(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

func (h *Handler) APIGetRun(c *gin.Context) {
	if !h.journalEnabled(c) {
		return
	}

	id := c.Param("id")
	run, err := h.journal.GetRun(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	posts, err := h.journal.ListPosts(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "list_posts", "run", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run":   run,
		"posts": posts,
	})
}

// APIListIncomplete lists entry directories left without metadata by a
// failed run, for the operator to inspect or delete.
func (h *Handler) APIListIncomplete(c *gin.Context) {
	_, incomplete, err := h.archive.Scan()
	if err != nil {
		slog.Error("Archive scan failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Archive unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"incomplete": incomplete,
		"total":      len(incomplete),
	})
}

func (h *Handler) journalEnabled(c *gin.Context) bool {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Journal disabled"})
		return false
	}
	return true
}

func queryLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return 0, false
	}
	return limit, true
}
