package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RedirectShortLink sends the client to whatever the code resolves to, or to
// the site root when nothing can interpret it.
func (h *Handler) RedirectShortLink(c *gin.Context) {
	code := c.Param("code")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	target := h.Links.Resolve(ctx, code)
	if target == "" {
		h.Log.Warn("unresolvable short code", zap.String("code", code))
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.Redirect(http.StatusFound, target)
}
