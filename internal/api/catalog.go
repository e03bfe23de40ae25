package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ListTags returns every tag, unpaginated.
func (h *Handler) ListTags(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tags, err := h.Recipes.ListTags(ctx)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// GetTag returns one tag.
func (h *Handler) GetTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.Recipes.GetTag(ctx, id)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if tag == nil {
		c.JSON(http.StatusNotFound, errorsJSON("tag not found"))
		return
	}
	c.JSON(http.StatusOK, tag)
}

// ListIngredients searches the ingredient catalog by the ?name= parameter,
// unpaginated.
func (h *Handler) ListIngredients(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ingredients, err := h.Recipes.SearchIngredients(ctx, c.Query("name"))
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

// GetIngredient returns one catalog entry.
func (h *Handler) GetIngredient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ing, err := h.Recipes.GetIngredient(ctx, id)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if ing == nil {
		c.JSON(http.StatusNotFound, errorsJSON("ingredient not found"))
		return
	}
	c.JSON(http.StatusOK, ing)
}
