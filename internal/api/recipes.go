package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opyryanova/foodgram/internal/recipe"
	"github.com/opyryanova/foodgram/internal/shoplist"
)

type shortRecipeResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Image       *string `json:"image"`
	CookingTime int64   `json:"cooking_time"`
}

func newShortRecipeResponse(r *recipe.Recipe) shortRecipeResponse {
	return shortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       mediaURL(r.ImagePath),
		CookingTime: r.CookingTime,
	}
}

type recipeResponse struct {
	ID               int64                     `json:"id"`
	Tags             []recipe.Tag              `json:"tags"`
	Author           userResponse              `json:"author"`
	Ingredients      []recipe.RecipeIngredient `json:"ingredients"`
	IsFavorited      bool                      `json:"is_favorited"`
	IsInShoppingCart bool                      `json:"is_in_shopping_cart"`
	Name             string                    `json:"name"`
	Image            *string                   `json:"image"`
	Text             string                    `json:"text"`
	CookingTime      int64                     `json:"cooking_time"`
	Servings         int64                     `json:"servings"`
}

func (h *Handler) newRecipeResponse(ctx context.Context, r *recipe.Recipe, viewerID int64) (recipeResponse, error) {
	author, err := h.Users.GetUser(ctx, r.AuthorID)
	if err != nil {
		return recipeResponse{}, err
	}
	authorResp := userResponse{}
	if author != nil {
		subscribed := false
		if viewerID != 0 && viewerID != author.ID {
			subscribed, err = h.Users.IsSubscribed(ctx, viewerID, author.ID)
			if err != nil {
				return recipeResponse{}, err
			}
		}
		authorResp = newUserResponse(author, subscribed)
	}
	return recipeResponse{
		ID:               r.ID,
		Tags:             r.Tags,
		Author:           authorResp,
		Ingredients:      r.Ingredients,
		IsFavorited:      r.IsFavorited,
		IsInShoppingCart: r.IsInShoppingCart,
		Name:             r.Name,
		Image:            mediaURL(r.ImagePath),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		Servings:         r.Servings,
	}, nil
}

// recipeRequest is the create/update payload.
type recipeRequest struct {
	Ingredients []struct {
		ID     int64 `json:"id"`
		Amount int64 `json:"amount"`
	} `json:"ingredients"`
	Tags        []int64 `json:"tags"`
	Image       string  `json:"image"`
	Name        string  `json:"name"`
	Text        string  `json:"text"`
	CookingTime int64   `json:"cooking_time"`
	Servings    int64   `json:"servings"`
}

func (req *recipeRequest) validate() error {
	if req.Name == "" || req.Text == "" {
		return errors.New("name and text are required")
	}
	if req.CookingTime < minCookingTime {
		return fmt.Errorf("cooking_time must be at least %d", minCookingTime)
	}
	if req.Servings < 0 || req.Servings > maxServings {
		return fmt.Errorf("servings must be between 1 and %d", maxServings)
	}
	if len(req.Tags) == 0 {
		return errors.New("add at least one tag")
	}
	seenTags := make(map[int64]bool, len(req.Tags))
	for _, id := range req.Tags {
		if seenTags[id] {
			return errors.New("duplicate tags are not allowed")
		}
		seenTags[id] = true
	}
	if len(req.Ingredients) == 0 {
		return errors.New("add at least one ingredient")
	}
	seenIngredients := make(map[int64]bool, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		if seenIngredients[ing.ID] {
			return errors.New("duplicate ingredients are not allowed")
		}
		seenIngredients[ing.ID] = true
		if ing.Amount < minAmount {
			return fmt.Errorf("ingredient amount must be at least %d", minAmount)
		}
	}
	return nil
}

func (req *recipeRequest) ingredientAmounts() []recipe.IngredientAmount {
	out := make([]recipe.IngredientAmount, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		out = append(out, recipe.IngredientAmount{IngredientID: ing.ID, Amount: ing.Amount})
	}
	return out
}

// listFilterFromQuery reads the recipe list query parameters.
func listFilterFromQuery(c *gin.Context, viewerID int64) recipe.ListFilter {
	f := recipe.ListFilter{ViewerID: viewerID}
	if v, err := strconv.ParseInt(c.Query("author"), 10, 64); err == nil {
		f.AuthorID = v
	}
	f.TagSlugs = c.QueryArray("tags")
	if viewerID != 0 {
		f.FavoritedOnly = truthy(c.Query("is_favorited"))
		f.InCartOnly = truthy(c.Query("is_in_shopping_cart"))
	}
	f.Limit, f.Offset = paginate(c)
	return f
}

func truthy(v string) bool {
	switch v {
	case "1", "true", "True", "yes", "on":
		return true
	}
	return false
}

// ListRecipes returns a filtered, paginated recipe listing.
func (h *Handler) ListRecipes(c *gin.Context) {
	viewerID := currentUserID(c)
	f := listFilterFromQuery(c, viewerID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	recipes, err := h.Recipes.ListRecipes(ctx, f)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	count, err := h.Recipes.CountRecipes(ctx, f)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}

	results := make([]recipeResponse, 0, len(recipes))
	for _, r := range recipes {
		resp, err := h.newRecipeResponse(ctx, r, viewerID)
		if err != nil {
			h.internalError(c, "database error", err)
			return
		}
		results = append(results, resp)
	}
	c.JSON(http.StatusOK, page(c, count, f.Limit, f.Offset, results))
}

// GetRecipe returns one recipe.
func (h *Handler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	viewerID := currentUserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	r, err := h.Recipes.GetRecipe(ctx, id, viewerID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, errorsJSON("recipe not found"))
		return
	}
	resp, err := h.newRecipeResponse(ctx, r, viewerID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateRecipe creates a recipe authored by the current user.
func (h *Handler) CreateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorsJSON("invalid recipe payload"))
		return
	}
	if req.Image == "" {
		c.JSON(http.StatusBadRequest, errorsJSON("image is required"))
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, errorsJSON(err.Error()))
		return
	}

	imagePath, err := h.Images.SaveBase64Image(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorsJSON("invalid image payload"))
		return
	}

	userID := currentUserID(c)
	servings := req.Servings
	if servings == 0 {
		servings = 1
	}
	r := &recipe.Recipe{
		AuthorID:    userID,
		Name:        req.Name,
		ImagePath:   imagePath,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Servings:    servings,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Recipes.CreateRecipe(ctx, r, req.Tags, req.ingredientAmounts()); err != nil {
		h.internalError(c, "failed to create recipe", err)
		return
	}
	h.Log.Info("recipe created", zap.Int64("recipe_id", r.ID), zap.Int64("author_id", userID))

	created, err := h.Recipes.GetRecipe(ctx, r.ID, userID)
	if err != nil || created == nil {
		h.internalError(c, "failed to load created recipe", err)
		return
	}
	resp, err := h.newRecipeResponse(ctx, created, userID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateRecipe rewrites a recipe; only its author may do so.
func (h *Handler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	existing, err := h.Recipes.GetRecipe(ctx, id, userID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, errorsJSON("recipe not found"))
		return
	}
	if existing.AuthorID != userID {
		c.JSON(http.StatusForbidden, errorsJSON("only the author can edit a recipe"))
		return
	}

	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorsJSON("invalid recipe payload"))
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, errorsJSON(err.Error()))
		return
	}

	imagePath := existing.ImagePath
	if req.Image != "" {
		imagePath, err = h.Images.SaveBase64Image(req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorsJSON("invalid image payload"))
			return
		}
	}

	servings := req.Servings
	if servings == 0 {
		servings = existing.Servings
	}
	updated := &recipe.Recipe{
		ID:          id,
		AuthorID:    userID,
		Name:        req.Name,
		ImagePath:   imagePath,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Servings:    servings,
	}
	if err := h.Recipes.UpdateRecipe(ctx, updated, req.Tags, req.ingredientAmounts()); err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorsJSON("recipe not found"))
			return
		}
		h.internalError(c, "failed to update recipe", err)
		return
	}
	if req.Image != "" && existing.ImagePath != "" && existing.ImagePath != imagePath {
		if err := h.Images.Remove(existing.ImagePath); err != nil {
			h.Log.Warn("failed to remove old recipe image", zap.String("path", existing.ImagePath), zap.Error(err))
		}
	}

	r, err := h.Recipes.GetRecipe(ctx, id, userID)
	if err != nil || r == nil {
		h.internalError(c, "failed to load updated recipe", err)
		return
	}
	resp, err := h.newRecipeResponse(ctx, r, userID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteRecipe removes a recipe; only its author may do so.
func (h *Handler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	existing, err := h.Recipes.GetRecipe(ctx, id, userID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, errorsJSON("recipe not found"))
		return
	}
	if existing.AuthorID != userID {
		c.JSON(http.StatusForbidden, errorsJSON("only the author can delete a recipe"))
		return
	}

	if err := h.Recipes.DeleteRecipe(ctx, id); err != nil {
		h.internalError(c, "failed to delete recipe", err)
		return
	}
	if existing.ImagePath != "" {
		if err := h.Images.Remove(existing.ImagePath); err != nil {
			h.Log.Warn("failed to remove recipe image", zap.String("path", existing.ImagePath), zap.Error(err))
		}
	}
	h.Log.Info("recipe deleted", zap.Int64("recipe_id", id), zap.Int64("author_id", userID))
	c.Status(http.StatusNoContent)
}

// Favorite adds a recipe to the current user's favorites.
func (h *Handler) Favorite(c *gin.Context) {
	h.addRelation(c, h.Recipes.AddFavorite, recipe.ErrAlreadyFavorited, "recipe is already favorited")
}

// Unfavorite removes a recipe from favorites.
func (h *Handler) Unfavorite(c *gin.Context) {
	h.removeRelation(c, h.Recipes.RemoveFavorite, recipe.ErrNotFavorited, "recipe was not favorited")
}

// AddToCart puts a recipe into the shopping cart, with an optional serving
// override in the body.
func (h *Handler) AddToCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	// Body is optional; {"servings": N} overrides the recipe's own count.
	var req struct {
		Servings *int64 `json:"servings"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorsJSON("invalid payload"))
			return
		}
	}
	if req.Servings != nil && (*req.Servings < 1 || *req.Servings > maxServings) {
		c.JSON(http.StatusBadRequest, errorsJSON(fmt.Sprintf("servings must be between 1 and %d", maxServings)))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	r, err := h.Recipes.GetRecipe(ctx, id, userID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, errorsJSON("recipe not found"))
		return
	}

	if err := h.Recipes.AddToCart(ctx, userID, id, req.Servings); err != nil {
		switch {
		case errors.Is(err, recipe.ErrAlreadyInCart):
			c.JSON(http.StatusBadRequest, errorsJSON("recipe is already in the shopping cart"))
		case errors.Is(err, recipe.ErrNotFound):
			c.JSON(http.StatusNotFound, errorsJSON("recipe not found"))
		default:
			h.internalError(c, "failed to add to cart", err)
		}
		return
	}
	c.JSON(http.StatusCreated, newShortRecipeResponse(r))
}

// RemoveFromCart drops a recipe from the shopping cart.
func (h *Handler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.Recipes.RemoveFromCart, recipe.ErrNotInCart, "recipe was not in the shopping cart")
}

// DownloadShoppingCart aggregates the cart into the downloadable list.
func (h *Handler) DownloadShoppingCart(c *gin.Context) {
	userID := currentUserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	lines, err := h.Cart.Aggregate(ctx, userID)
	if err != nil {
		h.internalError(c, "failed to aggregate shopping list", err)
		return
	}
	h.Log.Info("shopping list downloaded", zap.Int64("user_id", userID), zap.Int("ingredients", len(lines)))

	c.Header("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(shoplist.Render(lines)))
}

// GetLink returns the short link for a recipe, minting one on first call.
func (h *Handler) GetLink(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	r, err := h.Recipes.GetRecipe(ctx, id, 0)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, errorsJSON("recipe not found"))
		return
	}

	code, err := h.Recipes.EnsureShortCode(ctx, id)
	if err != nil {
		h.internalError(c, "failed to mint short code", err)
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	c.JSON(http.StatusOK, gin.H{"short-link": fmt.Sprintf("%s://%s/s/%s", scheme, c.Request.Host, code)})
}

// addRelation handles the shared shape of POST favorite-style endpoints.
func (h *Handler) addRelation(c *gin.Context, add func(ctx context.Context, userID, recipeID int64) error, conflict error, conflictMsg string) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	r, err := h.Recipes.GetRecipe(ctx, id, userID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, errorsJSON("recipe not found"))
		return
	}

	if err := add(ctx, userID, id); err != nil {
		switch {
		case errors.Is(err, conflict):
			c.JSON(http.StatusBadRequest, errorsJSON(conflictMsg))
		case errors.Is(err, recipe.ErrNotFound):
			c.JSON(http.StatusNotFound, errorsJSON("recipe not found"))
		default:
			h.internalError(c, "database error", err)
		}
		return
	}
	c.JSON(http.StatusCreated, newShortRecipeResponse(r))
}

// removeRelation handles the shared shape of DELETE favorite-style
// endpoints.
func (h *Handler) removeRelation(c *gin.Context, remove func(ctx context.Context, userID, recipeID int64) error, missing error, missingMsg string) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := remove(ctx, currentUserID(c), id); err != nil {
		if errors.Is(err, missing) {
			c.JSON(http.StatusBadRequest, errorsJSON(missingMsg))
			return
		}
		h.internalError(c, "database error", err)
		return
	}
	c.Status(http.StatusNoContent)
}
