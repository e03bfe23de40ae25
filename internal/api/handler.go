package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opyryanova/foodgram/internal/recipe"
	"github.com/opyryanova/foodgram/internal/shoplist"
	"github.com/opyryanova/foodgram/internal/user"
)

// Model validation limits, matching the write-path constraints enforced by
// the store schema.
const (
	minAmount      = 1
	minCookingTime = 1
	maxServings    = 50

	defaultPageSize = 6
	maxPageSize     = 20
)

// RecipeStore defines the recipe data operations the handlers need.
type RecipeStore interface {
	ListTags(ctx context.Context) ([]recipe.Tag, error)
	GetTag(ctx context.Context, id int64) (*recipe.Tag, error)
	SearchIngredients(ctx context.Context, name string) ([]recipe.Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*recipe.Ingredient, error)
	CreateRecipe(ctx context.Context, r *recipe.Recipe, tagIDs []int64, ingredients []recipe.IngredientAmount) error
	UpdateRecipe(ctx context.Context, r *recipe.Recipe, tagIDs []int64, ingredients []recipe.IngredientAmount) error
	DeleteRecipe(ctx context.Context, id int64) error
	GetRecipe(ctx context.Context, id, viewerID int64) (*recipe.Recipe, error)
	ListRecipes(ctx context.Context, f recipe.ListFilter) ([]*recipe.Recipe, error)
	CountRecipes(ctx context.Context, f recipe.ListFilter) (int, error)
	AddFavorite(ctx context.Context, userID, recipeID int64) error
	RemoveFavorite(ctx context.Context, userID, recipeID int64) error
	AddToCart(ctx context.Context, userID, recipeID int64, servings *int64) error
	RemoveFromCart(ctx context.Context, userID, recipeID int64) error
	EnsureShortCode(ctx context.Context, recipeID int64) (string, error)
}

// UserStore defines the user data operations the handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id int64) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]user.User, error)
	CountUsers(ctx context.Context) (int, error)
	SetAvatar(ctx context.Context, id int64, path string) error
	Subscribe(ctx context.Context, userID, authorID int64) error
	Unsubscribe(ctx context.Context, userID, authorID int64) error
	IsSubscribed(ctx context.Context, userID, authorID int64) (bool, error)
	Subscriptions(ctx context.Context, userID int64) ([]user.User, error)
}

// TokenManager issues and verifies access tokens.
type TokenManager interface {
	Issue(userID int64) (string, error)
	Verify(token string) (int64, error)
}

// ImageStore persists uploaded images.
type ImageStore interface {
	SaveBase64Image(data string) (string, error)
	Remove(path string) error
}

// Aggregator produces the shopping list for a user.
type Aggregator interface {
	Aggregate(ctx context.Context, userID int64) ([]shoplist.Line, error)
}

// Resolver turns a short code into a redirect target; "" means unresolved.
type Resolver interface {
	Resolve(ctx context.Context, code string) string
}

// Handler handles HTTP requests.
type Handler struct {
	Recipes RecipeStore
	Users   UserStore
	Tokens  TokenManager
	Images  ImageStore
	Cart    Aggregator
	Links   Resolver
	Log     *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(recipes RecipeStore, users UserStore, tokens TokenManager, images ImageStore, cart Aggregator, links Resolver, log *zap.Logger) *Handler {
	return &Handler{Recipes: recipes, Users: users, Tokens: tokens, Images: images, Cart: cart, Links: links, Log: log}
}

// errorsJSON is the {"errors": "..."} body the front-end expects for domain
// rejections.
func errorsJSON(msg string) gin.H {
	return gin.H{"errors": msg}
}

// pageResponse is the list envelope.
type pageResponse struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// paginate reads limit/offset query params, clamped to the page size caps.
func paginate(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// page builds the envelope with next/previous links derived from the
// request URL.
func page(c *gin.Context, count, limit, offset int, results interface{}) pageResponse {
	resp := pageResponse{Count: count, Results: results}
	if offset+limit < count {
		next := pageURL(c, limit, offset+limit)
		resp.Next = &next
	}
	if offset > 0 {
		prevOffset := offset - limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		prev := pageURL(c, limit, prevOffset)
		resp.Previous = &prev
	}
	return resp
}

func pageURL(c *gin.Context, limit, offset int) string {
	q := c.Request.URL.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return c.Request.URL.Path + "?" + q.Encode()
}

// pathID parses the numeric :id path param.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSuffix(c.Param("id"), "/"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, errorsJSON("not found"))
		return 0, false
	}
	return id, true
}

// mediaURL maps a stored file path to the public URL, or nil when empty.
func mediaURL(path string) *string {
	if path == "" {
		return nil
	}
	u := "/" + strings.TrimPrefix(path, "/")
	return &u
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.Log.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorsJSON(fmt.Sprintf("%s: %s", msg, err.Error())))
}
