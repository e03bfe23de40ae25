package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opyryanova/foodgram/internal/auth"
	"github.com/opyryanova/foodgram/internal/recipe"
	"github.com/opyryanova/foodgram/internal/user"
)

type userResponse struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

func newUserResponse(u *user.User, isSubscribed bool) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
		Avatar:       mediaURL(u.AvatarPath),
	}
}

// subscriptionResponse is a followed author with a short slice of their
// recipes.
type subscriptionResponse struct {
	userResponse
	Recipes      []shortRecipeResponse `json:"recipes"`
	RecipesCount int                   `json:"recipes_count"`
}

// Login exchanges email+password for an access token.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorsJSON("email and password are required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		c.JSON(http.StatusBadRequest, errorsJSON("unable to log in with provided credentials"))
		return
	}

	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		h.internalError(c, "failed to issue token", err)
		return
	}
	h.Log.Info("user logged in", zap.Int64("user_id", u.ID))
	c.JSON(http.StatusOK, gin.H{"auth_token": token})
}

// Logout is a no-op on the server; tokens are stateless and simply expire.
func (h *Handler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Username  string `json:"username" binding:"required"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Password  string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorsJSON("invalid registration payload"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(c, "failed to hash password", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u := &user.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	}
	if err := h.Users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			c.JSON(http.StatusBadRequest, errorsJSON("a user with this email or username already exists"))
			return
		}
		h.internalError(c, "failed to create user", err)
		return
	}
	h.Log.Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	c.JSON(http.StatusCreated, newUserResponse(u, false))
}

// ListUsers returns a paginated user listing.
func (h *Handler) ListUsers(c *gin.Context) {
	limit, offset := paginate(c)
	viewerID := currentUserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListUsers(ctx, limit, offset)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	count, err := h.Users.CountUsers(ctx)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}

	results := make([]userResponse, 0, len(users))
	for i := range users {
		subscribed := false
		if viewerID != 0 {
			subscribed, err = h.Users.IsSubscribed(ctx, viewerID, users[i].ID)
			if err != nil {
				h.internalError(c, "database error", err)
				return
			}
		}
		results = append(results, newUserResponse(&users[i], subscribed))
	}
	c.JSON(http.StatusOK, page(c, count, limit, offset, results))
}

// GetUser returns one user's public profile.
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetUser(ctx, id)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, errorsJSON("user not found"))
		return
	}

	subscribed := false
	if viewerID := currentUserID(c); viewerID != 0 {
		subscribed, err = h.Users.IsSubscribed(ctx, viewerID, u.ID)
		if err != nil {
			h.internalError(c, "database error", err)
			return
		}
	}
	c.JSON(http.StatusOK, newUserResponse(u, subscribed))
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetUser(ctx, currentUserID(c))
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, errorsJSON("user not found"))
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u, false))
}

// SetAvatar uploads or replaces the authenticated user's avatar from a
// base64 payload.
func (h *Handler) SetAvatar(c *gin.Context) {
	var req struct {
		Avatar string `json:"avatar" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorsJSON("avatar is required"))
		return
	}

	userID := currentUserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	u, err := h.Users.GetUser(ctx, userID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, errorsJSON("user not found"))
		return
	}

	path, err := h.Images.SaveBase64Image(req.Avatar)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorsJSON("invalid image payload"))
		return
	}
	if err := h.Users.SetAvatar(ctx, userID, path); err != nil {
		h.internalError(c, "failed to save avatar", err)
		return
	}
	// Replaced files are best-effort deletes.
	if u.AvatarPath != "" {
		if err := h.Images.Remove(u.AvatarPath); err != nil {
			h.Log.Warn("failed to remove old avatar", zap.String("path", u.AvatarPath), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"avatar": *mediaURL(path)})
}

// DeleteAvatar removes the authenticated user's avatar.
func (h *Handler) DeleteAvatar(c *gin.Context) {
	userID := currentUserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetUser(ctx, userID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, errorsJSON("user not found"))
		return
	}
	if err := h.Users.SetAvatar(ctx, userID, ""); err != nil {
		h.internalError(c, "failed to clear avatar", err)
		return
	}
	if u.AvatarPath != "" {
		if err := h.Images.Remove(u.AvatarPath); err != nil {
			h.Log.Warn("failed to remove avatar", zap.String("path", u.AvatarPath), zap.Error(err))
		}
	}
	c.Status(http.StatusNoContent)
}

// Subscribe follows an author.
func (h *Handler) Subscribe(c *gin.Context) {
	authorID, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	author, err := h.Users.GetUser(ctx, authorID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	if author == nil {
		c.JSON(http.StatusNotFound, errorsJSON("user not found"))
		return
	}

	if err := h.Users.Subscribe(ctx, userID, authorID); err != nil {
		switch {
		case errors.Is(err, user.ErrSelfSubscription):
			c.JSON(http.StatusBadRequest, errorsJSON("cannot subscribe to yourself"))
		case errors.Is(err, user.ErrAlreadySubscribed):
			c.JSON(http.StatusBadRequest, errorsJSON("already subscribed to this user"))
		default:
			h.internalError(c, "failed to subscribe", err)
		}
		return
	}

	resp, err := h.subscriptionEntry(ctx, author)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Unsubscribe stops following an author.
func (h *Handler) Unsubscribe(c *gin.Context) {
	authorID, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Unsubscribe(ctx, currentUserID(c), authorID); err != nil {
		if errors.Is(err, user.ErrNotSubscribed) {
			c.JSON(http.StatusBadRequest, errorsJSON("was not subscribed to this user"))
			return
		}
		h.internalError(c, "failed to unsubscribe", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions lists followed authors with their recipes.
func (h *Handler) Subscriptions(c *gin.Context) {
	limit, offset := paginate(c)
	userID := currentUserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	authors, err := h.Users.Subscriptions(ctx, userID)
	if err != nil {
		h.internalError(c, "database error", err)
		return
	}

	count := len(authors)
	pageAuthors := authors
	if offset < len(pageAuthors) {
		pageAuthors = pageAuthors[offset:]
	} else {
		pageAuthors = nil
	}
	if len(pageAuthors) > limit {
		pageAuthors = pageAuthors[:limit]
	}

	results := make([]subscriptionResponse, 0, len(pageAuthors))
	for i := range pageAuthors {
		entry, err := h.subscriptionEntry(ctx, &pageAuthors[i])
		if err != nil {
			h.internalError(c, "database error", err)
			return
		}
		results = append(results, entry)
	}
	c.JSON(http.StatusOK, page(c, count, limit, offset, results))
}

func (h *Handler) subscriptionEntry(ctx context.Context, author *user.User) (subscriptionResponse, error) {
	recipes, err := h.Recipes.ListRecipes(ctx, recipe.ListFilter{AuthorID: author.ID})
	if err != nil {
		return subscriptionResponse{}, err
	}
	short := make([]shortRecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		short = append(short, newShortRecipeResponse(r))
	}
	return subscriptionResponse{
		userResponse: newUserResponse(author, true),
		Recipes:      short,
		RecipesCount: len(recipes),
	}, nil
}
