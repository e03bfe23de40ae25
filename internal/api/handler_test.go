package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opyryanova/foodgram/internal/auth"
	"github.com/opyryanova/foodgram/internal/recipe"
	"github.com/opyryanova/foodgram/internal/shoplist"
	"github.com/opyryanova/foodgram/internal/shortlink"
	"github.com/opyryanova/foodgram/internal/user"
)

// mockRecipeStore is a map-backed RecipeStore. It also serves as the cart
// source for the aggregator and the mapping store for the resolver.
type mockRecipeStore struct {
	recipes     map[int64]*recipe.Recipe
	tags        []recipe.Tag
	ingredients []recipe.Ingredient
	favorites   map[[2]int64]bool
	cart        map[[2]int64]*int64
	cartLines   []shoplist.CartLine
	codes       map[string]int64
	directURLs  map[string]string
	nextID      int64
}

func newMockRecipeStore() *mockRecipeStore {
	return &mockRecipeStore{
		recipes:    make(map[int64]*recipe.Recipe),
		favorites:  make(map[[2]int64]bool),
		cart:       make(map[[2]int64]*int64),
		codes:      make(map[string]int64),
		directURLs: make(map[string]string),
	}
}

func (m *mockRecipeStore) ListTags(ctx context.Context) ([]recipe.Tag, error) {
	return m.tags, nil
}

func (m *mockRecipeStore) GetTag(ctx context.Context, id int64) (*recipe.Tag, error) {
	for i := range m.tags {
		if m.tags[i].ID == id {
			return &m.tags[i], nil
		}
	}
	return nil, nil
}

func (m *mockRecipeStore) SearchIngredients(ctx context.Context, name string) ([]recipe.Ingredient, error) {
	if name == "" {
		return m.ingredients, nil
	}
	var out []recipe.Ingredient
	for _, ing := range m.ingredients {
		if strings.HasPrefix(strings.ToLower(ing.Name), strings.ToLower(name)) {
			out = append(out, ing)
		}
	}
	return out, nil
}

func (m *mockRecipeStore) GetIngredient(ctx context.Context, id int64) (*recipe.Ingredient, error) {
	for i := range m.ingredients {
		if m.ingredients[i].ID == id {
			return &m.ingredients[i], nil
		}
	}
	return nil, nil
}

func (m *mockRecipeStore) CreateRecipe(ctx context.Context, r *recipe.Recipe, tagIDs []int64, ingredients []recipe.IngredientAmount) error {
	m.nextID++
	r.ID = m.nextID
	for _, id := range tagIDs {
		if t, _ := m.GetTag(ctx, id); t != nil {
			r.Tags = append(r.Tags, *t)
		}
	}
	for _, ia := range ingredients {
		if ing, _ := m.GetIngredient(ctx, ia.IngredientID); ing != nil {
			r.Ingredients = append(r.Ingredients, recipe.RecipeIngredient{
				ID: ing.ID, Name: ing.Name, MeasurementUnit: ing.MeasurementUnit, Amount: ia.Amount,
			})
		}
	}
	clone := *r
	m.recipes[r.ID] = &clone
	return nil
}

func (m *mockRecipeStore) UpdateRecipe(ctx context.Context, r *recipe.Recipe, tagIDs []int64, ingredients []recipe.IngredientAmount) error {
	if _, ok := m.recipes[r.ID]; !ok {
		return recipe.ErrNotFound
	}
	clone := *r
	m.recipes[r.ID] = &clone
	return nil
}

func (m *mockRecipeStore) DeleteRecipe(ctx context.Context, id int64) error {
	if _, ok := m.recipes[id]; !ok {
		return recipe.ErrNotFound
	}
	delete(m.recipes, id)
	return nil
}

func (m *mockRecipeStore) GetRecipe(ctx context.Context, id, viewerID int64) (*recipe.Recipe, error) {
	r, ok := m.recipes[id]
	if !ok {
		return nil, nil
	}
	clone := *r
	clone.IsFavorited = m.favorites[[2]int64{viewerID, id}]
	_, clone.IsInShoppingCart = m.cart[[2]int64{viewerID, id}]
	return &clone, nil
}

func (m *mockRecipeStore) ListRecipes(ctx context.Context, f recipe.ListFilter) ([]*recipe.Recipe, error) {
	var out []*recipe.Recipe
	for id, r := range m.recipes {
		if f.AuthorID != 0 && r.AuthorID != f.AuthorID {
			continue
		}
		clone, _ := m.GetRecipe(ctx, id, f.ViewerID)
		out = append(out, clone)
	}
	return out, nil
}

func (m *mockRecipeStore) CountRecipes(ctx context.Context, f recipe.ListFilter) (int, error) {
	rs, _ := m.ListRecipes(ctx, f)
	return len(rs), nil
}

func (m *mockRecipeStore) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	key := [2]int64{userID, recipeID}
	if m.favorites[key] {
		return recipe.ErrAlreadyFavorited
	}
	m.favorites[key] = true
	return nil
}

func (m *mockRecipeStore) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	key := [2]int64{userID, recipeID}
	if !m.favorites[key] {
		return recipe.ErrNotFavorited
	}
	delete(m.favorites, key)
	return nil
}

func (m *mockRecipeStore) AddToCart(ctx context.Context, userID, recipeID int64, servings *int64) error {
	key := [2]int64{userID, recipeID}
	if _, ok := m.cart[key]; ok {
		return recipe.ErrAlreadyInCart
	}
	m.cart[key] = servings
	return nil
}

func (m *mockRecipeStore) RemoveFromCart(ctx context.Context, userID, recipeID int64) error {
	key := [2]int64{userID, recipeID}
	if _, ok := m.cart[key]; !ok {
		return recipe.ErrNotInCart
	}
	delete(m.cart, key)
	return nil
}

func (m *mockRecipeStore) EnsureShortCode(ctx context.Context, recipeID int64) (string, error) {
	for code, id := range m.codes {
		if id == recipeID {
			return code, nil
		}
	}
	code, err := shortlink.EncodeBase62(recipeID)
	if err != nil {
		return "", err
	}
	m.codes[code] = recipeID
	return code, nil
}

// CartLines implements shoplist.CartSource.
func (m *mockRecipeStore) CartLines(ctx context.Context, userID int64) ([]shoplist.CartLine, error) {
	return m.cartLines, nil
}

// DirectURL and RecipeIDByCode implement shortlink.LinkStore.
func (m *mockRecipeStore) DirectURL(ctx context.Context, code string) (string, error) {
	return m.directURLs[code], nil
}

func (m *mockRecipeStore) RecipeIDByCode(ctx context.Context, code string) (int64, error) {
	return m.codes[code], nil
}

// RecipeExists implements shortlink.ExistenceChecker.
func (m *mockRecipeStore) RecipeExists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.recipes[id]
	return ok, nil
}

// mockUserStore is a map-backed UserStore.
type mockUserStore struct {
	users  map[int64]*user.User
	subs   map[[2]int64]bool
	nextID int64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[int64]*user.User), subs: make(map[[2]int64]bool)}
}

func (m *mockUserStore) addUser(username, email, password string) *user.User {
	hash, _ := auth.HashPassword(password)
	m.nextID++
	u := &user.User{ID: m.nextID, Email: email, Username: username, PasswordHash: hash}
	m.users[u.ID] = u
	return u
}

func (m *mockUserStore) CreateUser(ctx context.Context, u *user.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return user.ErrAlreadyExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	clone := *u
	m.users[u.ID] = &clone
	return nil
}

func (m *mockUserStore) GetUser(ctx context.Context, id int64) (*user.User, error) {
	return m.users[id], nil
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserStore) ListUsers(ctx context.Context, limit, offset int) ([]user.User, error) {
	var out []user.User
	for i := int64(1); i <= m.nextID; i++ {
		if u, ok := m.users[i]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserStore) CountUsers(ctx context.Context) (int, error) {
	return len(m.users), nil
}

func (m *mockUserStore) SetAvatar(ctx context.Context, id int64, path string) error {
	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.AvatarPath = path
	return nil
}

func (m *mockUserStore) Subscribe(ctx context.Context, userID, authorID int64) error {
	if userID == authorID {
		return user.ErrSelfSubscription
	}
	key := [2]int64{userID, authorID}
	if m.subs[key] {
		return user.ErrAlreadySubscribed
	}
	m.subs[key] = true
	return nil
}

func (m *mockUserStore) Unsubscribe(ctx context.Context, userID, authorID int64) error {
	key := [2]int64{userID, authorID}
	if !m.subs[key] {
		return user.ErrNotSubscribed
	}
	delete(m.subs, key)
	return nil
}

func (m *mockUserStore) IsSubscribed(ctx context.Context, userID, authorID int64) (bool, error) {
	return m.subs[[2]int64{userID, authorID}], nil
}

func (m *mockUserStore) Subscriptions(ctx context.Context, userID int64) ([]user.User, error) {
	var out []user.User
	for i := int64(1); i <= m.nextID; i++ {
		if m.subs[[2]int64{userID, i}] {
			out = append(out, *m.users[i])
		}
	}
	return out, nil
}

// mockTokens maps "token-<id>" back and forth without real signing.
type mockTokens struct{}

func (mockTokens) Issue(userID int64) (string, error) {
	return fmt.Sprintf("token-%d", userID), nil
}

func (mockTokens) Verify(token string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(token, "token-"), 10, 64)
	if err != nil || id <= 0 {
		return 0, auth.ErrInvalidToken
	}
	return id, nil
}

// mockImages records saves without touching the filesystem.
type mockImages struct {
	saved   []string
	removed []string
}

func (m *mockImages) SaveBase64Image(data string) (string, error) {
	path := fmt.Sprintf("media/img-%d.jpg", len(m.saved))
	m.saved = append(m.saved, path)
	return path, nil
}

func (m *mockImages) Remove(path string) error {
	m.removed = append(m.removed, path)
	return nil
}

type testEnv struct {
	router  *gin.Engine
	handler *Handler
	recipes *mockRecipeStore
	users   *mockUserStore
	images  *mockImages
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recipes := newMockRecipeStore()
	users := newMockUserStore()
	images := &mockImages{}
	tokens := mockTokens{}

	handler := NewHandler(
		recipes,
		users,
		tokens,
		images,
		shoplist.NewAggregator(recipes),
		shortlink.NewResolver(recipes, recipes, "http://localhost"),
		zap.NewNop(),
	)

	r := gin.New()
	authRequired := AuthRequired(tokens)
	authOptional := AuthOptional(tokens)

	r.GET("/s/:code", handler.RedirectShortLink)
	r.POST("/api/auth/token/login/", handler.Login)
	r.POST("/api/users/", handler.Register)
	r.GET("/api/tags/", handler.ListTags)
	r.GET("/api/ingredients/", handler.ListIngredients)
	r.GET("/api/recipes/", authOptional, handler.ListRecipes)
	r.POST("/api/recipes/", authRequired, handler.CreateRecipe)
	r.GET("/api/recipes/download_shopping_cart/", authRequired, handler.DownloadShoppingCart)
	r.GET("/api/recipes/:id", authOptional, handler.GetRecipe)
	r.PATCH("/api/recipes/:id", authRequired, handler.UpdateRecipe)
	r.POST("/api/recipes/:id/favorite/", authRequired, handler.Favorite)
	r.DELETE("/api/recipes/:id/favorite/", authRequired, handler.Unfavorite)
	r.POST("/api/recipes/:id/shopping_cart/", authRequired, handler.AddToCart)
	r.GET("/api/recipes/:id/get-link/", handler.GetLink)
	r.POST("/api/users/:id/subscribe/", authRequired, handler.Subscribe)

	return &testEnv{router: r, handler: handler, recipes: recipes, users: users, images: images}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("chef", "chef@example.com", "password123")

	rr := env.request(t, http.MethodPost, "/api/auth/token/login/", "", gin.H{
		"email": "chef@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "token-1", resp["auth_token"])
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("chef", "chef@example.com", "password123")

	rr := env.request(t, http.MethodPost, "/api/auth/token/login/", "", gin.H{
		"email": "chef@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("chef", "chef@example.com", "password123")

	rr := env.request(t, http.MethodPost, "/api/users/", "", gin.H{
		"email": "chef@example.com", "username": "other", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "errors")
}

func TestDownloadShoppingCart(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("chef", "chef@example.com", "password123")
	three := int64(3)
	env.recipes.cartLines = []shoplist.CartLine{
		{IngredientName: "Flour", MeasurementUnit: "g", Amount: 200, RecipeServings: 2, CartServings: &three},
		{IngredientName: "Butter", MeasurementUnit: "g", Amount: 50, RecipeServings: 1},
	}

	rr := env.request(t, http.MethodGet, "/api/recipes/download_shopping_cart/", "token-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "shopping_list.txt")
	assert.Equal(t, "Butter — 50 g\nFlour — 300 g", rr.Body.String())
}

func TestDownloadShoppingCart_Empty(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("chef", "chef@example.com", "password123")

	rr := env.request(t, http.MethodGet, "/api/recipes/download_shopping_cart/", "token-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, shoplist.EmptyListMessage, rr.Body.String())
}

func TestDownloadShoppingCart_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	rr := env.request(t, http.MethodGet, "/api/recipes/download_shopping_cart/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func seedRecipe(env *testEnv, authorID int64, name string) *recipe.Recipe {
	env.recipes.nextID++
	r := &recipe.Recipe{ID: env.recipes.nextID, AuthorID: authorID, Name: name, Text: "text", CookingTime: 10, Servings: 2}
	env.recipes.recipes[r.ID] = r
	return r
}

func TestFavorite_ThenDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("chef", "chef@example.com", "password123")
	r := seedRecipe(env, 1, "Pancakes")

	path := fmt.Sprintf("/api/recipes/%d/favorite/", r.ID)
	rr := env.request(t, http.MethodPost, path, "token-1", nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	var short shortRecipeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &short))
	assert.Equal(t, "Pancakes", short.Name)

	rr = env.request(t, http.MethodPost, path, "token-1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.request(t, http.MethodDelete, path, "token-1", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.request(t, http.MethodDelete, path, "token-1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAddToCart_WithServings(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("chef", "chef@example.com", "password123")
	r := seedRecipe(env, 1, "Soup")

	rr := env.request(t, http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart/", r.ID), "token-1", gin.H{"servings": 4})
	require.Equal(t, http.StatusCreated, rr.Code)

	stored := env.recipes.cart[[2]int64{1, r.ID}]
	require.NotNil(t, stored)
	assert.Equal(t, int64(4), *stored)
}

func TestAddToCart_InvalidServings(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("chef", "chef@example.com", "password123")
	r := seedRecipe(env, 1, "Soup")

	rr := env.request(t, http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart/", r.ID), "token-1", gin.H{"servings": 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.request(t, http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart/", r.ID), "token-1", gin.H{"servings": 51})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetRecipe_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rr := env.request(t, http.MethodGet, "/api/recipes/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateRecipe_NotAuthor(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("author", "author@example.com", "password123")
	env.users.addUser("other", "other@example.com", "password123")
	r := seedRecipe(env, 1, "Cake")

	rr := env.request(t, http.MethodPatch, fmt.Sprintf("/api/recipes/%d", r.ID), "token-2", gin.H{
		"name": "Stolen Cake", "text": "mine now", "cooking_time": 5,
		"tags": []int64{1}, "ingredients": []gin.H{{"id": 1, "amount": 1}},
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestGetLink_MintsBase62Code(t *testing.T) {
	env := newTestEnv(t)
	r := seedRecipe(env, 1, "Pie")

	rr := env.request(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d/get-link/", r.ID), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	code, err := shortlink.EncodeBase62(r.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp["short-link"], "/s/"+code), "got %q", resp["short-link"])

	// Minting again returns the same code.
	rr = env.request(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d/get-link/", r.ID), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var again map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &again))
	assert.Equal(t, resp["short-link"], again["short-link"])
}

func TestRedirectShortLink_StoredCode(t *testing.T) {
	env := newTestEnv(t)
	r := seedRecipe(env, 1, "Pie")
	env.recipes.codes["abc"] = r.ID

	rr := env.request(t, http.MethodGet, "/s/abc", "", nil)
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, fmt.Sprintf("http://localhost/recipes/%d/", r.ID), rr.Header().Get("Location"))
}

func TestRedirectShortLink_DirectURL(t *testing.T) {
	env := newTestEnv(t)
	env.recipes.directURLs["promo"] = "https://example.com/campaign"

	rr := env.request(t, http.MethodGet, "/s/promo", "", nil)
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://example.com/campaign", rr.Header().Get("Location"))
}

func TestRedirectShortLink_Unresolvable(t *testing.T) {
	env := newTestEnv(t)

	// No mappings, nothing decodable: fall back to the site root.
	rr := env.request(t, http.MethodGet, "/s/***", "", nil)
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestRedirectShortLink_DecimalCode(t *testing.T) {
	env := newTestEnv(t)
	r := seedRecipe(env, 1, "Pie")

	rr := env.request(t, http.MethodGet, fmt.Sprintf("/s/%d", r.ID), "", nil)
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, fmt.Sprintf("http://localhost/recipes/%d/", r.ID), rr.Header().Get("Location"))
}

func TestListTags(t *testing.T) {
	env := newTestEnv(t)
	env.recipes.tags = []recipe.Tag{{ID: 1, Name: "Breakfast", Slug: "breakfast"}}

	rr := env.request(t, http.MethodGet, "/api/tags/", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var tags []recipe.Tag
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tags))
	require.Len(t, tags, 1)
	assert.Equal(t, "breakfast", tags[0].Slug)
}

func TestSubscribe_Self(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("chef", "chef@example.com", "password123")

	rr := env.request(t, http.MethodPost, "/api/users/1/subscribe/", "token-1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateRecipe(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("chef", "chef@example.com", "password123")
	env.recipes.tags = []recipe.Tag{{ID: 1, Name: "Dinner", Slug: "dinner"}}
	env.recipes.ingredients = []recipe.Ingredient{{ID: 1, Name: "Flour", MeasurementUnit: "g"}}

	rr := env.request(t, http.MethodPost, "/api/recipes/", "token-1", gin.H{
		"name": "Bread", "text": "bake it", "cooking_time": 60, "servings": 4,
		"image":       "data:image/png;base64,aGVsbG8=",
		"tags":        []int64{1},
		"ingredients": []gin.H{{"id": 1, "amount": 500}},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp recipeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Bread", resp.Name)
	assert.Equal(t, int64(4), resp.Servings)
	require.Len(t, resp.Ingredients, 1)
	assert.Equal(t, int64(500), resp.Ingredients[0].Amount)
	assert.Len(t, env.images.saved, 1)
}

func TestCreateRecipe_Invalid(t *testing.T) {
	env := newTestEnv(t)
	env.users.addUser("chef", "chef@example.com", "password123")

	cases := []gin.H{
		// No tags.
		{"name": "X", "text": "y", "cooking_time": 5, "image": "x",
			"tags": []int64{}, "ingredients": []gin.H{{"id": 1, "amount": 1}}},
		// No ingredients.
		{"name": "X", "text": "y", "cooking_time": 5, "image": "x",
			"tags": []int64{1}, "ingredients": []gin.H{}},
		// Zero amount.
		{"name": "X", "text": "y", "cooking_time": 5, "image": "x",
			"tags": []int64{1}, "ingredients": []gin.H{{"id": 1, "amount": 0}}},
		// Zero cooking time.
		{"name": "X", "text": "y", "cooking_time": 0, "image": "x",
			"tags": []int64{1}, "ingredients": []gin.H{{"id": 1, "amount": 1}}},
		// Duplicate tags.
		{"name": "X", "text": "y", "cooking_time": 5, "image": "x",
			"tags": []int64{1, 1}, "ingredients": []gin.H{{"id": 1, "amount": 1}}},
	}
	for i, body := range cases {
		rr := env.request(t, http.MethodPost, "/api/recipes/", "token-1", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "case %d", i)
	}
}
