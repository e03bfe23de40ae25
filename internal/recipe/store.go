package recipe

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/opyryanova/foodgram/internal/shoplist"
	"github.com/opyryanova/foodgram/internal/shortlink"
)

// Store defines the interface for recipe data operations.
type Store interface {
	ListTags(ctx context.Context) ([]Tag, error)
	GetTag(ctx context.Context, id int64) (*Tag, error)
	SearchIngredients(ctx context.Context, name string) ([]Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*Ingredient, error)
	UpsertIngredient(ctx context.Context, name, measurementUnit string) error
	CreateRecipe(ctx context.Context, r *Recipe, tagIDs []int64, ingredients []IngredientAmount) error
	UpdateRecipe(ctx context.Context, r *Recipe, tagIDs []int64, ingredients []IngredientAmount) error
	DeleteRecipe(ctx context.Context, id int64) error
	GetRecipe(ctx context.Context, id, viewerID int64) (*Recipe, error)
	ListRecipes(ctx context.Context, f ListFilter) ([]*Recipe, error)
	CountRecipes(ctx context.Context, f ListFilter) (int, error)
	RecipeExists(ctx context.Context, id int64) (bool, error)
	AddFavorite(ctx context.Context, userID, recipeID int64) error
	RemoveFavorite(ctx context.Context, userID, recipeID int64) error
	AddToCart(ctx context.Context, userID, recipeID int64, servings *int64) error
	RemoveFromCart(ctx context.Context, userID, recipeID int64) error
	CartLines(ctx context.Context, userID int64) ([]shoplist.CartLine, error)
	DirectURL(ctx context.Context, code string) (string, error)
	RecipeIDByCode(ctx context.Context, code string) (int64, error)
	EnsureShortCode(ctx context.Context, recipeID int64) (string, error)
}

// PostgresStore implements Store for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates the store and its tables. The users table must
// already exist (the user store creates it), since recipes reference it.
func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS tags (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS ingredients (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		measurement_unit TEXT NOT NULL,
		UNIQUE (name, measurement_unit)
	);
	CREATE INDEX IF NOT EXISTS ingredients_name_idx ON ingredients (lower(name));

	CREATE TABLE IF NOT EXISTS recipes (
		id BIGSERIAL PRIMARY KEY,
		author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		image_path TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		cooking_time BIGINT NOT NULL CHECK (cooking_time >= 1),
		servings BIGINT NOT NULL DEFAULT 1 CHECK (servings >= 1),
		pub_date TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (author_id, name)
	);

	CREATE TABLE IF NOT EXISTS recipe_tags (
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (recipe_id, tag_id)
	);

	CREATE TABLE IF NOT EXISTS recipe_ingredients (
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		ingredient_id BIGINT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
		amount BIGINT NOT NULL CHECK (amount >= 1),
		PRIMARY KEY (recipe_id, ingredient_id)
	);

	CREATE TABLE IF NOT EXISTS favorites (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, recipe_id)
	);

	CREATE TABLE IF NOT EXISTS shopping_cart (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		servings BIGINT CHECK (servings IS NULL OR servings >= 1),
		PRIMARY KEY (user_id, recipe_id)
	);

	CREATE TABLE IF NOT EXISTS short_links (
		id BIGSERIAL PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		recipe_id BIGINT UNIQUE REFERENCES recipes(id) ON DELETE CASCADE,
		url TEXT
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create recipe tables: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// ListTags returns every tag.
func (s *PostgresStore) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	err := s.db.SelectContext(ctx, &tags, "SELECT id, name, slug FROM tags ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns a tag by id, or nil when it does not exist.
func (s *PostgresStore) GetTag(ctx context.Context, id int64) (*Tag, error) {
	var t Tag
	err := s.db.GetContext(ctx, &t, "SELECT id, name, slug FROM tags WHERE id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &t, nil
}

// SearchIngredients returns ingredients matching name, prefix matches first,
// substring matches after. An empty name returns the whole catalog.
func (s *PostgresStore) SearchIngredients(ctx context.Context, name string) ([]Ingredient, error) {
	name = strings.TrimSpace(name)
	var out []Ingredient
	if name == "" {
		err := s.db.SelectContext(ctx, &out,
			"SELECT id, name, measurement_unit FROM ingredients ORDER BY name, measurement_unit")
		if err != nil {
			return nil, fmt.Errorf("failed to list ingredients: %w", err)
		}
		return out, nil
	}

	err := s.db.SelectContext(ctx, &out,
		"SELECT id, name, measurement_unit FROM ingredients WHERE name ILIKE $1 || '%' ORDER BY name, measurement_unit",
		name)
	if err != nil {
		return nil, fmt.Errorf("failed to search ingredients: %w", err)
	}
	var rest []Ingredient
	err = s.db.SelectContext(ctx, &rest,
		"SELECT id, name, measurement_unit FROM ingredients WHERE name ILIKE '%' || $1 || '%' AND NOT (name ILIKE $1 || '%') ORDER BY name, measurement_unit",
		name)
	if err != nil {
		return nil, fmt.Errorf("failed to search ingredients: %w", err)
	}
	return append(out, rest...), nil
}

// GetIngredient returns an ingredient by id, or nil when it does not exist.
func (s *PostgresStore) GetIngredient(ctx context.Context, id int64) (*Ingredient, error) {
	var ing Ingredient
	err := s.db.GetContext(ctx, &ing, "SELECT id, name, measurement_unit FROM ingredients WHERE id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return &ing, nil
}

// UpsertIngredient inserts a catalog entry, ignoring duplicates. Used by the
// CSV loader.
func (s *PostgresStore) UpsertIngredient(ctx context.Context, name, measurementUnit string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO ingredients (name, measurement_unit) VALUES ($1, $2) ON CONFLICT (name, measurement_unit) DO NOTHING",
		name, measurementUnit)
	if err != nil {
		return fmt.Errorf("failed to upsert ingredient: %w", err)
	}
	return nil
}

// CreateRecipe inserts a recipe with its tag and ingredient rows in one
// transaction. On success r.ID and r.PubDate are filled in.
func (s *PostgresStore) CreateRecipe(ctx context.Context, r *Recipe, tagIDs []int64, ingredients []IngredientAmount) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		"INSERT INTO recipes (author_id, name, image_path, text, cooking_time, servings) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, pub_date",
		r.AuthorID, r.Name, r.ImagePath, r.Text, r.CookingTime, r.Servings,
	).Scan(&r.ID, &r.PubDate)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}

	if err := insertRecipeRelations(ctx, tx, r.ID, tagIDs, ingredients); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe: %w", err)
	}
	return nil
}

// UpdateRecipe rewrites a recipe and replaces its tag and ingredient rows.
func (s *PostgresStore) UpdateRecipe(ctx context.Context, r *Recipe, tagIDs []int64, ingredients []IngredientAmount) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE recipes SET name = $2, image_path = $3, text = $4, cooking_time = $5, servings = $6 WHERE id = $1",
		r.ID, r.Name, r.ImagePath, r.Text, r.CookingTime, r.Servings)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_tags WHERE recipe_id = $1", r.ID); err != nil {
		return fmt.Errorf("failed to clear recipe tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = $1", r.ID); err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}
	if err := insertRecipeRelations(ctx, tx, r.ID, tagIDs, ingredients); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe update: %w", err)
	}
	return nil
}

func insertRecipeRelations(ctx context.Context, tx *sqlx.Tx, recipeID int64, tagIDs []int64, ingredients []IngredientAmount) error {
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)", recipeID, tagID); err != nil {
			return fmt.Errorf("failed to insert recipe tag: %w", err)
		}
	}
	for _, ia := range ingredients {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES ($1, $2, $3)",
			recipeID, ia.IngredientID, ia.Amount); err != nil {
			return fmt.Errorf("failed to insert recipe ingredient: %w", err)
		}
	}
	return nil
}

// DeleteRecipe removes a recipe; join rows cascade.
func (s *PostgresStore) DeleteRecipe(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const recipeColumns = `r.id, r.author_id, r.name, r.image_path, r.text, r.cooking_time, r.servings, r.pub_date,
	EXISTS(SELECT 1 FROM favorites f WHERE f.user_id = $1 AND f.recipe_id = r.id) AS is_favorited,
	EXISTS(SELECT 1 FROM shopping_cart sc WHERE sc.user_id = $1 AND sc.recipe_id = r.id) AS is_in_shopping_cart`

// GetRecipe returns a recipe with tags, ingredients and viewer flags, or nil
// when it does not exist.
func (s *PostgresStore) GetRecipe(ctx context.Context, id, viewerID int64) (*Recipe, error) {
	var r Recipe
	query := "SELECT " + recipeColumns + " FROM recipes r WHERE r.id = $2"
	err := s.db.GetContext(ctx, &r, query, viewerID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if err := s.loadRelations(ctx, []*Recipe{&r}); err != nil {
		return nil, err
	}
	return &r, nil
}

// listWhere builds the WHERE clause shared by ListRecipes and CountRecipes.
// $1 is reserved for the viewer id.
func listWhere(f ListFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{f.ViewerID}
	param := 2

	if f.AuthorID != 0 {
		where += fmt.Sprintf(" AND r.author_id = $%d", param)
		args = append(args, f.AuthorID)
		param++
	}
	if len(f.TagSlugs) > 0 {
		where += fmt.Sprintf(" AND r.id IN (SELECT rt.recipe_id FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id WHERE t.slug = ANY($%d))", param)
		args = append(args, pq.Array(f.TagSlugs))
		param++
	}
	if f.FavoritedOnly {
		where += " AND r.id IN (SELECT recipe_id FROM favorites WHERE user_id = $1)"
	}
	if f.InCartOnly {
		where += " AND r.id IN (SELECT recipe_id FROM shopping_cart WHERE user_id = $1)"
	}
	return where, args
}

// ListRecipes returns recipes matching the filter, newest first.
func (s *PostgresStore) ListRecipes(ctx context.Context, f ListFilter) ([]*Recipe, error) {
	where, args := listWhere(f)
	query := "SELECT " + recipeColumns + " FROM recipes r" + where + " ORDER BY r.id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	var recipes []*Recipe
	if err := s.db.SelectContext(ctx, &recipes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	if err := s.loadRelations(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// CountRecipes returns the number of recipes matching the filter, ignoring
// pagination.
func (s *PostgresStore) CountRecipes(ctx context.Context, f ListFilter) (int, error) {
	where, args := listWhere(f)
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT count(*) FROM recipes r"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

// loadRelations batch-loads tags and ingredients for the given recipes.
func (s *PostgresStore) loadRelations(ctx context.Context, recipes []*Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]int64, len(recipes))
	byID := make(map[int64]*Recipe, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		byID[r.ID] = r
		r.Tags = []Tag{}
		r.Ingredients = []RecipeIngredient{}
	}

	tagRows, err := s.db.QueryxContext(ctx,
		"SELECT rt.recipe_id, t.id, t.name, t.slug FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id WHERE rt.recipe_id = ANY($1) ORDER BY t.id",
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load recipe tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var recipeID int64
		var t Tag
		if err := tagRows.Scan(&recipeID, &t.ID, &t.Name, &t.Slug); err != nil {
			return fmt.Errorf("failed to scan recipe tag: %w", err)
		}
		byID[recipeID].Tags = append(byID[recipeID].Tags, t)
	}
	if err := tagRows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	ingRows, err := s.db.QueryxContext(ctx,
		"SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id WHERE ri.recipe_id = ANY($1) ORDER BY i.name",
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	defer ingRows.Close()
	for ingRows.Next() {
		var recipeID int64
		var ri RecipeIngredient
		if err := ingRows.Scan(&recipeID, &ri.ID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		byID[recipeID].Ingredients = append(byID[recipeID].Ingredients, ri)
	}
	if err := ingRows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

// RecipeExists reports whether a recipe id is known. Also satisfies the
// short-link resolver's existence checker.
func (s *PostgresStore) RecipeExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM recipes WHERE id = $1)", id)
	if err != nil {
		return false, fmt.Errorf("failed to check recipe existence: %w", err)
	}
	return exists, nil
}

// AddFavorite marks a recipe as favorited by a user.
func (s *PostgresStore) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO favorites (user_id, recipe_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, recipeID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyFavorited
	}
	return nil
}

// RemoveFavorite unmarks a favorite.
func (s *PostgresStore) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id = $1 AND recipe_id = $2", userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFavorited
	}
	return nil
}

// AddToCart puts a recipe into the user's shopping cart, optionally with a
// serving override. A nil override means "shop for the recipe's own serving
// count".
func (s *PostgresStore) AddToCart(ctx context.Context, userID, recipeID int64, servings *int64) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO shopping_cart (user_id, recipe_id, servings) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		userID, recipeID, servings)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to add to cart: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyInCart
	}
	return nil
}

// RemoveFromCart drops a cart entry.
func (s *PostgresStore) RemoveFromCart(ctx context.Context, userID, recipeID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM shopping_cart WHERE user_id = $1 AND recipe_id = $2", userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotInCart
	}
	return nil
}

// CartLines returns one line per ingredient of every recipe in the user's
// cart, with that entry's serving override when set. Implements
// shoplist.CartSource.
func (s *PostgresStore) CartLines(ctx context.Context, userID int64) ([]shoplist.CartLine, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT i.name, i.measurement_unit, ri.amount, r.servings, sc.servings
		FROM shopping_cart sc
		JOIN recipes r ON r.id = sc.recipe_id
		JOIN recipe_ingredients ri ON ri.recipe_id = r.id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE sc.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []shoplist.CartLine
	for rows.Next() {
		var cl shoplist.CartLine
		var override sql.NullInt64
		if err := rows.Scan(&cl.IngredientName, &cl.MeasurementUnit, &cl.Amount, &cl.RecipeServings, &override); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		if override.Valid {
			v := override.Int64
			cl.CartServings = &v
		}
		lines = append(lines, cl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return lines, nil
}

// DirectURL returns the stored absolute URL for a code, or "" when there is
// none. Implements shortlink.LinkStore.
func (s *PostgresStore) DirectURL(ctx context.Context, code string) (string, error) {
	var url string
	err := s.db.GetContext(ctx, &url, "SELECT url FROM short_links WHERE code = $1 AND url IS NOT NULL", code)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get direct url: %w", err)
	}
	return url, nil
}

// RecipeIDByCode returns the recipe a code was minted for, or 0 when the
// code is unknown.
func (s *PostgresStore) RecipeIDByCode(ctx context.Context, code string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, "SELECT recipe_id FROM short_links WHERE code = $1 AND recipe_id IS NOT NULL", code)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get recipe id by code: %w", err)
	}
	return id, nil
}

// EnsureShortCode returns the recipe's short code, minting and persisting
// one on first use. Codes are the base62 rendering of the recipe id, so
// minting is deterministic and idempotent.
func (s *PostgresStore) EnsureShortCode(ctx context.Context, recipeID int64) (string, error) {
	var code string
	err := s.db.GetContext(ctx, &code, "SELECT code FROM short_links WHERE recipe_id = $1", recipeID)
	if err == nil {
		return code, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up short code: %w", err)
	}

	code, err = shortlink.EncodeBase62(recipeID)
	if err != nil {
		return "", fmt.Errorf("failed to encode short code: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO short_links (code, recipe_id) VALUES ($1, $2) ON CONFLICT (recipe_id) DO NOTHING", code, recipeID)
	if err != nil {
		return "", fmt.Errorf("failed to save short code: %w", err)
	}
	return code, nil
}

// isForeignKeyViolation reports whether err is a Postgres FK violation,
// meaning the referenced recipe or user is gone.
func isForeignKeyViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23503"
	}
	return false
}
