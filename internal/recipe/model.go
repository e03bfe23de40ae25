package recipe

import (
	"errors"
	"time"
)

// Domain errors surfaced by the store. The HTTP layer maps these to 400/404
// responses.
var (
	ErrNotFound         = errors.New("recipe not found")
	ErrAlreadyFavorited = errors.New("recipe already favorited")
	ErrNotFavorited     = errors.New("recipe is not favorited")
	ErrAlreadyInCart    = errors.New("recipe already in shopping cart")
	ErrNotInCart        = errors.New("recipe is not in shopping cart")
)

// Tag is a recipe label (e.g. breakfast, dinner).
type Tag struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

// Ingredient is a catalog entry; the (name, measurement_unit) pair is unique.
type Ingredient struct {
	ID              int64  `db:"id" json:"id"`
	Name            string `db:"name" json:"name"`
	MeasurementUnit string `db:"measurement_unit" json:"measurement_unit"`
}

// RecipeIngredient is one ingredient of a recipe as read back, catalog
// fields joined in.
type RecipeIngredient struct {
	ID              int64  `db:"ingredient_id" json:"id"`
	Name            string `db:"name" json:"name"`
	MeasurementUnit string `db:"measurement_unit" json:"measurement_unit"`
	Amount          int64  `db:"amount" json:"amount"`
}

// IngredientAmount is the write-side (ingredient, amount) pair for creating
// or updating a recipe.
type IngredientAmount struct {
	IngredientID int64
	Amount       int64
}

// Recipe is a user-authored recipe. Amounts of its ingredients are
// calibrated for Servings portions.
type Recipe struct {
	ID               int64     `db:"id"`
	AuthorID         int64     `db:"author_id"`
	Name             string    `db:"name"`
	ImagePath        string    `db:"image_path"`
	Text             string    `db:"text"`
	CookingTime      int64     `db:"cooking_time"`
	Servings         int64     `db:"servings"`
	PubDate          time.Time `db:"pub_date"`
	IsFavorited      bool      `db:"is_favorited"`
	IsInShoppingCart bool      `db:"is_in_shopping_cart"`

	Tags        []Tag
	Ingredients []RecipeIngredient
}

// ListFilter narrows a recipe listing. ViewerID drives the is_favorited /
// is_in_shopping_cart flags and the two "only" filters; zero means
// anonymous.
type ListFilter struct {
	ViewerID      int64
	AuthorID      int64
	TagSlugs      []string
	FavoritedOnly bool
	InCartOnly    bool
	Limit         int
	Offset        int
}
