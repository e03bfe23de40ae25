package shoplist

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// EmptyListMessage is rendered when the user's cart holds nothing.
const EmptyListMessage = "Shopping list is empty."

// CartLine is one ingredient contribution from a recipe in a user's cart.
// Amounts are calibrated for RecipeServings portions; CartServings, when
// set, is the portion count the user actually wants to shop for.
type CartLine struct {
	IngredientName  string
	MeasurementUnit string
	Amount          int64
	RecipeServings  int64
	CartServings    *int64
}

// Line is one aggregated row of the rendered shopping list.
type Line struct {
	IngredientName  string
	MeasurementUnit string
	Total           int64
}

// CartSource yields every cart line for a user. Implemented by the recipe
// store.
type CartSource interface {
	CartLines(ctx context.Context, userID int64) ([]CartLine, error)
}

// Aggregator sums cart lines by ingredient identity.
type Aggregator struct {
	src CartSource
}

func NewAggregator(src CartSource) *Aggregator {
	return &Aggregator{src: src}
}

type groupKey struct {
	name string
	unit string
}

// frac is an exact non-negative rational accumulator. Sums are kept as
// integer fractions so that contributions like 1/3 + 1/3 + 1/3 add up to
// exactly 1 before the ceiling is taken.
type frac struct {
	num int64
	den int64
}

func (f *frac) add(num, den int64) {
	f.num = f.num*den + num*f.den
	f.den *= den
	if g := gcd(f.num, f.den); g > 1 {
		f.num /= g
		f.den /= g
	}
}

// ceil rounds the fraction up to a whole number. Partial units are not
// purchasable, so the list never under-states a quantity; 2.1 of anything
// becomes 3.
func (f *frac) ceil() int64 {
	return (f.num + f.den - 1) / f.den
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Aggregate fetches the user's cart lines, scales each by its serving
// override, and returns one total per (name, unit) pair, sorted by name. An
// empty cart yields an empty slice, not an error.
func (a *Aggregator) Aggregate(ctx context.Context, userID int64) ([]Line, error) {
	cartLines, err := a.src.CartLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart lines: %w", err)
	}

	totals := make(map[groupKey]*frac)
	for _, cl := range cartLines {
		if cl.Amount <= 0 {
			continue
		}
		ref := cl.RecipeServings
		if ref <= 0 {
			ref = 1
		}
		num, den := cl.Amount, int64(1)
		if cl.CartServings != nil {
			if *cl.CartServings <= 0 {
				continue
			}
			num, den = cl.Amount**cl.CartServings, ref
		}
		key := groupKey{name: cl.IngredientName, unit: cl.MeasurementUnit}
		if t, ok := totals[key]; ok {
			t.add(num, den)
		} else {
			totals[key] = &frac{num: num, den: den}
		}
	}

	lines := make([]Line, 0, len(totals))
	for key, t := range totals {
		lines = append(lines, Line{
			IngredientName:  key.name,
			MeasurementUnit: key.unit,
			Total:           t.ceil(),
		})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].IngredientName != lines[j].IngredientName {
			return lines[i].IngredientName < lines[j].IngredientName
		}
		return lines[i].MeasurementUnit < lines[j].MeasurementUnit
	})
	return lines, nil
}

// Render produces the downloadable plain-text document, one ingredient per
// line.
func Render(lines []Line) string {
	if len(lines) == 0 {
		return EmptyListMessage
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fmt.Sprintf("%s — %d %s", l.IngredientName, l.Total, l.MeasurementUnit)
	}
	return strings.Join(out, "\n")
}
