package shortlink

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// LinkStore is the persisted short-link mapping collaborator.
type LinkStore interface {
	// DirectURL returns the stored absolute URL for a code, or "" when the
	// code has no direct mapping.
	DirectURL(ctx context.Context, code string) (string, error)
	// RecipeIDByCode returns the recipe id a code was minted for, or 0 when
	// the code is unknown.
	RecipeIDByCode(ctx context.Context, code string) (int64, error)
}

// ExistenceChecker reports whether a recipe id is known. A nil checker makes
// the resolver accept decoded candidates optimistically.
type ExistenceChecker interface {
	RecipeExists(ctx context.Context, id int64) (bool, error)
}

// Resolver turns an opaque short code into a redirect target. Strategies run
// in a fixed order and the first one to produce a URL wins; a strategy that
// fails, for any reason, simply yields to the next.
type Resolver struct {
	store        LinkStore
	exists       ExistenceChecker
	frontendBase string
	strategies   []strategy
}

type strategy func(ctx context.Context, code string) (string, bool)

// NewResolver builds a resolver over the given mapping store. exists may be
// nil. frontendBase is the front-end origin recipe pages live under.
func NewResolver(store LinkStore, exists ExistenceChecker, frontendBase string) *Resolver {
	r := &Resolver{
		store:        store,
		exists:       exists,
		frontendBase: strings.TrimRight(frontendBase, "/"),
	}
	// Stored mappings take absolute precedence over any numeric reading of
	// the code. Literal decimal runs before base62 so a code like "100"
	// means recipe 100, never 1*62*62.
	r.strategies = []strategy{
		r.fromDirectURL,
		r.fromStoredCode,
		r.fromDecimal,
		r.fromBase62,
		r.fromBase64,
	}
	return r
}

// Resolve returns the redirect target for a code, or "" when no strategy can
// interpret it. It never returns an error: store failures and malformed
// codes both read as "this strategy missed".
func (r *Resolver) Resolve(ctx context.Context, code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for _, try := range r.strategies {
		if url, ok := try(ctx, code); ok {
			return url
		}
	}
	return ""
}

// RecipeURL builds the front-end page URL for a recipe id.
func (r *Resolver) RecipeURL(id int64) string {
	return fmt.Sprintf("%s/recipes/%d/", r.frontendBase, id)
}

func (r *Resolver) fromDirectURL(ctx context.Context, code string) (string, bool) {
	url, err := r.store.DirectURL(ctx, code)
	if err != nil || url == "" {
		return "", false
	}
	return url, true
}

func (r *Resolver) fromStoredCode(ctx context.Context, code string) (string, bool) {
	id, err := r.store.RecipeIDByCode(ctx, code)
	if err != nil || id <= 0 {
		return "", false
	}
	return r.RecipeURL(id), true
}

func (r *Resolver) fromDecimal(ctx context.Context, code string) (string, bool) {
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return "", false
		}
	}
	id, err := strconv.ParseInt(code, 10, 64)
	if err != nil || id <= 0 {
		return "", false
	}
	return r.candidate(ctx, id)
}

func (r *Resolver) fromBase62(ctx context.Context, code string) (string, bool) {
	id, ok := DecodeBase62(code)
	if !ok || id <= 0 {
		return "", false
	}
	return r.candidate(ctx, id)
}

func (r *Resolver) fromBase64(ctx context.Context, code string) (string, bool) {
	id, ok := DecodeURLSafeB64Digits(code)
	if !ok || id <= 0 {
		return "", false
	}
	return r.candidate(ctx, id)
}

// candidate validates a decoded recipe id against the existence checker,
// when one is wired.
func (r *Resolver) candidate(ctx context.Context, id int64) (string, bool) {
	if r.exists != nil {
		ok, err := r.exists.RecipeExists(ctx, id)
		if err != nil || !ok {
			return "", false
		}
	}
	return r.RecipeURL(id), true
}
