package main

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/opyryanova/foodgram/internal/api"
	"github.com/opyryanova/foodgram/internal/auth"
	"github.com/opyryanova/foodgram/internal/config"
	"github.com/opyryanova/foodgram/internal/logger"
	"github.com/opyryanova/foodgram/internal/media"
	"github.com/opyryanova/foodgram/internal/recipe"
	"github.com/opyryanova/foodgram/internal/shoplist"
	"github.com/opyryanova/foodgram/internal/shortlink"
	"github.com/opyryanova/foodgram/internal/user"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	defer log.Sync()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// The user store goes first: recipe tables reference users.
	userStore, err := user.NewPostgresStore(db)
	if err != nil {
		log.Fatal("failed to create user store", zap.Error(err))
	}
	recipeStore, err := recipe.NewPostgresStore(db)
	if err != nil {
		log.Fatal("failed to create recipe store", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	images := media.NewStore(cfg.MediaDir)
	aggregator := shoplist.NewAggregator(recipeStore)
	resolver := shortlink.NewResolver(recipeStore, recipeStore, cfg.FrontendBaseURL)

	handler := api.NewHandler(recipeStore, userStore, tokens, images, aggregator, resolver, log)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authRequired := api.AuthRequired(tokens)
	authOptional := api.AuthOptional(tokens)

	r.GET("/s/:code", handler.RedirectShortLink)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/auth/token/login/", handler.Login)
		apiGroup.POST("/auth/token/logout/", authRequired, handler.Logout)

		users := apiGroup.Group("/users")
		{
			users.POST("/", handler.Register)
			users.GET("/", authOptional, handler.ListUsers)
			users.GET("/me/", authRequired, handler.Me)
			users.PUT("/me/avatar/", authRequired, handler.SetAvatar)
			users.DELETE("/me/avatar/", authRequired, handler.DeleteAvatar)
			users.GET("/subscriptions/", authRequired, handler.Subscriptions)
			users.GET("/:id", authOptional, handler.GetUser)
			users.POST("/:id/subscribe/", authRequired, handler.Subscribe)
			users.DELETE("/:id/subscribe/", authRequired, handler.Unsubscribe)
		}

		apiGroup.GET("/tags/", handler.ListTags)
		apiGroup.GET("/tags/:id", handler.GetTag)
		apiGroup.GET("/ingredients/", handler.ListIngredients)
		apiGroup.GET("/ingredients/:id", handler.GetIngredient)

		recipes := apiGroup.Group("/recipes")
		{
			recipes.GET("/", authOptional, handler.ListRecipes)
			recipes.POST("/", authRequired, handler.CreateRecipe)
			recipes.GET("/download_shopping_cart/", authRequired, handler.DownloadShoppingCart)
			recipes.GET("/:id", authOptional, handler.GetRecipe)
			recipes.PATCH("/:id", authRequired, handler.UpdateRecipe)
			recipes.DELETE("/:id", authRequired, handler.DeleteRecipe)
			recipes.POST("/:id/favorite/", authRequired, handler.Favorite)
			recipes.DELETE("/:id/favorite/", authRequired, handler.Unfavorite)
			recipes.POST("/:id/shopping_cart/", authRequired, handler.AddToCart)
			recipes.DELETE("/:id/shopping_cart/", authRequired, handler.RemoveFromCart)
			recipes.GET("/:id/get-link/", handler.GetLink)
		}
	}

	r.Static("/media", cfg.MediaDir)

	log.Info("starting server", zap.String("addr", cfg.HTTPAddr))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
