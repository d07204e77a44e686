package main

import (
	"log"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/config"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/database"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/handlers"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/middleware"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/services"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/ws"

	_ "github.com/alberto-conan-ui/ttrpg-longtermgoals/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Campaign Journal API
// @version         1.0
// @description     API for tabletop campaign management with session markers, lore sharing and investigation tracks
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	authService := services.NewAuthService(db, cfg.JWTSecret)
	campaignService := services.NewCampaignService(db)
	markerService := services.NewMarkerService(db)
	partService := services.NewPartService(db, markerService)
	loreService := services.NewLoreService(db, markerService)
	trackService := services.NewTrackService(db)

	authHandler := handlers.NewAuthHandler(authService)
	campaignHandler := handlers.NewCampaignHandler(campaignService, markerService, partService, hub)
	partHandler := handlers.NewPartHandler(partService, hub)
	sessionHandler := handlers.NewSessionHandler(partService)
	loreHandler := handlers.NewLoreHandler(loreService)
	trackHandler := handlers.NewTrackHandler(trackService, hub)
	wsHandler := handlers.NewWSHandler(hub)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/campaign/:id", wsHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.JWTAuth(authService), authHandler.Me)
		}

		campaigns := api.Group("/campaigns")
		campaigns.Use(middleware.JWTAuth(authService))
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.ListCampaigns)
			campaigns.POST("/join", campaignHandler.JoinCampaign)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.POST("/:id/invite", campaignHandler.RegenerateInvite)
			campaigns.PATCH("/:id/showcase", campaignHandler.UpdateShowcase)
			campaigns.PATCH("/:id/marker", campaignHandler.SetMarker)
			campaigns.GET("/:id/parts", campaignHandler.GetPartsTree)
			campaigns.POST("/:id/parts", partHandler.CreatePart)
			campaigns.GET("/:id/lore", loreHandler.ListLore)
			campaigns.POST("/:id/lore", loreHandler.CreateLore)
			campaigns.GET("/:id/tracks", trackHandler.ListTracks)
			campaigns.POST("/:id/tracks", trackHandler.CreateTrack)
		}

		parts := api.Group("/parts")
		parts.Use(middleware.JWTAuth(authService))
		{
			parts.PATCH("/:id", partHandler.UpdatePart)
			parts.DELETE("/:id", partHandler.DeletePart)
			parts.PATCH("/:id/showcase", partHandler.UpdatePartShowcase)
			parts.POST("/:id/sessions", partHandler.CreateSession)
		}

		sessions := api.Group("/sessions")
		sessions.Use(middleware.JWTAuth(authService))
		{
			sessions.PATCH("/:id", sessionHandler.UpdateSession)
			sessions.DELETE("/:id", sessionHandler.DeleteSession)
			sessions.PATCH("/:id/showcase", sessionHandler.UpdateSessionShowcase)
		}

		lore := api.Group("/lore")
		lore.Use(middleware.JWTAuth(authService))
		{
			lore.GET("/:id", loreHandler.GetLore)
			lore.PATCH("/:id", loreHandler.UpdateLore)
			lore.DELETE("/:id", loreHandler.DeleteLore)
			lore.POST("/:id/share", loreHandler.ShareLore)
			lore.DELETE("/:id/share/:userId", loreHandler.UnshareLore)
		}

		tracks := api.Group("/tracks")
		tracks.Use(middleware.JWTAuth(authService))
		{
			tracks.GET("/:id", trackHandler.GetTrack)
			tracks.POST("/:id/progress", trackHandler.UpdateProgress)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
