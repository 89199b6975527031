package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Zain975/plot-pick-backend/handlers"
	"github.com/Zain975/plot-pick-backend/middleware"
)

func SetupRoutes(
	router *gin.Engine,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	adminHandler *handlers.AdminHandler,
	plotHandler *handlers.PlotHandler,
	postHandler *handlers.PostHandler,
	commentHandler *handlers.CommentHandler,
	followHandler *handlers.FollowHandler,
	jwtSecret string,
) {
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/verify-email-otp", authHandler.VerifyEmailOTP)
			auth.POST("/verify-phone-otp", authHandler.VerifyPhoneOTP)
			auth.POST("/login", authHandler.Login)
			auth.POST("/verify-login-otp", authHandler.VerifyLoginOTP)
			auth.POST("/resend-otp", authHandler.ResendOTP)
		}

		// User routes
		users := api.Group("/users")
		users.Use(middleware.AuthMiddleware(jwtSecret))
		{
			users.GET("/me", userHandler.GetMe)
			users.PATCH("/me", userHandler.UpdateInfo)
			users.POST("/me/picture", userHandler.UploadProfilePicture)
			users.PATCH("/me/password", userHandler.UpdatePassword)
			users.PATCH("/me/privacy", userHandler.UpdatePrivacy)
			users.PATCH("/me/social-links", userHandler.UpdateSocialLinks)
			users.GET("/search", userHandler.Search)
			users.GET("/:id", userHandler.GetProfile)
		}

		// Admin routes
		admin := api.Group("/admin")
		{
			admin.POST("/signup", adminHandler.Signup)
			admin.POST("/login", adminHandler.Login)
			admin.POST("/verify-otp", adminHandler.VerifyLoginOTP)
			admin.POST("/verify-email-otp", adminHandler.VerifyEmailOTP)

			protected := admin.Group("")
			protected.Use(middleware.AdminMiddleware(jwtSecret))
			{
				protected.GET("/users", adminHandler.ListUsers)
				protected.GET("/users/:id", adminHandler.GetUser)
				protected.PATCH("/users/:id/status", adminHandler.UpdateUserStatus)
				protected.POST("/users/:id/plot-points", adminHandler.AddPlotPoints)

				protected.POST("/shows", plotHandler.CreateShow)
				protected.GET("/shows", plotHandler.GetAllShows)
				protected.GET("/shows/:id", plotHandler.GetShowByID)
				protected.DELETE("/shows/:id", plotHandler.DeleteShow)
				protected.PATCH("/shows/:id/episodes/:episode", plotHandler.UpdateShow)
				protected.DELETE("/shows/:id/episodes/:episode", plotHandler.DeleteEpisode)

				protected.GET("/plots", plotHandler.GetAllPlots)
				protected.GET("/plots/:id", plotHandler.GetPlotByID)
				protected.PATCH("/plots/:id/status", plotHandler.UpdatePlotStatus)
				protected.POST("/plots/announce-results", plotHandler.AnnounceResults)

				protected.POST("/questions/:id/pause", plotHandler.PauseQuestion)
				protected.POST("/questions/:id/unpause", plotHandler.UnpauseQuestion)
			}
		}

		// User-facing plot routes
		plot := api.Group("/plot")
		plot.Use(middleware.AuthMiddleware(jwtSecret))
		{
			plot.GET("/active", plotHandler.GetActivePlots)
			plot.POST("/predictions", plotHandler.CreatePrediction)
			plot.GET("/predictions/my", plotHandler.GetUserPredictions)
			plot.GET("/my/plots", plotHandler.GetUserPlots)
			plot.GET("/:id", plotHandler.GetPlotDetails)
		}

		// Community routes
		community := api.Group("/community")
		community.Use(middleware.AuthMiddleware(jwtSecret))
		{
			posts := community.Group("/posts")
			{
				posts.POST("", postHandler.CreatePost)
				posts.GET("", postHandler.GetFeed)
				posts.GET("/user/:id", postHandler.GetUserPosts)
				posts.GET("/:id", postHandler.GetPost)
				posts.PATCH("/:id", postHandler.UpdatePost)
				posts.DELETE("/:id", postHandler.DeletePost)
				posts.POST("/:id/like", postHandler.ToggleLike)
				posts.POST("/:id/share", postHandler.ToggleShare)
				posts.POST("/:id/comments", commentHandler.CreateComment)
				posts.GET("/:id/comments", commentHandler.GetComments)
			}

			comments := community.Group("/comments")
			{
				comments.GET("/:id/replies", commentHandler.GetReplies)
				comments.PATCH("/:id", commentHandler.UpdateComment)
				comments.DELETE("/:id", commentHandler.DeleteComment)
				comments.POST("/:id/like", commentHandler.ToggleLike)
			}

			community.POST("/follow/:id", followHandler.ToggleFollow)
			community.GET("/followers", followHandler.GetFollowers)
			community.GET("/following", followHandler.GetFollowing)
		}
	}

	// Liveness check with a DB ping.
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
