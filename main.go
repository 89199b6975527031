package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Zain975/plot-pick-backend/config"
	"github.com/Zain975/plot-pick-backend/handlers"
	"github.com/Zain975/plot-pick-backend/logging"
	"github.com/Zain975/plot-pick-backend/middleware"
	"github.com/Zain975/plot-pick-backend/models"
	"github.com/Zain975/plot-pick-backend/routes"
	"github.com/Zain975/plot-pick-backend/services"
	"github.com/Zain975/plot-pick-backend/storage"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	logging.BootstrapLogger()
	log := logging.Log

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Show{},
		&models.Plot{},
		&models.Question{},
		&models.QuestionOption{},
		&models.PlotPrediction{},
		&models.QuestionPrediction{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
		&models.PostShare{},
		&models.Follow{},
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	redisClient := config.InitRedis(cfg)

	var uploader storage.Uploader
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Storage(context.Background(), cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize S3 storage")
		}
		uploader = s3Store
	} else {
		log.Warn("AWS_S3_BUCKET_NAME not set, media uploads disabled")
	}

	// Initialize services
	otpService := services.NewOTPService(redisClient, cfg.OTPTTLMinutes)
	authService := services.NewAuthService(db, otpService, cfg.JWTSecret)
	userService := services.NewUserService(db)
	adminService := services.NewAdminService(db, otpService, cfg.JWTSecret)
	plotService := services.NewPlotService(db, uploader)
	predictionService := services.NewPredictionService(db)
	postService := services.NewPostService(db, uploader)
	commentService := services.NewCommentService(db)
	followService := services.NewFollowService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, uploader)
	adminHandler := handlers.NewAdminHandler(adminService)
	plotHandler := handlers.NewPlotHandler(plotService, predictionService, uploader)
	postHandler := handlers.NewPostHandler(postService, uploader)
	commentHandler := handlers.NewCommentHandler(commentService)
	followHandler := handlers.NewFollowHandler(followService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	routes.SetupRoutes(
		router,
		db,
		authHandler,
		userHandler,
		adminHandler,
		plotHandler,
		postHandler,
		commentHandler,
		followHandler,
		cfg.JWTSecret,
	)

	addr := cfg.BindAddress + ":" + cfg.Port
	log.WithField("addr", addr).Info("Server starting")
	if err := router.Run(addr); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
