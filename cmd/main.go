package main

import (
	"context"
	"os"
	"time"

	"coursehub-backend/config"
	httpDelivery "coursehub-backend/internal/delivery/http"
	"coursehub-backend/internal/gateway"
	"coursehub-backend/internal/repository"
	"coursehub-backend/internal/usecase"
	"coursehub-backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	logger.InitLogger(os.Getenv("APP_MODE"))
	defer logger.Log.Sync()

	// Connect to databases
	db := config.ConnectDB()
	postgres := db.PG
	mongo := db.Mongo

	// Auto migrate and ensure the unique indexes the upserts depend on
	if err := config.AutoMigrate(postgres); err != nil {
		logger.Log.Fatal("migration failed", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repository.EnsureIndexes(ctx, mongo); err != nil {
		logger.Log.Fatal("index creation failed", zap.Error(err))
	}
	cancel()

	// Repositories
	userRepo := repository.NewUserRepository(postgres)
	courseRepo := repository.NewCourseRepository(postgres)
	contentRepo := repository.NewContentRepository(mongo)
	enrollmentRepo := repository.NewEnrollmentRepository(mongo)
	quizRepo := repository.NewQuizSubmissionRepository(mongo)
	assignmentRepo := repository.NewAssignmentSubmissionRepository(mongo)
	fileStore, err := repository.NewGridFSStore(mongo)
	if err != nil {
		logger.Log.Fatal("file store init failed", zap.Error(err))
	}

	// External collaborators
	payments := gateway.NewStripeGateway(gateway.StripeConfig{
		SecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		SuccessURL: os.Getenv("STRIPE_SUCCESS_URL"),
		CancelURL:  os.Getenv("STRIPE_CANCEL_URL"),
		Currency:   os.Getenv("STRIPE_CURRENCY"),
	})
	notifier := gateway.NewSMTPNotifier(gateway.SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Sender:   os.Getenv("SMTP_SENDER"),
		Password: os.Getenv("SMTP_PASSWORD"),
	})

	// Usecases
	authUsecase := usecase.NewAuthUsecase(userRepo)
	courseUsecase := usecase.NewCourseUsecase(courseRepo, contentRepo, enrollmentRepo, userRepo)
	enrollmentUsecase := usecase.NewEnrollmentUsecase(enrollmentRepo, courseRepo, contentRepo, userRepo, payments, notifier)
	quizUsecase := usecase.NewQuizUsecase(contentRepo, quizRepo, enrollmentRepo)
	assignmentUsecase := usecase.NewAssignmentUsecase(contentRepo, assignmentRepo, enrollmentRepo, courseRepo, userRepo, fileStore, usecase.AssignmentConfig{
		ClearGradeOnResubmit: os.Getenv("CLEAR_GRADE_ON_RESUBMIT") == "true",
	})
	analyticsUsecase := usecase.NewAnalyticsUsecase(courseRepo, enrollmentRepo, userRepo)
	adminUsecase := usecase.NewAdminUsecase(userRepo, courseRepo, contentRepo, enrollmentRepo)

	handler := httpDelivery.NewHandler(
		authUsecase,
		courseUsecase,
		enrollmentUsecase,
		quizUsecase,
		assignmentUsecase,
		analyticsUsecase,
		adminUsecase,
		fileStore,
	)

	router := httpDelivery.InitRouter(handler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Log.Info("server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}
