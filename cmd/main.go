package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"

	"course-marketplace-service/internal/config"
	"course-marketplace-service/internal/database/mongo"
	"course-marketplace-service/internal/database/redis"
	"course-marketplace-service/internal/email"
	"course-marketplace-service/internal/event"
	"course-marketplace-service/internal/handlers"
	"course-marketplace-service/internal/payment"
	"course-marketplace-service/internal/repository"
	"course-marketplace-service/internal/services"
	"course-marketplace-service/pkg/discovery"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/var", "log", "course_marketplace_service")
	err := os.MkdirAll(logDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	logFile, err := setupLogging()
	if err != nil {
		log.Printf("Failed to set up file logging, using stderr: %v", err)
	} else {
		defer logFile.Close()
	}

	cfg := config.ServiceConfig

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Course Marketplace Service is healthy")
	})

	// Initialize repositories
	courseRepo := repository.NewCourseRepository(mongo.Mongo_Database)
	enrollmentRepo := repository.NewEnrollmentRepository(mongo.Mongo_Database)
	quizRepo := repository.NewQuizRepository(mongo.Mongo_Database)
	certificateRepo := repository.NewCertificateRepository(mongo.Mongo_Database)
	userRepo := repository.NewUserRepository(mongo.Mongo_Database)
	attemptTimer := repository.NewAttemptTimerRepository(redis.Redis_Client)

	// Create database indexes
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := courseRepo.CreateIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create course indexes: %v", err)
	}
	if err := enrollmentRepo.CreateIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create enrollment indexes: %v", err)
	}
	if err := quizRepo.CreateIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create quiz indexes: %v", err)
	}
	if err := certificateRepo.CreateIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create certificate indexes: %v", err)
	}
	if err := userRepo.CreateIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create user indexes: %v", err)
	}
	cancel()

	// Initialize event publisher
	eventPublisher, err := event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
	if err != nil {
		log.Printf("Warning: Failed to initialize event publisher: %v", err)
		eventPublisher, _ = event.NewEventPublisher("", cfg.RabbitMQ.Exchange)
	}

	mailer := email.NewSendgridMailer(cfg.Email.SendgridKey, cfg.Email.FromName, cfg.Email.FromEmail)

	orderStore := payment.NewRedisOrderStore(redis.Redis_Client)
	gateway := payment.NewSimulatedGateway(
		cfg.Payment.KeySecret,
		cfg.Payment.Currency,
		cfg.Payment.OrderTTL,
		cfg.Payment.Simulated,
		orderStore,
	)

	// Initialize services
	courseService := services.NewCourseService(courseRepo, userRepo, eventPublisher)
	enrollmentService := services.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, eventPublisher, mailer)
	paymentService := services.NewPaymentService(gateway, courseRepo, enrollmentRepo, enrollmentService, eventPublisher, cfg.Payment.KeyID)
	quizService := services.NewQuizService(quizRepo, courseRepo, userRepo, attemptTimer, eventPublisher, cfg.Quiz.SubmitGrace)
	certificateService := services.NewCertificateService(
		certificateRepo, quizRepo, courseRepo, enrollmentRepo,
		services.NewHTMLRenderer(), eventPublisher, mailer,
	)

	// Initialize and register handlers
	handlers.NewCourseHandler(courseService).RegisterRoutes(app)
	handlers.NewEnrollmentHandler(enrollmentService).RegisterRoutes(app)
	handlers.NewPaymentHandler(paymentService, enrollmentService).RegisterRoutes(app)
	handlers.NewQuizHandler(quizService).RegisterRoutes(app)
	handlers.NewCertificateHandler(certificateService).RegisterRoutes(app)

	// Register with service discovery
	registry, err := discovery.NewServiceRegistry(cfg)
	if err != nil {
		log.Printf("Warning: Failed to create service registry: %v", err)
		registry = nil
	} else if err := registry.Register(); err != nil {
		log.Printf("Warning: Failed to register with Consul: %v", err)
		registry = nil
	}

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)

	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := app.Listen(fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if eventPublisher != nil {
		if err := eventPublisher.Close(); err != nil {
			log.Printf("Error closing event publisher: %v", err)
		}
	}

	if registry != nil {
		if err := registry.Deregister(); err != nil {
			log.Printf("Error deregistering from service discovery: %v", err)
		}
	}

	redis.Close()
	mongo.DisconnectMongo()

	<-doneChan
	log.Println("Server shutdown complete")
}
