package config

import (
	"context"
	"fmt"
	"os"
	"time"

	authHandler "sitecooking/internal/api/auth/handler"
	authRepository "sitecooking/internal/api/auth/repository"
	authService "sitecooking/internal/api/auth/service"
	recipeHandler "sitecooking/internal/api/recipe/handler"
	recipeRepository "sitecooking/internal/api/recipe/repository"
	recipeService "sitecooking/internal/api/recipe/service"
	"sitecooking/internal/middleware"
	"sitecooking/pkg/bcrypt"
	"sitecooking/pkg/database"
	"sitecooking/pkg/google"
	"sitecooking/pkg/handlerUtil"
	"sitecooking/pkg/redis"
	"sitecooking/pkg/s3"
	"sitecooking/pkg/utils"
	"sitecooking/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	db             *sqlx.DB
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validation.Validator
	utils          utils.IUtils
	bcryptUtils    bcrypt.IBcrypt
	handlers       []handler
	googleProvider google.ItfGoogle
	redisServer    redis.IRedis
	s3Client       s3.ItfS3
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if server.middleware == nil {
		return nil, fmt.Errorf("middleware is required")
	}
	if server.validator == nil {
		return nil, fmt.Errorf("validator is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validation.Validator) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDatabase connects and brings the schema up to date.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := database.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		s.db = db
		return nil
	}
}

// WithDB uses an already opened connection.
func WithDB(db *sqlx.DB) ServerOption {
	return func(s *Server) error {
		s.db = db
		return nil
	}
}

func WithGoogleProvider(provider google.ItfGoogle) ServerOption {
	return func(s *Server) error {
		s.googleProvider = provider
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

// WithS3Client leaves photo storage disabled when no bucket is configured.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		if os.Getenv("AWS_BUCKET_NAME") == "" {
			if s.log != nil {
				s.log.Warn("AWS_BUCKET_NAME is not set, photo uploads are disabled")
			}
			return nil
		}

		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithBcryptUtils() ServerOption {
	return func(s *Server) error {
		s.bcryptUtils = bcrypt.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	if s.utils == nil {
		s.utils = utils.New()
	}
	if s.bcryptUtils == nil {
		s.bcryptUtils = bcrypt.New()
	}

	// Auth Domain
	authRepo := authRepository.New(s.db, s.log)
	authServices := authService.New(s.log, authRepo, s.googleProvider, s.bcryptUtils, s.utils)
	authHandlers := authHandler.New(s.log, authServices, s.validator, s.middleware)

	// Recipes Domain
	recipeRepo := recipeRepository.New(s.db, s.log)
	recipeServices := recipeService.NewRecipesService(s.log, recipeRepo, s.s3Client, s.redisServer, s.utils)
	recipeHandlers := recipeHandler.New(s.log, s.validator, s.middleware, recipeServices)

	s.handlers = append(s.handlers, authHandlers, recipeHandlers)
}

// Mount wires middleware and routes without listening, so tests can drive
// the app through fiber's Test helper.
func (s *Server) Mount() *fiber.App {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	s.setupHealthCheck()

	for _, h := range s.handlers {
		h.Start(s.engine)
	}

	errHandler := handlerUtil.New(s.log)
	s.engine.Use(func(ctx *fiber.Ctx) error {
		return errHandler.HandleNotFound(ctx)
	})

	return s.engine
}

func (s *Server) Run() error {
	s.Mount()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) Shutdown() error {
	if err := s.engine.ShutdownWithTimeout(10 * time.Second); err != nil {
		return err
	}
	return s.db.Close()
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
