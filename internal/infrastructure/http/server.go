package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/getdryv/checkout-service/internal/adapter/handler/http"
	"github.com/getdryv/checkout-service/internal/config"
	"github.com/getdryv/checkout-service/internal/domain/offer"
	"github.com/getdryv/checkout-service/internal/domain/provider"
	"github.com/getdryv/checkout-service/internal/infrastructure/database"
	"github.com/getdryv/checkout-service/internal/usecase"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo

	catalog  *offer.Catalog
	repos    *database.Repositories
	provider provider.CheckoutProvider
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	catalog *offer.Catalog,
	repos *database.Repositories,
	checkoutProvider provider.CheckoutProvider,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Validator = &requestValidator{validate: validator.New()}

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	if cfg.Service.StripeWebhookSecret == "" {
		logger.Warn("No webhook secret configured; webhook payloads will be trusted unsigned. Never expose this mode to the internet.")
	}

	return &Server{
		config:   cfg,
		logger:   logger,
		echo:     e,
		catalog:  catalog,
		repos:    repos,
		provider: checkoutProvider,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "checkout",
		})
	})

	checkoutService := usecase.NewCheckoutService(s.catalog, s.provider, s.config.Service.Currency, s.logger)
	planController := usecase.NewPlanController(s.repos.CancellationTask, s.repos.WebhookEvent, s.logger)

	checkoutHandler := handlers.NewCheckoutHandler(s.logger, checkoutService, s.config.Service.ClientURL)
	sessionHandler := handlers.NewSessionHandler(s.logger, checkoutService)
	webhookHandler := handlers.NewWebhookHandler(s.logger, s.config.Service.StripeWebhookSecret, planController)

	checkout := s.echo.Group("/checkout")
	checkout.POST("/one-shot", checkoutHandler.CreateOneShotSession)
	checkout.POST("/installments", checkoutHandler.CreateInstallmentSession)
	checkout.GET("/session/:id", sessionHandler.GetSession)

	// Webhook route: the handler reads the raw body itself, so it must stay
	// outside any group with body-transforming middleware
	s.echo.POST("/webhooks/payment-events", webhookHandler.HandleWebhook)

	// Diagnostics (for development/testing only)
	if s.config.Service.Environment != "production" {
		if inspector, ok := s.provider.(provider.AccountInspector); ok {
			diagHandler := handlers.NewDiagHandler(s.logger, inspector, s.config.Service.StripeSecretKey, s.config.Service.ClientURL)
			s.echo.GET("/internal/diag", diagHandler.Diag)
		}
	}
}
