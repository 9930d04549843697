package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/coursehub/configs"
	"github.com/anjiri1684/coursehub/access"
	"github.com/anjiri1684/coursehub/database"
	"github.com/anjiri1684/coursehub/handlers"
	"github.com/anjiri1684/coursehub/jobs"
	"github.com/anjiri1684/coursehub/notifications"
	"github.com/anjiri1684/coursehub/payments"
	"github.com/anjiri1684/coursehub/routes"
	"github.com/anjiri1684/coursehub/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("database connected and migrated")

	mailer := notifications.NewMailer(cfg.SendGridAPIKey, cfg.EmailSenderName, cfg.EmailSender, log)
	provider := payments.NewPayPalClient(payments.PayPalConfig{
		BaseURL:      cfg.CheckoutBaseURL,
		ClientID:     cfg.CheckoutClientID,
		ClientSecret: cfg.CheckoutClientSecret,
		ReturnURL:    cfg.CheckoutReturnURL,
		CancelURL:    cfg.CheckoutCancelURL,
	})

	entitlements := access.NewGormEntitlements(db)
	authz := access.NewAuthorizer(
		access.NewGormFetcher(db),
		entitlements,
		access.Policy{OwnerBypassesPublishGate: cfg.OwnerBypassesPublishGate},
		log,
	)

	var currency *services.CurrencyService
	if cfg.ExchangeRateAPIKey != "" {
		currency = services.NewCurrencyService(cfg.ExchangeRateAPIKey, log)
	}
	var media *services.MediaService
	if cfg.CloudinaryURL != "" {
		media, err = services.NewMediaService(cfg.CloudinaryURL)
		if err != nil {
			return err
		}
	} else {
		log.Warn("CLOUDINARY_URL not set, upload signatures disabled")
	}

	auth := services.NewAuthService(db, mailer, cfg.JWTSecret, cfg.TokenTTL, log)
	paymentSvc := services.NewPaymentService(db, provider, mailer, log)

	ctx := context.Background()
	if err := auth.SeedAdmin(ctx, cfg.AdminFullName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	h := &handlers.Handler{
		Config:      cfg,
		Auth:        auth,
		Courses:     services.NewCourseService(db, authz, log),
		Enrollments: services.NewEnrollmentService(db, entitlements, mailer, log),
		Payments:    paymentSvc,
		Submissions: services.NewSubmissionService(db, authz, mailer, log),
		Admin:       services.NewAdminService(db, currency, log),
		Media:       media,
		Currency:    currency,
		Logger:      log,
	}

	scheduler := jobs.NewScheduler(db, paymentSvc, mailer, jobs.Options{
		PendingPaymentTTL:    cfg.PendingPaymentTTL,
		RevokeAccessOnRefund: cfg.RevokeAccessOnRefund,
	}, log)
	if err := scheduler.Register(); err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	app := newApp(cfg, log)
	routes.Setup(app, h, cfg.JWTSecret)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("server is running", "port", cfg.Port)
	return app.Listen(":" + cfg.Port)
}

func newApp(cfg *config.Config, log *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "CourseHub",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				message = e.Message
			}
			log.Error("unhandled error", "error", err, "path", c.Path(), "method", c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to CourseHub API",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	return app
}
