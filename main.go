package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feastfleet/ai"
	"feastfleet/auth"
	"feastfleet/config"
	"feastfleet/geo"
	"feastfleet/handlers"
	"feastfleet/middleware"
	"feastfleet/models"
	"feastfleet/notify"
	"feastfleet/orders"
	"feastfleet/recipes"
	"feastfleet/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg)

	// Set Gin mode
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	if err := config.CheckSecrets(cfg, log); err != nil {
		log.WithError(err).Fatal("refusing to start")
	}

	db, err := config.OpenStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer db.Close()

	sessions, rdb, err := config.OpenSessions(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open session store")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	publisher, closePublisher := config.OpenPublisher(cfg, log)

	geo.DefaultLocation = models.Location{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng}

	aiClient, err := ai.NewDeepSeek(ai.Options{
		APIKey:      cfg.DeepSeekAPIKey,
		BaseURL:     cfg.DeepSeekBaseURL,
		ChatModel:   cfg.DeepSeekChatModel,
		VisionModel: cfg.DeepSeekVisionModel,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("failed to set up AI client")
	}

	notifier := notify.New(
		notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom),
		cfg.SMSCountryCode,
		log,
	)

	h := &handlers.Handler{
		Store:    db,
		Auth:     auth.NewService(db, log),
		Tokens:   middleware.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Orders:   orders.NewService(db, sessions, notifier, publisher, log, orders.Options{Simulation: cfg.SimulationMode}),
		Sessions: sessions,
		AI:       aiClient,
		Recipes:  recipes.NewScraper(&http.Client{Timeout: 15 * time.Second}, recipes.DefaultSites(), log),

		DefaultLocation: geo.DefaultLocation,
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS())

	// Welcome
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the FeastFleet Food Delivery API",
			"docs":    "/api/state-machine",
			"health":  "/health",
			"roles":   []models.UserType{models.UserCustomer, models.UserVendor},
		})
	})

	// Register all routes
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("server running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	closePublisher()
}
