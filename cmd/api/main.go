package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/equitysim/paper-trading/internal/auth"
	"github.com/equitysim/paper-trading/internal/config"
	"github.com/equitysim/paper-trading/internal/db"
	"github.com/equitysim/paper-trading/internal/handlers"
	"github.com/equitysim/paper-trading/internal/ledger"
	"github.com/equitysim/paper-trading/internal/logger"
	"github.com/equitysim/paper-trading/internal/portfolio"
	"github.com/equitysim/paper-trading/internal/quotes"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Load .env file before anything reads the environment
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Ledger store: postgres for real deployments, memory for development
	var store ledger.Store
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("Using in-memory ledger store; data will not survive a restart")
		store = ledger.NewMemory()
	default:
		var conn *sql.DB
		conn, err = db.Open(&cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer conn.Close()
		if err = db.EnsureSchema(conn); err != nil {
			log.Fatal("Failed to prepare schema", zap.Error(err))
		}
		log.Info("Database connected successfully")
		store = ledger.NewPostgres(conn)
	}

	// Quote provider: HTTP client when a token is configured, otherwise
	// the simulated table
	var quoteSvc quotes.Service
	if cfg.Quotes.Token != "" {
		quoteSvc = quotes.NewClient(&cfg.Quotes, log)
		log.Info("Using HTTP quote provider", zap.String("base_url", cfg.Quotes.BaseURL))
	} else {
		quoteSvc = quotes.NewSimulated()
		log.Warn("No quote API token configured, using simulated quotes")
	}

	engine := portfolio.NewEngine(store, quoteSvc, log)
	authSvc := auth.NewService(store, auth.NewPasswords(), decimal.NewFromFloat(cfg.Trading.StartingCash), log)
	sessions := auth.NewSessions()
	h := handlers.New(engine, authSvc, sessions, quoteSvc, log)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	api := router.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)
		api.GET("/quote/:symbol", h.Quote)

		authed := api.Group("", h.RequireAuth())
		{
			authed.POST("/trades/buy", h.Buy)
			authed.POST("/trades/sell", h.Sell)
			authed.GET("/portfolio", h.Portfolio)
			authed.GET("/history", h.History)
			authed.POST("/password", h.ChangePassword)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Server starting", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
