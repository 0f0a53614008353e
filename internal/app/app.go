package app

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/funwriting/ai-agents/internal/db"
	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/server"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	// Persistence is optional: without POSTGRES_HOST the service runs with
	// repos disabled and analysis results are not stored.
	var theDB *gorm.DB
	if cfg.DatabaseEnabled {
		pg, err := db.NewPostgresService(log)
		if err != nil {
			log.Warn("Postgres init failed, continuing without persistence", "error", err)
		} else if err := pg.AutoMigrateAll(); err != nil {
			log.Warn("Postgres auto migration failed, continuing without persistence", "error", err)
		} else {
			theDB = pg.DB()
		}
	} else {
		log.Warn("POSTGRES_HOST not set, persistence disabled")
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(log, cfg, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, cfg, serviceset)
	router := server.NewRouter(server.RouterConfig{
		Log:             log,
		WritingHandler:  handlerset.Writing,
		MediaHandler:    handlerset.Media,
		ValidateHandler: handlerset.Validate,
		Production:      cfg.Production(),
	})

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return a.Router.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
