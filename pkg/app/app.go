package app

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/arnavshah/autoscheduler-api-go/pkg/auth"
	"github.com/arnavshah/autoscheduler-api-go/pkg/config"
	"github.com/arnavshah/autoscheduler-api-go/pkg/database"
	"github.com/arnavshah/autoscheduler-api-go/pkg/handlers"
	"github.com/arnavshah/autoscheduler-api-go/pkg/planner"
	"github.com/arnavshah/autoscheduler-api-go/pkg/scheduler"
	"github.com/arnavshah/autoscheduler-api-go/pkg/store"
)

// App bundles everything the HTTP entry points need
type App struct {
	DB      *gorm.DB
	Planner *planner.Planner
	Router  *gin.Engine
}

// New opens the database, seeds the admin user and builds the router
func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	db, err := database.InitDB(database.Config{DatabaseURL: cfg.DatabaseURL, DataPath: cfg.DataPath})
	if err != nil {
		return nil, err
	}

	created, err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return nil, err
	}
	if created {
		log.Info().Str("username", cfg.AdminUsername).Msg("default admin user created")
	}
	if cfg.JWTSecret == "" || cfg.APIMasterSecret == "" {
		log.Warn().Msg("JWT_SECRET or API_MASTER_SECRET is empty; tokens and keys are not secure")
	}

	sched := scheduler.NewScheduler(cfg.Scheduler)
	pl := &planner.Planner{
		Store:     store.New(db),
		Scheduler: sched,
		Log:       log.With().Str("component", "planner").Logger(),
	}
	h := handlers.New(db, auth.New(cfg.JWTSecret, cfg.APIMasterSecret), sched, pl, log)

	return &App{DB: db, Planner: pl, Router: handlers.NewRouter(h)}, nil
}
