package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/autoscheduler-api-go/pkg/app"
	"github.com/arnavshah/autoscheduler-api-go/pkg/config"
	"github.com/arnavshah/autoscheduler-api-go/pkg/logging"
)

var r *gin.Engine

func init() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "json", os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	// serverless logs are collected line by line
	log := logging.New(cfg.LogLevel, "json", os.Stdout)

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	r = a.Router
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
