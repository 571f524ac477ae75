package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/arnavshah/autoscheduler-api-go/pkg/auth"
	"github.com/arnavshah/autoscheduler-api-go/pkg/database"
	"github.com/arnavshah/autoscheduler-api-go/pkg/logging"
	"github.com/arnavshah/autoscheduler-api-go/pkg/planner"
	"github.com/arnavshah/autoscheduler-api-go/pkg/scheduler"
)

// Version is reported by the root route
const Version = "3.0.0"

// Handler contains dependencies for the route handlers
type Handler struct {
	DB        *gorm.DB
	Auth      *auth.Service
	Scheduler *scheduler.Scheduler
	Planner   *planner.Planner
	Log       zerolog.Logger
	// Now defaults to time.Now
	Now func() time.Time

	limiter *keyLimiter
}

// New wires a Handler
func New(db *gorm.DB, authSvc *auth.Service, sched *scheduler.Scheduler, pl *planner.Planner, log zerolog.Logger) *Handler {
	return &Handler{
		DB:        db,
		Auth:      authSvc,
		Scheduler: sched,
		Planner:   pl,
		Log:       log,
		limiter:   newKeyLimiter(),
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// NewRouter builds the gin engine shared by the server and the serverless entry
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(logging.Middleware(h.Log), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Task Auto-Scheduler API",
			"version": Version,
		})
	})

	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/schedule", h.ScheduleJSON)
		api.POST("/schedule/csv", h.ScheduleCSV)
		api.POST("/validate", h.ValidateInput)
		api.GET("/usage", h.GetMyUsage)

		projects := api.Group("/projects/:project")
		projects.PUT("/items", h.PutItems)
		projects.PUT("/people", h.PutPeople)
		projects.GET("/schedule", h.PreviewProject)
		projects.POST("/schedule/apply", h.ApplyProject)
		projects.GET("/runs", h.ListRuns)
	}

	return r
}

func bearer(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key, tracks the key record and
// enforces its daily rate limit
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		userID, err := h.Auth.VerifyKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		var apiKey database.APIKey
		err = h.DB.Where(database.APIKey{Key: key}).Attrs(database.APIKey{
			Name:       userID,
			KeyPreview: keyPreview(key),
			RateLimit:  defaultRateLimit,
		}).FirstOrCreate(&apiKey).Error
		if err != nil {
			h.Log.Error().Err(err).Str("user", userID).Msg("api key lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
			return
		}

		if !h.limiter.allow(apiKey.ID, apiKey.RateLimit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		now := h.now()
		if err := h.DB.Model(&apiKey).Update("last_used", &now).Error; err != nil {
			h.Log.Warn().Err(err).Uint("key_id", apiKey.ID).Msg("last_used not updated")
		}

		c.Set("apiKey", &apiKey)
		c.Set("userID", userID)
		c.Next()
	}
}

func keyPreview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, itemCount, peopleCount int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	err := database.RecordUsage(h.DB, apiKey.ID, h.now().Format("2006-01-02"), itemCount, peopleCount)
	if err != nil {
		h.Log.Warn().Err(err).Uint("key_id", apiKey.ID).Msg("usage not recorded")
	}
}
