package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/noah-isme/intern-portal-api/internal/config"
	"github.com/noah-isme/intern-portal-api/internal/utils"
)

const healthProbeTimeout = 2 * time.Second

// HealthResponse reports service identity plus the state of the backing
// stores the portal cannot run without.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthHandler probes the portal's hard dependencies on demand. Either
// store may be nil in tests or partial deployments; it is then skipped.
type HealthHandler struct {
	cfg     config.Config
	db      *gorm.DB
	redis   *redis.Client
	started time.Time
}

// NewHealthHandler builds a health handler instance.
func NewHealthHandler(cfg config.Config, db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		cfg:     cfg,
		db:      db,
		redis:   redisClient,
		started: time.Now(),
	}
}

// Check reports overall health. A failing dependency degrades the status
// but the endpoint itself stays 200 so load balancers can tell "slow" from
// "gone".
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), healthProbeTimeout)
	defer cancel()

	payload := HealthResponse{
		Status:       "ok",
		Timestamp:    time.Now().UTC(),
		Service:      h.cfg.AppName,
		Environment:  h.cfg.AppEnv,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Dependencies: map[string]string{},
	}

	if h.db != nil {
		payload.Dependencies["postgres"] = h.probePostgres(ctx)
	}
	if h.redis != nil {
		payload.Dependencies["redis"] = h.probeRedis(ctx)
	}
	for _, state := range payload.Dependencies {
		if state != "up" {
			payload.Status = "degraded"
		}
	}

	return utils.SendSuccess(c, "service health", payload)
}

func (h *HealthHandler) probePostgres(ctx context.Context) string {
	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) probeRedis(ctx context.Context) string {
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return "down"
	}
	return "up"
}
