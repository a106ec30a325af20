package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/doodleleagues/whitelist_checker/internal/config"
	"github.com/doodleleagues/whitelist_checker/internal/eligibility"
	"github.com/doodleleagues/whitelist_checker/internal/middleware"
	"github.com/doodleleagues/whitelist_checker/internal/notification"
	"github.com/doodleleagues/whitelist_checker/internal/oracle"
	"github.com/doodleleagues/whitelist_checker/internal/session"
	"github.com/doodleleagues/whitelist_checker/internal/whitelist"
)

const schemaTimeout = 10 * time.Second

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Whitelist and Oracle override the backends built from DB and Cfg.
	Whitelist whitelist.Repository
	Oracle    eligibility.Generator
}

// Setup configures middlewares and all application routes. The returned
// manager owns the visitor sessions; the caller runs its sweeper.
func Setup(app *fiber.App, d Deps) (*session.Manager, error) {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	store, err := buildStore(d)
	if err != nil {
		return nil, err
	}
	gen, err := buildOracle(d)
	if err != nil {
		return nil, err
	}

	var snapshots session.Store
	if d.Cache != nil {
		snapshots = session.NewRedisStore(d.Cache, d.Cfg.SessionTTL)
	} else {
		snapshots = session.NewMemoryStore(d.Cfg.SessionTTL)
	}
	pacer := eligibility.Delay(d.Cfg.RevealDelay)
	sessions := session.NewManager(snapshots, func(snap eligibility.Snapshot, onPublish func(eligibility.Snapshot)) *eligibility.Controller {
		return eligibility.New(store, gen,
			eligibility.WithPacer(pacer),
			eligibility.WithLogger(d.Logger),
			eligibility.WithSnapshot(snap),
			eligibility.WithOnPublish(onPublish),
		)
	}, d.Cfg.SessionTTL, d.Logger)

	api := app.Group("/api/v1", middleware.Session())
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.GetRequestID(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterEligibilityRoutes(api, NewEligibilityHandler(sessions),
		middleware.RateLimit(d.Cache, d.Cfg.CheckRateLimit, d.Logger),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
	)

	return sessions, nil
}

func buildStore(d Deps) (*whitelist.Store, error) {
	repo := d.Whitelist
	if repo == nil {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
			defer cancel()
			if err := whitelist.EnsureSchema(ctx, d.DB); err != nil {
				return nil, err
			}
			repo = whitelist.NewPostgresRepository(d.DB)
		} else {
			d.Logger.Warn("no database configured, using in-memory whitelist")
			repo = whitelist.NewMemoryRepository()
		}
	}
	notifier := notification.NewLoggerNotifier(d.Logger)
	return whitelist.NewStore(repo, notifier, d.Logger, d.Cfg.LookupTimeout), nil
}

func buildOracle(d Deps) (eligibility.Generator, error) {
	if d.Oracle != nil {
		return d.Oracle, nil
	}
	gemini, err := oracle.NewGeminiOracle(context.Background(), d.Cfg.GeminiAPIKey, d.Cfg.GeminiModel, d.Cfg.GenerationTimeout, d.Logger)
	if err != nil {
		return nil, err
	}
	if d.Cache == nil {
		return gemini, nil
	}
	return oracle.NewCachedGenerator(gemini, d.Cache, d.Cfg.OracleCacheTTL, d.Logger), nil
}
