// Command server runs the skillloop API: accounts and social graph, posts
// with mixed-media content, learning plans and progress updates, mentorship
// collaborations, notifications over SSE, and media uploads.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/skillloop/internal/auth"
	"github.com/skillsenselab/skillloop/internal/auth/oauth"
	"github.com/skillsenselab/skillloop/internal/auth/password"
	"github.com/skillsenselab/skillloop/internal/auth/token"
	"github.com/skillsenselab/skillloop/internal/cache"
	"github.com/skillsenselab/skillloop/internal/collab"
	"github.com/skillsenselab/skillloop/internal/config"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/media"
	"github.com/skillsenselab/skillloop/internal/notify"
	"github.com/skillsenselab/skillloop/internal/observability"
	"github.com/skillsenselab/skillloop/internal/plan"
	"github.com/skillsenselab/skillloop/internal/post"
	"github.com/skillsenselab/skillloop/internal/progress"
	"github.com/skillsenselab/skillloop/internal/server"
	"github.com/skillsenselab/skillloop/internal/server/middleware"
	"github.com/skillsenselab/skillloop/internal/store"
	"github.com/skillsenselab/skillloop/internal/user"
)

const serviceName = "skillloop"

var version = "dev"

func main() {
	configFile := flag.String("config", "", "path to config file (defaults to config.yml lookup)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.NewDefault(serviceName).WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(&cfg.Logging, serviceName)
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Service failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	tokens, err := token.New(token.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		Algorithm:     cfg.Auth.Algorithm,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return err
	}

	var telemetry *observability.Provider
	var httpMetrics *observability.HTTPMetrics
	if cfg.Telemetry.Enabled {
		telemetry, err = observability.Init(ctx, cfg.Telemetry, serviceName, version, log)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			telemetry.Shutdown(shutdownCtx)
		}()
		if httpMetrics, err = observability.NewHTTPMetrics(); err != nil {
			return err
		}
	}

	db, err := store.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			return err
		}
	}

	var redis *cache.Client
	var revoked *cache.RevocationList
	var sharedPlans *cache.TypedStore[[]store.Plan]
	if cfg.Redis.Enabled {
		redis, err = cache.New(cfg.Redis, log)
		if err != nil {
			return err
		}
		defer redis.Close()
		revoked = cache.NewRevocationList(redis)
		sharedPlans = cache.NewTypedStore[[]store.Plan](redis, "plans:shared")
	}

	users := store.NewUserRepo(db)
	posts := store.NewPostRepo(db)
	plans := store.NewPlanRepo(db)
	updates := store.NewProgressRepo(db)
	collabs := store.NewCollabRepo(db)
	notifications := store.NewNotificationRepo(db)

	hub := notify.NewHub()
	go hub.Run()
	defer hub.Stop()

	notifySvc := notify.NewService(notifications, hub, log)

	var authRevoker auth.TokenRevoker
	if revoked != nil {
		authRevoker = revoked
	}
	authSvc := auth.NewService(users, tokens, password.NewBcryptHasher(), authRevoker, cfg.Auth.RotateOnRefresh, log)
	userSvc := user.NewService(users, notifySvc, log)
	postSvc := post.NewService(posts, notifySvc, log)
	planSvc := plan.NewService(plans, sharedPlans, log)
	progressSvc := progress.NewService(updates, log)
	collabSvc := collab.NewService(collabs, users, log)

	storage, err := media.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	mediaSvc := media.NewService(storage, cfg.Storage.MaxUploadMB, log)

	server.RegisterValidations()

	srv := server.New(cfg.Server, log)
	engine := srv.Engine()

	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS(cfg.Server.CORSOrigins))
	engine.Use(middleware.RequestLogger(log))
	if cfg.Telemetry.Enabled {
		engine.Use(observability.Middleware(serviceName, httpMetrics))
	}
	engine.Use(middleware.Auth(middleware.AuthConfig{
		Tokens:         tokens,
		AllowAnonymous: cfg.Auth.AllowAnonymous,
	}))

	engine.GET("/health", healthHandler(db, redis))

	// Local storage serves uploads directly; S3 objects carry their own URLs.
	if cfg.Storage.Provider == "local" {
		engine.Static("/media", cfg.Storage.Local.BasePath)
	}

	auth.NewHandler(authSvc).RegisterRoutes(engine)
	user.NewHandler(userSvc, users).RegisterRoutes(engine)
	post.NewHandler(postSvc, users).RegisterRoutes(engine)
	plan.NewHandler(planSvc, users).RegisterRoutes(engine)
	progress.NewHandler(progressSvc, users).RegisterRoutes(engine)
	collab.NewHandler(collabSvc, users).RegisterRoutes(engine)
	notify.NewHandler(notifySvc, hub, users).RegisterRoutes(engine)
	media.NewHandler(mediaSvc, users).RegisterRoutes(engine)

	var providers []oauth.Provider
	if cfg.OAuth.Google.ClientID != "" {
		google, err := oauth.NewGoogle(ctx, cfg.OAuth.Google)
		if err != nil {
			return err
		}
		providers = append(providers, google)
	}
	oauth.NewHandler(authSvc, cfg.OAuth.RedirectURL, log, providers...).RegisterRoutes(engine)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	log.Info("Service started", map[string]interface{}{
		"version": version,
		"addr":    srv.Addr(),
	})

	<-ctx.Done()
	log.Info("Shutdown signal received")

	return srv.Stop(context.Background())
}

// healthHandler reports liveness plus dependency health.
func healthHandler(db *store.DB, redis *cache.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}

		if err := db.Ping(ctx); err != nil {
			checks["database"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "up"
		}

		if redis != nil {
			if err := redis.Ping(ctx); err != nil {
				checks["redis"] = "down"
				status = http.StatusServiceUnavailable
			} else {
				checks["redis"] = "up"
			}
		}

		c.JSON(status, gin.H{"status": checks, "version": version})
	}
}
