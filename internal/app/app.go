package app

import (
	"auticonnect/internal/cache"
	"auticonnect/internal/config"
	"auticonnect/internal/llm"
	"auticonnect/internal/logger"
	"auticonnect/internal/prompt"
	"auticonnect/internal/repository"
	"auticonnect/internal/service"
	"auticonnect/internal/transport/rest"
	"auticonnect/internal/transport/ws"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// App holds the wired engine and its connections
type App struct {
	Config *config.Config
	Log    *logger.Logger

	Mongo *mongo.Client
	Redis *redis.Client
	WSHub *ws.Hub

	UserRepo     repository.UserRepo
	GroupRepo    repository.GroupRepo
	ActivityRepo repository.ActivityRepo
	MessageRepo  repository.MessageRepo
	AlertRepo    repository.AlertRepo
	SessionCache cache.SessionCache
	CadenceCache cache.CadenceCache

	Auth          *service.AuthService
	Alerts        *service.AlertService
	Mediation     *service.MediationService
	Conversations *service.ConversationService
}

// ConnectMongo connects and pings MongoDB
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, nil
}

// ConnectRedis connects and pings Redis. A redis:// prefix is accepted.
func ConnectRedis(ctx context.Context, uri string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: strings.TrimPrefix(uri, "redis://"),
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping Redis: %w", err)
	}
	return rdb, nil
}

// New connects to the stores and wires every service
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	mongoClient, err := ConnectMongo(ctx, cfg.Store.MongoURI)
	if err != nil {
		return nil, err
	}
	log.Info("connected to MongoDB", "database", cfg.Store.MongoDatabase)

	rdb, err := ConnectRedis(ctx, cfg.Store.RedisURI)
	if err != nil {
		mongoClient.Disconnect(context.Background())
		return nil, err
	}
	log.Info("connected to Redis")

	templates, err := prompt.Load(cfg.Engine.TemplatesPath, log)
	if err != nil {
		mongoClient.Disconnect(context.Background())
		rdb.Close()
		return nil, err
	}

	completer, err := llm.NewClient(cfg.LLM, log)
	if err != nil {
		mongoClient.Disconnect(context.Background())
		rdb.Close()
		return nil, fmt.Errorf("create generation client: %w", err)
	}
	if cfg.LLM.IsEnabled() {
		log.Info("generation service configured", "model", cfg.LLM.Model, "endpoint", cfg.LLM.Endpoint)
	} else {
		log.Warn("LLM_API_KEY not set, every reply will be the fallback apology")
	}

	db := mongoClient.Database(cfg.Store.MongoDatabase)
	a := &App{
		Config:       cfg,
		Log:          log,
		Mongo:        mongoClient,
		Redis:        rdb,
		WSHub:        ws.NewHub(log),
		UserRepo:     repository.NewUserRepo(db),
		GroupRepo:    repository.NewGroupRepo(db),
		ActivityRepo: repository.NewActivityRepo(db),
		MessageRepo:  repository.NewMessageRepo(db),
		AlertRepo:    repository.NewAlertRepo(db),
		SessionCache: cache.NewSessionCache(rdb, cfg.Engine.SupportSessionTTL()),
		// Cadence entries only need to outlive one cooldown window.
		CadenceCache: cache.NewCadenceCache(rdb, 2*cfg.Engine.GroupCooldown()),
	}

	composer := prompt.NewComposer(templates)
	contexts := service.NewContextService(a.UserRepo, a.GroupRepo, a.MessageRepo, cfg.Engine.GroupHistoryWindow, cfg.Engine.UserHistoryWindow)

	a.Auth = service.NewAuthService(cfg.Auth, a.UserRepo)
	a.Alerts = service.NewAlertService(completer, composer, a.AlertRepo, cfg.Engine.AlertThreshold, log)
	a.Alerts.SetBroadcaster(a.WSHub)
	a.Mediation = service.NewMediationService(contexts, a.ActivityRepo, composer, completer, a.Alerts, log)

	cadence := service.NewCadence(a.CadenceCache, cfg.Engine.GroupCooldown(), time.Now)
	a.Conversations = service.NewConversationService(a.Mediation, a.MessageRepo, a.UserRepo, a.SessionCache, cadence, cfg.Engine.GroupHistoryWindow, time.Now, log)

	return a, nil
}

// Router builds the HTTP handler for the wired services
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:         a.Auth,
		MediationService:    a.Mediation,
		ConversationService: a.Conversations,
		AlertService:        a.Alerts,
		WSHub:               a.WSHub,
		Log:                 a.Log,
		CORSAllowedOrigins:  a.Config.HTTP.CORSAllowedOrigins,
	})
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.HTTP.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close releases the hub and store connections
func (a *App) Close(ctx context.Context) {
	a.WSHub.Close()
	if err := a.Redis.Close(); err != nil {
		a.Log.Warn("failed to close Redis", "error", err)
	}
	if err := a.Mongo.Disconnect(ctx); err != nil {
		a.Log.Warn("failed to disconnect MongoDB", "error", err)
	}
}
