package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/fpl-datasync/external/fpl"
	"github.com/riskibarqy/fpl-datasync/internal/config"
	"github.com/riskibarqy/fpl-datasync/internal/domain/localstore"
	"github.com/riskibarqy/fpl-datasync/internal/infrastructure/repository/filestore"
	"github.com/riskibarqy/fpl-datasync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fpl-datasync/internal/infrastructure/streammirror"
	"github.com/riskibarqy/fpl-datasync/internal/interfaces/bridge"
	"github.com/riskibarqy/fpl-datasync/internal/interfaces/httpapi"
	"github.com/riskibarqy/fpl-datasync/internal/platform/logging"
	"github.com/riskibarqy/fpl-datasync/internal/platform/resilience"
	"github.com/riskibarqy/fpl-datasync/internal/usecase"
)

// DataLayer owns the cache pipeline: remote source, store, synchronizer, projector and publisher.
type DataLayer struct {
	Store      *memory.Store
	Sync       *usecase.SyncService
	Publisher  *usecase.Publisher
	Scheduler  *usecase.RefreshScheduler
	Dispatcher *bridge.Dispatcher

	projector *usecase.ViewProjector
	mirror    *streammirror.RedisStreamMirror
	redis     *redis.Client
	logger    *logging.Logger

	cancel    context.CancelFunc
	wg        conc.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewDataLayer builds the pipeline for cfg. Nothing runs until Start.
func NewDataLayer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*DataLayer, error) {
	if logger == nil {
		logger = logging.Default()
	}

	client := fpl.NewClient(fpl.ClientConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.FPLTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		BaseURL:      cfg.FPLBaseURL,
		UserAgent:    cfg.FPLUserAgent,
		MaxRetries:   cfg.FPLMaxRetries,
		RetryBackoff: cfg.FPLRetryBackoff,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
	})

	return newDataLayer(ctx, cfg, client, logger)
}

func newDataLayer(ctx context.Context, cfg config.Config, remote usecase.RemoteDataSource, logger *logging.Logger) (*DataLayer, error) {
	backend, err := openBackend(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := memory.Open(ctx, backend, logger)
	if err != nil {
		if backend != nil {
			_ = backend.Close()
		}
		return nil, err
	}

	dispatcher, err := bridge.NewDispatcher(cfg.BridgeMaxWorkers, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	publisher := usecase.NewPublisher()
	syncSvc := usecase.NewSyncService(remote, store, logger)

	layer := &DataLayer{
		Store:      store,
		Sync:       syncSvc,
		Publisher:  publisher,
		Scheduler:  usecase.NewRefreshScheduler(syncSvc, cfg.RefreshInterval, cfg.RefreshOnStart, logger),
		Dispatcher: dispatcher,
		projector:  usecase.NewViewProjector(store, publisher, cfg.Location, logger),
		logger:     logger.Named("app"),
	}

	if cfg.RedisMirrorEnabled {
		client, err := streammirror.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			layer.Close()
			return nil, fmt.Errorf("init redis stream mirror: %w", err)
		}
		layer.redis = client
		layer.mirror = streammirror.NewRedisStreamMirror(streammirror.RedisStreamMirrorConfig{
			StreamPrefix: cfg.RedisStreamPrefix,
			MaxLen:       cfg.RedisStreamMaxLen,
		}, client, logger)
	}

	return layer, nil
}

func openBackend(cfg config.Config, logger *logging.Logger) (localstore.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StoreDriver)) {
	case "", config.StoreDriverMemory:
		return nil, nil
	case config.StoreDriverFile:
		backend, err := filestore.NewBackend(cfg.StoreFilePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return backend, nil
	case config.StoreDriverPostgres:
		backend, err := openPostgresBackend(cfg.DBURL)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// Start runs the projector, the refresh scheduler and the optional Redis mirror.
func (l *DataLayer) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		ctx, l.cancel = context.WithCancel(ctx)

		l.wg.Go(func() { l.projector.Run(ctx) })
		if l.mirror != nil {
			l.wg.Go(func() { l.mirror.Run(ctx, l.Publisher) })
		}
		l.Scheduler.Start(ctx)

		l.logger.InfoContext(ctx, "data layer started", "redis_mirror", l.mirror != nil)
	})
}

// Handler builds the HTTP API over this data layer.
func (l *DataLayer) Handler(cfg config.Config, logger *logging.Logger) http.Handler {
	handler := httpapi.NewHandler(l.Publisher, l.Scheduler, l.Sync, cfg.CORSAllowedOrigins, logger)
	return httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)
}

// Close stops background work, completes every subscription and closes the store.
func (l *DataLayer) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.cancel != nil {
			l.cancel()
		}
		l.Scheduler.Stop()
		l.wg.Wait()

		l.Dispatcher.Close()
		l.Publisher.Close()
		err = l.Store.Close()
		if l.redis != nil {
			err = errors.Join(err, l.redis.Close())
		}
		l.logger.Info("data layer closed")
	})
	return err
}

// NewHTTPServer wires the data layer into an HTTP server for cfg.
func NewHTTPServer(cfg config.Config, layer *DataLayer, logger *logging.Logger) (*http.Server, error) {
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      layer.Handler(cfg, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
