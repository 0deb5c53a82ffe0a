// Command migratord runs the migration queue daemon: one or more worker
// goroutines loop the Queue Processor, while a small read-only HTTP
// surface exposes Prometheus metrics and a status snapshot.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/artemis/object-migrate/internal/alerts"
	"github.com/artemis/object-migrate/internal/backend"
	"github.com/artemis/object-migrate/internal/cleanup"
	"github.com/artemis/object-migrate/internal/cmn"
	"github.com/artemis/object-migrate/internal/copier"
	"github.com/artemis/object-migrate/internal/metrics"
	"github.com/artemis/object-migrate/internal/nlog"
	"github.com/artemis/object-migrate/internal/observer"
	"github.com/artemis/object-migrate/internal/policy"
	"github.com/artemis/object-migrate/internal/queue"
	"github.com/artemis/object-migrate/internal/store"
	"github.com/tidwall/buntdb"
)

var configPath = flag.String("config", "migratord.json", "path to the daemon's JSON config file")

func main() {
	flag.Parse()
	if err := run(*configPath); err != nil {
		nlog.Errorf("migratord: %v", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	cmn.GCO.Put(cfg)

	db, err := buntdb.Open(cfg.TaskStorePath)
	if err != nil {
		return err
	}
	defer db.Close()

	gate := policy.NewBuntGate(db)
	factory := backend.NewFactory(cfg.Endpoints, gate)
	defer factory.Close()

	tasks := store.NewBuntTaskStore(db)
	filemetas := store.NewBuntFileMetaStore(db)

	reg := prometheus.NewRegistry()
	msink := metrics.NewProm(reg)
	asink := alerts.NewLogSink()

	copyEngine := copier.NewEngine(factory, gate)
	cleanupEngine := cleanup.NewEngine(factory)
	obs := observer.New(tasks, msink, asink, time.Duration(cfg.LeaseTimeoutS)*time.Second)
	proc := queue.NewProcessor(tasks, filemetas, copyEngine, cleanupEngine, msink, obs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.WorkerCount; i++ {
		g.Go(func() error { return runWorker(gctx, proc, cfg) })
	}
	g.Go(func() error { return serveStatus(gctx, cfg, reg, tasks) })

	return g.Wait()
}

func runWorker(ctx context.Context, proc *queue.Processor, cfg *cmn.Config) error {
	var limiter *rate.Limiter
	if cfg.TicksPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.TicksPerSecond), 1)
	}
	idle := time.Duration(cfg.IdleSleepMS) * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
		}
		did, err := proc.ProcessOnce(ctx)
		if err != nil {
			nlog.Warnf("process_once error: %v", err)
		}
		if !did {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(idle):
			}
		}
	}
}

func loadConfig(path string) (*cmn.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := cmn.Default()
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveStatus(ctx context.Context, cfg *cmn.Config, reg *prometheus.Registry, tasks store.TaskStore) error {
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	handler := func(rctx *fasthttp.RequestCtx) {
		if !authorized(rctx, cfg.StatusAuthSecret) {
			rctx.SetStatusCode(http.StatusUnauthorized)
			return
		}
		switch string(rctx.Path()) {
		case "/metrics":
			metricsHandler(rctx)
		case "/status":
			serveStatusJSON(rctx, tasks)
		default:
			rctx.SetStatusCode(http.StatusNotFound)
		}
	}

	srv := &fasthttp.Server{Handler: handler}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(cfg.StatusAddr) }()

	select {
	case <-ctx.Done():
		return srv.Shutdown()
	case err := <-errCh:
		return err
	}
}

func serveStatusJSON(rctx *fasthttp.RequestCtx, tasks store.TaskStore) {
	counts, err := tasks.CountByStatus()
	if err != nil {
		rctx.SetStatusCode(http.StatusInternalServerError)
		return
	}
	rctx.SetContentType("application/json")
	_ = jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(rctx).Encode(counts)
}

func authorized(rctx *fasthttp.RequestCtx, secret string) bool {
	if secret == "" {
		return true
	}
	return validateBearerToken(string(rctx.Request.Header.Peek("Authorization")), secret)
}
