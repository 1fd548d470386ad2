package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/powchain/app/services/node/handlers"
	"github.com/ardanlabs/powchain/business/sys/metrics"
	"github.com/ardanlabs/powchain/foundation/blockchain/consensus"
	"github.com/ardanlabs/powchain/foundation/blockchain/identity"
	"github.com/ardanlabs/powchain/foundation/blockchain/ledger"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/pow"
	"github.com/ardanlabs/powchain/foundation/blockchain/worker"
	"github.com/ardanlabs/powchain/foundation/events"
	"github.com/ardanlabs/powchain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// GOMAXPROCS

	log.Infow("startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:60s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:5000"`
			AdvertisedHost  string        `conf:"help:address peers use to reach this node when it differs from the public host"`
			CorsOrigin      string        `conf:"default:*"`
		}
		Ledger struct {
			Difficulty uint   `conf:"default:4"`
			KeyPath    string `conf:"help:file holding the hex ECDSA key that names this node"`
		}
		Consensus struct {
			KnownPeers      []string
			ResolveInterval time.Duration `conf:"default:1m,help:zero turns off background resolution"`
			FetchTimeout    time.Duration `conf:"default:5s"`
			MaxConcurrency  int           `conf:"default:8"`
		}
		RateLimit struct {
			PerSecond float64 `conf:"default:10,help:zero turns off rate limiting"`
			Burst     int     `conf:"default:20"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "proof of work blockchain node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	expvar.NewString("build").Set(build)

	// =========================================================================
	// Blockchain Support

	// The node id is the recipient of every mining reward this node earns.
	nodeID, err := identity.New(cfg.Ledger.KeyPath)
	if err != nil {
		return fmt.Errorf("unable to construct node id: %w", err)
	}
	log.Infow("startup", "status", "node identity", "nodeID", nodeID)

	// A peer set is a collection of known nodes in the network so chains
	// can be compared.
	peerSet := peer.NewPeerSet()
	for _, address := range cfg.Consensus.KnownPeers {
		pr, _, err := peerSet.Register(address)
		if err != nil {
			return fmt.Errorf("unable to register known peer: %w", err)
		}
		log.Infow("startup", "status", "known peer", "host", pr.Host)
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. The viewer events are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		if strings.HasPrefix(s, "viewer:") {
			evts.Publish(s)
		}
	}

	// The ledger value represents the blockchain node and manages the chain
	// and the mempool.
	ldg, err := ledger.New(ledger.Config{
		NodeID:    nodeID,
		POW:       pow.New(cfg.Ledger.Difficulty, pow.EventHandler(ev)),
		EvHandler: ev,
	})
	if err != nil {
		return fmt.Errorf("unable to construct ledger: %w", err)
	}

	// The resolver skips any registered peer that is this node.
	self, err := peer.Advertise(cfg.Web.PublicHost, cfg.Web.AdvertisedHost)
	if err != nil {
		return fmt.Errorf("unable to parse advertised host: %w", err)
	}
	log.Infow("startup", "status", "advertised host", "host", self.Host)

	// The resolver implements the longest valid chain rule against the
	// known peers.
	resolver, err := consensus.NewResolver(consensus.Config{
		Host:           self.Host,
		Ledger:         ldg,
		Peers:          peerSet,
		Fetcher:        peer.NewClient(cfg.Consensus.FetchTimeout),
		Verifier:       ldg.POW(),
		FetchTimeout:   cfg.Consensus.FetchTimeout,
		MaxConcurrency: cfg.Consensus.MaxConcurrency,
		EvHandler:      ev,
	})
	if err != nil {
		return fmt.Errorf("unable to construct resolver: %w", err)
	}

	m := metrics.New(ldg.Length)

	// The worker resolves the chain against the known peers in the
	// background.
	if cfg.Consensus.ResolveInterval > 0 {
		w, err := worker.Run(worker.Config{
			Resolver:   resolver,
			Interval:   cfg.Consensus.ResolveInterval,
			OnReplaced: m.ChainReplaced,
			EvHandler:  ev,
		})
		if err != nil {
			return fmt.Errorf("unable to start worker: %w", err)
		}
		defer w.Shutdown()
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, ldg, m)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		Metrics:    m,
		Ledger:     ldg,
		Peers:      peerSet,
		Resolver:   resolver,
		Evts:       evts,
		CorsOrigin: cfg.Web.CorsOrigin,
		RateLimit: handlers.RateLimit{
			PerSecond: cfg.RateLimit.PerSecond,
			Burst:     cfg.RateLimit.Burst,
		},
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Close()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
