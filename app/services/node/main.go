package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/kase1111-hash/NatLangChain-sub001/app/services/node/handlers"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/events"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database/storage"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/genesis"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/lease"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/oracle"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/semantic"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/state"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/worker"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/logger"
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
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:60s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		Node struct {
			KeyPath        string        `conf:"default:zledger/node.ecdsa"`
			GenesisPath    string        `conf:"default:zledger/genesis.json"`
			Backend        string        `conf:"default:disk,help:disk | sqlite | memory"`
			DBPath         string        `conf:"default:zledger/blocks/"`
			SelectStrategy string        `conf:"default:FIFO"`
			LeaseDuration  time.Duration `conf:"default:30s"`
		}
		Oracle struct {
			URL         string        `conf:"default:http://0.0.0.0:9200/v1/review"`
			CallTimeout time.Duration `conf:"default:30s"`
			Disable     bool          `conf:"default:false"`
		}
		Redis struct {
			Host     string `conf:"default:"`
			Password string `conf:"default:,mask"`
			DB       int    `conf:"default:0"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

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

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Node Identity

	// The node seals blocks and holds the mining lease under the address
	// derived from its private key.
	privateKey, err := crypto.LoadECDSA(cfg.Node.KeyPath)
	if err != nil {
		return fmt.Errorf("unable to load private key for node: %w", err)
	}
	nodeID := crypto.PubkeyToAddress(privateKey.PublicKey).String()

	log.Infow("startup", "status", "node identity", "nodeid", nodeID)

	// =========================================================================
	// Ledger Support

	genesisInfo, err := genesis.Load(cfg.Node.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis file: %w", err)
	}

	// The ledger packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	defer evts.Shutdown()

	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	var strg database.Storage
	switch cfg.Node.Backend {
	case "disk":
		strg, err = storage.NewDisk(cfg.Node.DBPath)
	case "sqlite":
		strg, err = storage.NewSQLite(cfg.Node.DBPath)
	case "memory":
		strg, err = storage.NewMemory()
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Node.Backend)
	}
	if err != nil {
		return fmt.Errorf("unable to open storage: %w", err)
	}

	var sem *semantic.Validator
	if !cfg.Oracle.Disable {
		sem, err = semantic.New(semantic.Config{
			Oracle:              oracle.NewClient(cfg.Oracle.URL, cfg.Oracle.CallTimeout),
			Validators:          genesisInfo.Validators,
			SimilarityThreshold: genesisInfo.SimilarityThreshold,
			CallTimeout:         cfg.Oracle.CallTimeout,
			EvHandler:           ev,
		})
		if err != nil {
			return fmt.Errorf("unable to construct semantic validator: %w", err)
		}
	}

	// With no redis host configured the node coordinates mining with itself
	// only. Multi-node deployments must share a redis instance.
	var coordinator lease.Coordinator
	if cfg.Redis.Host != "" {
		rds := lease.NewRedis(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
		defer rds.Close()
		coordinator = rds
	} else {
		coordinator = lease.NewMemory()
	}

	st, err := state.New(state.Config{
		NodeID:         nodeID,
		Genesis:        genesisInfo,
		Storage:        strg,
		Semantic:       sem,
		Coordinator:    coordinator,
		SelectStrategy: cfg.Node.SelectStrategy,
		EvHandler:      ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker registers itself with the state and runs the mining
	// workflow in the background.
	worker.Run(st, worker.Config{
		Coordinator:   coordinator,
		LeaseDuration: cfg.Node.LeaseDuration,
		EvHandler:     ev,
	})

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
	})

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public server gracefully: %w", err)
		}
	}

	return nil
}
