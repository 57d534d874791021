package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	ownmetrics "github.com/aztec-labs/rollup-publisher/metrics"
	"github.com/aztec-labs/rollup-publisher/rollup-publisher-app/config"
	"github.com/aztec-labs/rollup-publisher/x/rollup/publish"
	"github.com/aztec-labs/rollup-publisher/x/rollup/publish/contracts"
	"github.com/aztec-labs/rollup-publisher/x/rollup/publish/ethchain"
	"github.com/aztec-labs/rollup-publisher/x/rollup/publish/store"
)

// App wires a Publisher over an ethchain.Client and an in-memory rollup
// database, and exposes the publish/interrupt/clearInterrupt control
// surface over HTTP.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	publisher *publish.Publisher
	db        *store.MemoryDatabase
	registry  *prometheus.Registry

	server *http.Server
	cancel context.CancelFunc
}

// NewApp creates and fully wires a new application instance.
func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{
		cfg: cfg,
		log: log.With().Str("component", "app").Logger(),
	}

	if err := app.initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}

	return app, nil
}

func (a *App) initialize(ctx context.Context) error {
	chain, err := a.initializeChainClient(ctx)
	if err != nil {
		return err
	}

	a.db = store.NewMemoryDatabase()

	var metricsRecorder publish.MetricsRecorder
	if a.cfg.Metrics.Enabled {
		compReg := ownmetrics.NewComponentRegistry("rollup", "publisher")
		a.registry = compReg.Registry()
		metricsRecorder = publish.NewMetrics(compReg)
	}

	cfg := publish.DefaultConfig()
	maxFee, ok := new(big.Int).SetString(a.cfg.Gas.MaxFeePerGasWei, 10)
	if !ok {
		return fmt.Errorf("invalid gas.max_fee_per_gas_wei %q", a.cfg.Gas.MaxFeePerGasWei)
	}
	maxTip, ok := new(big.Int).SetString(a.cfg.Gas.MaxPriorityFeePerGasWei, 10)
	if !ok {
		return fmt.Errorf("invalid gas.max_priority_fee_per_gas_wei %q", a.cfg.Gas.MaxPriorityFeePerGasWei)
	}
	cfg.MaxFeePerGas = maxFee
	cfg.MaxPriorityFeePerGas = maxTip
	cfg.GasLimit = a.cfg.Gas.GasLimit
	cfg.GateRetryInterval = a.cfg.Gas.GateRetryInterval
	cfg.SendRetryInterval = a.cfg.Gas.SendRetryInterval
	cfg.RevertRetryInterval = a.cfg.Gas.RevertRetryInterval
	cfg.ReceiptTimeout = a.cfg.Gas.ReceiptTimeout

	opts := []publish.Option{
		publish.WithChainClient(chain),
		publish.WithRollupDatabase(a.db),
		publish.WithLogger(a.log),
	}
	if metricsRecorder != nil {
		opts = append(opts, publish.WithMetricsRecorder(metricsRecorder))
	}

	pub, err := publish.NewPublisher(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}
	a.publisher = pub

	a.initializeServer()
	return nil
}

func (a *App) initializeChainClient(ctx context.Context) (*ethchain.Client, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(a.cfg.L1.PublisherPkHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse publisher private key: %w", err)
	}
	signer := ethchain.NewLocalECDSASigner(new(big.Int).SetUint64(a.cfg.L1.ChainID), key)

	rollupVerifier, err := contracts.NewRollupVerifierBinding(a.cfg.L1.RollupVerifierAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind rollup verifier contract: %w", err)
	}
	broadcastRegistry, err := contracts.NewBroadcastRegistryBinding(a.cfg.L1.BroadcastRegistryAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind broadcast registry contract: %w", err)
	}

	var userApprovals *contracts.UserApprovalBinding
	if strings.TrimSpace(a.cfg.L1.UserApprovalAddr) != "" {
		userApprovals, err = contracts.NewUserApprovalBinding(a.cfg.L1.UserApprovalAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to bind user approval registry contract: %w", err)
		}
	}

	return ethchain.Dial(ctx, a.cfg.L1.RPCEndpoint, signer, rollupVerifier, broadcastRegistry, userApprovals, a.log)
}

func (a *App) initializeServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.handleHealth)
	mux.HandleFunc("/publish", a.handlePublish)
	mux.HandleFunc("/interrupt", a.handleInterrupt)
	mux.HandleFunc("/clear-interrupt", a.handleClearInterrupt)

	if a.cfg.Metrics.Enabled {
		mux.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}

	a.server = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}
}

// Run starts the application and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	go func() {
		a.log.Info().Str("addr", a.cfg.Server.ListenAddr).Msg("control surface listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error().Err(err).Msg("control server error")
		}
	}()

	return a.runWithGracefulShutdown(runCtx)
}

func (a *App) runWithGracefulShutdown(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	a.log.Info().Msg("rollup publisher started")

	select {
	case <-ctx.Done():
		a.log.Info().Msg("context canceled, initiating shutdown")
	case sig := <-sigCh:
		a.log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	}

	if a.cancel != nil {
		a.cancel()
	}

	return a.shutdown()
}

func (a *App) shutdown() error {
	a.log.Info().Msg("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.publisher.Interrupt()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("control server shutdown error")
		return err
	}

	a.log.Info().Msg("graceful shutdown complete")
	return nil
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy"}`)
}

type publishRequest struct {
	Proof         []byte   `json:"proof"`
	OffchainBlobs [][]byte `json:"offchain_blobs"`
	EstimatedGas  uint64   `json:"estimated_gas"`
}

type publishResponse struct {
	RollupID string `json:"rollup_id"`
	Outcome  string `json:"outcome"`
}

// handlePublish accepts a locally-aggregated rollup and blocks until
// Publish returns a terminal outcome. The rollup ID is generated here
// since the external rollup-producing process is out of this binary's
// scope; it only needs to correlate the response's rollup_id.
func (a *App) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Proof) == 0 {
		http.Error(w, "proof is required", http.StatusBadRequest)
		return
	}

	rollup := publish.Rollup{
		ID:            uuid.NewString(),
		Proof:         req.Proof,
		OffchainBlobs: req.OffchainBlobs,
		BuiltAt:       time.Now().UTC(),
	}

	outcome, err := a.publisher.Publish(r.Context(), rollup, req.EstimatedGas)
	if err != nil {
		a.log.Error().Err(err).Str("rollup_id", rollup.ID).Msg("publish rejected")
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(publishResponse{RollupID: rollup.ID, Outcome: outcome.String()})
}

func (a *App) handleInterrupt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.publisher.Interrupt()
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleClearInterrupt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.publisher.ClearInterrupt()
	w.WriteHeader(http.StatusNoContent)
}
