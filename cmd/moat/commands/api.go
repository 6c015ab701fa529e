package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/moat/backend/internal/api"
	"github.com/wonny/moat/backend/pkg/metrics"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST + WebSocket API 서버를 시작합니다.

Endpoints:
  GET    /health                          - Health check
  GET    /metrics                         - Prometheus metrics (METRICS_ENABLED)
  GET    /ws/overrides                    - Override/composite push (WebSocket)
  GET    /api/sectors                     - Sector composites
  GET    /api/sectors/{name}              - Single sector composite
  POST   /api/valuation                   - Full valuation (explicit inputs)
  GET    /api/tickers/{ticker}/valuation  - Ticker valuation (?sector=&live=)
  GET    /api/tickers/{ticker}/history    - Valuation snapshots
  GET    /api/overrides                   - Current override set
  PUT    /api/overrides                   - Replace the override set
  DELETE /api/overrides                   - Reset all overrides
  PUT    /api/overrides/sectors/{name}    - Set a sector override
  PUT    /api/overrides/tickers/{ticker}  - Set a ticker override

Example:
  go run ./cmd/moat api
  go run ./cmd/moat api --port 8080 --scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
	apiCmd.Flags().BoolVar(&apiScheduler, "scheduler", false, "watchlist 재평가 스케줄러를 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== MOAT API Server ===")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx, bootstrapOptions{stdoutLogs: true})
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port":             a.cfg.Port,
		"env":              a.cfg.Env,
		"overrides":        a.cfg.Overrides.Backend,
		"calibration_hash": a.calibration.Hash,
	}).Info("Initializing API server")

	var m *metrics.Metrics
	if a.cfg.MetricsEnabled {
		m = a.metrics
	}

	server := api.New(a.cfg, a.log, a.analyzer, a.store, m, a.limiter)

	// Optional in-process scheduler
	if apiScheduler {
		sched, err := newRevalueScheduler(a)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal (or a listen failure)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
