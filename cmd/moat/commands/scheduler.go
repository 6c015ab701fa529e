package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/moat/backend/internal/scheduler"
	"github.com/wonny/moat/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `watchlist 재평가 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작 (Ctrl+C로 종료)
  list    - 등록된 작업과 다음 실행 시각
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/moat scheduler start
  go run ./cmd/moat scheduler list
  go run ./cmd/moat scheduler run watchlist_revalue`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- watchlist_revalue: REVALUE_SCHEDULE (기본 평일 21:30, 미국 장 마감 후)

METRICS_ENABLED이면 METRICS_PORT에서 /metrics를 노출합니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd, schedulerListCmd, schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== MOAT Scheduler ===")

	a, err := bootstrap(context.Background(), bootstrapOptions{stdoutLogs: true})
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newRevalueScheduler(a)
	if err != nil {
		return err
	}

	// Metrics endpoint (no API server in this process)
	var metricsServer *http.Server
	if a.cfg.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		metricsServer = &http.Server{
			Addr:              ":" + a.cfg.MetricsPort,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	sched.Start()
	PrintSuccess(fmt.Sprintf("Scheduler running with %d job(s), watchlist %d ticker(s)", len(sched.GetAllJobs()), len(a.cfg.Watchlist)))
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("metrics server shutdown failed: %w", err)
		}
	}
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(context.Background(), bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newRevalueScheduler(a)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	widths := []int{20, 18, 26}
	PrintHeader("Scheduled jobs")
	PrintTableHeader([]string{"JOB", "SCHEDULE", "NEXT RUN"}, widths)
	for name, stats := range sched.GetJobStats() {
		next := "-"
		if t, ok := sched.NextRun(name); ok && !t.IsZero() {
			next = t.Format(time.RFC3339)
		}
		PrintTableRow([]string{name, stats.Schedule, next}, widths)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx, bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newRevalueScheduler(a)
	if err != nil {
		return err
	}

	jobName := args[0]
	runErr := sched.WithRetry(0, 0).RunJob(ctx, jobName)

	history, err := sched.GetJobHistory(jobName)
	if err != nil {
		return err
	}
	last, ok := history.Last()
	switch {
	case runErr != nil:
		PrintError(fmt.Sprintf("Job %s failed: %v", jobName, runErr))
		return runErr
	case ok:
		PrintSuccess(jobResultLine(last))
	}
	return nil
}

// jobResultLine summarizes one run ("watchlist_revalue ok in 1.25s (1 attempt)")
func jobResultLine(r scheduler.JobResult) string {
	status := "ok"
	if !r.Success {
		status = "failed"
	}
	attempts := "attempt"
	if r.Attempts != 1 {
		attempts = "attempts"
	}
	return fmt.Sprintf("%s %s in %.2fs (%d %s)", r.JobName, status, r.Duration.Seconds(), r.Attempts, attempts)
}

// newRevalueScheduler registers the watchlist revaluation job
func newRevalueScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, a.metrics)

	job := jobs.NewWatchlistRevalueJob(a.analyzer, a.cfg.Watchlist, a.cfg.RevalueSchedule, a.log)
	if err := sched.AddJob(job); err != nil {
		return nil, fmt.Errorf("register %s: %w", job.Name(), err)
	}

	if len(a.cfg.Watchlist) == 0 {
		a.log.Warn("WATCHLIST is empty, revaluation runs will be no-ops")
	}
	return sched, nil
}
