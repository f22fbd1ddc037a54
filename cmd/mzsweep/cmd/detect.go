package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mzsweep/mzsweep/internal/adapters/source"
	service "github.com/mzsweep/mzsweep/internal/app"
	"github.com/mzsweep/mzsweep/internal/config"
	"github.com/mzsweep/mzsweep/pkg/logger"
	"github.com/mzsweep/mzsweep/pkg/metrics"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect features in an mzML run",
	Long: `Detect isotopic-pattern features in the MS1 scans of an mzML file.

Examples:
  # Detect with default settings, write features to SQLite
  mzsweep detect --in run.mzML --out-db features.db

  # Consider charges up to 3 and require 5 contributing scans
  mzsweep detect --in run.mzML --out-db features.db --max-charge 3 --votes-cutoff 5

  # Additionally write a Mascot peptide mass fingerprint file
  mzsweep detect --in run.mzML --out-db features.db --pmf run.pmf`,
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}

	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	pmfPath := pmfFile
	if pmfPath == "" && cfg.CreatePMFFile {
		pmfPath = inputFile + ".pmf"
	}

	svc := service.New(cfg,
		service.WithSource(source.NewMzMLSource(inputFile)),
		service.WithSourcePath(inputFile),
		service.WithDBPath(outputDB),
		service.WithPMFPath(pmfPath),
	)

	features, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Detected %d features\n", len(features))
	if outputDB != "" {
		fmt.Printf("Output: %s\n", outputDB)
	}
	if pmfPath != "" {
		fmt.Printf("PMF file: %s\n", pmfPath)
	}

	return nil
}

// applyFlagOverrides lets explicit CLI flags win over file and env
// configuration.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("max-charge") {
		cfg.MaxCharge = maxCharge
	}
	if cmd.Flags().Changed("intensity-threshold") {
		cfg.IntensityThreshold = intensityThreshold
	}
	if cmd.Flags().Changed("votes-cutoff") {
		cfg.VotesCutoff = votesCutoff
	}
	if cmd.Flags().Changed("gap-tolerance") {
		cfg.GapTolerance = gapTolerance
	}
}

// serveMetrics exposes the Prometheus endpoint for the duration of the
// run.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log := logger.Get().Named("metrics-server")
	log.Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error(ctx, "metrics server failed", logger.Error(err))
	}
}
