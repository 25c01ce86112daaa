// Command arbiscan runs the cross-exchange and triangular arbitrage
// detection daemon: it connects to every configured venue, keeps the Book
// Store warm, scans it on two independent cadences, and fans emitted
// opportunities out to the alert pipeline and the persistence sink.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/arbiscan/internal/alert"
	"github.com/sawpanic/arbiscan/internal/cache"
	"github.com/sawpanic/arbiscan/internal/config"
	"github.com/sawpanic/arbiscan/internal/domain"
	"github.com/sawpanic/arbiscan/internal/fees"
	"github.com/sawpanic/arbiscan/internal/httpapi"
	"github.com/sawpanic/arbiscan/internal/ingest"
	"github.com/sawpanic/arbiscan/internal/notify"
	"github.com/sawpanic/arbiscan/internal/persistence"
	"github.com/sawpanic/arbiscan/internal/persistence/postgres"
	"github.com/sawpanic/arbiscan/internal/scan"
	"github.com/sawpanic/arbiscan/internal/store"
	"github.com/sawpanic/arbiscan/internal/telemetry"
	"github.com/sawpanic/arbiscan/internal/venue"

	_ "github.com/sawpanic/arbiscan/internal/venue/binance"
	_ "github.com/sawpanic/arbiscan/internal/venue/coinbase"
	_ "github.com/sawpanic/arbiscan/internal/venue/kraken"
	_ "github.com/sawpanic/arbiscan/internal/venue/okx"
)

const version = "v0.1.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "arbiscan",
		Short:   "cross-exchange and triangular arbitrage detector",
		Version: version,
		RunE:    runDaemon,
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("arbiscan exited with error")
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutdown requested")
		cancel()
	}()

	symbols, err := resolveSymbols(cfg)
	if err != nil {
		return err
	}
	venueNames, err := resolveVenues(cfg)
	if err != nil {
		return err
	}

	feeModel := fees.NewModel(nil)
	bookStore := store.New()

	hotSymbols := symbols // every configured symbol is treated as hot; the
	// distinction only matters for venues that fall back to polling.
	supervisor := ingest.NewSupervisor(bookStore.Put, hotSymbols, cfg.MaxReconnectAttempts, cfg.BackoffMax, cfg.CoalesceWindow)

	activeVenues := make([]string, 0, len(venueNames))
	for _, name := range venueNames {
		conn, err := venue.New(name)
		if err != nil {
			log.Warn().Err(err).Str("venue", name).Msg("skipping unregistered venue")
			continue
		}
		activeVenues = append(activeVenues, name)
		for _, sym := range symbols {
			supervisor.AddStream(conn, sym)
		}
	}
	venueNames = activeVenues

	// Warm the fee cache for every venue before the scanner goroutines
	// start, so concurrent Resolve calls from the cross and triangular
	// scanners hit an already-populated, read-mostly cache.
	for _, name := range venueNames {
		feeModel.Resolve(name)
	}

	triBases := make([]domain.Asset, 0, len(cfg.TriBases))
	for _, b := range cfg.TriBases {
		triBases = append(triBases, domain.NormalizeAsset(b))
	}
	triExcludeQuotes := make([]domain.Asset, 0, len(cfg.TriExcludeQuotes))
	for _, q := range cfg.TriExcludeQuotes {
		triExcludeQuotes = append(triExcludeQuotes, domain.NormalizeAsset(q))
	}

	crossScanner := &scan.CrossScanner{
		Books:        bookStore,
		Fees:         feeModel,
		Symbols:      symbols,
		MinNotional:  cfg.MinNotional,
		MinSpreadBPS: cfg.MinSpreadBPS,
	}
	triScanner := &scan.TriangularScanner{
		Books:         bookStore,
		Fees:          feeModel,
		Venues:        venueNames,
		Bases:         triBases,
		ExcludeQuotes: triExcludeQuotes,
		StartAmount:   cfg.MinNotional,
		MinGainBPS:    cfg.MinTriGainBPS,
		Cache:         cache.NewAuto(),
	}

	notifySink := resolveNotifySink()
	pipeline := alert.NewPipeline(notifySink)

	persistSink, closePersist, err := resolvePersistSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePersist()

	metrics := telemetry.NewRegistry()
	collector := telemetry.NewCollector(metrics, supervisor.Health, bookStore.Len, persistSink.AppendVenueHealth, cfg.HealthCheckInterval)

	httpServer := httpapi.NewServer(httpapi.DefaultConfig(), supervisor.Health, metrics)

	go supervisor.Run(ctx)
	go collector.Run(ctx)
	go pipeline.Run(ctx)

	go scan.RunAdaptive(ctx, cfg.ScanInterval, func(now time.Time) {
		start := time.Now()
		for _, opp := range crossScanner.Scan(now) {
			metrics.OpportunitiesDetected.WithLabelValues("cross").Inc()
			pipeline.SubmitCross(opp, now)
			persistSink.AppendOpportunity(opp)
		}
		metrics.RecordScan("cross", time.Since(start), cfg.ScanInterval)
	})

	go scan.RunAdaptive(ctx, cfg.ScanInterval, func(now time.Time) {
		start := time.Now()
		for _, opp := range triScanner.Scan(now) {
			metrics.OpportunitiesDetected.WithLabelValues("triangular").Inc()
			pipeline.SubmitTriangular(opp, now)
			persistSink.AppendTriOpportunity(opp)
		}
		metrics.RecordScan("triangular", time.Since(start), cfg.ScanInterval)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown error")
	}
	pipeline.Close()

	if w, ok := persistSink.(*persistence.Writer); ok {
		w.FlushAll(shutdownCtx)
	}

	log.Info().Msg("arbiscan stopped")
	return nil
}

func resolveSymbols(cfg config.Config) ([]domain.Symbol, error) {
	if len(cfg.SymbolUniverse) == 0 {
		return nil, fmt.Errorf("no symbols configured: set SYMBOL_UNIVERSE")
	}
	symbols := make([]domain.Symbol, 0, len(cfg.SymbolUniverse))
	for _, raw := range cfg.SymbolUniverse {
		sym, err := domain.ParseSymbol(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid symbol %q: %w", raw, err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

func resolveVenues(cfg config.Config) ([]string, error) {
	all := venue.Names()
	if len(cfg.IncludeExchanges) > 0 {
		return filterNames(all, cfg.IncludeExchanges, true), nil
	}
	if len(cfg.ExcludeExchanges) > 0 {
		return filterNames(all, cfg.ExcludeExchanges, false), nil
	}
	return all, nil
}

func filterNames(all, list []string, include bool) []string {
	set := make(map[string]bool, len(list))
	for _, n := range list {
		set[n] = true
	}
	var out []string
	for _, n := range all {
		if set[n] == include {
			out = append(out, n)
		}
	}
	return out
}

func resolveNotifySink() notify.Sink {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatID := os.Getenv("TELEGRAM_CHAT_ID")
	if token == "" || chatID == "" {
		log.Info().Msg("no telegram credentials configured, alerting to log only")
		return notify.LogSink{}
	}
	return notify.NewTelegramSink(token, chatID)
}

func resolvePersistSink(ctx context.Context, cfg config.Config) (persistence.Sink, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info().Msg("no DATABASE_URL configured, persistence disabled")
		return persistence.NoopSink{}, func() {}, nil
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.DSN = cfg.DatabaseURL
	mgr, err := postgres.Connect(ctx, pgCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("persistence: %w", err)
	}

	writer := persistence.NewWriter(mgr.Opps, mgr.Tri, mgr.Health)
	go writer.Run(ctx)

	return writer, func() { mgr.Close() }, nil
}
