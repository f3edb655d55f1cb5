// TickerLens: AI market commentary for a single ticker.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/tickerlens/api"
	"github.com/seenimoa/tickerlens/internal/agent"
	"github.com/seenimoa/tickerlens/internal/config"
	"github.com/seenimoa/tickerlens/internal/llm"
	"github.com/seenimoa/tickerlens/internal/logging"
	"github.com/seenimoa/tickerlens/internal/notify"
	"github.com/seenimoa/tickerlens/internal/report"
	"github.com/seenimoa/tickerlens/internal/watch"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
)

func main() {
	err := rootCmd.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tickerlens",
	Short: "TickerLens: AI market commentary for stocks, commodities and crypto",
	Long: `TickerLens fetches a live quote, three months of price history and recent
headlines for one ticker, computes RSI, and asks an ordered chain of LLMs
for a persona-specific trading commentary.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger, logCloser = logging.New(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tickerlens %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Generate an AI commentary for a ticker",
	Long: `Run the full pipeline for one ticker: quote, RSI, news and the model chain.
Examples:
  tickerlens analyze AAPL
  tickerlens analyze 2330.TW --output json
  tickerlens analyze GC=F --models gemini:gemini-2.5-flash,openai:gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := reportOptions(cmd)
		if err != nil {
			return err
		}
		if spec, _ := cmd.Flags().GetString("models"); spec != "" {
			candidates, err := config.ParseCandidates(spec)
			if err != nil {
				return fmt.Errorf("--models: %w", err)
			}
			cfg.LLM.Candidates = candidates
		}
		if cmd.Flags().Changed("concurrent") {
			cfg.Analysis.ConcurrentFetch, _ = cmd.Flags().GetBool("concurrent")
		}

		orch, err := agent.NewFromConfig(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := orch.Analyze(ctx, args[0])
		if err != nil {
			return err
		}
		return report.Render(cmd.OutOrStdout(), a, opts)
	},
}

func init() {
	analyzeCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	analyzeCmd.Flags().Bool("no-color", false, "disable colored output")
	analyzeCmd.Flags().String("models", "", "override the model chain, e.g. gemini:gemini-2.5-flash,openai:gpt-4o-mini")
	analyzeCmd.Flags().Bool("concurrent", false, "fetch market data and news in parallel")
}

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [ticker]",
	Short: "Show the live quote and RSI without calling a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := reportOptions(cmd)
		if err != nil {
			return err
		}
		orch, err := agent.NewFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		q, err := orch.Quote(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return report.RenderQuote(cmd.OutOrStdout(), q.Symbol, q.AssetClass, q.Market, opts)
	},
}

func init() {
	quoteCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	quoteCmd.Flags().Bool("no-color", false, "disable colored output")
}

func reportOptions(cmd *cobra.Command) (report.Options, error) {
	output, _ := cmd.Flags().GetString("output")
	format, err := report.ParseFormat(output)
	if err != nil {
		return report.Options{}, err
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	return report.Options{Format: format, NoColor: noColor}, nil
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.API.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.API.Port = port
		}
		api.Version = version

		srv, err := api.NewServerFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		return srv.ListenAndServe(cmd.Context(), cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides api.host)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
}

// --- Watch Command ---

var watchCmd = &cobra.Command{
	Use:   "watch [ticker...]",
	Short: "Re-analyze a watchlist on a cron schedule",
	Long: `Analyze every symbol in the watchlist on a schedule and deliver the results
to the log and, when a bot token and chat ID are configured, to Telegram.
Symbols given as arguments replace watch.symbols from the config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		symbols := cfg.Watch.Symbols
		if len(args) > 0 {
			symbols = args
		}
		schedule := cfg.Watch.Schedule
		if s, _ := cmd.Flags().GetString("schedule"); s != "" {
			schedule = s
		}

		orch, err := agent.NewFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		notifier, err := watchNotifier(cfg, logger)
		if err != nil {
			return err
		}
		w := watch.New(orch, notifier, symbols, schedule, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if once, _ := cmd.Flags().GetBool("once"); once {
			return w.RunOnce(ctx)
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		w.Stop()
		return nil
	},
}

func init() {
	watchCmd.Flags().Bool("once", false, "run the watchlist once and exit")
	watchCmd.Flags().String("schedule", "", "cron spec with seconds (overrides watch.schedule)")
}

func watchNotifier(cfg *config.Config, log zerolog.Logger) (notify.Notifier, error) {
	notifiers := notify.Multi{notify.NewLogNotifier(log)}
	if cfg.Watch.TelegramToken != "" && cfg.Watch.TelegramChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.Watch.TelegramToken, cfg.Watch.TelegramChatID, "")
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		notifiers = append(notifiers, tg)
	}
	return notifiers, nil
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and credential status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  TickerLens: System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintln(out)

		ready := map[string]bool{}
		for _, p := range llm.NewChainFromConfig(cfg, logger).Providers() {
			ready[p] = true
		}
		fmt.Fprintln(out, "  Model chain:")
		for i, c := range cfg.LLM.Candidates {
			mark := "✅"
			if !ready[c.Provider] {
				mark = "❌ no key"
			}
			fmt.Fprintf(out, "    %d. %s/%s  %s\n", i+1, c.Provider, c.Model, mark)
		}
		fmt.Fprintf(out, "    backoff %s, timeout %s\n", cfg.LLM.Backoff, cfg.LLM.Timeout)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    News Provider: %s\n", cfg.News.Provider)
		fmt.Fprintf(out, "    RSI:           %d (%s)\n", cfg.Analysis.RSIPeriod, cfg.Analysis.RSISmoothing)
		fmt.Fprintf(out, "    Language:      %s\n", cfg.Analysis.Language)
		fmt.Fprintf(out, "    API Server:    %s\n", cfg.API.Addr())
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  ⚠️  %v\n", err)
		}
		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}
