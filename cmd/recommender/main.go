package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redink/recommender/internal/config"
	"github.com/redink/recommender/internal/database"
	"github.com/redink/recommender/internal/llm"
	"github.com/redink/recommender/internal/logging"
	"github.com/redink/recommender/internal/recommend"
	"github.com/redink/recommender/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "recommender",
	Short:   "Content recommendations from analyzed notes",
	Long:    "Recommender ranks AI-analyzed notes against free-text topics using keyword expansion, lexical scoring, and AI semantic reranking.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "DEBUG"
		}
		logger, err = logging.New(level)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(cacheCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("recommender", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/recommender/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the database path and AI provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and cache status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		total, analyzed, err := db.CountRecords()
		if err != nil {
			return fmt.Errorf("counting records: %w", err)
		}
		svc := newService(db)
		stats, err := svc.CacheStats()
		if err != nil {
			return fmt.Errorf("getting cache stats: %w", err)
		}

		fmt.Println("Records:")
		fmt.Printf("  Total: %d\n", total)
		fmt.Printf("  Analyzed: %d\n", analyzed)
		fmt.Println("\nCaches:")
		fmt.Printf("  Total entries: %d\n", stats.TotalEntries)
		fmt.Printf("  Expired entries: %d\n", stats.ExpiredEntries)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		srv := server.NewServer(newService(db), cfg.Server, logger)
		fmt.Printf("Starting server at http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
		fmt.Println("Press Ctrl+C to stop")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		fmt.Println("\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

// --- recommend command ---

var (
	recommendCategory string
	recommendScenario string
	recommendLimit    int
	recommendJSON     bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [topic]",
	Short: "Recommend notes for a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		svc := newService(db)
		results, err := svc.GetRecommendations(context.Background(), args[0], recommendCategory, recommendScenario, recommendLimit)
		if err != nil {
			return err
		}

		if recommendJSON {
			return printJSON(results)
		}
		if len(results) == 0 {
			fmt.Println("No matching notes found.")
			return nil
		}
		for i, r := range results {
			fmt.Printf("%d. %s  %s\n", i+1, r.MatchLevelDisplay, r.Record.Title)
			fmt.Printf("   record_id: %s | match: %.2f | final: %.2f\n", r.RecordID, r.MatchScore, r.FinalScore)
			for _, reason := range r.RecommendReasons {
				fmt.Printf("   - %s\n", reason)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringVar(&recommendCategory, "category", "", "Exact-match category filter")
	recommendCmd.Flags().StringVar(&recommendScenario, "scenario", "", "Scenario filter: beginner, trending, or quality")
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "n", 0, "Maximum results (default from config)")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "Output JSON")
}

// --- similar command ---

var (
	similarLimit int
	similarJSON  bool
)

var similarCmd = &cobra.Command{
	Use:   "similar [record_id]",
	Short: "Find notes similar to an existing note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		svc := newService(db)
		results, err := svc.RecommendSimilar(context.Background(), args[0], similarLimit)
		if err != nil {
			return err
		}

		if similarJSON {
			return printJSON(results)
		}
		if len(results) == 0 {
			fmt.Println("No similar notes found.")
			return nil
		}
		for i, r := range results {
			fmt.Printf("%d. %s  %s\n", i+1, r.MatchLevelDisplay, r.Record.Title)
			fmt.Printf("   record_id: %s | match: %.2f\n", r.RecordID, r.MatchScore)
		}
		return nil
	},
}

func init() {
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 0, "Maximum results (default from config)")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "Output JSON")
}

// --- import command ---

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import analyzed records from a JSON file",
	Long:  "Import reads a JSON array of analyzed records and upserts them into the record store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading import file: %w", err)
		}
		var records []*database.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("parsing import file: %w", err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		imported := 0
		for _, rec := range records {
			if strings.TrimSpace(rec.RecordID) == "" {
				fmt.Printf("Skipping record with empty record_id (title: %q)\n", rec.Title)
				continue
			}
			if err := db.UpsertRecord(rec); err != nil {
				return fmt.Errorf("importing record %s: %w", rec.RecordID, err)
			}
			imported++
		}
		fmt.Printf("Imported %d record(s) from %s\n", imported, args[0])
		return nil
	},
}

// --- cache command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the recommendation caches",
}

var (
	cacheClearRecordID string
	cacheClearOlder    int
)

var cacheClearCmd = &cobra.Command{
	Use:   "clear [all|expired|record]",
	Short: "Clear cached insights and semantic scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		svc := newService(db)
		cleared, err := svc.ClearCache(args[0], cacheClearRecordID, cacheClearOlder)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d cache entr%s\n", cleared, plural(cleared, "y", "ies"))
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := newService(db).CacheStats()
		if err != nil {
			return err
		}
		fmt.Printf("Total entries: %d\n", stats.TotalEntries)
		fmt.Printf("Expired entries: %d\n", stats.ExpiredEntries)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().StringVar(&cacheClearRecordID, "record-id", "", "Record to clear (record target only)")
	cacheClearCmd.Flags().IntVar(&cacheClearOlder, "older-than-days", 0, "Age cutoff for the expired target (default from config)")
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.GetDatabasePath())
}

func newService(db *database.DB) *recommend.Service {
	provider := llm.CreateProvider(cfg.AI.Provider, cfg.AI.Model, cfg.AI.OllamaURL,
		cfg.AI.OpenAIModel, cfg.AI.APIKeyEnv, logger)
	return recommend.NewService(db, provider, logger, cfg)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
