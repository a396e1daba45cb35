package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"agentrag/config"
)

var (
	cfgFile string
	cfg     *config.Config
	dataDir string
	tenant  string
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "agentrag",
	Short: "Multi-agent RAG service - route chat messages and retrieve tenant documents",
	Long: `agentrag runs a multi-agent chat pipeline over tenant-scoped documents.
Messages are classified and routed to specialist agents (document Q&A, API
execution, form generation, analytics); document questions are answered with
hybrid semantic+lexical retrieval over ingested files.

Example usage:
  agentrag ingest ./docs -t acme     # Ingest documents for tenant "acme"
  agentrag chat -t acme              # Start an interactive chat session
  agentrag query -t acme -q "refund policy"
  agentrag status -t acme            # Show tenant document stats`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; environment variables win either way.
		_ = godotenv.Load()

		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, werr := os.Getwd()
			if werr != nil {
				return fmt.Errorf("failed to get working directory: %w", werr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if dataDir != "" {
			cfg.Storage.DataDir = dataDir
		}

		logger, err = buildLogger(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./agentrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "data directory (default from config)")
	rootCmd.PersistentFlags().StringVarP(&tenant, "tenant", "t", "default", "tenant identifier")
}

func GetConfig() *config.Config {
	return cfg
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
