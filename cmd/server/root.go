package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codewithrodrick/portfolio-backend/internal/config"
	"github.com/codewithrodrick/portfolio-backend/internal/telemetry"
)

var (
	envFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Portfolio site API",
	Long: `Backend for the portfolio site:
- admin registration, login and sessions
- project and profile management
- image uploads to Cloudinary or S3-compatible storage
- contact form delivery through Gmail`,
	// Running the binary without a subcommand starts the server.
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().String("port", "", "HTTP listen port (env PORT)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json (env LOG_FORMAT)")

	v.BindPFlag("PORT", rootCmd.PersistentFlags().Lookup("port"))
	v.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))
	v.BindPFlag("LOG_FORMAT", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	// A missing .env is normal in deployed environments.
	if err := godotenv.Load(envFile); err != nil && envFile != ".env" {
		fmt.Fprintf(os.Stderr, "could not load %s: %v\n", envFile, err)
	}

	config.SetDefaults(v)
	v.AutomaticEnv()
}

// loadConfig reads configuration and installs the default logger.
func loadConfig() *config.Config {
	cfg := config.Load(v)
	telemetry.SetupLogger(cfg.LogFormat, cfg.LogLevel)
	slog.Debug("configuration loaded", "env", cfg.Environment, "upload_backend", cfg.UploadBackend)
	return cfg
}
