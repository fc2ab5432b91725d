// Package main provides the Ivan Code CLI application entry point.
// Ivan Code is an interactive assistant that turns natural-language requests
// into generated source artifacts and keeps them as versioned projects per user.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ivancode/internal/context"
	"ivancode/internal/logger"
	"ivancode/internal/services"
	"ivancode/internal/shell"
)

var (
	logLevel      string
	logFile       string
	testMode      bool
	userEmail     string
	dataDir       string
	settleMs      int
	invokeTimeout time.Duration
	version       = "0.1.0" // This could be set at build time
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ivan",
	Short: "Ivan Code - conversational code generation with project history",
	Long: `Ivan is an interactive assistant that turns natural-language requests into
generated source files. Every generated artifact is kept as a versioned project
in your personal history and can be resumed, diffed, exported, or copied.`,
	Run: runShell, // Default behavior is to run the interactive shell
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the version of Ivan Code.`,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("Ivan Code v%s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test-mode", false, "Run in deterministic test mode")
	rootCmd.PersistentFlags().StringVar(&userEmail, "user", "", "Account email to log in as")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for persisted projects and settings")
	rootCmd.PersistentFlags().IntVar(&settleMs, "settle-ms", 0, "Simulated cloud settle delay in milliseconds [default: 1200]")
	rootCmd.PersistentFlags().DurationVar(&invokeTimeout, "invoke-timeout", 0, "Model invocation timeout [default: 60s]")

	// Bind flags to viper
	for _, flag := range []string{"log-level", "log-file", "test-mode", "user", "data-dir", "settle-ms", "invoke-timeout"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(versionCmd)

	// Configure logger before any command execution
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := logger.Configure(logLevel, logFile, testMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

func runShell(_ *cobra.Command, _ []string) {
	logger.Info("Starting Ivan Code", "version", version)

	globalCtx := context.GetGlobalContext().(*context.IvanContext)
	globalCtx.SetTestMode(testMode)
	if err := globalCtx.LoadDefaultDotEnvs(); err != nil {
		logger.Warn("Could not load .env files", "error", err)
	}
	if dataDir != "" {
		globalCtx.SetConfigValue("IVAN_DATA_DIR", dataDir)
	}

	if err := shell.InitializeServices(testMode); err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}
	logger.Info("Services initialized successfully")

	sessionSvc, err := services.GlobalRegistry.GetService("session")
	if err != nil {
		logger.Fatal("Session service missing", "error", err)
	}
	session := sessionSvc.(*services.SessionService)

	catalogSvc, err := services.GlobalRegistry.GetService("catalog")
	if err != nil {
		logger.Fatal("Catalog service missing", "error", err)
	}
	catalog := catalogSvc.(*services.CatalogService)

	apiKey, _ := globalCtx.GetConfigValue("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey, _ = globalCtx.GetConfigValue("GOOGLE_API_KEY")
	}
	session.SetClient(services.NewGeminiClient(apiKey, catalog.FenceFor))
	if settleMs > 0 {
		session.SetSettleDelay(time.Duration(settleMs) * time.Millisecond)
	}
	if invokeTimeout > 0 {
		session.SetInvokeTimeout(invokeTimeout)
	}

	storageSvc, err := services.GlobalRegistry.GetService("storage")
	if err != nil {
		logger.Fatal("Storage service missing", "error", err)
	}
	storage := storageSvc.(*services.StorageService)

	// The --user preset only applies to the first login; after :logout the
	// next account is prompted for interactively.
	presetEmail := userEmail
	for {
		user, err := shell.Login(storage, presetEmail)
		if err != nil {
			logger.Fatal("Login failed", "error", err)
		}

		sh, err := shell.New(user)
		if err != nil {
			logger.Fatal("Failed to start shell", "error", err)
		}
		err = sh.Run()
		if errors.Is(err, shell.ErrLoggedOut) {
			presetEmail = ""
			continue
		}
		if err != nil {
			logger.Fatal("Shell exited with error", "error", err)
		}
		return
	}
}
