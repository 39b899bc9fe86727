package cmd

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/unchained-card/card_api/config"
	"gitlab.com/unchained-card/card_api/featureflags"
)

// LogLevel Flag
var LogLevel = "info"

// LogFormat Flag
var LogFormat = "json"
var cfgFile string
var rootCmd = &cobra.Command{
	Use:   "card_api",
	Short: "The backend of the crypto funded virtual card",
	Long: `Quotes token payments for card registration and top-ups, confirms them on-chain
	and reconciles every confirmed payment with the card provisioning process.`,
}

func init() {
	// set log level
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	initLoggingEnv()
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.config.yaml)")
	rootCmd.PersistentFlags().StringVar(&LogLevel, "log-level", LogLevel, "debug|info|warn|error|fatal|panic, LOG_LEVEL in the environment")
	rootCmd.PersistentFlags().StringVar(&LogFormat, "log-format", LogFormat, "json|pretty, LOG_FORMAT in the environment")
}

func initConfig() {
	config.OpenConfig(cfgFile)
	customizeLogger()
	cfg := config.LoadConfig(viper.GetViper())
	// without an unleash url every feature stays enabled
	if err := featureflags.Initialize(cfg.Unleash); err != nil {
		log.Fatal().Err(err).Str("lib", "unleash").Msg("Unable to init feature flags")
	}
}

// initLoggingEnv lets the environment set the flag defaults
func initLoggingEnv() {
	if value, ok := os.LookupEnv("LOG_LEVEL"); ok && value != "" {
		LogLevel = value
	}
	if value, ok := os.LookupEnv("LOG_FORMAT"); ok && value != "" {
		LogFormat = value
	}
}

// Execute the commands
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Unable to run command")
	}
}

// logLevel maps the flag value to a zerolog level, unknown values fall back to info
func logLevel(value string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func customizeLogger() {
	switch LogFormat {
	case "pretty":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	case "json":
	default:
		log.Warn().Str("log_format", LogFormat).Msg("Unknown log format, using json")
	}

	level := logLevel(LogLevel)
	zerolog.SetGlobalLevel(level)

	// request dumps and route tables are only printed while debugging
	if level == zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}
