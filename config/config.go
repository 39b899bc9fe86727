package config

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gitlab.com/unchained-card/card_api/conv"
	"gitlab.com/unchained-card/card_api/featureflags"
	"gitlab.com/unchained-card/card_api/lib/cashwyre"
	"gitlab.com/unchained-card/card_api/lib/telegram"
	"gitlab.com/unchained-card/card_api/monitor"
	"gitlab.com/unchained-card/card_api/net/kafka"
	"gitlab.com/unchained-card/card_api/net/redis"
)

// Config structure
type Config struct {
	Server          ServerConfig
	DatabaseCluster DatabaseClusterConfig `mapstructure:"database_cluster"`
	Redis           redis.Config          `mapstructure:"redis"`
	Kafka           kafka.Config          `mapstructure:"kafka"`
	Crons           Crons                 `mapstructure:"crons"`
	Unleash         featureflags.Config   `mapstructure:"unleash"`
	Oracle          OracleConfig          `mapstructure:"oracle"`
	Chain           ChainConfig           `mapstructure:"chain"`
	Payments        PaymentsConfig        `mapstructure:"payments"`
	Cashwyre        cashwyre.Config       `mapstructure:"cashwyre"`
	Telegram        telegram.Config       `mapstructure:"telegram"`
	Provisioning    ProvisioningConfig    `mapstructure:"provisioning"`
	CardView        CardViewConfig        `mapstructure:"card_view"`
}

// ServerConfig structure
type ServerConfig struct {
	Monitoring monitor.Config `mapstructure:"monitoring"`
	API        APIConfig      `mapstructure:"api"`
	Sendgrid   SendgridConfig `mapstructure:"sendgrid"`
	Internal   InternalConfig `mapstructure:"internal"`
}

// APIConfig structure
type APIConfig struct {
	Port            int
	KeepAlive       bool          `mapstructure:"keep_alive"`
	Domain          string
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// InternalConfig restricts access to the routes used by the provisioning process
type InternalConfig struct {
	AllowedIPs string `mapstructure:"allowed_ips"`
}

// SendgridConfig structure
type SendgridConfig struct {
	Key  string
	From string
	To   []string `mapstructure:"to"`
}

// Crons - mapping of ids to execution frequency
type Crons map[string]string

// DatabaseClusterConfig structure
type DatabaseClusterConfig struct {
	Writer DatabaseConfig `mapstructure:"writer"`
	Reader DatabaseConfig `mapstructure:"reader"`
}

// DatabaseConfig structure
type DatabaseConfig struct {
	Type            string // postgres
	Host            string
	Username        string
	Password        string
	Name            string
	SSLmode         string `mapstructure:"sslmode"`
	ApplicationName string `mapstructure:"application_name"`
	Port            int
	PoolSize        int `mapstructure:"pool_size"`
}

// OracleConfig describes where the token price is read from
type OracleConfig struct {
	URL              string        `mapstructure:"url"`
	TokenID          string        `mapstructure:"token_id"`
	FallbackPriceUSD float64       `mapstructure:"fallback_price_usd"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// GetFallbackPrice godoc
func (cfg OracleConfig) GetFallbackPrice() *decimal.Big {
	return conv.FromFloat(cfg.FallbackPriceUSD)
}

// ChainConfig describes the JSON-RPC endpoint of the chain the payments are made on
type ChainConfig struct {
	RPCURL             string        `mapstructure:"rpc_url"`
	ChainID            int64         `mapstructure:"chain_id"`
	Timeout            time.Duration `mapstructure:"timeout"`
	ReceiptPollInitial time.Duration `mapstructure:"receipt_poll_initial"`
	ReceiptPollMax     time.Duration `mapstructure:"receipt_poll_max"`
}

// PaymentsConfig holds the pricing of the card products
type PaymentsConfig struct {
	TreasuryAddress    string        `mapstructure:"treasury_address"`
	CustodialSender    string        `mapstructure:"custodial_sender"`
	RegistrationFeeUSD float64       `mapstructure:"registration_fee_usd"`
	MinTopUpUSD        float64       `mapstructure:"min_top_up_usd"`
	MaxTopUpUSD        float64       `mapstructure:"max_top_up_usd"`
	FeeRate            float64       `mapstructure:"fee_rate"`
	TokenDecimals      int           `mapstructure:"token_decimals"`
	QuoteTTL           time.Duration `mapstructure:"quote_ttl"`
	ProcessedTTL       time.Duration `mapstructure:"processed_ttl"`
	BlockTimeSkew      time.Duration `mapstructure:"block_time_skew"`
}

// GetRegistrationFee godoc
func (cfg PaymentsConfig) GetRegistrationFee() *decimal.Big {
	return conv.FromFloat(cfg.RegistrationFeeUSD)
}

// GetMinTopUp godoc
func (cfg PaymentsConfig) GetMinTopUp() *decimal.Big {
	return conv.FromFloat(cfg.MinTopUpUSD)
}

// GetMaxTopUp returns nil when top-ups are not capped
func (cfg PaymentsConfig) GetMaxTopUp() *decimal.Big {
	if cfg.MaxTopUpUSD <= 0 {
		return nil
	}
	return conv.FromFloat(cfg.MaxTopUpUSD)
}

// GetFeeRate godoc
func (cfg PaymentsConfig) GetFeeRate() *decimal.Big {
	return conv.FromFloat(cfg.FeeRate)
}

// ProvisioningConfig structure
type ProvisioningConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// CardViewConfig sets how long card data may be served from cache
type CardViewConfig struct {
	BalanceTTL      time.Duration `mapstructure:"balance_ttl"`
	TransactionsTTL time.Duration `mapstructure:"transactions_ttl"`
}

// LoadConfig Load server configuration from the yaml file
func LoadConfig(viperConf *viper.Viper) Config {
	var config Config

	err := viperConf.Unmarshal(&config)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to decode config into struct")
	}
	return config
}

// OpenConfig godoc
func OpenConfig(file string) {
	// Don't forget to read config either from cfgFile, from current directory or from home directory!
	if file != "" {
		// Use config file from the flag.
		viper.SetConfigFile(file)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigName(".config")
	viper.AddConfigPath(".")              // First try to load the config from the current directory
	viper.AddConfigPath("$HOME")          // Then try to load it from the HOME directory
	viper.AddConfigPath("/etc/card_api/") // As a last resort try to load it from /etc/
	viper.SetEnvPrefix("CFG")
	viper.AutomaticEnv()
	setDefaultVariables(viper.GetViper())

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		log.Fatal().Err(err).Msg("Unable to read configuration file")
	}
}

func setDefaultVariables(v *viper.Viper) {
	v.SetDefault("server.api.port", 8080)
	v.SetDefault("server.api.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.monitoring.enabled", false)
	v.SetDefault("server.monitoring.host", "0.0.0.0")
	v.SetDefault("server.monitoring.port", 2112)
	v.SetDefault("server.internal.allowed_ips", "127.0.0.1/32")

	v.SetDefault("database_cluster.writer.type", "postgres")
	v.SetDefault("database_cluster.writer.sslmode", "disable")
	v.SetDefault("database_cluster.writer.pool_size", 10)

	v.SetDefault("crons", map[string]string{
		"update_token_price": "@every 60s",
		"sweep_pending":      "@every 1m",
	})

	v.SetDefault("oracle.url", "https://api.coingecko.com/api/v3/simple/price")
	v.SetDefault("oracle.token_id", "pepe")
	v.SetDefault("oracle.fallback_price_usd", 0.00001)
	v.SetDefault("oracle.timeout", 10*time.Second)

	v.SetDefault("chain.timeout", 15*time.Second)
	v.SetDefault("chain.receipt_poll_initial", 2*time.Second)
	v.SetDefault("chain.receipt_poll_max", 15*time.Second)

	v.SetDefault("payments.registration_fee_usd", 30)
	v.SetDefault("payments.min_top_up_usd", 10)
	v.SetDefault("payments.max_top_up_usd", 10000)
	v.SetDefault("payments.fee_rate", 0.05)
	v.SetDefault("payments.token_decimals", conv.TokenDecimals)
	v.SetDefault("payments.quote_ttl", 30*time.Minute)
	// claimed hashes never expire, an expired claim lets the same transaction be reconciled again
	v.SetDefault("payments.processed_ttl", time.Duration(0))
	v.SetDefault("payments.block_time_skew", time.Minute)

	v.SetDefault("cashwyre.base_url", "https://businessapi.cashwyre.com/api/v1.0")
	v.SetDefault("cashwyre.timeout", 20*time.Second)

	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", 10*time.Second)

	v.SetDefault("provisioning.poll_interval", 3*time.Second)

	v.SetDefault("card_view.balance_ttl", 10*time.Second)
	v.SetDefault("card_view.transactions_ttl", 30*time.Second)

	v.SetDefault("kafka.topic", "card_payments")
	v.SetDefault("redis.pool_size", 10)
}
