package featureflags

import (
	"net/http"
	"sync"

	unleash "github.com/Unleash/unleash-client-go/v3"
	"github.com/rs/zerolog/log"
)

// Config structure
type Config struct {
	URL      string `mapstructure:"url"`
	AppName  string `mapstructure:"app_name"`
	Token    string `mapstructure:"token"`
	Instance string `mapstructure:"instance"`
}

const (
	// EnableRegistration switches the registration payment on and off
	EnableRegistration = "api.cards.enable-registration"
	// EnableTopUp switches card top-ups on and off
	EnableTopUp = "api.cards.enable-topup"
	// EnableCustodialSubmit allows the backend to send payments from the configured sender
	EnableCustodialSubmit = "api.cards.enable-custodial-submit"
)

var (
	initialized bool
	lock        sync.RWMutex
)

type listener struct{}

// OnError godoc
func (listener) OnError(err error) {
	log.Error().Err(err).Str("lib", "unleash").Msg("Feature flags error")
}

// OnWarning godoc
func (listener) OnWarning(err error) {
	log.Warn().Err(err).Str("lib", "unleash").Msg("Feature flags warning")
}

// OnReady godoc
func (listener) OnReady() {
	log.Info().Str("lib", "unleash").Msg("Feature flags loaded")
}

// Initialize the unleash client. Without an URL every flag is enabled.
func Initialize(cfg Config) error {
	lock.Lock()
	defer lock.Unlock()
	if cfg.URL == "" {
		initialized = false
		return nil
	}
	appName := cfg.AppName
	if appName == "" {
		appName = "card_api"
	}
	headers := http.Header{}
	if cfg.Token != "" {
		headers.Set("Authorization", cfg.Token)
	}
	options := []unleash.ConfigOption{
		unleash.WithUrl(cfg.URL),
		unleash.WithAppName(appName),
		unleash.WithCustomHeaders(headers),
		unleash.WithListener(listener{}),
	}
	if cfg.Instance != "" {
		options = append(options, unleash.WithInstanceId(cfg.Instance))
	}
	if err := unleash.Initialize(options...); err != nil {
		return err
	}
	initialized = true
	return nil
}

// IsEnabled checks a flag, falling back to enabled when the flag is unknown
func IsEnabled(name string) bool {
	lock.RLock()
	defer lock.RUnlock()
	if !initialized {
		return true
	}
	return unleash.IsEnabled(name, unleash.WithFallback(true))
}

// Close the client
func Close() {
	lock.Lock()
	defer lock.Unlock()
	if !initialized {
		return
	}
	if err := unleash.Close(); err != nil {
		log.Error().Err(err).Str("lib", "unleash").Msg("Unable to close feature flags client")
	}
	initialized = false
}
