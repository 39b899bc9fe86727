package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ericlagergren/decimal"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/conv"
	"gitlab.com/unchained-card/card_api/lib/httpagent"
	"gitlab.com/unchained-card/card_api/monitor"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMissingPrice is returned when the response does not contain a usable price
var ErrMissingPrice = errors.New("Token price missing from response")

// PriceData is the response of the simple price endpoint, e.g. {"pepe": {"usd": 0.00001}}
type PriceData map[string]map[string]float64

// App keeps the last known token price in USD
type App struct {
	url       string
	tokenID   string
	fallback  *decimal.Big
	agent     *httpagent.Agent
	price     *decimal.Big
	updatedAt time.Time
	lock      *sync.RWMutex
}

// NewApp creates a price oracle client. The fallback price is used until the first
// successful refresh and after every failed one.
func NewApp(priceURL, tokenID string, fallback *decimal.Big, timeout time.Duration) *App {
	return &App{
		url:      priceURL,
		tokenID:  tokenID,
		fallback: fallback,
		agent:    httpagent.New(timeout),
		lock:     &sync.RWMutex{},
	}
}

// Refresh fetches the current price once
func (app *App) Refresh(ctx context.Context) error {
	price, err := app.fetch(ctx)

	app.lock.Lock()
	if err != nil {
		app.price = nil
	} else {
		app.price = price
		app.updatedAt = time.Now()
	}
	app.lock.Unlock()

	if err != nil {
		log.Warn().Err(err).Str("section", "oracle").Str("token", app.tokenID).Str("fallback", app.fallback.String()).
			Msg("Unable to refresh token price, using fallback")
		monitor.TokenPrice.WithLabelValues("fallback").Set(toFloat(app.fallback))
		return err
	}
	monitor.TokenPrice.WithLabelValues("oracle").Set(toFloat(price))
	return nil
}

func (app *App) fetch(ctx context.Context) (*decimal.Big, error) {
	query := url.Values{}
	query.Set("ids", app.tokenID)
	query.Set("vs_currencies", "usd")

	code, body, err := app.agent.Get(ctx, app.url+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("invalid status code: %d (%s)", code, http.StatusText(code))
	}

	data := PriceData{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.Wrap(err, "unable to decode price response")
	}
	price, ok := data[app.tokenID]["usd"]
	if !ok || price <= 0 {
		return nil, ErrMissingPrice
	}
	return conv.FromFloat(price), nil
}

// GetTokenPriceUSD never fails. It returns the cached price or the fallback constant.
func (app *App) GetTokenPriceUSD() *decimal.Big {
	price, _ := app.GetPrice()
	return price
}

// GetPrice returns a copy of the current price and whether it came from the oracle
func (app *App) GetPrice() (*decimal.Big, bool) {
	app.lock.RLock()
	defer app.lock.RUnlock()
	if app.price == nil {
		return new(decimal.Big).Copy(app.fallback), false
	}
	return new(decimal.Big).Copy(app.price), true
}

// UpdatedAt returns the time of the last successful refresh
func (app *App) UpdatedAt() time.Time {
	app.lock.RLock()
	defer app.lock.RUnlock()
	return app.updatedAt
}

func toFloat(value *decimal.Big) float64 {
	f, _ := value.Float64()
	return f
}
