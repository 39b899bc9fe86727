package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/lib/httpagent"
	"gitlab.com/unchained-card/card_api/monitor"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxMessageLength is the longest text the bot API accepts
const MaxMessageLength = 4096

// Config structure
type Config struct {
	APIURL   string        `mapstructure:"api_url"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled returns true when both the bot token and the chat are set
func (cfg Config) Enabled() bool {
	return cfg.BotToken != "" && cfg.ChatID != ""
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Notifier posts operator messages to a chat
type Notifier struct {
	cfg   Config
	agent *httpagent.Agent
}

// New creates a notifier. A notifier without credentials drops every message.
func New(cfg Config) *Notifier {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.telegram.org"
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if !cfg.Enabled() {
		log.Warn().Str("section", "telegram").Msg("Telegram is not configured, operator notifications are disabled")
	}
	return &Notifier{cfg: cfg, agent: httpagent.New(cfg.Timeout)}
}

// Send delivers the text to the configured chat
func (n *Notifier) Send(ctx context.Context, text string) error {
	if !n.cfg.Enabled() {
		monitor.Notifications.WithLabelValues("telegram", "skipped").Inc()
		return nil
	}
	body, err := json.Marshal(sendMessageRequest{ChatID: n.cfg.ChatID, Text: Truncate(text, MaxMessageLength)})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", n.cfg.APIURL, n.cfg.BotToken)
	code, data, err := n.agent.PostJSON(ctx, url, body, nil)
	if err == nil && code != http.StatusOK {
		err = fmt.Errorf("Telegram API Error: %d - %s", code, string(data))
	}
	if err != nil {
		monitor.Notifications.WithLabelValues("telegram", "error").Inc()
		log.Error().Err(err).Str("section", "telegram").Str("action", "send").Msg("Unable to send notification")
		return err
	}
	monitor.Notifications.WithLabelValues("telegram", "ok").Inc()
	return nil
}

// Truncate cuts the text to at most max runes
func Truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max])
}
