package service

import (
	"context"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusChannelPrefix is the namespace of the per wallet live channels
const StatusChannelPrefix = "card:status#"

// StatusChannel is the live channel of a wallet
func StatusChannel(wallet string) string {
	return StatusChannelPrefix + model.NormalizeWallet(wallet)
}

// WalletFromChannel returns the wallet of a status channel
func WalletFromChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, StatusChannelPrefix) {
		return "", false
	}
	wallet := strings.TrimPrefix(channel, StatusChannelPrefix)
	if !model.IsWalletAddress(wallet) {
		return "", false
	}
	return model.NormalizeWallet(wallet), true
}

// notify sends the operator message on every configured sink. Failures are logged only.
func (service *Service) notify(ctx context.Context, subject, text string) {
	if service.notifier != nil {
		if err := service.notifier.Send(ctx, text); err != nil {
			log.Warn().Err(err).Str("section", "service").Str("action", "notify").Msg("Notification failed")
		}
	}
	if service.mailer != nil {
		if err := service.mailer.SendOperatorEmail(subject, text); err != nil {
			log.Warn().Err(err).Str("section", "service").Str("action", "notify").Msg("Operator email failed")
		}
	}
}

func (service *Service) publishEvent(ctx context.Context, payment *model.Payment, user *model.User) {
	if service.events == nil {
		return
	}
	event := &model.PaymentEvent{
		ID:        payment.ID,
		Purpose:   payment.Intent.Purpose,
		Wallet:    payment.Intent.Wallet,
		TxHash:    payment.TxHash,
		USDAmount: payment.Intent.USDAmount.String(),
		Value:     payment.Intent.Value.String(),
		CreatedAt: service.now(),
	}
	if user != nil {
		event.CardCode = user.GetCardCode()
		event.Email = user.Email
	}
	if err := service.events.Publish(ctx, event.Wallet, event); err != nil {
		log.Error().Err(err).Str("section", "service").Str("action", "publishEvent").Str("tx_hash", payment.TxHash).Msg("Unable to publish payment event")
	}
}

func (service *Service) publishStatus(wallet, event, txHash string) {
	if service.WsNode == nil {
		return
	}
	var route model.Route
	switch event {
	case model.CardStatusEventReady, model.CardStatusEventRefresh:
		route = model.RouteDashboard
	case model.CardStatusEventWaiting:
		route = model.RouteWaiting
	}
	data, err := json.Marshal(&model.CardStatusEvent{
		Wallet: model.NormalizeWallet(wallet),
		Route:  route,
		Event:  event,
		TxHash: txHash,
	})
	if err != nil {
		return
	}
	if _, err := service.WsNode.Publish(StatusChannel(wallet), data); err != nil {
		log.Error().Err(err).Str("section", "service").Str("action", "publishStatus").Str("wallet", wallet).Msg("Unable to publish card status")
	}
}
