package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/model"
	"gitlab.com/unchained-card/card_api/monitor"
)

// TopUpMessage is the operator notification for a paid top-up
func TopUpMessage(cardCode string, payment *model.Payment) string {
	return fmt.Sprintf("Card Top-Up Received\n\nCard: %s\nAmount: $%s\nWallet: %s\nTX: %s",
		cardCode,
		payment.Intent.USDAmount.String(),
		payment.Intent.Wallet,
		payment.TxHash,
	)
}

// reconcileTopUp tells the operators to credit the card. The card view is refreshed
// whatever the outcome of the notification.
func (service *Service) reconcileTopUp(ctx context.Context, payment *model.Payment) error {
	wallet := payment.Intent.Wallet
	logger := log.With().
		Str("section", "service").
		Str("action", "reconcileTopUp").
		Str("wallet", wallet).
		Str("tx_hash", payment.TxHash).
		Logger()

	user, err := service.users.GetUserByWallet(ctx, wallet)
	if err != nil {
		logger.Warn().Err(err).Msg("Unable to load user for top-up notification")
	}

	service.quotes.Delete(payment.Intent.QuoteID)
	service.notify(ctx, "Card top-up received", TopUpMessage(user.GetCardCode(), payment))
	service.publishEvent(ctx, payment, user)
	service.cards.Invalidate(wallet)
	service.publishStatus(wallet, model.CardStatusEventRefresh, payment.TxHash)

	monitor.Reconciliations.WithLabelValues(model.PaymentPurposeTopUp.String(), "ok").Inc()
	logger.Info().Msg("Top-up reconciled")
	return nil
}
