package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/model"
	"gitlab.com/unchained-card/card_api/monitor"
	"gitlab.com/unchained-card/card_api/queries"
)

// RegistrationMessage is the operator notification for a paid registration
func RegistrationMessage(payment *model.Payment, form *model.RegistrationForm) string {
	return fmt.Sprintf("New User Registration\n\nWallet: %s\nName: %s %s\nEmail: %s\nPhone: %s %s\nDOB: %s\nAddress: %s\nTX: %s",
		payment.Intent.Wallet,
		form.FirstName, form.LastName,
		form.Email,
		form.PhoneCode, form.PhoneNumber,
		form.DateOfBirth,
		form.Address(),
		payment.TxHash,
	)
}

// reconcileRegistration writes the user record of a confirmed registration payment.
// A failed write is reported on the payment and never retried or notified.
func (service *Service) reconcileRegistration(ctx context.Context, payment *model.Payment, form *model.RegistrationForm) error {
	wallet := payment.Intent.Wallet
	logger := log.With().
		Str("section", "service").
		Str("action", "reconcileRegistration").
		Str("wallet", wallet).
		Str("tx_hash", payment.TxHash).
		Logger()

	if form == nil {
		monitor.Reconciliations.WithLabelValues(model.PaymentPurposeRegistration.String(), "error").Inc()
		logger.Error().Msg("Registration payment confirmed without a form")
		return ErrNoPendingQuote
	}

	user := &model.User{
		WalletAddress: model.NormalizeWallet(wallet),
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		Email:         form.Email,
		CreatedAt:     service.now(),
	}
	if err := service.users.CreateUser(ctx, user); err != nil {
		monitor.Reconciliations.WithLabelValues(model.PaymentPurposeRegistration.String(), "error").Inc()
		logger.Error().Err(err).Msg("Paid registration could not be saved")
		if errors.Cause(err) == queries.ErrUserExists {
			return ErrUserExists
		}
		return errors.Wrap(err, "unable to save user")
	}
	monitor.Reconciliations.WithLabelValues(model.PaymentPurposeRegistration.String(), "ok").Inc()
	logger.Info().Msg("User registered")

	service.quotes.Delete(payment.Intent.QuoteID)
	service.notify(ctx, "New card registration", RegistrationMessage(payment, form))
	service.publishEvent(ctx, payment, user)
	service.publishStatus(wallet, model.CardStatusEventWaiting, payment.TxHash)
	return nil
}
