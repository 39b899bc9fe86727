package service

import (
	"context"

	"github.com/ericlagergren/decimal"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/conv"
	"gitlab.com/unchained-card/card_api/featureflags"
	"gitlab.com/unchained-card/card_api/lib/chain"
	"gitlab.com/unchained-card/card_api/model"
)

// GetTokenPrice returns the price used for new quotes and whether it is the fallback value
func (service *Service) GetTokenPrice() (*decimal.Big, bool) {
	price, fromOracle := service.price.GetPrice()
	return price, !fromOracle
}

// QuoteRegistration validates the form and prices the registration fee.
// The form is kept in memory until the payment confirms.
func (service *Service) QuoteRegistration(ctx context.Context, wallet string, form *model.RegistrationForm) (*model.PaymentIntent, error) {
	logger := log.With().
		Str("section", "service").
		Str("action", "QuoteRegistration").
		Str("wallet", wallet).
		Logger()

	if !service.isEnabled(featureflags.EnableRegistration) {
		return nil, ErrFeatureDisabled
	}
	if err := chain.ValidateAddress(wallet); err != nil {
		return nil, err
	}
	form.Normalize()
	if err := form.Validate(service.now()); err != nil {
		return nil, err
	}

	user, err := service.users.GetUserByWallet(ctx, wallet)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to load user")
		return nil, err
	}
	if user != nil {
		return nil, ErrUserExists
	}

	fee := service.cfg.Payments.GetRegistrationFee()
	intent, err := service.newIntent(wallet, model.PaymentPurposeRegistration, fee, fee, nil)
	if err != nil {
		return nil, err
	}
	service.quotes.Put(intent, form)
	logger.Info().Str("quote_id", intent.QuoteID).Str("value", intent.Value.String()).Msg("Registration quote created")
	return intent, nil
}

// QuoteTopUp prices a top-up of a provisioned card
func (service *Service) QuoteTopUp(ctx context.Context, wallet string, usdAmount *decimal.Big) (*model.PaymentIntent, error) {
	logger := log.With().
		Str("section", "service").
		Str("action", "QuoteTopUp").
		Str("wallet", wallet).
		Logger()

	if !service.isEnabled(featureflags.EnableTopUp) {
		return nil, ErrFeatureDisabled
	}
	if err := chain.ValidateAddress(wallet); err != nil {
		return nil, err
	}

	intent, err := service.newIntent(wallet, model.PaymentPurposeTopUp, usdAmount, service.cfg.Payments.GetMinTopUp(), service.cfg.Payments.GetMaxTopUp())
	if err != nil {
		return nil, err
	}

	user, err := service.users.GetUserByWallet(ctx, wallet)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to load user")
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.HasCard() {
		return nil, ErrCardNotProvisioned
	}

	service.quotes.Put(intent, nil)
	logger.Info().Str("quote_id", intent.QuoteID).Str("usd_amount", usdAmount.String()).Str("value", intent.Value.String()).Msg("Top-up quote created")
	return intent, nil
}

// newIntent computes the token amount for the given USD amount. Nothing is sent here,
// amounts under the minimum never reach the chain. A nil maximum leaves the amount uncapped.
func (service *Service) newIntent(wallet string, purpose model.PaymentPurpose, usdAmount, minimum, maximum *decimal.Big) (*model.PaymentIntent, error) {
	if usdAmount == nil || usdAmount.IsNaN(0) || usdAmount.IsInf(0) || usdAmount.Cmp(minimum) < 0 {
		return nil, ErrAmountBelowMinimum
	}
	if maximum != nil && usdAmount.Cmp(maximum) > 0 {
		return nil, ErrAmountAboveMaximum
	}
	price, fallback := service.GetTokenPrice()
	feeRate := service.cfg.Payments.GetFeeRate()
	tokenAmount, err := conv.TokenAmount(usdAmount, feeRate, price)
	switch {
	case err == conv.ErrAmountOutOfRange:
		return nil, ErrAmountAboveMaximum
	case err != nil:
		return nil, errors.Wrap(ErrPriceUnavailable, err.Error())
	case tokenAmount.Sign() <= 0:
		// a zero value quote would accept any transaction to the treasury
		return nil, ErrAmountBelowMinimum
	}
	decimals := service.cfg.Payments.TokenDecimals
	if decimals == 0 {
		decimals = conv.TokenDecimals
	}
	return &model.PaymentIntent{
		QuoteID:       model.NewQuoteID(),
		Wallet:        model.NormalizeWallet(wallet),
		Purpose:       purpose,
		Recipient:     service.cfg.Payments.TreasuryAddress,
		USDAmount:     usdAmount,
		FeeRate:       feeRate,
		TokenPriceUSD: price,
		TokenAmount:   tokenAmount,
		Value:         conv.ToBaseUnits(tokenAmount, decimals),
		FallbackPrice: fallback,
		CreatedAt:     service.now(),
	}, nil
}
