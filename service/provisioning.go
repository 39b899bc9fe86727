package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/model"
	"gitlab.com/unchained-card/card_api/monitor"
)

// GetUser returns the record of the wallet or ErrUserNotFound
func (service *Service) GetUser(ctx context.Context, wallet string) (*model.User, error) {
	user, err := service.users.GetUserByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ResolveRoute returns the screen of the wallet. An empty wallet means not connected.
func (service *Service) ResolveRoute(ctx context.Context, wallet string) (model.Route, *model.User, error) {
	if wallet == "" {
		return model.ResolveRoute(false, nil), nil, nil
	}
	user, err := service.users.GetUserByWallet(ctx, wallet)
	if err != nil {
		return "", nil, err
	}
	return model.ResolveRoute(true, user), user, nil
}

// WaitForCard polls the user record until the provisioning process attached a card.
// It returns ctx.Err() once the caller gives up and never reads the store afterwards.
func (service *Service) WaitForCard(ctx context.Context, wallet string) (*model.User, error) {
	logger := log.With().
		Str("section", "service").
		Str("action", "WaitForCard").
		Str("wallet", wallet).
		Logger()

	monitor.ProvisioningWaits.Inc()
	defer monitor.ProvisioningWaits.Dec()

	var ready *model.User
	err := Poll(ctx, service.newTicker(service.pollInterval), func(ctx context.Context) (bool, error) {
		user, err := service.users.GetUserByWallet(ctx, wallet)
		if err != nil {
			logger.Warn().Err(err).Msg("Unable to check card status")
			return false, nil
		}
		if user == nil {
			return false, ErrUserNotFound
		}
		if user.HasCard() {
			ready = user
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Str("card_code", ready.GetCardCode()).Msg("Card is ready")
	return ready, nil
}

// AttachCard is called by the provisioning process once the issuer created the card
func (service *Service) AttachCard(ctx context.Context, wallet, cardCode, customerCode string) (*model.User, error) {
	if err := service.users.AttachCard(ctx, wallet, cardCode, customerCode); err != nil {
		return nil, mapStoreError(err)
	}
	user, err := service.GetUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	service.cards.Invalidate(wallet)
	service.publishStatus(wallet, model.CardStatusEventReady, "")
	return user, nil
}
