package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/model"
	"gitlab.com/unchained-card/card_api/queries"
	"golang.org/x/sync/errgroup"
)

func mapStoreError(err error) error {
	switch errors.Cause(err) {
	case queries.ErrUserNotFound:
		return ErrUserNotFound
	case queries.ErrUserExists:
		return ErrUserExists
	}
	return err
}

// dashboardUser returns the user only when its card is provisioned
func (service *Service) dashboardUser(ctx context.Context, wallet string) (*model.User, error) {
	user, err := service.GetUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if !user.HasCard() {
		return nil, ErrCardNotProvisioned
	}
	return user, nil
}

// GetCard returns the live card data of the wallet
func (service *Service) GetCard(ctx context.Context, wallet string) (*model.CardSnapshot, error) {
	user, err := service.dashboardUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return service.getCard(ctx, user)
}

// GetCardTransactions returns the card transactions in the order the issuer returned them
func (service *Service) GetCardTransactions(ctx context.Context, wallet string) ([]model.CardTransaction, error) {
	user, err := service.dashboardUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return service.getTransactions(ctx, user)
}

// GetCardView loads the card and its transactions concurrently
func (service *Service) GetCardView(ctx context.Context, wallet string) (*model.CardView, error) {
	user, err := service.dashboardUser(ctx, wallet)
	if err != nil {
		return nil, err
	}

	view := &model.CardView{User: user}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		card, err := service.getCard(gctx, user)
		view.Card = card
		return err
	})
	g.Go(func() error {
		transactions, err := service.getTransactions(gctx, user)
		view.Transactions = transactions
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

func (service *Service) getCard(ctx context.Context, user *model.User) (*model.CardSnapshot, error) {
	if card, ok := service.cards.GetCard(user.WalletAddress); ok {
		return card, nil
	}
	generation := service.cards.Generation(user.WalletAddress)
	card, err := service.gateway.GetCard(ctx, user.GetCustomerCode(), user.Email, user.GetCardCode())
	if err != nil {
		log.Error().Err(err).Str("section", "service").Str("action", "getCard").Str("wallet", user.WalletAddress).Msg("Unable to load card")
		return nil, errors.Wrap(ErrGatewayUnavailable, err.Error())
	}
	service.cards.SetCard(user.WalletAddress, card, generation)
	return card, nil
}

func (service *Service) getTransactions(ctx context.Context, user *model.User) ([]model.CardTransaction, error) {
	if transactions, ok := service.cards.GetTransactions(user.WalletAddress); ok {
		return transactions, nil
	}
	generation := service.cards.Generation(user.WalletAddress)
	transactions, err := service.gateway.GetCardTransactions(ctx, user.GetCardCode())
	if err != nil {
		log.Error().Err(err).Str("section", "service").Str("action", "getTransactions").Str("wallet", user.WalletAddress).Msg("Unable to load card transactions")
		return nil, errors.Wrap(ErrGatewayUnavailable, err.Error())
	}
	service.cards.SetTransactions(user.WalletAddress, transactions, generation)
	return transactions, nil
}
