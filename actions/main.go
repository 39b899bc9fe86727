package actions

import (
	"context"

	"github.com/centrifugal/centrifuge"
	"gitlab.com/unchained-card/card_api/config"
	"gitlab.com/unchained-card/card_api/service"
)

// Actions structure
type Actions struct {
	ctx     context.Context
	cfg     config.Config
	service *service.Service
	node    *centrifuge.Node
}

// NewActions constructor
func NewActions(cfg config.Config, srv *service.Service, ctx context.Context) *Actions {
	return &Actions{
		ctx:     ctx,
		cfg:     cfg,
		service: srv,
	}
}
