package actions

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/unchained-card/card_api/model"
)

// RouteResponse tells the client which screen to show
type RouteResponse struct {
	Route model.Route `json:"route"`
	User  *model.User `json:"user,omitempty"`
}

type attachCardRequest struct {
	CardCode     string `json:"card_code" binding:"required"`
	CustomerCode string `json:"customer_code"`
}

// GetRoute godoc
// swagger:route GET /route users get_route
// Route
//
// Resolves the screen of a visitor. Without a wallet query param the visitor is not connected.
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: RouteResponse
func (actions *Actions) GetRoute(c *gin.Context) {
	wallet := c.Query("wallet")
	if wallet != "" && !model.IsWalletAddress(wallet) {
		abortWithError(c, ValidationFailed, model.ErrInvalidWalletAddress.Error())
		return
	}
	route, user, err := actions.service.ResolveRoute(c.Request.Context(), wallet)
	if err != nil {
		abortWithServiceError(c, err, "Unable to resolve route")
		return
	}
	c.JSON(http.StatusOK, RouteResponse{Route: route, User: user})
}

// GetUser godoc
func (actions *Actions) GetUser(c *gin.Context) {
	wallet, ok := getWallet(c)
	if !ok {
		return
	}
	user, err := actions.service.GetUser(c.Request.Context(), wallet)
	if err != nil {
		abortWithServiceError(c, err, "Unable to get user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// WaitForCard holds the request until the card of the wallet is attached or the client leaves.
// The optional timeout query param (seconds) answers with the waiting route once it passes.
func (actions *Actions) WaitForCard(c *gin.Context) {
	wallet, ok := getWallet(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if raw := c.Query("timeout"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			abortWithError(c, ValidationFailed, "Invalid timeout provided")
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
		defer cancel()
	}

	user, err := actions.service.WaitForCard(ctx, wallet)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, RouteResponse{Route: model.RouteDashboard, User: user})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusOK, RouteResponse{Route: model.RouteWaiting})
	case errors.Is(err, context.Canceled):
		// client went away, nothing to answer
		c.Abort()
	default:
		abortWithServiceError(c, err, "Unable to wait for card")
	}
}

// AttachCard is called by the provisioning process once the card was created
func (actions *Actions) AttachCard(c *gin.Context) {
	wallet, ok := getWallet(c)
	if !ok {
		return
	}
	var req attachCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, BadRequest, "Invalid card request")
		return
	}

	user, err := actions.service.AttachCard(c.Request.Context(), wallet, req.CardCode, req.CustomerCode)
	if err != nil {
		abortWithServiceError(c, err, "Unable to attach card")
		return
	}
	c.JSON(http.StatusOK, user)
}
