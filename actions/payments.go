package actions

import (
	"encoding/json"
	"net/http"

	"github.com/ericlagergren/decimal"
	"github.com/gin-gonic/gin"
	"gitlab.com/unchained-card/card_api/model"
)

type registrationQuoteRequest struct {
	Wallet string `json:"wallet" binding:"required"`
	model.RegistrationForm
}

type topUpQuoteRequest struct {
	Wallet    string      `json:"wallet" binding:"required"`
	USDAmount json.Number `json:"usd_amount" binding:"required"`
}

type reportPaymentRequest struct {
	Wallet  string               `json:"wallet" binding:"required"`
	Purpose model.PaymentPurpose `json:"purpose" binding:"required"`
	QuoteID string               `json:"quote_id" binding:"required"`
	TxHash  string               `json:"tx_hash" binding:"required"`
}

type submitPaymentRequest struct {
	Wallet  string               `json:"wallet" binding:"required"`
	Purpose model.PaymentPurpose `json:"purpose" binding:"required"`
	QuoteID string               `json:"quote_id" binding:"required"`
}

// TokenPriceResponse godoc
type TokenPriceResponse struct {
	PriceUSD string `json:"price_usd"`
	Fallback bool   `json:"fallback"`
}

// GetTokenPrice godoc
// swagger:route GET /price payments get_token_price
// Token price
//
// Current token price in USD and whether the configured fallback is used
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: TokenPriceResponse
func (actions *Actions) GetTokenPrice(c *gin.Context) {
	price, fallback := actions.service.GetTokenPrice()
	if price == nil {
		abortWithError(c, ServiceUnavailable, "Token price unavailable")
		return
	}
	c.JSON(http.StatusOK, TokenPriceResponse{PriceUSD: price.String(), Fallback: fallback})
}

// QuoteRegistration validates the form and prices the registration fee
func (actions *Actions) QuoteRegistration(c *gin.Context) {
	var req registrationQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, BadRequest, "Invalid registration request")
		return
	}

	form := req.RegistrationForm
	intent, err := actions.service.QuoteRegistration(c.Request.Context(), req.Wallet, &form)
	if err != nil {
		abortWithServiceError(c, err, "Unable to create registration quote")
		return
	}
	c.JSON(http.StatusOK, intent)
}

// QuoteTopUp godoc
// swagger:route POST /quotes/top-up payments quote_top_up
// Top-up quote
//
// Returns the token amount needed to add the given USD amount to the card
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: PaymentIntent
//	  412: RequestError
//	  422: RequestError
func (actions *Actions) QuoteTopUp(c *gin.Context) {
	var req topUpQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, BadRequest, "Invalid top-up request")
		return
	}
	amount, ok := new(decimal.Big).SetString(req.USDAmount.String())
	if !ok || amount.IsNaN(0) || amount.IsInf(0) {
		abortWithError(c, ValidationFailed, "Invalid amount provided")
		return
	}

	intent, err := actions.service.QuoteTopUp(c.Request.Context(), req.Wallet, amount)
	if err != nil {
		abortWithServiceError(c, err, "Unable to create top-up quote")
		return
	}
	c.JSON(http.StatusOK, intent)
}

// ReportPayment registers a transaction sent from the user's wallet. Confirmation happens in the background.
func (actions *Actions) ReportPayment(c *gin.Context) {
	var req reportPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, BadRequest, "Invalid payment request")
		return
	}

	payment, err := actions.service.ReportPayment(c.Request.Context(), req.Wallet, req.Purpose, req.QuoteID, req.TxHash)
	if err != nil {
		abortWithServiceError(c, err, "Unable to track payment")
		return
	}
	c.JSON(Accepted, payment)
}

// SubmitPayment sends the quoted amount from the custodial sender. The operator pays, so the
// route is only mounted on the internal group.
func (actions *Actions) SubmitPayment(c *gin.Context) {
	var req submitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, BadRequest, "Invalid payment request")
		return
	}

	payment, err := actions.service.SubmitPayment(c.Request.Context(), req.Wallet, req.Purpose, req.QuoteID)
	if err != nil {
		abortWithServiceError(c, err, "Unable to submit payment")
		return
	}
	c.JSON(Accepted, payment)
}

// GetPayment godoc
func (actions *Actions) GetPayment(c *gin.Context) {
	hash := c.Param("hash")
	if !model.IsTxHash(hash) {
		abortWithError(c, ValidationFailed, "Invalid transaction hash")
		return
	}
	payment, err := actions.service.GetPayment(hash)
	if err != nil {
		abortWithServiceError(c, err, "Unable to get payment")
		return
	}
	c.JSON(http.StatusOK, payment)
}
