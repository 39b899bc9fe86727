package actions

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetCard returns the live balance and status of the wallet's card. Wallet addresses are
// public so only the masked number and cvv are returned.
func (actions *Actions) GetCard(c *gin.Context) {
	wallet, ok := getWallet(c)
	if !ok {
		return
	}
	card, err := actions.service.GetCard(c.Request.Context(), wallet)
	if err != nil {
		abortWithServiceError(c, err, "Unable to get card")
		return
	}
	c.JSON(http.StatusOK, card.Redacted())
}

// GetCardDetails returns the full card data to the internal network
func (actions *Actions) GetCardDetails(c *gin.Context) {
	wallet, ok := getWallet(c)
	if !ok {
		return
	}
	card, err := actions.service.GetCard(c.Request.Context(), wallet)
	if err != nil {
		abortWithServiceError(c, err, "Unable to get card")
		return
	}
	c.JSON(http.StatusOK, card)
}

// GetCardTransactions returns the card transactions in the order the issuer sent them
func (actions *Actions) GetCardTransactions(c *gin.Context) {
	wallet, ok := getWallet(c)
	if !ok {
		return
	}
	transactions, err := actions.service.GetCardTransactions(c.Request.Context(), wallet)
	if err != nil {
		abortWithServiceError(c, err, "Unable to get card transactions")
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// GetDashboard returns the card and its transactions in one response
func (actions *Actions) GetDashboard(c *gin.Context) {
	wallet, ok := getWallet(c)
	if !ok {
		return
	}
	view, err := actions.service.GetCardView(c.Request.Context(), wallet)
	if err != nil {
		abortWithServiceError(c, err, "Unable to get dashboard")
		return
	}
	c.JSON(http.StatusOK, view.Redacted())
}
