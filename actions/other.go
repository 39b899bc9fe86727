package actions

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gitlab.com/unchained-card/card_api/lib/chain"
	"gitlab.com/unchained-card/card_api/logger"
	"gitlab.com/unchained-card/card_api/model"
	"gitlab.com/unchained-card/card_api/service"
)

// RequestError is the body of every failed request
type RequestError struct {
	Error string `json:"error"`
}

// Ping godoc
// swagger:route GET /ping misc ping
// Ping
//
// Ping the server
//
//	Produces:
//	- application/json
//
//	Schemes: http, https
//
//	Responses:
//	  200: StringResp
func Ping(c *gin.Context) {
	c.JSON(200, "pong")
}

func abortWithError(c *gin.Context, code int, message string) {
	l := getlog(c)
	l.Debug().Int("resp_code", code).Msg(message)
	c.AbortWithStatusJSON(code, RequestError{Error: message})
}

// abortWithServiceError answers with the status matching the error. Unknown errors are logged
// and hidden behind the given message.
func abortWithServiceError(c *gin.Context, err error, message string) {
	code := statusFromError(err)
	if code == ServerError {
		l := getlog(c)
		l.Error().Err(err).Msg(message)
		_ = c.Error(err)
		abortWithError(c, code, message)
		return
	}
	abortWithError(c, code, err.Error())
}

var (
	validationErrors = []error{
		service.ErrAmountBelowMinimum,
		service.ErrAmountAboveMaximum,
		service.ErrInvalidTxHash,
		service.ErrInvalidPurpose,
		model.ErrMissingField,
		model.ErrInvalidEmail,
		model.ErrInvalidPhone,
		model.ErrInvalidDateOfBirth,
		model.ErrInvalidWalletAddress,
		chain.ErrInvalidAddress,
		chain.ErrInvalidChecksum,
	}
	notFoundErrors = []error{
		service.ErrUserNotFound,
		service.ErrPaymentNotFound,
		chain.ErrTransactionNotFound,
	}
	preconditionErrors = []error{
		service.ErrNoPendingQuote,
		service.ErrCardNotProvisioned,
		service.ErrTransactionMismatch,
	}
	unavailableErrors = []error{
		service.ErrFeatureDisabled,
		service.ErrPriceUnavailable,
	}
)

func statusFromError(err error) int {
	switch {
	case err == nil:
		return OK
	case isAny(err, validationErrors):
		return ValidationFailed
	case isAny(err, notFoundErrors):
		return NotFound
	case errors.Is(err, service.ErrUserExists):
		return Conflict
	case isAny(err, preconditionErrors):
		return PreconditionFailed
	case isAny(err, unavailableErrors):
		return ServiceUnavailable
	case errors.Is(err, service.ErrGatewayUnavailable):
		return BadGateway
	}
	return ServerError
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// getWallet reads and validates the wallet path parameter
func getWallet(c *gin.Context) (string, bool) {
	wallet := c.Param("wallet")
	if wallet == "" {
		wallet = c.Query("wallet")
	}
	if !model.IsWalletAddress(wallet) {
		abortWithError(c, ValidationFailed, model.ErrInvalidWalletAddress.Error())
		return "", false
	}
	return wallet, true
}

func getlog(c *gin.Context) zerolog.Logger {
	return logger.GetLogger(c)
}
