package server

import (
	"fmt"
	"net/http"

	limit "github.com/bu/gin-access-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/actions"
	"gitlab.com/unchained-card/card_api/logger"
)

func (srv *server) ListenToRequests() {
	log.Info().Str("worker", "http_listen_to_requests").Str("action", "start").Msg("HTTP Listen to requests - started")
	defer log.Info().Str("worker", "http_listen_to_requests").Str("action", "stop").Msg("HTTP Listen to requests - stopped")

	srv.HTTP = &http.Server{
		Addr:    fmt.Sprintf(":%d", srv.config.Server.API.Port),
		Handler: srv.routes(),
	}

	srv.HTTP.SetKeepAlivesEnabled(srv.config.Server.API.KeepAlive)

	port := srv.config.Server.API.Port
	httpServer := srv.HTTP
	if err := httpServer.ListenAndServe(); err != nil {
		if err != http.ErrServerClosed {
			log.Error().Err(err).Str("section", "server").Str("action", "ListenToRequests").Msgf("Unable to listen %d port", port)
		}
	}
}

func (srv *server) routes() *gin.Engine {
	a := srv.actions

	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "X-Requested-With", "Content-Length", "Content-Type", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "PUT", "POST", "OPTIONS"}

	r.Use(cors.New(corsConfig)) // Allow requests from anywhere
	r.Use(gin.Recovery())       // Recovery middleware recovers from any panics and writes a 500 if there was one.

	r.Use(logger.SetLogger())

	{
		r.GET("/ping", actions.Ping)
		r.GET("/price", a.GetTokenPrice)
		r.GET("/route", a.GetRoute)
	}

	quotes := r.Group("/quotes")
	{
		// swagger:route POST /quotes/registration payments quote_registration
		// Registration quote
		//
		// Validate the registration form and price the registration fee in tokens
		//
		//     Consumes:
		//     - application/json
		//
		//     Produces:
		//     - application/json
		//
		//     Schemes: http, https
		//
		//     Responses:
		//       200: PaymentIntent
		//       409: RequestError
		//       422: RequestError
		quotes.POST("/registration", a.QuoteRegistration)
		quotes.POST("/top-up", a.QuoteTopUp)
	}

	payments := r.Group("/payments")
	{
		payments.POST("", a.ReportPayment)
		payments.GET("/:hash", a.GetPayment)
	}

	users := r.Group("/users/:wallet")
	{
		users.GET("", a.GetUser)
		users.GET("/provisioning", a.WaitForCard)
		users.GET("/card", a.GetCard)
		users.GET("/card/transactions", a.GetCardTransactions)
		users.GET("/dashboard", a.GetDashboard)
	}

	// used by the provisioning process and the operators
	internal := r.Group("/internal")
	{
		limit.TrustedHeaderField = "X-Forwarded-For"
		internal.Use(limit.CIDR(srv.config.Server.Internal.AllowedIPs))

		internal.PUT("/users/:wallet/card", a.AttachCard)
		internal.GET("/users/:wallet/card", a.GetCardDetails)
		internal.POST("/payments/submit", a.SubmitPayment)
	}

	r.GET("/socket", gin.WrapH(a.NewWebsocketHandler()))
	r.Any("/connection/sockjs/*any", gin.WrapH(a.NewSockjsHandler("/connection/sockjs")))

	return r
}
