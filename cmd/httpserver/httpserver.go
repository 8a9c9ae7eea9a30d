// Package httpserver manages server creation and api routing.
package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/accountdelivery"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/accountservice"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/transactiondelivery"
	"github.com/go-petr/pet-ledger/internal/transactionrepo"
	"github.com/go-petr/pet-ledger/internal/transactionservice"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Server holds handlers router and configuration.
type Server struct {
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
//
// Every call builds fresh in-memory stores. publisher may be nil.
func New(logger zerolog.Logger, config configpkg.Config, publisher transactionservice.Publisher) (*Server, error) {
	accountRepo := accountrepo.NewRepoMem()
	transactionRepo := transactionrepo.NewRepoMem()

	accountService := accountservice.New(accountRepo)
	transactionService := transactionservice.New(transactionRepo, accountService, publisher)

	accountHandler := accountdelivery.NewHandler(accountService)
	transactionHandler := transactiondelivery.NewHandler(transactionService)

	if config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/accounts", accountHandler.Create)
	engine.GET("/accounts", accountHandler.List)
	engine.GET("/accounts/:account_number", accountHandler.Get)
	engine.PUT("/accounts/:account_number", accountHandler.Update)
	engine.PATCH("/accounts/:account_number/balance", accountHandler.UpdateBalance)
	engine.DELETE("/accounts/:account_number", accountHandler.Delete)

	engine.POST("/transactions", transactionHandler.Transfer)
	engine.GET("/transactions", transactionHandler.List)
	engine.GET("/transactions/:id", transactionHandler.Get)
	engine.PUT("/transactions/:id", transactionHandler.Update)
	engine.PATCH("/transactions/:id/status", transactionHandler.UpdateStatus)
	engine.DELETE("/transactions/:id", transactionHandler.Delete)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("notblank", web.NotBlank)
		if err != nil {
			return nil, errors.New("cannot register notblank validator")
		}
	}

	server := &Server{
		Engine: engine,
		Config: config,
	}

	return server, nil
}
