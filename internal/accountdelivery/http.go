// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, accountNumber string) (domain.Account, error)
	UpdateProfile(ctx context.Context, accountNumber, username string) (domain.Account, error)
	SetBalance(ctx context.Context, accountNumber string, balance decimal.Decimal) (domain.Account, error)
	Delete(ctx context.Context, accountNumber string) error
	List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Account], error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) Handler {
	return Handler{service: as}
}

// Account is the wire form of domain.Account with the balance as a fixed point string.
type Account struct {
	AccountNumber string    `json:"account_number"`
	Username      string    `json:"username"`
	Balance       string    `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}

func newAccount(a domain.Account) Account {
	return Account{
		AccountNumber: a.AccountNumber,
		Username:      a.Username,
		Balance:       a.Balance.StringFixed(domain.MoneyScale),
		CreatedAt:     a.CreatedAt,
	}
}

type data struct {
	Account Account `json:"account"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// statusCode maps service errors to http status codes.
func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccountAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAccountNumber),
		errors.Is(err, domain.ErrNegativeBalance),
		errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrInvalidPage),
		errors.Is(err, domain.ErrInvalidSortField),
		errors.Is(err, domain.ErrInvalidSortDirection):
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

func respondError(gctx *gin.Context, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		zerolog.Ctx(gctx.Request.Context()).Error().Err(err).Send()
		gctx.JSON(code, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(code, web.Error(err))
}

func respondBindError(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindingErrorMsg(err)})
}

type createRequest struct {
	AccountNumber string           `json:"account_number" binding:"required,notblank"`
	Username      string           `json:"username" binding:"required,notblank"`
	Balance       *decimal.Decimal `json:"balance" binding:"required"`
}

// Create handles http request to create account.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		respondBindError(gctx, err)
		return
	}

	account, err := h.service.Create(ctx, domain.CreateAccountParams{
		AccountNumber: req.AccountNumber,
		Username:      req.Username,
		Balance:       *req.Balance,
	})
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, response{Data: data{newAccount(account)}})
}

type accountURI struct {
	AccountNumber string `uri:"account_number" binding:"required,notblank"`
}

// Get handles http request to get account.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		respondBindError(gctx, err)
		return
	}

	account, err := h.service.Get(ctx, uri.AccountNumber)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{newAccount(account)}})
}

type listRequest struct {
	Page          int    `form:"page,default=0" binding:"gte=0"`
	Size          int    `form:"size,default=10" binding:"gte=1,lte=100"`
	SortBy        string `form:"sort_by,default=account_number"`
	SortDirection string `form:"sort_direction,default=asc"`
}

type dataAccounts struct {
	Accounts   []Account `json:"accounts"`
	Page       int       `json:"page"`
	Size       int       `json:"size"`
	TotalItems int       `json:"total_items"`
	TotalPages int       `json:"total_pages"`
}

type responseAccounts struct {
	Data dataAccounts `json:"data,omitempty"`
}

// List handles http request to list accounts.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		respondBindError(gctx, err)
		return
	}

	direction, err := domain.ParseSortDirection(req.SortDirection)
	if err != nil {
		respondError(gctx, err)
		return
	}

	page, err := h.service.List(ctx, domain.PageRequest{
		Page:      req.Page,
		Size:      req.Size,
		SortBy:    req.SortBy,
		Direction: direction,
	})
	if err != nil {
		respondError(gctx, err)
		return
	}

	accounts := make([]Account, 0, len(page.Items))
	for _, a := range page.Items {
		accounts = append(accounts, newAccount(a))
	}

	gctx.JSON(http.StatusOK, responseAccounts{
		Data: dataAccounts{
			Accounts:   accounts,
			Page:       page.Page,
			Size:       page.Size,
			TotalItems: page.TotalItems,
			TotalPages: page.TotalPages,
		},
	})
}

type updateRequest struct {
	Username string `json:"username" binding:"required,notblank"`
}

// Update handles http request to change the account username.
func (h *Handler) Update(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		respondBindError(gctx, err)
		return
	}

	var req updateRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		respondBindError(gctx, err)
		return
	}

	account, err := h.service.UpdateProfile(ctx, uri.AccountNumber, req.Username)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{newAccount(account)}})
}

type updateBalanceRequest struct {
	Balance *decimal.Decimal `json:"balance" binding:"required"`
}

// UpdateBalance handles http request to overwrite the account balance.
func (h *Handler) UpdateBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		respondBindError(gctx, err)
		return
	}

	var req updateBalanceRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		respondBindError(gctx, err)
		return
	}

	account, err := h.service.SetBalance(ctx, uri.AccountNumber, *req.Balance)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{newAccount(account)}})
}

// Delete handles http request to delete account.
func (h *Handler) Delete(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		respondBindError(gctx, err)
		return
	}

	if err := h.service.Delete(ctx, uri.AccountNumber); err != nil {
		respondError(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}
