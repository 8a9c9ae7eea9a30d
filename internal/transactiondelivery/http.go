// Package transactiondelivery manages delivery layer of transactions.
package transactiondelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by transaction delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transactiondelivery
type Service interface {
	Transfer(ctx context.Context, arg domain.TransferParams) (domain.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Transaction, error)
	ListPage(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Transaction], error)
	Update(ctx context.Context, id uuid.UUID, arg domain.UpdateTransactionParams) (domain.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler facilitates transaction delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transaction handler.
func NewHandler(ts Service) Handler {
	return Handler{service: ts}
}

// Transaction is the wire form of domain.Transaction with the amount as a fixed point string.
type Transaction struct {
	ID                  uuid.UUID     `json:"id"`
	AccountNumber       string        `json:"account_number"`
	TargetAccountNumber string        `json:"target_account_number"`
	Amount              string        `json:"amount"`
	Description         string        `json:"description"`
	Timestamp           time.Time     `json:"timestamp"`
	Status              domain.Status `json:"status"`
}

func newTransaction(t domain.Transaction) Transaction {
	return Transaction{
		ID:                  t.ID,
		AccountNumber:       t.AccountNumber,
		TargetAccountNumber: t.TargetAccountNumber,
		Amount:              t.Amount.StringFixed(domain.MoneyScale),
		Description:         t.Description,
		Timestamp:           t.Timestamp,
		Status:              t.Status,
	}
}

type data struct {
	Transaction Transaction `json:"transaction"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrSourceAccountNotFound),
		errors.Is(err, domain.ErrTargetAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransactionAlreadyExists),
		errors.Is(err, domain.ErrDuplicateTransaction),
		errors.Is(err, domain.ErrCompletedTransactionImmutable):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidStatusTransition),
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

type transferRequest struct {
	ID                  string           `json:"id" binding:"omitempty,uuid"`
	AccountNumber       string           `json:"account_number" binding:"required,notblank"`
	TargetAccountNumber string           `json:"target_account_number" binding:"required,notblank"`
	Amount              *decimal.Decimal `json:"amount" binding:"required"`
	Description         string           `json:"description"`
}

// Transfer handles http request to move money between two accounts.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		respondBindError(gctx, err)
		return
	}

	arg := domain.TransferParams{
		AccountNumber:       req.AccountNumber,
		TargetAccountNumber: req.TargetAccountNumber,
		Amount:              *req.Amount,
		Description:         req.Description,
	}

	if req.ID != "" {
		arg.ID = uuid.MustParse(req.ID)
	}

	t, err := h.service.Transfer(ctx, arg)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{newTransaction(t)}})
}

type transactionURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

func bindID(gctx *gin.Context) (uuid.UUID, bool) {
	var uri transactionURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		respondBindError(gctx, err)
		return uuid.Nil, false
	}

	return uuid.MustParse(uri.ID), true
}

// Get handles http request to get transaction.
func (h *Handler) Get(gctx *gin.Context) {
	id, ok := bindID(gctx)
	if !ok {
		return
	}

	t, err := h.service.Get(gctx.Request.Context(), id)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{newTransaction(t)}})
}

type listRequest struct {
	Page          int    `form:"page,default=0" binding:"gte=0"`
	Size          int    `form:"size,default=10" binding:"gte=1,lte=100"`
	SortBy        string `form:"sort_by,default=timestamp"`
	SortDirection string `form:"sort_direction,default=desc"`
}

type dataTransactions struct {
	Transactions []Transaction `json:"transactions"`
	Page         int           `json:"page"`
	Size         int           `json:"size"`
	TotalItems   int           `json:"total_items"`
	TotalPages   int           `json:"total_pages"`
}

type responseTransactions struct {
	Data dataTransactions `json:"data,omitempty"`
}

// List handles http request to list a page of transactions.
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

	page, err := h.service.ListPage(ctx, domain.PageRequest{
		Page:      req.Page,
		Size:      req.Size,
		SortBy:    req.SortBy,
		Direction: direction,
	})
	if err != nil {
		respondError(gctx, err)
		return
	}

	transactions := make([]Transaction, 0, len(page.Items))
	for _, t := range page.Items {
		transactions = append(transactions, newTransaction(t))
	}

	gctx.JSON(http.StatusOK, responseTransactions{
		Data: dataTransactions{
			Transactions: transactions,
			Page:         page.Page,
			Size:         page.Size,
			TotalItems:   page.TotalItems,
			TotalPages:   page.TotalPages,
		},
	})
}

type updateRequest struct {
	AccountNumber       string           `json:"account_number" binding:"required,notblank"`
	TargetAccountNumber string           `json:"target_account_number" binding:"required,notblank"`
	Amount              *decimal.Decimal `json:"amount" binding:"required"`
	Description         string           `json:"description"`
}

// Update handles http request to rewrite a transaction that is not completed.
func (h *Handler) Update(gctx *gin.Context) {
	id, ok := bindID(gctx)
	if !ok {
		return
	}

	var req updateRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		respondBindError(gctx, err)
		return
	}

	t, err := h.service.Update(gctx.Request.Context(), id, domain.UpdateTransactionParams{
		AccountNumber:       req.AccountNumber,
		TargetAccountNumber: req.TargetAccountNumber,
		Amount:              *req.Amount,
		Description:         req.Description,
	})
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{newTransaction(t)}})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles http request to move a pending transaction to a final status.
func (h *Handler) UpdateStatus(gctx *gin.Context) {
	id, ok := bindID(gctx)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		respondBindError(gctx, err)
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		respondError(gctx, err)
		return
	}

	t, err := h.service.UpdateStatus(gctx.Request.Context(), id, status)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{newTransaction(t)}})
}

// Delete handles http request to delete transaction.
func (h *Handler) Delete(gctx *gin.Context) {
	id, ok := bindID(gctx)
	if !ok {
		return
	}

	if err := h.service.Delete(gctx.Request.Context(), id); err != nil {
		respondError(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}
