package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/bash586/paytrackbot/internal/model"
	xhttp "github.com/bash586/paytrackbot/pkg/http"
	"github.com/bash586/paytrackbot/pkg/money"
	"github.com/fasthttp/router"
)

type TransactionService interface {
	AddTransaction(ctx context.Context, adminID int64, req model.TransactionCreateRequest) (*model.Transaction, error)
	Settle(ctx context.Context, adminID int64, req model.TransactionCreateRequest) (*model.Transaction, error)
	ListTransactions(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
	ListHistory(ctx context.Context, customerID int64) ([]*model.Transaction, error)
}

type TransactionHandler struct {
	svc TransactionService
}

func NewTransactionHandler(svc TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

func RegisterTransactionRoutes(e *router.Group, h *TransactionHandler) {
	e.POST("/customers/{id}/transactions", h.CreateTransaction)
	e.POST("/customers/{id}/settlements", h.CreateSettlement)
	e.GET("/customers/{id}/transactions", h.ListTransactions)
	e.GET("/customers/{id}/history", h.ListHistory)
}

// Amounts cross the wire as decimal strings ("25.50") and are stored as
// integer minor units.
type createTransactionRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type transactionResponse struct {
	Transaction *model.Transaction `json:"transaction"`
	Amount      string             `json:"amount"`
}

type listTransactionsResponse struct {
	Items []*model.Transaction `json:"items"`
	Total int64                `json:"total"`
}

func (h *TransactionHandler) CreateTransaction(ctx *xhttp.RequestCtx) {
	h.create(ctx, h.svc.AddTransaction)
}

func (h *TransactionHandler) CreateSettlement(ctx *xhttp.RequestCtx) {
	h.create(ctx, h.svc.Settle)
}

func (h *TransactionHandler) create(ctx *xhttp.RequestCtx, op func(context.Context, int64, model.TransactionCreateRequest) (*model.Transaction, error)) {
	admin, ok := adminID(ctx)
	if !ok {
		writeError(ctx, 400, "missing or invalid "+adminHeader+" header")
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid customer id")
		return
	}

	var req createTransactionRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeError(ctx, 400, "invalid amount: "+err.Error())
		return
	}

	txn, err := op(ctx, admin, model.TransactionCreateRequest{
		CustomerID:  id,
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, transactionResponse{
		Transaction: txn,
		Amount:      money.Format(txn.Amount),
	})
}

func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid customer id")
		return
	}

	f := model.TransactionFilter{CustomerID: &id}
	if v := query(ctx, "kind"); v != "" {
		kind := model.TransactionKind(v)
		f.Kind = &kind
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.ListTransactions(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, listTransactionsResponse{Items: items, Total: total})
}

// ListHistory returns the customer's full ledger in chronological order,
// with a 404 for customers that do not exist.
func (h *TransactionHandler) ListHistory(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid customer id")
		return
	}

	items, err := h.svc.ListHistory(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, listTransactionsResponse{Items: items, Total: int64(len(items))})
}
