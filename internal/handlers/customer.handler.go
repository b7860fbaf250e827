package handlers

import (
	"context"
	"strconv"

	"github.com/bash586/paytrackbot/internal/model"
	xhttp "github.com/bash586/paytrackbot/pkg/http"
	"github.com/bash586/paytrackbot/pkg/money"
	"github.com/fasthttp/router"
)

type CustomerService interface {
	AddCustomer(ctx context.Context, adminID int64, req model.CustomerCreateRequest) (*model.Customer, error)
	Rename(ctx context.Context, adminID, customerID int64, newFullName string) error
	ChangePhone(ctx context.Context, adminID, customerID int64, newPhone string) error
	DeleteCustomer(ctx context.Context, adminID, customerID int64) error
	Search(ctx context.Context, query string, limit int) ([]*model.CustomerMatch, error)
	Summary(ctx context.Context, customerID int64) (*model.CustomerSummary, error)
}

type CustomerHandler struct {
	svc CustomerService
}

func NewCustomerHandler(svc CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

func RegisterCustomerRoutes(e *router.Group, h *CustomerHandler) {
	e.POST("/customers", h.CreateCustomer)
	e.GET("/customers/search", h.SearchCustomers)
	e.GET("/customers/{id}/summary", h.GetSummary)
	e.PATCH("/customers/{id}/name", h.RenameCustomer)
	e.PATCH("/customers/{id}/phone", h.ChangePhone)
	e.DELETE("/customers/{id}", h.DeleteCustomer)
}

type createCustomerRequest struct {
	FullName string `json:"fullname"`
	Phone    string `json:"phone"`
}

type renameRequest struct {
	FullName string `json:"fullname"`
}

type changePhoneRequest struct {
	Phone string `json:"phone"`
}

type summaryResponse struct {
	Customer     *model.Customer    `json:"customer"`
	Balance      string             `json:"balance"`
	TotalDebits  string             `json:"total_debits"`
	TotalCredits string             `json:"total_credits"`
	Recent       []*model.Transaction `json:"recent"`
}

func (h *CustomerHandler) CreateCustomer(ctx *xhttp.RequestCtx) {
	admin, ok := adminID(ctx)
	if !ok {
		writeError(ctx, 400, "missing or invalid "+adminHeader+" header")
		return
	}

	var req createCustomerRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	customer, err := h.svc.AddCustomer(ctx, admin, model.CustomerCreateRequest{
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, customer)
}

func (h *CustomerHandler) SearchCustomers(ctx *xhttp.RequestCtx) {
	limit := 0
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			limit = n
		}
	}

	matches, err := h.svc.Search(ctx, query(ctx, "q"), limit)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]any{"items": matches})
}

func (h *CustomerHandler) GetSummary(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid customer id")
		return
	}

	summary, err := h.svc.Summary(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, summaryResponse{
		Customer:     &summary.Customer,
		Balance:      money.Format(summary.Customer.Balance),
		TotalDebits:  money.Format(summary.TotalDebits),
		TotalCredits: money.Format(summary.TotalCredits),
		Recent:       summary.Recent,
	})
}

func (h *CustomerHandler) RenameCustomer(ctx *xhttp.RequestCtx) {
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

	var req renameRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	if err := h.svc.Rename(ctx, admin, id, req.FullName); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "renamed"})
}

func (h *CustomerHandler) ChangePhone(ctx *xhttp.RequestCtx) {
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

	var req changePhoneRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	if err := h.svc.ChangePhone(ctx, admin, id, req.Phone); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "updated"})
}

func (h *CustomerHandler) DeleteCustomer(ctx *xhttp.RequestCtx) {
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

	if err := h.svc.DeleteCustomer(ctx, admin, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "deleted"})
}
