package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/groupspend/groupspend/internal/auth"
	"github.com/groupspend/groupspend/internal/handler/dto"
	"github.com/groupspend/groupspend/internal/service"
)

// ExpenseHandler handles HTTP requests for expenses and totals.
type ExpenseHandler struct {
	svc    *service.ExpenseService
	logger *slog.Logger
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(svc *service.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /groups/{groupId}/expenses.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ExpenseRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	input, err := toExpenseInput(req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	expense, err := h.svc.CreateExpense(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "groupId"), input)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ExpenseDataResponse{Data: dto.ToExpenseResponse(expense)})
}

// List handles GET /groups/{groupId}/expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	expenses, summary, err := h.svc.ListExpenses(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "groupId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToExpenseListResponse(expenses, summary))
}

// Update handles PUT /expenses/{expenseId}.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.ExpenseRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	input, err := toExpenseInput(req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	expense, err := h.svc.UpdateExpense(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "expenseId"),
		service.UpdateExpenseInput{ExpenseInput: input, UserID: req.UserID})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseUpdatedResponse{
		Message: "Expense updated successfully",
		Data:    dto.ToExpenseResponse(expense),
	})
}

// Delete handles DELETE /expenses/{expenseId}. The body is optional.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteExpenseRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	err := h.svc.DeleteExpense(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "expenseId"), req.UserID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Expense deleted successfully"})
}

// Total handles GET /groups/{groupId}/total?currency=XXX.
func (h *ExpenseHandler) Total(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.GroupTotal(r.Context(), auth.IdentityFromContext(r.Context()),
		chi.URLParam(r, "groupId"), r.URL.Query().Get("currency"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TotalResponse{
		Currency:       total.Currency,
		Rate:           total.Rate,
		Total:          total.Total,
		ConvertedTotal: total.ConvertedTotal,
	})
}

func toExpenseInput(req dto.ExpenseRequest) (service.ExpenseInput, error) {
	if req.Amount == nil {
		return service.ExpenseInput{}, fmt.Errorf("%w: amount is required", service.ErrInvalidExpense)
	}
	return service.ExpenseInput{
		Description: req.Description,
		Amount:      *req.Amount,
		Category:    req.Category,
		Date:        req.Date,
	}, nil
}
