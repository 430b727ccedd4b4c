package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cribtrakr/db"
	"cribtrakr/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type expensePayload struct {
	ID          *string       `json:"id"`
	PropID      *string       `json:"propId"`
	PropName    *string       `json:"propName"`
	Category    *string       `json:"category"`
	Amount      *models.Cents `json:"amount"`
	Vendor      *string       `json:"vendor"`
	Description *string       `json:"description"`
	Date        *models.Date  `json:"date"`
}

// GetExpenses handles GET /api/expenses.
func GetExpenses(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)
	expenses := []models.Expense{}
	err := db.DB.Select(&expenses, "SELECT * FROM expenses WHERE user = ? ORDER BY date DESC", user)
	if err != nil {
		zap.L().Error("expenses: list query failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: GET")
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

// GetExpensesByProperty handles GET /api/expenses/prop/{propId}. Zero
// matches is not an error; the list is just empty.
func GetExpensesByProperty(w http.ResponseWriter, r *http.Request) {
	propID := chi.URLParam(r, "propId")
	expenses := []models.Expense{}
	err := db.DB.Select(&expenses, "SELECT * FROM expenses WHERE prop_id = ? ORDER BY date DESC", propID)
	if err != nil {
		zap.L().Error("expenses: property list query failed", zap.Error(err), zap.String("propId", propID))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: GET")
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

// GetExpensesByCategory handles GET /api/expenses/prop/{propId}/category/{category}.
func GetExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	propID := chi.URLParam(r, "propId")
	category := chi.URLParam(r, "category")
	expenses := []models.Expense{}
	err := db.DB.Select(&expenses,
		"SELECT * FROM expenses WHERE prop_id = ? AND category = ? ORDER BY date DESC",
		propID, category)
	if err != nil {
		zap.L().Error("expenses: category query failed", zap.Error(err), zap.String("propId", propID))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: GET")
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

// GetExpensesByDateRange handles GET /api/expenses/prop/{propId}/range?from=&to=.
// from is inclusive, to is exclusive.
func GetExpensesByDateRange(w http.ResponseWriter, r *http.Request) {
	propID := chi.URLParam(r, "propId")

	from, err := models.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "from must be a YYYY-MM-DD date")
		return
	}
	to, err := models.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "to must be a YYYY-MM-DD date")
		return
	}

	expenses := []models.Expense{}
	err = db.DB.Select(&expenses,
		"SELECT * FROM expenses WHERE prop_id = ? AND date >= ? AND date < ? ORDER BY date DESC",
		propID, from.String(), to.String())
	if err != nil {
		zap.L().Error("expenses: range query failed", zap.Error(err), zap.String("propId", propID))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: GET")
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

// GetExpense handles GET /api/expenses/{id}.
func GetExpense(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)
	id := chi.URLParam(r, "id")

	var expense models.Expense
	err := db.DB.Get(&expense, "SELECT * FROM expenses WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		respondMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		zap.L().Error("expenses: get query failed", zap.Error(err), zap.String("id", id))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: GET id")
		return
	}
	if expense.User != user {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

// CreateExpense handles POST /api/expenses. When a propId is supplied the
// referenced rental must exist, and its street is snapshotted as propName.
// The snapshot is never refreshed if the rental is later renamed.
func CreateExpense(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)

	var req expensePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, "Invalid JSON", "")
		return
	}

	switch {
	case req.Category == nil:
		respondValidation(w, "Missing field", "category")
		return
	case req.Amount == nil:
		respondValidation(w, "Missing field", "amount")
		return
	case req.Vendor == nil:
		respondValidation(w, "Missing field", "vendor")
		return
	case req.Description == nil:
		respondValidation(w, "Missing field", "description")
		return
	case req.Date == nil:
		respondValidation(w, "Missing field", "date")
		return
	}

	propName := strOrEmpty(req.PropName)
	propID := strOrEmpty(req.PropID)
	if propID != "" {
		var rental models.Rental
		err := db.DB.Get(&rental, "SELECT * FROM rentals WHERE id = ?", propID)
		if errors.Is(err, sql.ErrNoRows) {
			respondValidation(w, "Property does not exist", "propId")
			return
		}
		if err != nil {
			zap.L().Error("expenses: rental lookup failed", zap.Error(err), zap.String("propId", propID))
			respondMessage(w, http.StatusInternalServerError, "Internal server error: POST")
			return
		}
		propName = rental.Street
	}

	expense := models.Expense{
		ID:          uuid.NewString(),
		User:        user,
		PropID:      propID,
		PropName:    propName,
		Category:    *req.Category,
		Amount:      *req.Amount,
		Vendor:      *req.Vendor,
		Description: *req.Description,
		Date:        *req.Date,
	}

	_, err := db.DB.NamedExec(`INSERT INTO expenses
		(id, user, prop_id, prop_name, category, amount, vendor, description, date)
		VALUES (:id, :user, :prop_id, :prop_name, :category, :amount, :vendor, :description, :date)`,
		expense)
	if err != nil {
		zap.L().Error("expenses: insert failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: POST")
		return
	}

	respondJSON(w, http.StatusCreated, expense)
}

// UpdateExpense handles PUT /api/expenses/{id}.
func UpdateExpense(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)
	id := chi.URLParam(r, "id")

	var req expensePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Request path id and request body id values must match")
		return
	}
	if req.ID == nil || *req.ID != id {
		respondError(w, http.StatusBadRequest, "Request path id and request body id values must match")
		return
	}

	var expense models.Expense
	err := db.DB.Get(&expense, "SELECT * FROM expenses WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		respondMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		zap.L().Error("expenses: update lookup failed", zap.Error(err), zap.String("id", id))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: PUT/:id")
		return
	}
	if expense.User != user {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	setParts := []string{}
	args := []any{}
	add := func(column string, value any) {
		setParts = append(setParts, column+" = ?")
		args = append(args, value)
	}
	if req.PropName != nil {
		add("prop_name", *req.PropName)
	}
	if req.Category != nil {
		add("category", *req.Category)
	}
	if req.Amount != nil {
		add("amount", *req.Amount)
	}
	if req.Vendor != nil {
		add("vendor", *req.Vendor)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Date != nil {
		add("date", req.Date.String())
	}

	if len(setParts) > 0 {
		args = append(args, id)
		_, err = db.DB.Exec("UPDATE expenses SET "+strings.Join(setParts, ", ")+" WHERE id = ?", args...)
		if err != nil {
			zap.L().Error("expenses: update failed", zap.Error(err), zap.String("id", id))
			respondMessage(w, http.StatusInternalServerError, "Internal server error: PUT/:id")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteExpense handles DELETE /api/expenses/{id}.
func DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)
	id := chi.URLParam(r, "id")

	var expense models.Expense
	err := db.DB.Get(&expense, "SELECT * FROM expenses WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		respondMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		zap.L().Error("expenses: delete lookup failed", zap.Error(err), zap.String("id", id))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: DELETE")
		return
	}
	if expense.User != user {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if _, err := db.DB.Exec("DELETE FROM expenses WHERE id = ?", id); err != nil {
		zap.L().Error("expenses: delete failed", zap.Error(err), zap.String("id", id))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: DELETE")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteExpensesForProperty handles DELETE /api/expenses/prop/{propId},
// the bulk form used by the rental cascade. Deleting zero rows succeeds.
func DeleteExpensesForProperty(w http.ResponseWriter, r *http.Request) {
	propID := chi.URLParam(r, "propId")
	if _, err := db.DB.Exec("DELETE FROM expenses WHERE prop_id = ?", propID); err != nil {
		zap.L().Error("expenses: bulk delete failed", zap.Error(err), zap.String("propId", propID))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: DELETE ALL EXPENSES")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
