package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"cribtrakr/db"
	"cribtrakr/models"
	"cribtrakr/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// rentalPayload is the request body for create/update. Pointer fields so a
// field that is absent can be told apart from one set to its zero value.
type rentalPayload struct {
	ID             *string       `json:"id"`
	Street         *string       `json:"street"`
	City           *string       `json:"city"`
	State          *string       `json:"state"`
	Zip            *string       `json:"zip"`
	ImageURL       *string       `json:"imageURL"`
	Mortgage       *models.Cents `json:"mortgage"`
	PMI            *models.Cents `json:"pmi"`
	Insurance      *models.Cents `json:"insurance"`
	PropertyTax    *models.Cents `json:"propertyTax"`
	HOA            *models.Cents `json:"hoa"`
	ManagementFees *models.Cents `json:"managementFees"`
	Misc           *models.Cents `json:"misc"`
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func centsOrZero(p *models.Cents) models.Cents {
	if p == nil {
		return 0
	}
	return *p
}

// GetRentals handles GET /api/rentals.
func GetRentals(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)
	rentals := []models.Rental{}
	err := db.DB.Select(&rentals, "SELECT * FROM rentals WHERE user = ?", user)
	if err != nil {
		zap.L().Error("rentals: list query failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: GET")
		return
	}
	respondJSON(w, http.StatusOK, rentals)
}

// GetRental handles GET /api/rentals/{id}.
func GetRental(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)
	id := chi.URLParam(r, "id")

	var rental models.Rental
	err := db.DB.Get(&rental, "SELECT * FROM rentals WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		respondMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		zap.L().Error("rentals: get query failed", zap.Error(err), zap.String("id", id))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: GET id")
		return
	}
	if rental.User != user {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, rental)
}

// CreateRental handles POST /api/rentals.
func CreateRental(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)

	var req rentalPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, "Invalid JSON", "")
		return
	}

	required := []struct {
		name  string
		value *string
	}{
		{"street", req.Street},
		{"city", req.City},
		{"state", req.State},
		{"zip", req.Zip},
	}
	for _, f := range required {
		if f.value == nil {
			respondValidation(w, "Missing field", f.name)
			return
		}
	}

	var count int
	err := db.DB.Get(&count, "SELECT COUNT(*) FROM rentals WHERE user = ? AND street = ? AND zip = ?",
		user, *req.Street, *req.Zip)
	if err != nil {
		zap.L().Error("rentals: duplicate check failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: POST")
		return
	}
	if count > 0 {
		respondValidation(w, "New property already created.", "")
		return
	}

	rental := models.Rental{
		ID:             uuid.NewString(),
		User:           user,
		Street:         *req.Street,
		City:           *req.City,
		State:          *req.State,
		Zip:            *req.Zip,
		Status:         models.StatusActive,
		ImageURL:       strOrEmpty(req.ImageURL),
		Mortgage:       centsOrZero(req.Mortgage),
		PMI:            centsOrZero(req.PMI),
		Insurance:      centsOrZero(req.Insurance),
		PropertyTax:    centsOrZero(req.PropertyTax),
		HOA:            centsOrZero(req.HOA),
		ManagementFees: centsOrZero(req.ManagementFees),
		Misc:           centsOrZero(req.Misc),
	}

	_, err = db.DB.NamedExec(`INSERT INTO rentals
		(id, user, street, city, state, zip, status, image_url,
		 mortgage, pmi, insurance, property_tax, hoa, management_fees, misc)
		VALUES (:id, :user, :street, :city, :state, :zip, :status, :image_url,
		 :mortgage, :pmi, :insurance, :property_tax, :hoa, :management_fees, :misc)`, rental)
	if err != nil {
		zap.L().Error("rentals: insert failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: POST")
		return
	}

	respondJSON(w, http.StatusCreated, rental)
}

// UpdateRental handles PUT /api/rentals/{id}. Only the allow-listed fields
// are applied; anything else in the payload is silently ignored.
func UpdateRental(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)
	id := chi.URLParam(r, "id")

	var req rentalPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Request path id and request body id values must match")
		return
	}
	if req.ID == nil || *req.ID != id {
		respondError(w, http.StatusBadRequest, "Request path id and request body id values must match")
		return
	}

	var rental models.Rental
	err := db.DB.Get(&rental, "SELECT * FROM rentals WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		respondMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		zap.L().Error("rentals: update lookup failed", zap.Error(err), zap.String("id", id))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: PUT/:id")
		return
	}
	if rental.User != user {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	setParts := []string{}
	args := []any{}
	add := func(column string, value any) {
		setParts = append(setParts, column+" = ?")
		args = append(args, value)
	}
	if req.Street != nil {
		add("street", *req.Street)
	}
	if req.City != nil {
		add("city", *req.City)
	}
	if req.State != nil {
		add("state", *req.State)
	}
	if req.Zip != nil {
		add("zip", *req.Zip)
	}
	if req.Mortgage != nil {
		add("mortgage", *req.Mortgage)
	}
	if req.PMI != nil {
		add("pmi", *req.PMI)
	}
	if req.Insurance != nil {
		add("insurance", *req.Insurance)
	}
	if req.PropertyTax != nil {
		add("property_tax", *req.PropertyTax)
	}
	if req.HOA != nil {
		add("hoa", *req.HOA)
	}
	if req.ManagementFees != nil {
		add("management_fees", *req.ManagementFees)
	}
	if req.Misc != nil {
		add("misc", *req.Misc)
	}

	if len(setParts) > 0 {
		args = append(args, id)
		_, err = db.DB.Exec("UPDATE rentals SET "+strings.Join(setParts, ", ")+" WHERE id = ?", args...)
		if err != nil {
			zap.L().Error("rentals: update failed", zap.Error(err), zap.String("id", id))
			respondMessage(w, http.StatusInternalServerError, "Internal server error: PUT/:id")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteRental handles DELETE /api/rentals/{id}: remove every expense on the
// property, then the stored image (best effort), then the rental itself.
// A second delete of the same id sees no rental and stops at 404, so the
// cascade never partially re-runs.
func DeleteRental(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)
	id := chi.URLParam(r, "id")

	var rental models.Rental
	err := db.DB.Get(&rental, "SELECT * FROM rentals WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		respondMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		zap.L().Error("rentals: delete lookup failed", zap.Error(err), zap.String("id", id))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: DELETE rental property")
		return
	}
	if rental.User != user {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if _, err := db.DB.Exec("DELETE FROM expenses WHERE prop_id = ?", id); err != nil {
		zap.L().Error("rentals: expense cascade failed", zap.Error(err), zap.String("id", id))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: DELETE all expenses on rental property")
		return
	}

	// Image cleanup is best effort: a missing or malformed location never
	// blocks the delete.
	if key, ok := storage.KeyFromLocation(rental.ImageURL, PublicURL); ok && Objects != nil {
		if err := Objects.Delete(r.Context(), key); err != nil {
			zap.L().Warn("rentals: image cleanup failed", zap.Error(err), zap.String("key", key))
		}
	}

	if _, err := db.DB.Exec("DELETE FROM rentals WHERE id = ?", id); err != nil {
		zap.L().Error("rentals: delete failed", zap.Error(err), zap.String("id", id))
		respondMessage(w, http.StatusInternalServerError, "Internal server error: DELETE rental property")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles POST /api/rentals/upload. The object does not belong
// to any rental yet, so there is no ownership check; the caller stores the
// returned location on a rental afterwards.
func UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		http.Error(w, "Missing name field", http.StatusBadRequest)
		return
	}

	buf, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Could not read file", http.StatusBadRequest)
		return
	}

	contentType := http.DetectContentType(buf)
	location, err := Objects.Upload(r.Context(), storage.KeyPrefix+name,
		bytes.NewReader(buf), int64(len(buf)), contentType)
	if err != nil {
		zap.L().Error("upload: object store put failed", zap.Error(err), zap.String("name", name))
		http.Error(w, "Upload failed", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(location))
}
