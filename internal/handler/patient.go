package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medoraai/clinic-backend/internal/model"
	"github.com/medoraai/clinic-backend/internal/repository"
)

// PatientHandler is the CRUD surface for patient records. Every route
// sits behind JWTAuth and RequireActiveSubscription; records are scoped
// to the account that created them.
type PatientHandler struct {
	Patients *repository.PatientRepo
	Log      zerolog.Logger
}

func NewPatientHandler(patients *repository.PatientRepo, log zerolog.Logger) *PatientHandler {
	return &PatientHandler{Patients: patients, Log: log}
}

type patientRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Age            string `json:"age"`
	Gender         string `json:"gender"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Complaints     string `json:"complaints"`
	History        string `json:"history"`
	ObjectiveData  string `json:"objective_data"`
	LabResults     string `json:"lab_results"`
	Allergies      string `json:"allergies"`
	Medications    string `json:"medications"`
	FamilyHistory  string `json:"family_history"`
	AdditionalInfo string `json:"additional_info"`
}

func (req patientRequest) toModel() model.Patient {
	return model.Patient{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Age:            req.Age,
		Gender:         req.Gender,
		Phone:          req.Phone,
		Address:        req.Address,
		Complaints:     req.Complaints,
		History:        req.History,
		ObjectiveData:  req.ObjectiveData,
		LabResults:     req.LabResults,
		Allergies:      req.Allergies,
		Medications:    req.Medications,
		FamilyHistory:  req.FamilyHistory,
		AdditionalInfo: req.AdditionalInfo,
	}
}

type patientPayload struct {
	ID             uint64    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Age            string    `json:"age"`
	Gender         string    `json:"gender"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	Complaints     string    `json:"complaints"`
	History        string    `json:"history"`
	ObjectiveData  string    `json:"objective_data"`
	LabResults     string    `json:"lab_results"`
	Allergies      string    `json:"allergies"`
	Medications    string    `json:"medications"`
	FamilyHistory  string    `json:"family_history"`
	AdditionalInfo string    `json:"additional_info"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toPatientPayload(p model.Patient) patientPayload {
	return patientPayload{
		ID:             p.ID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Age:            p.Age,
		Gender:         p.Gender,
		Phone:          p.Phone,
		Address:        p.Address,
		Complaints:     p.Complaints,
		History:        p.History,
		ObjectiveData:  p.ObjectiveData,
		LabResults:     p.LabResults,
		Allergies:      p.Allergies,
		Medications:    p.Medications,
		FamilyHistory:  p.FamilyHistory,
		AdditionalInfo: p.AdditionalInfo,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// Create handles POST /v1/patients.
func (h *PatientHandler) Create(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "missing bearer token")
	}
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.FirstName == "" || req.LastName == "" || req.Complaints == "" {
		return respondError(c, http.StatusBadRequest, "first_name, last_name and complaints are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := req.toModel()
	p.CreatedBy = &uid
	id, err := h.Patients.Create(ctx, p)
	if err != nil {
		h.Log.Error().Err(err).Uint64("user_id", uid).Msg("patient create failed")
		return respondError(c, http.StatusInternalServerError, "could not create patient")
	}
	created, err := h.Patients.GetByID(ctx, id)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "could not load patient")
	}
	return respondOK(c, http.StatusCreated, toPatientPayload(created))
}

// List handles GET /v1/patients with limit/offset paging.
func (h *PatientHandler) List(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "missing bearer token")
	}
	limit, offset := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	patients, err := h.Patients.ListByCreator(ctx, uid, limit, offset)
	if err != nil {
		h.Log.Error().Err(err).Uint64("user_id", uid).Msg("patient list failed")
		return respondError(c, http.StatusInternalServerError, "could not load patients")
	}
	out := make([]patientPayload, 0, len(patients))
	for _, p := range patients {
		out = append(out, toPatientPayload(p))
	}
	return respondOK(c, http.StatusOK, out)
}

// Get handles GET /v1/patients/:id.
func (h *PatientHandler) Get(c echo.Context) error {
	p, ok, errResp := h.loadOwned(c)
	if !ok {
		return errResp
	}
	return respondOK(c, http.StatusOK, toPatientPayload(p))
}

// Update handles PUT /v1/patients/:id.
func (h *PatientHandler) Update(c echo.Context) error {
	existing, ok, errResp := h.loadOwned(c)
	if !ok {
		return errResp
	}
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.FirstName == "" || req.LastName == "" || req.Complaints == "" {
		return respondError(c, http.StatusBadRequest, "first_name, last_name and complaints are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := req.toModel()
	p.ID = existing.ID
	if err := h.Patients.Update(ctx, p); err != nil {
		h.Log.Error().Err(err).Uint64("patient_id", existing.ID).Msg("patient update failed")
		return respondError(c, http.StatusInternalServerError, "could not update patient")
	}
	updated, err := h.Patients.GetByID(ctx, existing.ID)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "could not load patient")
	}
	return respondOK(c, http.StatusOK, toPatientPayload(updated))
}

// Delete handles DELETE /v1/patients/:id.
func (h *PatientHandler) Delete(c echo.Context) error {
	p, ok, errResp := h.loadOwned(c)
	if !ok {
		return errResp
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Patients.Delete(ctx, p.ID); err != nil {
		h.Log.Error().Err(err).Uint64("patient_id", p.ID).Msg("patient delete failed")
		return respondError(c, http.StatusInternalServerError, "could not delete patient")
	}
	return respondMessage(c, http.StatusOK, "patient deleted", nil)
}

// loadOwned fetches the :id patient and checks the caller created it.
// Unknown and foreign records both return 404 so record ids are not
// probeable across accounts.
func (h *PatientHandler) loadOwned(c echo.Context) (model.Patient, bool, error) {
	uid, ok := currentUserID(c)
	if !ok {
		return model.Patient{}, false, respondError(c, http.StatusUnauthorized, "missing bearer token")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return model.Patient{}, false, respondError(c, http.StatusBadRequest, "invalid patient id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Patients.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && (p.CreatedBy == nil || *p.CreatedBy != uid)) {
		return model.Patient{}, false, respondError(c, http.StatusNotFound, "patient not found")
	}
	if err != nil {
		h.Log.Error().Err(err).Uint64("patient_id", id).Msg("patient load failed")
		return model.Patient{}, false, respondError(c, http.StatusInternalServerError, "could not load patient")
	}
	return p, true, nil
}

func pageParams(c echo.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
