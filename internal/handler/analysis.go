package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medoraai/clinic-backend/internal/ai"
	"github.com/medoraai/clinic-backend/internal/model"
	"github.com/medoraai/clinic-backend/internal/repository"
	"github.com/medoraai/clinic-backend/internal/service"
)

// AnalysisHandler runs AI diagnosis suggestions and serves the stored
// analysis history. Suggestions are metered per subscription owner per
// month against the owner's plan.
type AnalysisHandler struct {
	Patients *repository.PatientRepo
	Analyses *repository.AnalysisRepo
	Plans    *repository.PlanRepo
	Usage    *service.UsageTracker
	AI       *ai.Client
	Log      zerolog.Logger
}

func NewAnalysisHandler(patients *repository.PatientRepo, analyses *repository.AnalysisRepo,
	plans *repository.PlanRepo, usage *service.UsageTracker, client *ai.Client, log zerolog.Logger) *AnalysisHandler {
	return &AnalysisHandler{Patients: patients, Analyses: analyses, Plans: plans, Usage: usage, AI: client, Log: log}
}

type analysisPayload struct {
	ID          uint64    `json:"id"`
	PatientID   uint64    `json:"patient_id"`
	PatientData string    `json:"patient_data"`
	FinalReport string    `json:"final_report"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAnalysisPayload(a model.AnalysisRecord) analysisPayload {
	return analysisPayload{
		ID:          a.ID,
		PatientID:   a.PatientID,
		PatientData: a.PatientData,
		FinalReport: a.FinalReport,
		CreatedAt:   a.CreatedAt,
	}
}

// Suggest handles POST /v1/patients/:id/analyses. It snapshots the
// patient record, asks the AI service for diagnosis suggestions, stores
// the result and bumps the monthly usage counter.
func (h *AnalysisHandler) Suggest(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "missing bearer token")
	}
	patient, ok, errResp := h.loadOwnedPatient(c, uid)
	if !ok {
		return errResp
	}

	owner, _ := c.Get("subscription_owner").(model.User)
	ctx := c.Request().Context()
	now := time.Now().UTC()

	// Trial accounts have no plan row yet and are not metered; paid
	// plans enforce their monthly cap.
	var plan *model.SubscriptionPlan
	if owner.PlanID != nil {
		p, err := h.Plans.GetActive(ctx, *owner.PlanID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			h.Log.Error().Err(err).Uint64("user_id", uid).Msg("plan lookup failed")
			return respondError(c, http.StatusInternalServerError, "could not run analysis")
		}
		if err == nil {
			plan = &p
		}
	}
	if plan != nil {
		allowed, remaining := h.Usage.CheckLimit(ctx, owner.ID, plan, now)
		if !allowed {
			return respondErrorDetails(c, http.StatusForbidden,
				"monthly analysis limit reached", echo.Map{"remaining": remaining})
		}
	}

	snapshot, err := json.Marshal(toPatientPayload(patient))
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "could not run analysis")
	}

	report, err := h.AI.Generate(ctx, ai.PatientPrompt(patient))
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return respondError(c, http.StatusServiceUnavailable, "ai service is not available")
	case err != nil:
		h.Log.Error().Err(err).Uint64("patient_id", patient.ID).Msg("ai generation failed")
		return respondError(c, http.StatusBadGateway, "ai service request failed")
	}

	storeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	id, err := h.Analyses.Create(storeCtx, model.AnalysisRecord{
		PatientID:   patient.ID,
		PatientData: string(snapshot),
		FinalReport: report,
		CreatedBy:   &uid,
	})
	if err != nil {
		h.Log.Error().Err(err).Uint64("patient_id", patient.ID).Msg("analysis store failed")
		return respondError(c, http.StatusInternalServerError, "could not store analysis")
	}
	h.Usage.Increment(storeCtx, owner.ID, plan, now)

	return respondOK(c, http.StatusCreated, analysisPayload{
		ID:          id,
		PatientID:   patient.ID,
		PatientData: string(snapshot),
		FinalReport: report,
		CreatedAt:   now,
	})
}

// List handles GET /v1/patients/:id/analyses.
func (h *AnalysisHandler) List(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "missing bearer token")
	}
	patient, ok, errResp := h.loadOwnedPatient(c, uid)
	if !ok {
		return errResp
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.Analyses.ListByPatient(ctx, patient.ID)
	if err != nil {
		h.Log.Error().Err(err).Uint64("patient_id", patient.ID).Msg("analysis list failed")
		return respondError(c, http.StatusInternalServerError, "could not load analyses")
	}
	out := make([]analysisPayload, 0, len(records))
	for _, a := range records {
		out = append(out, toAnalysisPayload(a))
	}
	return respondOK(c, http.StatusOK, out)
}

// Delete handles DELETE /v1/analyses/:id.
func (h *AnalysisHandler) Delete(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "missing bearer token")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid analysis id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Analyses.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && (a.CreatedBy == nil || *a.CreatedBy != uid)) {
		return respondError(c, http.StatusNotFound, "analysis not found")
	}
	if err != nil {
		h.Log.Error().Err(err).Uint64("analysis_id", id).Msg("analysis load failed")
		return respondError(c, http.StatusInternalServerError, "could not load analysis")
	}
	if err := h.Analyses.Delete(ctx, id); err != nil {
		h.Log.Error().Err(err).Uint64("analysis_id", id).Msg("analysis delete failed")
		return respondError(c, http.StatusInternalServerError, "could not delete analysis")
	}
	return respondMessage(c, http.StatusOK, "analysis deleted", nil)
}

// loadOwnedPatient resolves the :id route param to a patient the caller
// created. Foreign and unknown records both yield 404.
func (h *AnalysisHandler) loadOwnedPatient(c echo.Context, uid uint64) (model.Patient, bool, error) {
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
