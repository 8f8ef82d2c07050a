package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medoraai/clinic-backend/internal/model"
)

type AnalysisRepo struct{ DB *sql.DB }

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo { return &AnalysisRepo{DB: db} }

// Create stores an analysis record and returns its ID.
func (r *AnalysisRepo) Create(ctx context.Context, a model.AnalysisRecord) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO analyses (patient_id, patient_data, final_report, created_by) VALUES (?,?,?,?)",
		a.PatientID, a.PatientData, a.FinalReport, a.CreatedBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one analysis record.
func (r *AnalysisRepo) GetByID(ctx context.Context, id uint64) (model.AnalysisRecord, error) {
	var a model.AnalysisRecord
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, patient_id, patient_data, final_report, created_by, created_at, updated_at "+
			"FROM analyses WHERE id=? LIMIT 1", id).
		Scan(&a.ID, &a.PatientID, &a.PatientData, &a.FinalReport, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AnalysisRecord{}, ErrNotFound
	}
	return a, err
}

// ListByPatient returns all analyses for a patient, newest first.
func (r *AnalysisRepo) ListByPatient(ctx context.Context, patientID uint64) ([]model.AnalysisRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, patient_id, patient_data, final_report, created_by, created_at, updated_at "+
			"FROM analyses WHERE patient_id=? ORDER BY created_at DESC",
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AnalysisRecord
	for rows.Next() {
		var a model.AnalysisRecord
		if err := rows.Scan(&a.ID, &a.PatientID, &a.PatientData, &a.FinalReport,
			&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes one analysis record.
func (r *AnalysisRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM analyses WHERE id=?", id)
	return err
}
