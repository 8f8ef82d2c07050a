package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medoraai/clinic-backend/internal/model"
)

type PatientRepo struct{ DB *sql.DB }

func NewPatientRepo(db *sql.DB) *PatientRepo { return &PatientRepo{DB: db} }

const patientColumns = "id,first_name,last_name,age,gender,phone,address,complaints," +
	"history,objective_data,lab_results,allergies,medications,family_history," +
	"additional_info,created_by,created_at,updated_at"

// Create inserts a patient record and returns its ID.
func (r *PatientRepo) Create(ctx context.Context, p model.Patient) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO patients (first_name,last_name,age,gender,phone,address,complaints,"+
			"history,objective_data,lab_results,allergies,medications,family_history,"+
			"additional_info,created_by) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		p.FirstName, p.LastName, p.Age, p.Gender, p.Phone, p.Address, p.Complaints,
		p.History, p.ObjectiveData, p.LabResults, p.Allergies, p.Medications,
		p.FamilyHistory, p.AdditionalInfo, p.CreatedBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one patient record.
func (r *PatientRepo) GetByID(ctx context.Context, id uint64) (model.Patient, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+patientColumns+" FROM patients WHERE id=? LIMIT 1", id)
	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Patient{}, ErrNotFound
	}
	return p, err
}

// ListByCreator returns patients created by the given account, newest
// first, with simple limit/offset paging.
func (r *PatientRepo) ListByCreator(ctx context.Context, createdBy uint64, limit, offset int) ([]model.Patient, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE created_by=? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		createdBy, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update rewrites the mutable clinical fields of a patient record.
func (r *PatientRepo) Update(ctx context.Context, p model.Patient) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE patients SET first_name=?,last_name=?,age=?,gender=?,phone=?,address=?,"+
			"complaints=?,history=?,objective_data=?,lab_results=?,allergies=?,"+
			"medications=?,family_history=?,additional_info=? WHERE id=?",
		p.FirstName, p.LastName, p.Age, p.Gender, p.Phone, p.Address,
		p.Complaints, p.History, p.ObjectiveData, p.LabResults, p.Allergies,
		p.Medications, p.FamilyHistory, p.AdditionalInfo, p.ID)
	return err
}

// Delete removes a patient record and, via FK cascade, its analyses.
func (r *PatientRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM patients WHERE id=?", id)
	return err
}

func scanPatient(row rowScanner) (model.Patient, error) {
	var p model.Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Age, &p.Gender, &p.Phone,
		&p.Address, &p.Complaints, &p.History, &p.ObjectiveData, &p.LabResults,
		&p.Allergies, &p.Medications, &p.FamilyHistory, &p.AdditionalInfo,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
