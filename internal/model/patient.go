package model

import "time"

// Patient mirrors the 'patients' table. Clinical free-text fields are
// stored as-is; the AI layer formats them into prompts but never
// interprets them.
//
// Fields:
//  ID             – primary key identifier.
//  FirstName      – given name.
//  LastName       – family name.
//  Age            – age as entered (free text, e.g. "34" or "6 oy").
//  Gender         – male | female | other, may be empty.
//  Phone          – contact phone, not normalized (not a login identifier).
//  Address        – free-text address.
//  Complaints     – presenting complaints (required).
//  History        – anamnesis.
//  ObjectiveData  – examination findings.
//  LabResults     – laboratory results free text.
//  Allergies      – known allergies.
//  Medications    – current medications.
//  FamilyHistory  – family anamnesis.
//  AdditionalInfo – anything else.
//  CreatedBy      – account that created the record (nullable).
type Patient struct {
	ID             uint64
	FirstName      string
	LastName       string
	Age            string
	Gender         string
	Phone          string
	Address        string
	Complaints     string
	History        string
	ObjectiveData  string
	LabResults     string
	Allergies      string
	Medications    string
	FamilyHistory  string
	AdditionalInfo string
	CreatedBy      *uint64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
