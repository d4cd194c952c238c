package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// Volunteer represents a database volunteer record
type Volunteer struct {
	ID          string     `yaml:"id"`
	DisplayName string     `yaml:"displayName"`
	Role        string     `yaml:"role"`
	Status      string     `yaml:"status"`
	LastService *time.Time `yaml:"lastService,omitempty"`
	SpouseID    string     `yaml:"spouseId,omitempty"`
}

// Period represents a database period record
type Period struct {
	Year                int    `yaml:"year"`
	Month               int    `yaml:"month"`
	QuestionnaireStatus string `yaml:"questionnaireStatus"`
}

// AvailabilityRecord represents one questionnaire submission. Payload is stored verbatim.
type AvailabilityRecord struct {
	ID          string
	VolunteerID string
	Year        int
	Month       int
	Payload     json.RawMessage
	SubmittedAt time.Time
}

// Assignment represents a database assignment record
type Assignment struct {
	ID          string
	Year        int
	Month       int
	SlotID      string
	Date        time.Time
	Time        string
	Position    int
	VolunteerID string // Empty string for a vacancy
	Status      string
	Provenance  string
	RunID       string // Empty string for manual records
}

// ToModel converts the record, rejecting unknown roles and statuses
func (v Volunteer) ToModel() (model.Volunteer, error) {
	role := model.Role(v.Role)
	if !role.IsValid() {
		return model.Volunteer{}, fmt.Errorf("volunteer %s has invalid role %q", v.ID, v.Role)
	}
	status := model.Status(v.Status)
	if !status.IsValid() {
		return model.Volunteer{}, fmt.Errorf("volunteer %s has invalid status %q", v.ID, v.Status)
	}
	return model.Volunteer{
		ID:          v.ID,
		DisplayName: v.DisplayName,
		Role:        role,
		Status:      status,
		LastService: v.LastService,
		SpouseID:    v.SpouseID,
	}, nil
}

// ToModel converts the record. An empty status is read as draft.
func (p Period) ToModel() model.Period {
	status := model.QuestionnaireStatus(p.QuestionnaireStatus)
	if status == "" {
		status = model.QuestionnaireDraft
	}
	return model.Period{Year: p.Year, Month: time.Month(p.Month), QuestionnaireStatus: status}
}

// PeriodFromModel converts a domain period to a record
func PeriodFromModel(p model.Period) Period {
	return Period{Year: p.Year, Month: int(p.Month), QuestionnaireStatus: string(p.QuestionnaireStatus)}
}

// ToModel converts the record to a domain assignment
func (a Assignment) ToModel() model.Assignment {
	return model.Assignment{
		ID:          a.ID,
		SlotID:      a.SlotID,
		Date:        time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), 0, 0, 0, 0, time.UTC),
		Time:        a.Time,
		Position:    a.Position,
		VolunteerID: a.VolunteerID,
		Status:      model.AssignmentStatus(a.Status),
		Provenance:  model.Provenance(a.Provenance),
	}
}

// AssignmentFromModel converts a domain assignment into a record of the given period
func AssignmentFromModel(a model.Assignment, period model.Period, runID string) Assignment {
	return Assignment{
		ID:          a.ID,
		Year:        period.Year,
		Month:       int(period.Month),
		SlotID:      a.SlotID,
		Date:        a.Date,
		Time:        a.Time,
		Position:    a.Position,
		VolunteerID: a.VolunteerID,
		Status:      string(a.Status),
		Provenance:  string(a.Provenance),
		RunID:       runID,
	}
}

// AssignmentsToModel converts a list of records
func AssignmentsToModel(records []Assignment) []model.Assignment {
	assignments := make([]model.Assignment, len(records))
	for i, r := range records {
		assignments[i] = r.ToModel()
	}
	return assignments
}
