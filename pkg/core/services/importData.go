package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/parish-roster/pkg/db"
)

// SeedVolunteer is a volunteer entry of a seed file
type SeedVolunteer struct {
	ID          string     `yaml:"id" validate:"required"`
	DisplayName string     `yaml:"displayName" validate:"required"`
	Role        string     `yaml:"role" validate:"required,oneof=minister coordinator manager"`
	Status      string     `yaml:"status" validate:"required,oneof=active inactive pending"`
	LastService *time.Time `yaml:"lastService,omitempty"`
	SpouseID    string     `yaml:"spouseId,omitempty"`
}

// SeedPeriod is a period entry of a seed file
type SeedPeriod struct {
	Year                int    `yaml:"year" validate:"min=2000,max=2100"`
	Month               int    `yaml:"month" validate:"min=1,max=12"`
	QuestionnaireStatus string `yaml:"questionnaireStatus" validate:"omitempty,oneof=draft closed"`
}

// SeedAvailability is a questionnaire submission of a seed file. The payload is either
// written inline as YAML or given verbatim as JSON text.
type SeedAvailability struct {
	ID          string    `yaml:"id,omitempty"`
	VolunteerID string    `yaml:"volunteerId" validate:"required"`
	Year        int       `yaml:"year" validate:"min=2000,max=2100"`
	Month       int       `yaml:"month" validate:"min=1,max=12"`
	SubmittedAt time.Time `yaml:"submittedAt" validate:"required"`
	Payload     yaml.Node `yaml:"payload,omitempty" validate:"-"`
	PayloadJSON string    `yaml:"payloadJson,omitempty"`
}

// SeedFile is the document read by ImportData
type SeedFile struct {
	Volunteers   []SeedVolunteer    `yaml:"volunteers" validate:"dive"`
	Periods      []SeedPeriod       `yaml:"periods" validate:"dive"`
	Availability []SeedAvailability `yaml:"availability" validate:"dive"`
}

// ImportDataResult counts the imported records
type ImportDataResult struct {
	Volunteers   int
	Periods      int
	Availability int
}

// ImportDataStore defines the database operations needed to import seed data
type ImportDataStore interface {
	db.PeriodStore
	UpsertVolunteers(ctx context.Context, volunteers []db.Volunteer) error
	InsertAvailabilityRecords(ctx context.Context, records []db.AvailabilityRecord) error
}

var seedValidate = validator.New()

// ImportData loads a YAML seed file of volunteers, periods and availability submissions.
// Volunteers are upserted, periods upserted and submissions inserted once; a submission
// without an ID gets one derived from its volunteer, period and submission time, so
// importing the same file twice changes nothing. Cached previews are dropped since any
// volunteer change reaches every period.
func ImportData(ctx context.Context, store ImportDataStore, previews *PreviewCache, logger *zap.Logger, data []byte) (*ImportDataResult, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := seedValidate.Struct(&seed); err != nil {
		return nil, fmt.Errorf("seed validation failed: %w", err)
	}

	logger.Debug("Importing seed data",
		zap.Int("volunteers", len(seed.Volunteers)),
		zap.Int("periods", len(seed.Periods)),
		zap.Int("availability", len(seed.Availability)))

	volunteers := make([]db.Volunteer, len(seed.Volunteers))
	for i, v := range seed.Volunteers {
		volunteers[i] = db.Volunteer{
			ID:          v.ID,
			DisplayName: v.DisplayName,
			Role:        v.Role,
			Status:      v.Status,
			LastService: v.LastService,
			SpouseID:    v.SpouseID,
		}
	}

	records := make([]db.AvailabilityRecord, len(seed.Availability))
	for i, a := range seed.Availability {
		payload, err := seedPayload(a)
		if err != nil {
			return nil, fmt.Errorf("availability[%d] of %s: %w", i, a.VolunteerID, err)
		}
		id := a.ID
		if id == "" {
			name := fmt.Sprintf("%s|%04d-%02d|%s", a.VolunteerID, a.Year, a.Month, a.SubmittedAt.UTC().Format(time.RFC3339))
			id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
		}
		records[i] = db.AvailabilityRecord{
			ID:          id,
			VolunteerID: a.VolunteerID,
			Year:        a.Year,
			Month:       a.Month,
			Payload:     payload,
			SubmittedAt: a.SubmittedAt,
		}
	}

	if err := store.UpsertVolunteers(ctx, volunteers); err != nil {
		return nil, fmt.Errorf("failed to import volunteers: %w", err)
	}

	for _, p := range seed.Periods {
		status := p.QuestionnaireStatus
		if status == "" {
			status = "draft"
		}
		if err := store.UpsertPeriod(ctx, db.Period{Year: p.Year, Month: p.Month, QuestionnaireStatus: status}); err != nil {
			return nil, fmt.Errorf("failed to import periods: %w", err)
		}
	}

	if err := store.InsertAvailabilityRecords(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to import availability: %w", err)
	}
	previews.Flush()

	result := &ImportDataResult{
		Volunteers:   len(volunteers),
		Periods:      len(seed.Periods),
		Availability: len(records),
	}
	logger.Info("Seed data imported",
		zap.Int("volunteers", result.Volunteers),
		zap.Int("periods", result.Periods),
		zap.Int("availability", result.Availability))

	return result, nil
}

// seedPayload returns the JSON payload of a seed submission
func seedPayload(a SeedAvailability) (json.RawMessage, error) {
	hasInline := !a.Payload.IsZero()
	switch {
	case hasInline && a.PayloadJSON != "":
		return nil, fmt.Errorf("payload and payloadJson are mutually exclusive")
	case a.PayloadJSON != "":
		if !json.Valid([]byte(a.PayloadJSON)) {
			return nil, fmt.Errorf("payloadJson is not valid JSON")
		}
		return json.RawMessage(a.PayloadJSON), nil
	case hasInline:
		var value any
		if err := a.Payload.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("payload is missing")
	}
}
