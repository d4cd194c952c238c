package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/internal/config"
	"github.com/jakechorley/parish-roster/pkg/core/model"
	"github.com/jakechorley/parish-roster/pkg/db"
)

// PinRequest identifies the seat to pin and who holds it. An empty VolunteerID pins a
// deliberate vacancy.
type PinRequest struct {
	Date        time.Time
	Time        string
	Position    int
	VolunteerID string
}

// PinAssignmentResult is the pinned record and the records it replaced
type PinAssignmentResult struct {
	Assignment model.Assignment
	Replaced   []model.Assignment
}

// PinAssignmentStore defines the database operations needed to pin an assignment
type PinAssignmentStore interface {
	db.VolunteerStore
	db.PeriodLocker
}

// PinAssignment records a manual assignment for one seat. Whatever record held the seat
// is superseded; later generation runs leave the pin untouched.
func PinAssignment(
	ctx context.Context,
	store PinAssignmentStore,
	previews *PreviewCache,
	cfg *config.Config,
	logger *zap.Logger,
	req PinRequest,
) (*PinAssignmentResult, error) {
	date := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, time.UTC)
	period := model.Period{Year: date.Year(), Month: date.Month()}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Pinning assignment",
		zap.String("date", date.Format(model.DateLayout)),
		zap.String("time", req.Time),
		zap.Int("position", req.Position),
		zap.String("volunteer_id", req.VolunteerID))

	slots, err := buildSlots(cfg, period)
	if err != nil {
		return nil, err
	}

	var slot *model.Slot
	for i := range slots {
		if slots[i].DateKey() == date.Format(model.DateLayout) && slots[i].Time == req.Time {
			slot = &slots[i]
			break
		}
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrSlotNotFound, date.Format(model.DateLayout), req.Time)
	}
	if req.Position < 1 || req.Position > slot.MaxStaff {
		return nil, fmt.Errorf("%w: %d is outside 1..%d for %s", ErrInvalidPosition, req.Position, slot.MaxStaff, slot.ID)
	}

	if req.VolunteerID != "" {
		if err := requireVolunteer(ctx, store, req.VolunteerID); err != nil {
			return nil, err
		}
	}

	pinned := model.Assignment{
		ID:          uuid.New().String(),
		SlotID:      slot.ID,
		Date:        slot.Date,
		Time:        slot.Time,
		Position:    req.Position,
		VolunteerID: req.VolunteerID,
		Status:      model.AssignmentPinned,
		Provenance:  model.ProvenanceManual,
	}
	if pinned.VolunteerID == "" {
		pinned.Status = model.AssignmentVacant
	}

	result := &PinAssignmentResult{Assignment: pinned, Replaced: []model.Assignment{}}
	err = store.WithPeriodLock(ctx, period.Year, int(period.Month), func(tx db.AssignmentTx) error {
		existing, err := tx.GetAssignments(ctx, period.Year, int(period.Month))
		if err != nil {
			return fmt.Errorf("failed to fetch assignments: %w", err)
		}

		var ids []string
		for _, record := range existing {
			a := record.ToModel()
			if a.Status == model.AssignmentSuperseded || a.Key() != pinned.Key() {
				continue
			}
			ids = append(ids, a.ID)
			result.Replaced = append(result.Replaced, a)
		}

		if err := tx.SupersedeAssignments(ctx, ids); err != nil {
			return err
		}
		return tx.InsertAssignments(ctx, []db.Assignment{db.AssignmentFromModel(pinned, period, "")})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pin assignment: %w", err)
	}

	previews.Invalidate(period)

	logger.Info("Assignment pinned",
		zap.String("assignment_id", pinned.ID),
		zap.String("slot_id", pinned.SlotID),
		zap.Int("position", pinned.Position),
		zap.String("volunteer_id", pinned.VolunteerID),
		zap.Int("replaced", len(result.Replaced)))

	return result, nil
}

func requireVolunteer(ctx context.Context, store db.VolunteerStore, id string) error {
	volunteers, err := store.GetVolunteers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch volunteers: %w", err)
	}
	for _, v := range volunteers {
		if v.ID == id {
			return nil
		}
	}
	return fmt.Errorf("volunteer %s: %w", id, db.ErrNotFound)
}
