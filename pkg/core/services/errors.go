package services

import (
	"errors"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

var (
	// ErrInvalidPeriod is returned for a year or month out of range
	ErrInvalidPeriod = model.ErrInvalidPeriod

	// ErrQuestionnaireNotClosed is returned when committing a period whose questionnaire is still open
	ErrQuestionnaireNotClosed = errors.New("questionnaire is not closed")

	// ErrPeriodNotFound is returned when committing a period that was never created
	ErrPeriodNotFound = errors.New("period not found")

	// ErrSlotNotFound is returned when pinning to a date and time with no slot
	ErrSlotNotFound = errors.New("no slot at this date and time")

	// ErrInvalidPosition is returned when pinning outside the slot's positions
	ErrInvalidPosition = errors.New("invalid position")
)
