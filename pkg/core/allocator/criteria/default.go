package criteria

import (
	rostering "github.com/jakechorley/parish-roster/pkg/core/allocator"
)

// Default returns the criteria every generation run applies
func Default() []rostering.Criterion {
	return []rostering.Criterion{
		NewSlotCapacityCriterion(),
		NewNoDoubleBookingCriterion(),
		NewFamilySeparationCriterion(),
	}
}
