package main

import (
	"time"

	"github.com/mesforge/shopfloor/internal/calendar"
)

// pdcCacheTTL is how long the PDC projector's snapshot is served from cache
// before the next Compute recomputes it. Short enough that a just-logged
// production quantity shows up within one operator refresh.
const pdcCacheTTL = 2 * time.Minute

// shiftManagerFromConfig builds the ShiftManager every C6 reconciliation
// call needs. SPEC_FULL.md §6 allows an explicit ShiftInfo set per
// deployment; this repository has not yet needed one beyond the reference
// three-shift layout, so every command uses the default.
func shiftManagerFromConfig() *calendar.ShiftManager {
	return calendar.NewShiftManager(calendar.ThreeShiftDefault())
}
