package calendar

import (
	"time"

	"github.com/mesforge/shopfloor/internal/entity"
)

// EnergyShiftBoundaries are the fixed 08:30 / 17:00 / 00:30 anchors the
// Modbus energy collector uses for its own shift-wise rollup display. This
// is a third, independent calendar: it is never fed into C6's ShiftSummary
// and must not be reconciled with the ShiftManager windows or the batch
// scheduler's 06:00-22:00 window.
var EnergyShiftBoundaries = [3]time.Duration{
	8*time.Hour + 30*time.Minute,
	17 * time.Hour,
	0*time.Hour + 30*time.Minute,
}

// EnergyShiftWindow returns the index (0, 1, or 2) of the energy-meter shift
// covering t, and the instant that shift began.
func EnergyShiftWindow(t time.Time) (index int, start time.Time) {
	ist := t.In(entity.IST)
	dayStart := startOfDay(ist)
	offset := ist.Sub(dayStart)

	b := EnergyShiftBoundaries
	switch {
	case offset >= b[0] && offset < b[1]:
		return 0, dayStart.Add(b[0])
	case offset >= b[1]:
		return 1, dayStart.Add(b[1])
	default: // offset < b[2] is still yesterday's 17:00 shift; [b[2], b[0]) is shift 2
		if offset < b[2] {
			return 1, dayStart.AddDate(0, 0, -1).Add(b[1])
		}
		return 2, dayStart.Add(b[2])
	}
}
