// Package calendar implements the shop-floor working-day predicate and the
// batch scheduler's fixed shift window. It deliberately keeps this calendar
// separate from the configurable multi-shift calendar in shiftinfo.go and
// the energy-meter rollup calendar in energyshift.go: the three are not the
// same concept and must not be unified.
package calendar

import (
	"time"

	"github.com/mesforge/shopfloor/internal/entity"
)

// ShiftStartHour and ShiftEndHour anchor the batch scheduler's fixed 16-hour
// working window. The 09:00-17:00 variant found in one historical endpoint
// is obsolete and is not reproduced here.
const (
	ShiftStartHour = 6
	ShiftEndHour   = 22
)

// IsWorkingDay reports whether t falls on Monday through Saturday in IST.
func IsWorkingDay(t time.Time) bool {
	return t.In(entity.IST).Weekday() != time.Sunday
}

// NextWorkingDay returns t unchanged if it already falls on a working day,
// otherwise the start of the earliest later working day (at local midnight).
func NextWorkingDay(t time.Time) time.Time {
	ist := t.In(entity.IST)
	if IsWorkingDay(ist) {
		return t
	}
	for {
		ist = startOfDay(ist).AddDate(0, 0, 1)
		if IsWorkingDay(ist) {
			return ist
		}
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ShiftStart returns the 06:00 anchor on the working day containing t.
func ShiftStart(t time.Time) time.Time {
	ist := t.In(entity.IST)
	y, m, d := ist.Date()
	return time.Date(y, m, d, ShiftStartHour, 0, 0, 0, entity.IST)
}

// ShiftEnd returns the 22:00 anchor on the working day containing t.
func ShiftEnd(t time.Time) time.Time {
	ist := t.In(entity.IST)
	y, m, d := ist.Date()
	return time.Date(y, m, d, ShiftEndHour, 0, 0, 0, entity.IST)
}

// NextShiftStart returns 06:00 on the next working day strictly after t.
func NextShiftStart(t time.Time) time.Time {
	ist := t.In(entity.IST)
	nextDay := startOfDay(ist).AddDate(0, 0, 1)
	nextDay = NextWorkingDay(nextDay)
	return ShiftStart(nextDay)
}

// AdjustToShift pulls t inside the [06:00, 22:00) working window, composed
// with NextWorkingDay: before 06:00 moves to 06:00 the same day; at or after
// 22:00 moves to 06:00 of the next working day; otherwise t is unchanged
// except for being re-anchored to a working day if it landed on a Sunday.
func AdjustToShift(t time.Time) time.Time {
	ist := t.In(entity.IST)
	if !IsWorkingDay(ist) {
		return ShiftStart(NextWorkingDay(ist))
	}
	hour := ist.Hour()
	switch {
	case hour < ShiftStartHour:
		return ShiftStart(ist)
	case hour >= ShiftEndHour:
		return NextShiftStart(ist)
	default:
		return ist
	}
}
