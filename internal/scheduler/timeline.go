// Package scheduler implements the batch scheduling pass (C3): it walks
// every active production order's operations in sequence, laying out setup
// and production time against the fixed shift calendar, and writes the
// result as PlannedScheduleItem/ScheduleVersion rows.
package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/mesforge/shopfloor/internal/calendar"
)

// Advance walks forward from start, consuming durationMinutes of working
// time against the fixed shift calendar, and returns the timestamp at which
// that much working time has elapsed. Crossing a shift boundary costs no
// wall-clock minutes of durationMinutes but does advance real time to the
// next shift start; a duration that exactly fills a shift returns the shift
// end itself.
func Advance(start time.Time, durationMinutes float64) time.Time {
	cursor := calendar.AdjustToShift(start)
	remaining := durationMinutes
	for remaining > 0 {
		shiftEnd := calendar.ShiftEnd(cursor)
		available := shiftEnd.Sub(cursor).Minutes()
		if remaining <= available {
			return cursor.Add(time.Duration(remaining * float64(time.Minute)))
		}
		remaining -= available
		cursor = calendar.NextShiftStart(shiftEnd)
	}
	return cursor
}

// Fragment is one shift-fragment of a setup or production interval, the
// persistence unit of §4.3(b)/(c): a contiguous span that fits within a
// single shift, carrying a cumulative progress label.
type Fragment struct {
	Start             time.Time
	End               time.Time
	Label             string
	TotalQuantity     int
	CompletedQuantity int
}

// SetupFragments splits a setup_minutes duration starting at start into one
// Fragment per shift it crosses, each labeled "Setup(Nmin)" when it fits in
// a single shift or "Setup(done/total min)" when split. It returns the
// fragments and the cursor at the end of the last one.
func SetupFragments(start time.Time, setupMinutes float64) ([]Fragment, time.Time) {
	cursor := calendar.AdjustToShift(start)
	if setupMinutes <= 0 {
		return nil, cursor
	}

	shiftEnd := calendar.ShiftEnd(cursor)
	available := shiftEnd.Sub(cursor).Minutes()
	if setupMinutes <= available {
		end := cursor.Add(time.Duration(setupMinutes * float64(time.Minute)))
		label := fmt.Sprintf("Setup(%.0fmin)", setupMinutes)
		return []Fragment{{Start: cursor, End: end, Label: label, TotalQuantity: 1, CompletedQuantity: 1}}, end
	}

	var fragments []Fragment
	remaining := setupMinutes
	done := 0.0
	for remaining > 0 {
		shiftEnd = calendar.ShiftEnd(cursor)
		available = shiftEnd.Sub(cursor).Minutes()
		consume := remaining
		if consume > available {
			consume = available
		}
		end := cursor.Add(time.Duration(consume * float64(time.Minute)))
		done += consume
		label := fmt.Sprintf("Setup(%.0f/%.0fmin)", done, setupMinutes)
		fragments = append(fragments, Fragment{Start: cursor, End: end, Label: label, TotalQuantity: 1, CompletedQuantity: 1})
		remaining -= consume
		if remaining > 0 {
			cursor = calendar.NextShiftStart(end)
		} else {
			cursor = end
		}
	}
	return fragments, cursor
}

// ProductionFragments splits a quantity × cycleMinutes production interval
// starting at start into one Fragment per shift it crosses, per §4.3(c).
// Each split fragment's piece count is
// max(1, floor(remaining_pieces × fragment_minutes / remaining_minutes)),
// capped at remaining_pieces; the final fragment absorbs any leftover so
// that Σ pieces == quantity exactly. It returns the fragments and the
// cursor at the end of the last one.
func ProductionFragments(start time.Time, cycleMinutes float64, quantity int) ([]Fragment, time.Time) {
	cursor := calendar.AdjustToShift(start)
	totalMinutes := cycleMinutes * float64(quantity)
	if quantity <= 0 || totalMinutes <= 0 {
		return nil, cursor
	}

	shiftEnd := calendar.ShiftEnd(cursor)
	available := shiftEnd.Sub(cursor).Minutes()
	if totalMinutes <= available {
		end := cursor.Add(time.Duration(totalMinutes * float64(time.Minute)))
		label := fmt.Sprintf("Process(%d/%dpcs)", quantity, quantity)
		return []Fragment{{Start: cursor, End: end, Label: label, TotalQuantity: quantity, CompletedQuantity: quantity}}, end
	}

	var fragments []Fragment
	remainingMinutes := totalMinutes
	remainingPieces := quantity
	completed := 0
	for remainingMinutes > 0 && remainingPieces > 0 {
		shiftEnd = calendar.ShiftEnd(cursor)
		available = shiftEnd.Sub(cursor).Minutes()
		fragmentMinutes := remainingMinutes
		if fragmentMinutes > available {
			fragmentMinutes = available
		}

		var pieces int
		isFinal := fragmentMinutes >= remainingMinutes
		if isFinal {
			pieces = remainingPieces
		} else {
			pieces = int(math.Floor(float64(remainingPieces) * fragmentMinutes / remainingMinutes))
			if pieces < 1 {
				pieces = 1
			}
			if pieces > remainingPieces {
				pieces = remainingPieces
			}
		}

		end := cursor.Add(time.Duration(fragmentMinutes * float64(time.Minute)))
		completed += pieces
		label := fmt.Sprintf("Process(%d/%dpcs)", completed, quantity)
		fragments = append(fragments, Fragment{Start: cursor, End: end, Label: label, TotalQuantity: quantity, CompletedQuantity: completed})
		remainingMinutes -= fragmentMinutes
		remainingPieces -= pieces
		if remainingMinutes > 0 && remainingPieces > 0 {
			cursor = calendar.NextShiftStart(end)
		} else {
			cursor = end
		}
	}
	return fragments, cursor
}
