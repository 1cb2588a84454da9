package calendar

import (
	"fmt"
	"time"

	"github.com/mesforge/shopfloor/internal/entity"
)

// ShiftManager resolves "now" against a configured, possibly midnight-
// crossing, set of shift windows. It is independent of the fixed 06:00-22:00
// window used by the batch scheduler (§4.1): C6 (shift summaries) is the
// only caller of this type.
type ShiftManager struct {
	info entity.ShiftInfo
}

// NewShiftManager builds a manager over an explicit window set. Windows must
// be contiguous and non-overlapping; callers constructing them from
// configuration are responsible for that invariant.
func NewShiftManager(info entity.ShiftInfo) *ShiftManager {
	return &ShiftManager{info: info}
}

// ThreeShiftDefault returns the reference three-8-hour-shift layout
// (06:00-14:00, 14:00-22:00, 22:00-06:00) used when no explicit ShiftInfo is
// configured.
func ThreeShiftDefault() entity.ShiftInfo {
	return entity.ShiftInfo{
		Windows: []entity.ShiftWindow{
			{ShiftID: 1, Start: 6 * time.Hour, End: 14 * time.Hour},
			{ShiftID: 2, Start: 14 * time.Hour, End: 22 * time.Hour},
			{ShiftID: 3, Start: 22 * time.Hour, End: 6 * time.Hour},
		},
	}
}

// CurrentShift returns the (shiftID, start, end) triple for the window
// covering now, with the end date advanced by one day when the matched
// window crosses midnight.
func (m *ShiftManager) CurrentShift(now time.Time) (shiftID int, start, end time.Time, err error) {
	ist := now.In(entity.IST)
	dayStart := startOfDay(ist)
	offset := ist.Sub(dayStart)

	for _, w := range m.info.Windows {
		if w.CrossesMidnight() {
			if offset >= w.Start || offset < w.End {
				s := dayStart.Add(w.Start)
				e := dayStart.Add(w.End)
				if offset < w.End {
					// now is past midnight, in the tail of yesterday's shift
					s = s.AddDate(0, 0, -1)
				} else {
					e = e.AddDate(0, 0, 1)
				}
				return w.ShiftID, s, e, nil
			}
			continue
		}
		if offset >= w.Start && offset < w.End {
			return w.ShiftID, dayStart.Add(w.Start), dayStart.Add(w.End), nil
		}
	}
	return 0, time.Time{}, time.Time{}, fmt.Errorf("calendar: no shift window covers %s", ist.Format(time.RFC3339))
}

// ShiftLength returns the configured duration of the window identified by
// shiftID, or an error if no such window exists.
func (m *ShiftManager) ShiftLength(shiftID int) (time.Duration, error) {
	for _, w := range m.info.Windows {
		if w.ShiftID != shiftID {
			continue
		}
		if w.CrossesMidnight() {
			return 24*time.Hour - w.Start + w.End, nil
		}
		return w.End - w.Start, nil
	}
	return 0, fmt.Errorf("calendar: unknown shift id %d", shiftID)
}

// HasShiftChanged reports whether the shift covering `now` differs from the
// shift covering `prev`, used by pollers to detect shift-boundary crossings
// without recomputing a full summary on every sample.
func (m *ShiftManager) HasShiftChanged(prev, now time.Time) (bool, error) {
	prevID, prevStart, _, err := m.CurrentShift(prev)
	if err != nil {
		return false, err
	}
	nowID, nowStart, _, err := m.CurrentShift(now)
	if err != nil {
		return false, err
	}
	return prevID != nowID || !prevStart.Equal(nowStart), nil
}
