package calendar

import (
	"testing"
	"time"

	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentShiftDayWindow(t *testing.T) {
	mgr := NewShiftManager(ThreeShiftDefault())
	now := ist(2026, time.January, 5, 9, 0)

	id, start, end, err := mgr.CurrentShift(now)
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Equal(t, 6, start.Hour())
	assert.Equal(t, 14, end.Hour())
}

func TestCurrentShiftMidnightCrossing(t *testing.T) {
	mgr := NewShiftManager(ThreeShiftDefault())

	// 23:00 falls within the 22:00-06:00 shift that started today
	lateNight := ist(2026, time.January, 5, 23, 0)
	id, start, end, err := mgr.CurrentShift(lateNight)
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	assert.Equal(t, 5, start.Day())
	assert.Equal(t, 6, end.Day())

	// 02:00 falls within the same shift, but it began yesterday
	earlyMorning := ist(2026, time.January, 6, 2, 0)
	id2, start2, end2, err := mgr.CurrentShift(earlyMorning)
	require.NoError(t, err)
	assert.Equal(t, 3, id2)
	assert.Equal(t, 5, start2.Day())
	assert.Equal(t, 6, end2.Day())
}

func TestShiftLength(t *testing.T) {
	mgr := NewShiftManager(ThreeShiftDefault())

	l, err := mgr.ShiftLength(1)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, l)

	crossing, err := mgr.ShiftLength(3)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, crossing)
}

func TestHasShiftChanged(t *testing.T) {
	mgr := NewShiftManager(ThreeShiftDefault())

	prev := ist(2026, time.January, 5, 13, 59)
	now := ist(2026, time.January, 5, 14, 1)

	changed, err := mgr.HasShiftChanged(prev, now)
	require.NoError(t, err)
	assert.True(t, changed)

	sameShift, err := mgr.HasShiftChanged(prev, prev.Add(1*time.Minute))
	require.NoError(t, err)
	assert.False(t, sameShift)
}

func TestCurrentShiftUnknownWindow(t *testing.T) {
	mgr := NewShiftManager(entity.ShiftInfo{})
	_, _, _, err := mgr.CurrentShift(time.Now())
	assert.Error(t, err)
}
