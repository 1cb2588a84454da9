package modbusadapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mesforge/shopfloor/internal/entity"
)

func ist(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, entity.IST)
}

func TestAccumulateShiftEnergySumsDeltasWithinAShift(t *testing.T) {
	r := &Reader{}

	r.accumulateShiftEnergy(ist(2026, time.January, 6, 9, 0), 100)
	r.accumulateShiftEnergy(ist(2026, time.January, 6, 9, 5), 112)
	r.accumulateShiftEnergy(ist(2026, time.January, 6, 9, 10), 130)

	assert.InDelta(t, 30.0, r.CurrentShiftEnergy().DeliveredKWh, 1e-9)
}

func TestAccumulateShiftEnergyDiscardsNegativeDelta(t *testing.T) {
	r := &Reader{}

	r.accumulateShiftEnergy(ist(2026, time.January, 6, 9, 0), 100)
	r.accumulateShiftEnergy(ist(2026, time.January, 6, 9, 5), 40) // meter reset

	assert.InDelta(t, 0.0, r.CurrentShiftEnergy().DeliveredKWh, 1e-9)
}

func TestAccumulateShiftEnergyResetsOnShiftBoundary(t *testing.T) {
	r := &Reader{}

	r.accumulateShiftEnergy(ist(2026, time.January, 6, 16, 58), 100)
	r.accumulateShiftEnergy(ist(2026, time.January, 6, 16, 59), 105)
	assert.InDelta(t, 5.0, r.CurrentShiftEnergy().DeliveredKWh, 1e-9)

	r.accumulateShiftEnergy(ist(2026, time.January, 6, 17, 1), 108)
	assert.Equal(t, 1, r.CurrentShiftEnergy().Index, "crossing 17:00 must move into the next energy-shift index")
	assert.InDelta(t, 3.0, r.CurrentShiftEnergy().DeliveredKWh, 1e-9, "the fresh bucket still accumulates the delta since the meter's last read")
}
