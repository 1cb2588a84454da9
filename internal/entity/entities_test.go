package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMachineIsSentinel(t *testing.T) {
	m := &Machine{Name: SentinelMachineName}
	assert.True(t, m.IsSentinel())

	real := &Machine{Name: "CNC-07"}
	assert.False(t, real.IsSentinel())
}

func TestPartScheduleStatusActivateIsIdempotent(t *testing.T) {
	first := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	p := &PartScheduleStatus{State: PartStateInactive}
	p.Activate(first)
	assert.Equal(t, PartStateActive, p.State)
	assert.Equal(t, first, p.ActivationTimestamp)

	// re-activating an already-active part must not move the timestamp
	p.Activate(second)
	assert.Equal(t, first, p.ActivationTimestamp)
}

func TestPartScheduleStatusReactivateAfterDeactivateAdvancesTimestamp(t *testing.T) {
	first := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	p := &PartScheduleStatus{State: PartStateInactive}
	p.Activate(first)
	p.Deactivate()
	assert.Equal(t, PartStateInactive, p.State)

	p.Activate(second)
	assert.Equal(t, second, p.ActivationTimestamp)
}

func TestMachineRawLiveDiffersFrom(t *testing.T) {
	live := MachineRawLive{MachineID: uuid.New(), Status: StatusIdle, PartCount: 10}

	same := MachineRawLive{Status: StatusIdle, PartCount: 10}
	assert.False(t, live.DiffersFrom(same))

	changed := MachineRawLive{Status: StatusProduction, PartCount: 10}
	assert.True(t, live.DiffersFrom(changed))

	countChanged := MachineRawLive{Status: StatusIdle, PartCount: 11}
	assert.True(t, live.DiffersFrom(countChanged))
}

func TestStatusCodeString(t *testing.T) {
	assert.Equal(t, "OFF", StatusOff.String())
	assert.Equal(t, "IDLE", StatusIdle.String())
	assert.Equal(t, "PRODUCTION", StatusProduction.String())
}

func TestShiftWindowCrossesMidnight(t *testing.T) {
	day := ShiftWindow{ShiftID: 1, Start: 6 * time.Hour, End: 14 * time.Hour}
	assert.False(t, day.CrossesMidnight())

	night := ShiftWindow{ShiftID: 3, Start: 22 * time.Hour, End: 6 * time.Hour}
	assert.True(t, night.CrossesMidnight())
}

func TestShiftSummaryLosses(t *testing.T) {
	s := &ShiftSummary{Availability: 0.8, Performance: 0.75, Quality: 0.9, OEE: 0.54}
	assert.InDelta(t, 0.2, s.AvailabilityLoss(), 1e-9)
	assert.InDelta(t, 0.25, s.PerformanceLoss(), 1e-9)
	assert.InDelta(t, 0.1, s.QualityLoss(), 1e-9)
	assert.InDelta(t, 0.46, s.OEELoss(), 1e-9)
}

func TestMachineDowntimeOpenClose(t *testing.T) {
	opened := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	d := &MachineDowntime{OpenDT: opened}
	assert.True(t, d.Open())

	closed := opened.Add(15 * time.Minute)
	d.Close(closed)
	assert.False(t, d.Open())
	assert.Equal(t, closed, *d.ClosedDT)
}

func TestOrderKey(t *testing.T) {
	o := &Order{PartNumber: "PN-100", ProductionOrder: "PO-7"}
	assert.Equal(t, "PN-100|PO-7", o.Key())
}

func TestValidateStatusCode(t *testing.T) {
	assert.True(t, ValidateStatusCode(0))
	assert.True(t, ValidateStatusCode(1))
	assert.True(t, ValidateStatusCode(2))
	assert.False(t, ValidateStatusCode(3))
	assert.False(t, ValidateStatusCode(-1))
}
