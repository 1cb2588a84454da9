package lsv2adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstMatchExtractsExecutionState(t *testing.T) {
	raw := "EXECUTION_STATE: EXECUTION_STATE_RUN\nPROGRAM_STACK: \"MAIN.H\"\n"
	assert.Equal(t, "EXECUTION_STATE_RUN", firstMatch(executionStateRe, raw))
	assert.Equal(t, "MAIN.H", firstMatch(programStackRe, raw))
}

func TestFirstMatchReturnsEmptyOnNoMatch(t *testing.T) {
	assert.Equal(t, "", firstMatch(executionStateRe, "garbage\n"))
}

func TestReadMarkerBoolean(t *testing.T) {
	r := &Reader{cfg: Config{Marker: MarkerBoolean}}
	assert.True(t, r.readMarker("M4170: 1\n"))
	assert.False(t, r.readMarker("M4170: 0\n"))
}

func TestReadMarkerDWord(t *testing.T) {
	r := &Reader{cfg: Config{Marker: MarkerDWord}}
	assert.True(t, r.readMarker("DWORD 2592: 255\n"))
	assert.False(t, r.readMarker("DWORD 2592: 12\n"))
}

func TestObserveMarkerCountsOnlyRisingEdges(t *testing.T) {
	r := &Reader{cfg: Config{Marker: MarkerBoolean}}

	r.observeMarker(true) // first observation seeds the detector, no increment
	assert.Equal(t, 0, r.partCount)

	r.observeMarker(true) // stays high: no further increments
	assert.Equal(t, 0, r.partCount)

	r.observeMarker(false)
	r.observeMarker(true) // falls then rises again: one new completion
	assert.Equal(t, 1, r.partCount)
}
