package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupFragmentsWithinShiftIsSingleFragment(t *testing.T) {
	start := ist(2026, time.January, 6, 8, 0)
	fragments, end := SetupFragments(start, 30)
	assert.True(t, end.Equal(start.Add(30*time.Minute)))
	require.Len(t, fragments, 1)
	assert.Equal(t, "Setup(30min)", fragments[0].Label)
	assert.Equal(t, 1, fragments[0].TotalQuantity)
	assert.Equal(t, 1, fragments[0].CompletedQuantity)
}

func TestSetupFragmentsSplitsAcrossShiftBoundary(t *testing.T) {
	// Shift ends at 22:00; starting 10 minutes before end with a 30-minute
	// setup forces a split into a 10-minute fragment and a 20-minute one.
	start := ist(2026, time.January, 6, 21, 50)
	fragments, end := SetupFragments(start, 30)
	require.Len(t, fragments, 2)
	assert.Equal(t, "Setup(10/30min)", fragments[0].Label)
	assert.True(t, fragments[0].End.Equal(ist(2026, time.January, 6, 22, 0)))
	assert.Equal(t, "Setup(30/30min)", fragments[1].Label)
	assert.True(t, fragments[1].Start.Equal(ist(2026, time.January, 7, 6, 0)))
	assert.True(t, end.Equal(ist(2026, time.January, 7, 6, 20)))
}

func TestProductionFragmentsWithinShiftIsSingleFragment(t *testing.T) {
	start := ist(2026, time.January, 6, 8, 0)
	fragments, end := ProductionFragments(start, 5, 10)
	assert.True(t, end.Equal(start.Add(50*time.Minute)))
	require.Len(t, fragments, 1)
	assert.Equal(t, "Process(10/10pcs)", fragments[0].Label)
	assert.Equal(t, 10, fragments[0].CompletedQuantity)
}

func TestProductionFragmentsSplitsAcrossShiftBoundaryAndConservesQuantity(t *testing.T) {
	// 100 minutes of production (20 pcs @ 5min) starting 40 minutes before
	// shift end forces a split: 40 minutes in shift one, 60 in shift two.
	start := ist(2026, time.January, 6, 21, 20)
	fragments, end := ProductionFragments(start, 5, 20)
	require.Len(t, fragments, 2)
	assert.Equal(t, 20, fragments[len(fragments)-1].CompletedQuantity,
		"cumulative completed in the final fragment equals the full quantity")
	assert.True(t, end.Equal(ist(2026, time.January, 7, 7, 0)))
}

func TestProductionFragmentsSingleQuantityExitsAfterFirstFragment(t *testing.T) {
	// A single piece whose cycle time spans a shift boundary is entirely
	// consumed by the fragment that reaches 1 completed piece; the loop's
	// remaining_pieces > 0 guard then exits, matching the source algorithm's
	// early-exit quirk for unit quantities.
	start := ist(2026, time.January, 6, 21, 50)
	fragments, _ := ProductionFragments(start, 20, 1)
	require.Len(t, fragments, 1)
	assert.Equal(t, 1, fragments[0].CompletedQuantity)
}
