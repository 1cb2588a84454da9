package status

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
	"github.com/mesforge/shopfloor/internal/repository/memory"
)

type noopOEE struct{ calls int }

func (n *noopOEE) Update(ctx context.Context, now time.Time, machineID uuid.UUID) error {
	n.calls++
	return nil
}

func TestClassifyConnectFailureIsAlwaysOff(t *testing.T) {
	assert.Equal(t, entity.StatusOff, classify(Sample{Connected: false, Running: true}))
}

func TestClassifyEnergyMeterRules(t *testing.T) {
	assert.Equal(t, entity.StatusProduction, classify(Sample{Connected: true, IsEnergyMeter: true, PowerKW: 5, Threshold: 2}))
	assert.Equal(t, entity.StatusIdle, classify(Sample{Connected: true, IsEnergyMeter: true, PowerKW: 0.1, Threshold: 2, Frequency: 50}))
	assert.Equal(t, entity.StatusOff, classify(Sample{Connected: true, IsEnergyMeter: true, PowerKW: 0.1, Threshold: 2, Frequency: 0}))
}

func TestClassifyControllerRunningRule(t *testing.T) {
	assert.Equal(t, entity.StatusProduction, classify(Sample{Connected: true, Running: true}))
	assert.Equal(t, entity.StatusIdle, classify(Sample{Connected: true, Running: false}))
}

func TestIngestWritesHistoryOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase(memory.NewMemoryRepository())
	oee := &noopOEE{}
	engine := NewEngine(db, oee, zerolog.Nop())
	machineID := uuid.New()

	first := Sample{MachineID: machineID, Timestamp: time.Now().UTC(), Connected: true, Running: true, PartCount: 1}
	require.NoError(t, engine.Ingest(ctx, first))

	live, err := db.MachineRawLiveRepository().Get(ctx, machineID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProduction, live.Status)

	raw, err := db.MachineRawRepository().ListByMachineAndWindow(ctx, machineID, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, raw, 1)

	unchanged := Sample{MachineID: machineID, Timestamp: time.Now().UTC(), Connected: true, Running: true, PartCount: 1}
	require.NoError(t, engine.Ingest(ctx, unchanged))

	raw, err = db.MachineRawRepository().ListByMachineAndWindow(ctx, machineID, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, raw, 1, "an unchanged sample must not append a new history row")

	changed := Sample{MachineID: machineID, Timestamp: time.Now().UTC(), Connected: true, Running: false, PartCount: 1}
	require.NoError(t, engine.Ingest(ctx, changed))

	raw, err = db.MachineRawRepository().ListByMachineAndWindow(ctx, machineID, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, raw, 2)
	assert.Equal(t, 3, oee.calls)
}

func TestIngestOpensAndClosesDowntime(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase(memory.NewMemoryRepository())
	engine := NewEngine(db, &noopOEE{}, zerolog.Nop())
	machineID := uuid.New()

	running := Sample{MachineID: machineID, Timestamp: time.Now().UTC(), Connected: true, Running: true}
	require.NoError(t, engine.Ingest(ctx, running))

	_, err := db.MachineDowntimeRepository().GetOpen(ctx, machineID)
	assert.True(t, repository.IsNotFound(err))

	off := Sample{MachineID: machineID, Timestamp: time.Now().UTC(), Connected: false}
	require.NoError(t, engine.Ingest(ctx, off))

	open, err := db.MachineDowntimeRepository().GetOpen(ctx, machineID)
	require.NoError(t, err)
	assert.True(t, open.Open())

	backUp := Sample{MachineID: machineID, Timestamp: time.Now().UTC(), Connected: true, Running: false}
	require.NoError(t, engine.Ingest(ctx, backUp))

	_, err = db.MachineDowntimeRepository().GetOpen(ctx, machineID)
	assert.True(t, repository.IsNotFound(err))
}

type fakeReader struct {
	id      uuid.UUID
	samples chan Sample
	closed  bool
}

func (f *fakeReader) MachineID() uuid.UUID { return f.id }

func (f *fakeReader) Read(ctx context.Context) (Sample, error) {
	select {
	case s := <-f.samples:
		return s, nil
	default:
		return Sample{MachineID: f.id, Timestamp: time.Now().UTC(), Connected: true, Running: true}, nil
	}
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestPollerFlushesOffOnCancellation(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase(memory.NewMemoryRepository())
	engine := NewEngine(db, &noopOEE{}, zerolog.Nop())
	reader := &fakeReader{id: uuid.New(), samples: make(chan Sample, 1)}
	poller := NewPoller(reader, engine, time.Millisecond, "test", zerolog.Nop())

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- poller.Run(runCtx) }()

	time.Sleep(5 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.True(t, reader.closed)

	live, err := db.MachineRawLiveRepository().Get(ctx, reader.id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOff, live.Status)
}
