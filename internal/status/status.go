// Package status implements the live status engine (C5): it classifies raw
// device samples into the closed OFF/IDLE/PRODUCTION enumeration, maintains
// the per-machine live row and its edge-triggered history, and drives the
// downtime ledger and the shift-summary refresh.
package status

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/metrics"
	"github.com/mesforge/shopfloor/internal/repository"
)

// Sample is the normalized reading a protocol adapter produces on each poll.
// The classification table and write policy operate only on this shape, so
// they live once in the engine rather than being duplicated per adapter.
type Sample struct {
	MachineID uuid.UUID
	Timestamp time.Time

	// Connected is false on a connect failure or read timeout; any other
	// field is meaningless when this is false and the engine treats the
	// sample as OFF.
	Connected bool

	// Running is set by the OPC UA and LSV2 adapters when the controller
	// reports its program in a running state.
	Running bool

	// IsEnergyMeter routes classification through the energy-meter rule
	// instead of the controller-running rule.
	IsEnergyMeter bool
	PowerKW       float64
	Frequency     float64
	Threshold     float64

	OpMode          string
	SelectedProgram string
	ActiveProgram   string
	PartCount       int
	ScheduledJob    string
	ActualJob       string
}

// Reader polls a single device for a single machine's status.
type Reader interface {
	MachineID() uuid.UUID
	Read(ctx context.Context) (Sample, error)
	Close() error
}

// OEEUpdater is the C6 refresh hook the engine calls after every write.
type OEEUpdater interface {
	Update(ctx context.Context, now time.Time, machineID uuid.UUID) error
}

// classify applies the §4.5 decision table. Connection failure dominates
// every other field; the energy-meter and controller-running rules are
// mutually exclusive branches of the same sample.
func classify(s Sample) entity.StatusCode {
	if !s.Connected {
		return entity.StatusOff
	}
	if s.IsEnergyMeter {
		switch {
		case math.Abs(s.PowerKW) > s.Threshold:
			return entity.StatusProduction
		case s.Frequency > 0:
			return entity.StatusIdle
		default:
			return entity.StatusOff
		}
	}
	if s.Running {
		return entity.StatusProduction
	}
	return entity.StatusIdle
}

// Engine owns the classification, write policy and downtime bookkeeping
// shared by every protocol adapter.
type Engine struct {
	db  repository.Database
	oee OEEUpdater
	log zerolog.Logger
}

// NewEngine builds an Engine writing through db and refreshing OEE via oee.
func NewEngine(db repository.Database, oee OEEUpdater, log zerolog.Logger) *Engine {
	return &Engine{db: db, oee: oee, log: log.With().Str("component", "status").Logger()}
}

// Ingest applies one sample: it always refreshes MachineRawLive, appends a
// MachineRaw history row only when a classified field changed, opens or
// closes a MachineDowntime on an OFF transition, and finally asks C6 to
// refresh the shift summary.
func (e *Engine) Ingest(ctx context.Context, sample Sample) error {
	newStatus := classify(sample)

	candidate := entity.MachineRawLive{
		MachineID:       sample.MachineID,
		Status:          newStatus,
		OpMode:          sample.OpMode,
		SelectedProgram: sample.SelectedProgram,
		ActiveProgram:   sample.ActiveProgram,
		PartCount:       sample.PartCount,
		ScheduledJob:    sample.ScheduledJob,
		ActualJob:       sample.ActualJob,
		SampleTime:      sample.Timestamp,
	}

	prev, err := e.db.MachineRawLiveRepository().Get(ctx, sample.MachineID)
	prevExists := err == nil
	if err != nil && !repository.IsNotFound(err) {
		return err
	}

	if prevExists {
		candidate.ScheduledOperationID = prev.ScheduledOperationID
		candidate.ActualOperationID = prev.ActualOperationID
	}

	changed := !prevExists || prev.DiffersFrom(candidate)

	if err := e.db.MachineRawLiveRepository().Upsert(ctx, &candidate); err != nil {
		return err
	}
	recordMachineStatusGauge(sample.MachineID, newStatus)

	if changed {
		if err := e.db.MachineRawRepository().Append(ctx, &entity.MachineRaw{
			ID:              uuid.New(),
			MachineID:       sample.MachineID,
			Status:          newStatus,
			OpMode:          sample.OpMode,
			SelectedProgram: sample.SelectedProgram,
			ActiveProgram:   sample.ActiveProgram,
			PartCount:       sample.PartCount,
			ScheduledJob:    sample.ScheduledJob,
			ActualJob:       sample.ActualJob,
			Timestamp:       sample.Timestamp,
		}); err != nil {
			return err
		}
	}

	var prevStatus *entity.StatusCode
	if prevExists {
		prevStatus = &prev.Status
	}
	if err := e.handleDowntimeTransition(ctx, sample.MachineID, prevStatus, newStatus, sample.Timestamp); err != nil {
		return err
	}

	if e.oee != nil {
		if err := e.oee.Update(ctx, sample.Timestamp, sample.MachineID); err != nil {
			e.log.Warn().Err(err).Str("machine_id", sample.MachineID.String()).Msg("shift summary refresh failed")
		}
	}

	return nil
}

func (e *Engine) handleDowntimeTransition(ctx context.Context, machineID uuid.UUID, prevStatus *entity.StatusCode, newStatus entity.StatusCode, at time.Time) error {
	wasOff := prevStatus != nil && *prevStatus == entity.StatusOff
	isOff := newStatus == entity.StatusOff

	downtimes := e.db.MachineDowntimeRepository()

	switch {
	case isOff && !wasOff:
		_, err := downtimes.GetOpen(ctx, machineID)
		if err == nil {
			return nil // already open, nothing to do
		}
		if !repository.IsNotFound(err) {
			return err
		}
		if err := downtimes.Create(ctx, &entity.MachineDowntime{
			ID:        uuid.New(),
			MachineID: machineID,
			OpenDT:    at,
		}); err != nil {
			return err
		}
		metrics.MachineDowntimeOpen.WithLabelValues(machineID.String()).Set(1)
		return nil
	case !isOff && wasOff:
		open, err := downtimes.GetOpen(ctx, machineID)
		if repository.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := downtimes.Close(ctx, open.ID, at); err != nil {
			return err
		}
		metrics.MachineDowntimeOpen.WithLabelValues(machineID.String()).Set(0)
		return nil
	default:
		return nil
	}
}

// recordMachineStatusGauge sets the gauge for machineID's current status to
// 1 and every other status to 0, so dashboards can sum across machines
// without double-counting a stale value from a prior classification.
func recordMachineStatusGauge(machineID uuid.UUID, current entity.StatusCode) {
	label := machineID.String()
	for _, status := range []entity.StatusCode{entity.StatusOff, entity.StatusIdle, entity.StatusProduction} {
		value := 0.0
		if status == current {
			value = 1
		}
		metrics.MachineStatus.WithLabelValues(label, status.String()).Set(value)
	}
}

// Poller repeatedly reads one device at a fixed interval and feeds samples
// to the engine, flushing a final OFF record and closing the device on
// cancellation.
type Poller struct {
	reader   Reader
	engine   *Engine
	interval time.Duration
	protocol string
	log      zerolog.Logger
}

// NewPoller builds a Poller for reader, ticking at interval. protocol labels
// the collector metrics this poller feeds (e.g. "opcua", "lsv2", "modbus").
func NewPoller(reader Reader, engine *Engine, interval time.Duration, protocol string, log zerolog.Logger) *Poller {
	return &Poller{reader: reader, engine: engine, interval: interval, protocol: protocol, log: log}
}

// Run blocks until ctx is cancelled, then flushes a final OFF record and
// returns the reader's Close error. A read error does not end the loop: it
// is logged and ingested as a disconnected sample.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.flushOff()
			return p.reader.Close()
		case <-ticker.C:
			sample, err := p.reader.Read(ctx)
			if err != nil {
				p.log.Warn().Err(err).Str("machine_id", p.reader.MachineID().String()).Msg("device read failed")
				metrics.CollectorPollErrors.WithLabelValues(p.protocol).Inc()
				sample = Sample{MachineID: p.reader.MachineID(), Timestamp: time.Now().UTC(), Connected: false}
			}
			metrics.CollectorSamplesTotal.WithLabelValues(p.protocol).Inc()
			if err := p.engine.Ingest(ctx, sample); err != nil {
				p.log.Error().Err(err).Str("machine_id", p.reader.MachineID().String()).Msg("ingest failed")
			}
		}
	}
}

func (p *Poller) flushOff() {
	final := Sample{MachineID: p.reader.MachineID(), Timestamp: time.Now().UTC(), Connected: false}
	if err := p.engine.Ingest(context.Background(), final); err != nil {
		p.log.Error().Err(err).Str("machine_id", p.reader.MachineID().String()).Msg("final OFF flush failed")
	}
}

// RunPollers runs every poller concurrently, one goroutine per device,
// coordinated through a shared context and error group rather than ad hoc
// channels. It returns once every poller has returned: normally after ctx
// is cancelled and each has flushed its final OFF record. A poller error
// cancels the shared context for the others, and the first error is
// returned after they have all stopped.
func RunPollers(ctx context.Context, pollers []*Poller) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range pollers {
		p := p
		g.Go(func() error { return p.Run(gctx) })
	}
	return g.Wait()
}
