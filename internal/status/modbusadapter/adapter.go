// Package modbusadapter implements the status.Reader for RTU energy meters
// polled over 9600-7-E-2 serial Modbus ASCII. It classifies a machine by
// comparing delivered active power against its configured threshold and
// tracks the delivered-energy counter edge-triggered, per §4.5/§6.
package modbusadapter

import (
	"context"
	"time"

	"github.com/goburrow/modbus"
	"github.com/google/uuid"

	"github.com/mesforge/shopfloor/internal/calendar"
	"github.com/mesforge/shopfloor/internal/status"
)

// Registers is the per-meter holding-register map. Offsets vary by meter
// model, so they are configured rather than hardcoded.
type Registers struct {
	ActivePower    uint16 // signed, kW
	Frequency      uint16 // Hz
	ActiveEnergy   uint16 // cumulative delivered energy counter
}

// Config describes one energy meter on an RS-485 bus.
type Config struct {
	MachineID uuid.UUID
	SerialURL string // e.g. /dev/ttyUSB0
	SlaveID   byte
	Registers Registers
	Threshold float64 // kW; |power| above this classifies PRODUCTION
	Timeout   time.Duration // default 1s
}

// ShiftEnergy is one completed or in-progress energy-shift rollup bucket,
// kept for collector-side display only; it is never written into ShiftSummary.
type ShiftEnergy struct {
	Index      int
	Start      time.Time
	DeliveredKWh float64
}

// Reader polls one meter's holding registers over Modbus RTU ASCII.
type Reader struct {
	cfg        Config
	handler    *modbus.ASCIIClientHandler
	client     modbus.Client
	lastEnergy float64
	seenEnergy bool
	shift      ShiftEnergy
}

// New builds a Reader for cfg. The serial port opens lazily on the first
// Read so construction never blocks on I/O.
func New(cfg Config) *Reader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	return &Reader{cfg: cfg}
}

func (r *Reader) MachineID() uuid.UUID { return r.cfg.MachineID }

func (r *Reader) connect() error {
	if r.client != nil {
		return nil
	}
	handler := modbus.NewASCIIClientHandler(r.cfg.SerialURL)
	handler.BaudRate = 9600
	handler.DataBits = 7
	handler.Parity = "E"
	handler.StopBits = 2
	handler.SlaveId = r.cfg.SlaveID
	handler.Timeout = r.cfg.Timeout
	if err := handler.Connect(); err != nil {
		return err
	}
	r.handler = handler
	r.client = modbus.NewClient(handler)
	return nil
}

// Read implements status.Reader. A connect or read failure reports a
// disconnected sample, matching the §4.5 OFF-on-failure rule.
func (r *Reader) Read(ctx context.Context) (status.Sample, error) {
	now := time.Now().UTC()
	offSample := status.Sample{MachineID: r.cfg.MachineID, Timestamp: now, Connected: false}

	if err := r.connect(); err != nil {
		return offSample, nil
	}

	power, err := r.readFloat(r.cfg.Registers.ActivePower)
	if err != nil {
		r.disconnect()
		return offSample, nil
	}
	frequency, err := r.readFloat(r.cfg.Registers.Frequency)
	if err != nil {
		r.disconnect()
		return offSample, nil
	}
	energy, err := r.readFloat(r.cfg.Registers.ActiveEnergy)
	if err != nil {
		r.disconnect()
		return offSample, nil
	}

	r.accumulateShiftEnergy(now, energy)

	return status.Sample{
		MachineID:     r.cfg.MachineID,
		Timestamp:     now,
		Connected:     true,
		IsEnergyMeter: true,
		PowerKW:       power,
		Frequency:     frequency,
		Threshold:     r.cfg.Threshold,
	}, nil
}

// readFloat reads the two-register pair starting at addr as a 32-bit
// big-endian signed integer, matching the meter's register encoding.
func (r *Reader) readFloat(addr uint16) (float64, error) {
	raw, err := r.client.ReadHoldingRegisters(addr, 2)
	if err != nil {
		return 0, err
	}
	bits := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	return float64(int32(bits)), nil
}

// accumulateShiftEnergy folds a new delivered-energy counter reading into
// the collector's own §4.1 energy-shift display rollup. The counter only
// ever increases; a negative delta means a meter reset or a glitched read
// and is discarded rather than folded into the running total. Crossing an
// EnergyShiftWindow boundary starts a fresh bucket.
func (r *Reader) accumulateShiftEnergy(now time.Time, energy float64) {
	index, start := calendar.EnergyShiftWindow(now)
	if index != r.shift.Index || !start.Equal(r.shift.Start) {
		r.shift = ShiftEnergy{Index: index, Start: start}
	}

	if r.seenEnergy && energy >= r.lastEnergy {
		r.shift.DeliveredKWh += energy - r.lastEnergy
	}
	r.lastEnergy = energy
	r.seenEnergy = true
}

// CurrentShiftEnergy returns the in-progress energy-shift display bucket.
// It is informational only and is never fed into ShiftSummary.
func (r *Reader) CurrentShiftEnergy() ShiftEnergy { return r.shift }

func (r *Reader) disconnect() {
	if r.handler != nil {
		_ = r.handler.Close()
		r.handler = nil
		r.client = nil
	}
}

// Close implements status.Reader.
func (r *Reader) Close() error {
	r.disconnect()
	return nil
}
