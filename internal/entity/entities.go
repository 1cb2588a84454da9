package entity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Type aliases for domain IDs and temporal types
type (
	OrderID               = uuid.UUID
	OperationID           = uuid.UUID
	WorkCenterID          = uuid.UUID
	MachineID             = uuid.UUID
	PlannedScheduleItemID = uuid.UUID
	ScheduleVersionID     = uuid.UUID
	ProductionLogID       = uuid.UUID
	MachineRawID          = uuid.UUID
	MachineDowntimeID     = uuid.UUID
	Date                  = time.Time
	Time                  = time.Time
)

// IST is the shop-floor presentation timezone (UTC+5:30). Persistence is
// always UTC; IST is used only when formatting operator-facing timestamps.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// Now returns the current instant in UTC, the storage timezone for every
// timestamp field in this package.
func Now() time.Time {
	return time.Now().UTC()
}

func NowPtr() *time.Time {
	now := Now()
	return &now
}

// SentinelMachineName marks the placeholder machine used by unplanned or
// not-yet-routed operations. Operations bound to it are never scheduled.
const SentinelMachineName = "Default/Default/Default"

// Order is a part number x production order with a required quantity and a
// priority. Identity is the (PartNumber, ProductionOrder) pair; ID is a
// surrogate key for foreign references.
type Order struct {
	ID               OrderID    `json:"id"`
	PartNumber       string     `json:"part_number"`
	ProductionOrder  string     `json:"production_order"`
	RequiredQuantity int        `json:"required_quantity"`
	LaunchedQuantity int        `json:"launched_quantity"`
	Priority         int        `json:"priority"` // lower value = higher priority
	DeliveryDate     *time.Time `json:"delivery_date,omitempty"`
	RawMaterial      string     `json:"raw_material,omitempty"`
	Project          string     `json:"project,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Key returns the (part_number, production_order) identity tuple.
func (o *Order) Key() string {
	return o.PartNumber + "|" + o.ProductionOrder
}

// WorkCenter groups machines and gates whether they participate in scheduling.
type WorkCenter struct {
	ID            WorkCenterID `json:"id"`
	Name          string       `json:"name"`
	IsSchedulable bool         `json:"is_schedulable"`
}

// Machine is bound to exactly one WorkCenter.
type Machine struct {
	ID           MachineID    `json:"id"`
	Name         string       `json:"name"`
	WorkCenterID WorkCenterID `json:"work_center_id"`
}

// IsSentinel reports whether this machine is the "Default/Default/Default"
// placeholder that the scheduler filters out unconditionally.
func (m *Machine) IsSentinel() bool {
	return m.Name == SentinelMachineName
}

// Operation belongs to exactly one Order and is processed in ascending
// OperationNumber order within that Order.
type Operation struct {
	ID                  OperationID `json:"id"`
	OrderID             OrderID     `json:"order_id"`
	OperationNumber     int         `json:"operation_number"`
	OperationDescription string     `json:"operation_description"`
	MachineID           MachineID   `json:"machine_id"`
	WorkCenterID        WorkCenterID `json:"work_center_id"`
	SetupMinutes        float64     `json:"setup_minutes"`
	IdealCycleMinutes   float64     `json:"ideal_cycle_minutes"`
}

// DefaultSetupMinutes and DefaultCycleMinutes are substituted when an
// Operation definition is missing; the scheduler warns but never aborts.
const (
	DefaultSetupMinutes = 30.0
	DefaultCycleMinutes = 5.0
)

// PartScheduleState is the activation state of a production order.
type PartScheduleState string

const (
	PartStateActive   PartScheduleState = "active"
	PartStateInactive PartScheduleState = "inactive"
)

// PartScheduleStatus is created lazily on first activation and never deleted.
// ActivationTimestamp only advances on an inactive -> active transition; a
// re-activation of an already-active part is a no-op.
type PartScheduleStatus struct {
	ProductionOrder      string            `json:"production_order"`
	State                PartScheduleState `json:"state"`
	ActivationTimestamp  time.Time         `json:"activation_timestamp"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// Activate transitions the status to active, advancing ActivationTimestamp
// only if the part was previously inactive (idempotent re-activation).
func (p *PartScheduleStatus) Activate(at time.Time) {
	if p.State == PartStateActive {
		return
	}
	p.State = PartStateActive
	p.ActivationTimestamp = at
	p.UpdatedAt = Now()
}

// Deactivate marks the part inactive without touching ActivationTimestamp.
func (p *PartScheduleStatus) Deactivate() {
	if p.State == PartStateInactive {
		return
	}
	p.State = PartStateInactive
	p.UpdatedAt = Now()
}

// ScheduleItemStatus is the lifecycle state of a PlannedScheduleItem.
type ScheduleItemStatus string

const (
	ItemScheduled   ScheduleItemStatus = "scheduled"
	ItemInProgress  ScheduleItemStatus = "in_progress"
	ItemCompleted   ScheduleItemStatus = "completed"
	ItemInvalidated ScheduleItemStatus = "invalidated"
)

// PlannedScheduleItem is the dedup key (Order, Operation, Machine,
// TotalQuantity, InitialStartTime, InitialEndTime) for one generation run; it
// owns a set of ScheduleVersions, exactly one of which is active. The batch
// scheduler (C3) emits one item per shift-fragment of an operation's setup or
// production interval, not one per operation; QuantityLabel carries that
// fragment's progress label (e.g. "Setup(85/291min)", "Process(85/291pcs)").
type PlannedScheduleItem struct {
	ID                PlannedScheduleItemID `json:"id"`
	OrderID           OrderID               `json:"order_id"`
	OperationID       OperationID           `json:"operation_id"`
	MachineID         MachineID             `json:"machine_id"`
	TotalQuantity     int                   `json:"total_quantity"`
	InitialStartTime  time.Time             `json:"initial_start_time"`
	InitialEndTime    time.Time             `json:"initial_end_time"`
	QuantityLabel     string                `json:"quantity_label"`
	RemainingQuantity int                   `json:"remaining_quantity"`
	Status            ScheduleItemStatus    `json:"status"`
	CurrentVersion    int                   `json:"current_version"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// DedupKey identifies exact-duplicate generation runs per §4.3.
func (p *PlannedScheduleItem) DedupKey() string {
	return p.OrderID.String() + "|" + p.OperationID.String() + "|" + p.MachineID.String() + "|" +
		strconv.Itoa(p.TotalQuantity) + "|" + p.InitialStartTime.String() + "|" + p.InitialEndTime.String()
}

// ScheduleVersion is a child of a PlannedScheduleItem. At most one version
// per item may have IsActive = true.
type ScheduleVersion struct {
	ID                ScheduleVersionID     `json:"id"`
	ItemID            PlannedScheduleItemID `json:"item_id"`
	VersionNumber     int                   `json:"version_number"`
	PlannedStartTime  time.Time             `json:"planned_start_time"`
	PlannedEndTime    time.Time             `json:"planned_end_time"`
	PlannedQuantity   int                   `json:"planned_quantity"`
	CompletedQuantity int                   `json:"completed_quantity"`
	RemainingQuantity int                   `json:"remaining_quantity"`
	IsActive          bool                  `json:"is_active"`
	CreatedAt         time.Time             `json:"created_at"`
}

// ProductionLog records operator-supplied actuals against an Operation,
// optionally tied to the ScheduleVersion in force when the work happened.
type ProductionLog struct {
	ID                ProductionLogID    `json:"id"`
	OperationID       OperationID        `json:"operation_id"`
	ScheduleVersionID *ScheduleVersionID `json:"schedule_version_id,omitempty"`
	MachineID         *MachineID         `json:"machine_id,omitempty"`
	StartTime         time.Time          `json:"start_time"`
	EndTime           *time.Time         `json:"end_time,omitempty"`
	QuantityCompleted int                `json:"quantity_completed"`
	QuantityRejected  int                `json:"quantity_rejected"`
	Notes             string             `json:"notes,omitempty"`
}

// Closed reports whether the log has both an end time and a completed qty,
// the condition C4 requires before a log contributes to a reschedule group.
func (l *ProductionLog) Closed() bool {
	return l.EndTime != nil && l.QuantityCompleted > 0
}

// StatusCode is the closed three-value machine status enumeration.
type StatusCode int

const (
	StatusOff        StatusCode = 0
	StatusIdle       StatusCode = 1
	StatusProduction StatusCode = 2
)

func (s StatusCode) String() string {
	switch s {
	case StatusOff:
		return "OFF"
	case StatusIdle:
		return "IDLE"
	case StatusProduction:
		return "PRODUCTION"
	default:
		return "UNKNOWN"
	}
}

// StatusLookup binds the closed status enumeration; bound once at startup
// and passed by value rather than referenced through a package-level map.
type StatusLookup struct {
	Code  StatusCode
	Label string
}

// DefaultStatusLookup is the canonical {0,1,2} -> {OFF,IDLE,PRODUCTION} table.
func DefaultStatusLookup() []StatusLookup {
	return []StatusLookup{
		{Code: StatusOff, Label: "OFF"},
		{Code: StatusIdle, Label: "IDLE"},
		{Code: StatusProduction, Label: "PRODUCTION"},
	}
}

// MachineRawLive is the single current-state row per machine.
type MachineRawLive struct {
	MachineID           MachineID    `json:"machine_id"`
	Status              StatusCode   `json:"status"`
	OpMode              string       `json:"op_mode,omitempty"`
	SelectedProgram     string       `json:"selected_program,omitempty"`
	ActiveProgram       string       `json:"active_program,omitempty"`
	PartCount           int          `json:"part_count"`
	ScheduledOperationID *OperationID `json:"scheduled_operation_id,omitempty"`
	ActualOperationID    *OperationID `json:"actual_operation_id,omitempty"`
	ScheduledJob        string       `json:"scheduled_job,omitempty"`
	ActualJob           string       `json:"actual_job,omitempty"`
	SampleTime          time.Time    `json:"sample_time"`
}

// DiffersFrom reports whether any classified field of a new sample differs
// from this live row, per the §4.5 edge-triggered history write policy.
func (m *MachineRawLive) DiffersFrom(sample MachineRawLive) bool {
	return m.Status != sample.Status ||
		m.OpMode != sample.OpMode ||
		m.SelectedProgram != sample.SelectedProgram ||
		m.ActiveProgram != sample.ActiveProgram ||
		m.PartCount != sample.PartCount ||
		m.ScheduledJob != sample.ScheduledJob ||
		m.ActualJob != sample.ActualJob
}

// MachineRaw is an append-only history row; it is a struct copy of
// MachineRawLive's classified fields plus its own ID and timestamp.
type MachineRaw struct {
	ID              MachineRawID `json:"id"`
	MachineID       MachineID    `json:"machine_id"`
	Status          StatusCode   `json:"status"`
	OpMode          string       `json:"op_mode,omitempty"`
	SelectedProgram string       `json:"selected_program,omitempty"`
	ActiveProgram   string       `json:"active_program,omitempty"`
	PartCount       int          `json:"part_count"`
	ScheduledJob    string       `json:"scheduled_job,omitempty"`
	ActualJob       string       `json:"actual_job,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
}

// ShiftWindow is a single contiguous (start, end) time-of-day window; End
// may be numerically before Start to signal that the window crosses
// midnight.
type ShiftWindow struct {
	ShiftID int
	Start   time.Duration // offset from local midnight
	End     time.Duration
}

// CrossesMidnight reports whether this window wraps past local midnight.
func (w ShiftWindow) CrossesMidnight() bool {
	return w.End <= w.Start
}

// ShiftInfo is the ordered set of shift windows covering 24h, used by the
// live-summary calendar (C6), independent of the batch scheduler's fixed
// 06:00-22:00 window (C1/C3).
type ShiftInfo struct {
	Windows []ShiftWindow
}

// ShiftSummary accumulates one (machine, shift_id, shift_start) row's
// OFF/IDLE/PRODUCTION durations and derived OEE ratios.
type ShiftSummary struct {
	MachineID          MachineID     `json:"machine_id"`
	ShiftID            int           `json:"shift_id"`
	ShiftStartDatetime time.Time     `json:"shift_start_datetime"`
	ShiftEndDatetime   time.Time     `json:"shift_end_datetime"`
	OffTime            time.Duration `json:"off_time"`
	IdleTime           time.Duration `json:"idle_time"`
	ProductionTime     time.Duration `json:"production_time"`
	TotalParts         int           `json:"total_parts"`
	GoodParts          int           `json:"good_parts"`
	BadParts           int           `json:"bad_parts"`
	Availability       float64       `json:"availability"`
	Performance        float64       `json:"performance"`
	Quality            float64       `json:"quality"`
	OEE                float64       `json:"oee"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// AvailabilityLoss, PerformanceLoss, QualityLoss and OEELoss are 1-ratio,
// matching the *_loss columns the reference OEE engine persists alongside
// each ratio.
func (s *ShiftSummary) AvailabilityLoss() float64 { return 1 - s.Availability }
func (s *ShiftSummary) PerformanceLoss() float64  { return 1 - s.Performance }
func (s *ShiftSummary) QualityLoss() float64      { return 1 - s.Quality }
func (s *ShiftSummary) OEELoss() float64          { return 1 - s.OEE }

// MachineDowntime tracks one open-or-closed downtime interval per machine;
// at most one row per machine may have ClosedDT == nil.
type MachineDowntime struct {
	ID        MachineDowntimeID `json:"id"`
	MachineID MachineID         `json:"machine_id"`
	OpenDT    time.Time         `json:"open_dt"`
	ClosedDT  *time.Time        `json:"closed_dt,omitempty"`
}

// Open reports whether this downtime has not yet been closed.
func (d *MachineDowntime) Open() bool {
	return d.ClosedDT == nil
}

// Close sets ClosedDT to the given instant.
func (d *MachineDowntime) Close(at time.Time) {
	d.ClosedDT = &at
}

// ConfigInfo holds the per-machine, per-shift denominators used by the OEE
// availability formula: T = shift_length - PlannedNonProductionMinutes -
// PlannedDowntimeMinutes.
type ConfigInfo struct {
	MachineID                   MachineID `json:"machine_id"`
	PlannedNonProductionMinutes float64   `json:"planned_non_production_minutes"`
	PlannedDowntimeMinutes      float64   `json:"planned_downtime_minutes"`
	// LegacyQuality gates the source's good_parts = total_parts quirk; see
	// the Open Questions note on rejected-parts accounting. Default false.
	LegacyQuality bool `json:"legacy_quality"`
}
