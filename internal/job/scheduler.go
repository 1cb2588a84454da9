package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// JobScheduler enqueues MES jobs onto Asynq.
type JobScheduler struct {
	client    *asynq.Client
	redisAddr string
}

// NewJobScheduler creates a new job scheduler against the Redis instance at
// redisAddr.
func NewJobScheduler(redisAddr string) (*JobScheduler, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})

	if err := client.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &JobScheduler{client: client, redisAddr: redisAddr}, nil
}

// Close releases the underlying Asynq client.
func (s *JobScheduler) Close() error {
	return s.client.Close()
}

// Job types
const (
	TypeGenerateSchedule = "schedule:generate"
	TypeReschedule       = "schedule:reschedule"
	TypeOEEReconcile     = "oee:reconcile"
	TypePDCWarm          = "pdc:warm"
)

// EnqueueGenerateSchedule enqueues a full batch scheduling pass over every
// active production order.
func (s *JobScheduler) EnqueueGenerateSchedule(ctx context.Context) (*asynq.TaskInfo, error) {
	task := asynq.NewTask(TypeGenerateSchedule, nil)
	info, err := s.client.EnqueueContext(ctx, task, asynq.MaxRetry(2), asynq.Timeout(5*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue schedule generation job: %w", err)
	}
	return info, nil
}

// EnqueueReschedule enqueues a dynamic reschedule pass that reconciles
// production logs against active schedule versions.
func (s *JobScheduler) EnqueueReschedule(ctx context.Context) (*asynq.TaskInfo, error) {
	task := asynq.NewTask(TypeReschedule, nil)
	info, err := s.client.EnqueueContext(ctx, task, asynq.MaxRetry(2), asynq.Timeout(5*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue reschedule job: %w", err)
	}
	return info, nil
}

// OEEReconcilePayload identifies the machine and reference time an OEE
// reconciliation job should refresh.
type OEEReconcilePayload struct {
	MachineID uuid.UUID `json:"machine_id"`
	At        time.Time `json:"at"`
}

// EnqueueOEEReconcile enqueues a shift-summary refresh for one machine.
func (s *JobScheduler) EnqueueOEEReconcile(ctx context.Context, machineID uuid.UUID, at time.Time) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(OEEReconcilePayload{MachineID: machineID, At: at})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeOEEReconcile, payload)
	info, err := s.client.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Timeout(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue OEE reconcile job: %w", err)
	}
	return info, nil
}

// EnqueuePDCWarm enqueues a PDC cache warm-up, recomputing every active
// order's completion estimate ahead of the next cache read.
func (s *JobScheduler) EnqueuePDCWarm(ctx context.Context) (*asynq.TaskInfo, error) {
	task := asynq.NewTask(TypePDCWarm, nil)
	info, err := s.client.EnqueueContext(ctx, task, asynq.MaxRetry(1), asynq.Timeout(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue PDC warm job: %w", err)
	}
	return info, nil
}

// GetTaskInfo retrieves information about a previously enqueued task.
func (s *JobScheduler) GetTaskInfo(queue, taskID string) (*asynq.TaskInfo, error) {
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: s.redisAddr})
	defer inspector.Close()
	return inspector.GetTaskInfo(queue, taskID)
}

// PeriodicSchedule describes one recurring job registration, keyed by a
// standard five-field cron expression.
type PeriodicSchedule struct {
	CronSpec string
	TaskType string
}

// DefaultPeriodicSchedules is the standing cadence: a nightly full
// regeneration, a reschedule pass every five minutes to absorb newly logged
// production, and a PDC cache warm-up offset from the reschedule pass so a
// PDC read never blocks on a cold cache.
var DefaultPeriodicSchedules = []PeriodicSchedule{
	{CronSpec: "0 1 * * *", TaskType: TypeGenerateSchedule},
	{CronSpec: "*/5 * * * *", TaskType: TypeReschedule},
	{CronSpec: "2-57/5 * * * *", TaskType: TypePDCWarm},
}

// staticConfigProvider feeds a fixed set of periodic schedules to Asynq's
// PeriodicTaskManager, which parses the cron expressions (robfig/cron) and
// re-enqueues each task type on its own cadence.
type staticConfigProvider struct {
	schedules []PeriodicSchedule
}

func (p *staticConfigProvider) GetConfigs() ([]*asynq.PeriodicTaskConfig, error) {
	configs := make([]*asynq.PeriodicTaskConfig, 0, len(p.schedules))
	for _, s := range p.schedules {
		configs = append(configs, &asynq.PeriodicTaskConfig{
			Cronspec: s.CronSpec,
			Task:     asynq.NewTask(s.TaskType, nil),
		})
	}
	return configs, nil
}

// NewPeriodicManager builds an asynq.PeriodicTaskManager that keeps
// schedules registered against redisAddr in sync with the given cadence.
func NewPeriodicManager(redisAddr string, schedules []PeriodicSchedule) (*asynq.PeriodicTaskManager, error) {
	mgr, err := asynq.NewPeriodicTaskManager(asynq.PeriodicTaskManagerOpts{
		RedisConnOpt:               asynq.RedisClientOpt{Addr: redisAddr},
		PeriodicTaskConfigProvider: &staticConfigProvider{schedules: schedules},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build periodic task manager: %w", err)
	}
	return mgr, nil
}
