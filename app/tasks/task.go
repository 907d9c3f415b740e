package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeIngestBatch      TaskType = "ingest_batch"
	TaskTypeSyncSourceConfig TaskType = "sync_source_config"
)

// RetryPolicy bounds how often a failed task goes back on the queue and how
// long it waits first. A batch that exhausts it is moved to failed/.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  time.Second,
	MaxDelay:   30 * time.Second,
}

// Delay is the wait before the given retry (1-based): BaseDelay doubled per
// retry, capped at MaxDelay.
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	delay := p.BaseDelay
	for i := 1; i < retry && delay < p.MaxDelay; i++ {
		delay *= 2
	}
	return min(delay, p.MaxDelay)
}

type TaskInterface interface {
	Execute(ctx context.Context) error
	Info() TaskInfo
	// Retry records a failed attempt. It returns the delay before the next
	// attempt, or false once the retry policy is used up.
	Retry() (time.Duration, bool)
	Begin()
	Elapsed() time.Duration
}

// Abandoner is implemented by tasks that must clean up once the scheduler
// gives up retrying them.
type Abandoner interface {
	Abandon(err error)
}

// TaskInfo identifies a task in logs: which source it serves and which batch
// or config file it works on.
type TaskInfo struct {
	ID         string
	Type       TaskType
	SourceName string
	Subject    string
	Retries    int
}

func (i TaskInfo) LogAttrs() []any {
	return []any{"type", string(i.Type), "id", i.ID, "source", i.SourceName, "subject", i.Subject, "retries", i.Retries}
}

type Task struct {
	TaskInfo
	policy    RetryPolicy
	startedAt time.Time
}

func NewTask(taskType TaskType, sourceName, subject string) Task {
	return Task{
		TaskInfo: TaskInfo{
			ID:         uuid.NewString(),
			Type:       taskType,
			SourceName: sourceName,
			Subject:    subject,
		},
		policy: DefaultRetryPolicy,
	}
}

func (t *Task) Info() TaskInfo {
	return t.TaskInfo
}

func (t *Task) Retry() (time.Duration, bool) {
	if t.Retries >= t.policy.MaxRetries {
		return 0, false
	}
	t.Retries++
	return t.policy.Delay(t.Retries), true
}

func (t *Task) Begin() {
	t.startedAt = time.Now()
}

func (t *Task) Elapsed() time.Duration {
	if t.startedAt.IsZero() {
		return 0
	}
	return time.Since(t.startedAt)
}
