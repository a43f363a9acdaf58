package queue

import "time"

type TaskType string

const (
	TaskTypeFollowUpReminder TaskType = "follow_up_reminder"
)

// dueDateLayout is how due dates travel through the stream.
const dueDateLayout = time.DateOnly

// Task is one unit of work enqueued for the worker.
type Task struct {
	TaskType  TaskType
	ContactID int64
	// DueDate is the follow-up date the reminder is for. A contact whose date changed
	// since enqueueing is skipped.
	DueDate time.Time
	TraceID *string
	Attempt int
}
