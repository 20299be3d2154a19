package repository

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("not found")

type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "CREATED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusDone       TaskStatus = "COMPLETED"
)

// OutboxTask is a pending broker publication recorded in the same
// transaction as the order mutation it describes.
type OutboxTask struct {
	ID          uuid.UUID       `db:"id"`
	Topic       string          `db:"topic"`
	Key         string          `db:"key"`
	Payload     json.RawMessage `db:"payload"`
	Status      TaskStatus      `db:"status"`
	Attempts    int             `db:"attempts"`
	LastError   *string         `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
	CompletedAt *time.Time      `db:"completed_at"`
}
