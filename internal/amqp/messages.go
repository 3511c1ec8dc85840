package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"centrefunds/internal/core"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// RunRequestMessage asks a worker to close the allocation period between two
// calendar dates. The worker recomputes everything from the database.
type RunRequestMessage struct {
	RequestID string    `json:"request_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Trigger   string    `json:"trigger"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRunRequestMessage creates a request for the calendar days covered by r
func NewRunRequestMessage(r core.DateRange, trigger string) *RunRequestMessage {
	return &RunRequestMessage{
		RequestID: uuid.NewString(),
		StartDate: r.Start.Format(dateLayout),
		EndDate:   r.End.Format(dateLayout),
		Trigger:   trigger,
		Timestamp: time.Now(),
	}
}

// Range parses the requested dates back into a whole-day range
func (m *RunRequestMessage) Range() (core.DateRange, error) {
	return core.ParseDayRange(m.StartDate, m.EndDate)
}

// ToJSON converts the message to JSON bytes
func (m *RunRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RunRequestMessageFromJSON decodes and validates a run request
func RunRequestMessageFromJSON(data []byte) (*RunRequestMessage, error) {
	var msg RunRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := msg.Range(); err != nil {
		return nil, fmt.Errorf("run request %s: %w", msg.RequestID, err)
	}
	return &msg, nil
}

// RunCompletedMessage announces a closed period.
type RunCompletedMessage struct {
	RequestID   string    `json:"request_id"`
	RunID       string    `json:"run_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Allocations int       `json:"allocations"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewRunCompletedMessage(requestID string, run core.AllocationRun, allocations int) *RunCompletedMessage {
	return &RunCompletedMessage{
		RequestID:   requestID,
		RunID:       run.ID,
		StartDate:   run.Start.Format(dateLayout),
		EndDate:     run.End.Format(dateLayout),
		Allocations: allocations,
		Timestamp:   time.Now(),
	}
}

func (m *RunCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RunCompletedMessageFromJSON(data []byte) (*RunCompletedMessage, error) {
	var msg RunCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
