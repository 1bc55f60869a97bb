// Package notify publishes settlement reminders. Delivery to people (email,
// chat) is left to whoever consumes the events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Reminder asks From to pay To the outstanding Amount.
type Reminder struct {
	GroupID     string
	GroupName   string
	From        string
	To          string
	Amount      decimal.Decimal
	RequestedBy string
	Timestamp   time.Time
}

// Notifier delivers reminders somewhere.
type Notifier interface {
	NotifyReminder(ctx context.Context, r Reminder) error
	Close() error
}

// ReminderMessage is the JSON body published for each reminder.
type ReminderMessage struct {
	GroupID     string    `json:"group_id"`
	GroupName   string    `json:"group_name"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Amount      string    `json:"amount"`
	RequestedBy string    `json:"requested_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewReminderMessage converts r to its wire form.
func NewReminderMessage(r Reminder) *ReminderMessage {
	return &ReminderMessage{
		GroupID:     r.GroupID,
		GroupName:   r.GroupName,
		From:        r.From,
		To:          r.To,
		Amount:      r.Amount.String(),
		RequestedBy: r.RequestedBy,
		Timestamp:   r.Timestamp.UTC(),
	}
}

func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal reminder message: %w", err)
	}
	return &msg, nil
}

// LogNotifier writes reminders to the log. It is used when no broker is
// configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyReminder(ctx context.Context, r Reminder) error {
	n.logger.InfoContext(ctx, "Settlement reminder",
		"group_id", r.GroupID,
		"from", r.From,
		"to", r.To,
		"amount", r.Amount.String(),
		"requested_by", r.RequestedBy,
	)
	return nil
}

func (n *LogNotifier) Close() error { return nil }
