package module

import (
	"time"

	"github.com/google/uuid"
)

// イベントの構造体
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	Severity  int                    `json:"severity"` // 1-5 (低-高)
	Data      map[string]interface{} `json:"data"`
}

// 新しいEventを作成
func NewEvent(eventType string, severity int, data map[string]interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      eventType,
		Severity:  severity,
		Data:      data,
	}
}
