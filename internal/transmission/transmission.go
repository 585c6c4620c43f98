package transmission

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/mniyk/uevent-monitoring-tools/module"
)

// 実装すべきメソッドを定義
type EventDispatcher interface {
	Add(event module.Event) error
	Flush() error
	IsOverBatchSize() bool
	IsOverTime() bool
}

// イベント送信の構造体
type EventSender struct {
	BatchSize     int
	FlushInterval time.Duration
	LastSendTime  time.Time
	eventQueue    []module.Event
	log           logr.Logger
	mu            sync.Mutex
}

// 新しいEventSenderを作成
func NewEventSender(batchSize int, flushInterval time.Duration, log logr.Logger) *EventSender {
	return &EventSender{
		BatchSize:     batchSize,
		FlushInterval: flushInterval,
		LastSendTime:  time.Now(),
		eventQueue:    make([]module.Event, 0),
		log:           log.WithName("transmission"),
	}
}

// イベントをキューに追加
func (s *EventSender) Add(event module.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.eventQueue = append(s.eventQueue, event)

	return nil
}

// 保留中のすべてのイベントを送信
func (s *EventSender) Flush() error {
	s.mu.Lock()
	queue := s.eventQueue
	s.eventQueue = make([]module.Event, 0)
	s.LastSendTime = time.Now()
	s.mu.Unlock()

	// イベントをJSON形式に変換して送信
	for _, event := range queue {
		jsonData, err := json.Marshal(event)
		if err != nil {
			s.log.Error(err, "Failed encoding event", "id", event.ID)
			continue
		}
		s.log.Info("Send event", "id", event.ID, "type", event.Type, "event", string(jsonData))
	}

	return nil
}

// 保留中のイベント数を取得
func (s *EventSender) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.eventQueue)
}

// バッチサイズを超えたかどうかを確認
func (s *EventSender) IsOverBatchSize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.eventQueue) >= s.BatchSize
}

// 最後の送信から一定時間経過したかどうかを確認
func (s *EventSender) IsOverTime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return time.Since(s.LastSendTime) > s.FlushInterval
}
