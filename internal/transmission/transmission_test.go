package transmission

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mniyk/uevent-monitoring-tools/module"
)

func TestEventSender_BatchSize(t *testing.T) {
	s := NewEventSender(2, time.Hour, logr.Discard())

	require.NoError(t, s.Add(module.NewEvent("device_add", 3, nil)))
	assert.False(t, s.IsOverBatchSize())

	require.NoError(t, s.Add(module.NewEvent("device_remove", 3, nil)))
	assert.True(t, s.IsOverBatchSize())
	assert.False(t, s.IsOverTime())
}

func TestEventSender_IsOverTime(t *testing.T) {
	s := NewEventSender(10, time.Millisecond, logr.Discard())
	s.LastSendTime = time.Now().Add(-time.Second)

	assert.True(t, s.IsOverTime())
}

func TestEventSender_Flush(t *testing.T) {
	var mu sync.Mutex
	var lines []string
	log := funcr.New(func(prefix, args string) {
		mu.Lock()
		lines = append(lines, args)
		mu.Unlock()
	}, funcr.Options{})

	s := NewEventSender(5, time.Hour, log)
	event := module.NewEvent("device_add", 3, map[string]interface{}{"subsystem": "usb"})
	require.NoError(t, s.Add(event))

	require.NoError(t, s.Flush())
	assert.Equal(t, 0, s.Pending())

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Send event")
	assert.Contains(t, lines[0], event.ID)
	assert.True(t, strings.Contains(lines[0], `subsystem`))

	// 空のキューでは何も送信しない
	require.NoError(t, s.Flush())
	assert.Len(t, lines, 1)
}

func TestEventSender_ConcurrentAdd(t *testing.T) {
	s := NewEventSender(1000, time.Hour, logr.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Add(module.NewEvent("device_add", 3, nil))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Pending())
}
