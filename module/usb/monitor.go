package usb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/mniyk/uevent-monitoring-tools/internal/config"
	"github.com/mniyk/uevent-monitoring-tools/internal/metrics"
	"github.com/mniyk/uevent-monitoring-tools/internal/netlink"
	"github.com/mniyk/uevent-monitoring-tools/internal/spool"
	"github.com/mniyk/uevent-monitoring-tools/internal/transmission"
	"github.com/mniyk/uevent-monitoring-tools/internal/uevent"
	"github.com/mniyk/uevent-monitoring-tools/internal/userinfo"
	"github.com/mniyk/uevent-monitoring-tools/module"
)

const (
	MODULE_ID         = "usb_device_monitoring"
	MODULE_NAME       = "USB Device Monitoring"
	SOURCE_NETLINK    = "netlink"
	SOURCE_SPOOL      = "spool"
	DEFAULT_SPOOL_DIR = "/var/spool/uevent"
	RETRY_INTERVAL    = time.Second

	ADD_DEVICE_SEVERITY    = 5
	REMOVE_DEVICE_SEVERITY = 4
	CHANGE_DEVICE_SEVERITY = 2
	OTHER_DEVICE_SEVERITY  = 1
)

// 生の uevent を受信するソース
type Source interface {
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// USB Device Monitoringの設定の構造体
type MonitorConfig struct {
	Source          string
	SpoolDir        string
	RemoveProcessed bool
	AttributesOnly  bool
	Subsystems      []string
	Trace           bool
	ReceiveBuffer   int
}

// 新しいMonitorConfigを作成
func NewMonitorConfig(moduleConfig config.Config) *MonitorConfig {
	source := moduleConfig.OptionString("source", SOURCE_NETLINK)

	// スプールのファイルは通常 env の出力でヘッダー行を持たない
	return &MonitorConfig{
		Source:          source,
		SpoolDir:        moduleConfig.OptionString("spool_dir", DEFAULT_SPOOL_DIR),
		RemoveProcessed: moduleConfig.OptionBool("remove_processed", false),
		AttributesOnly:  moduleConfig.OptionBool("attributes_only", source == SOURCE_SPOOL),
		Subsystems:      moduleConfig.OptionStrings("subsystems", []string{"usb"}),
		Trace:           moduleConfig.OptionBool("trace", false),
		ReceiveBuffer:   moduleConfig.OptionInt("receive_buffer", 0),
	}
}

// 設定に応じたソースを作成
func OpenSource(cfg MonitorConfig, log logr.Logger) (Source, error) {
	switch cfg.Source {
	case SOURCE_NETLINK:
		socket, err := netlink.Open(netlink.Options{ReceiveBuffer: cfg.ReceiveBuffer})
		if err != nil {
			return nil, err
		}
		return socket, nil
	case SOURCE_SPOOL:
		watcher, err := spool.Open(cfg.SpoolDir, cfg.RemoveProcessed, log)
		if err != nil {
			return nil, err
		}
		return watcher, nil
	default:
		return nil, fmt.Errorf("unknown uevent source %q", cfg.Source)
	}
}

// 監視のための構造体
type Monitor struct {
	// テストではソースを差し替える
	OpenSource func(cfg MonitorConfig, log logr.Logger) (Source, error)

	events          []module.Event
	config          MonitorConfig
	eventsMu        sync.RWMutex
	source          Source
	cancel          context.CancelFunc
	done            chan struct{}
	userInfo        *userinfo.UserInfo
	eventDispatcher transmission.EventDispatcher
	metrics         *metrics.Metrics
	log             logr.Logger
}

// 新しいMonitorを作成
func NewMonitor(config *MonitorConfig, userInfo *userinfo.UserInfo, eventDispatcher transmission.EventDispatcher, m *metrics.Metrics, log logr.Logger) *Monitor {
	if m == nil {
		m = metrics.New(nil)
	}

	return &Monitor{
		OpenSource:      OpenSource,
		config:          *config,
		events:          make([]module.Event, 0),
		userInfo:        userInfo,
		eventDispatcher: eventDispatcher,
		metrics:         m,
		log:             log.WithValues("module", MODULE_NAME),
	}
}

// モジュールを初期化
func (m *Monitor) Initialize() error {
	m.log.Info("Initialize...", "source", m.config.Source, "subsystems", m.config.Subsystems)

	source, err := m.OpenSource(m.config, m.log)
	if err != nil {
		return fmt.Errorf("opening %s source: %w", m.config.Source, err)
	}
	m.source = source

	return nil
}

// モニタリングを開始
func (m *Monitor) Start() error {
	if m.source == nil {
		return errors.New("monitor is not initialized")
	}

	m.log.Info("Start...")

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.receiveLoop(ctx)

	return nil
}

// 受信の継続的なループを実行
func (m *Monitor) receiveLoop(ctx context.Context) {
	defer close(m.done)

	for {
		raw, err := m.source.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, netlink.ErrClosed) || errors.Is(err, spool.ErrClosed) {
				return
			}

			m.log.Error(err, "Failed receiving uevent")

			// 一定時間待ってから再試行
			select {
			case <-ctx.Done():
				return
			case <-time.After(RETRY_INTERVAL):
			}
			continue
		}

		m.handleMessage(raw)
	}
}

// 受信した uevent を解析してイベントを生成
func (m *Monitor) handleMessage(raw []byte) {
	m.metrics.Received.WithLabelValues(MODULE_ID).Inc()

	record, err := uevent.FromBytes(raw, m.config.AttributesOnly, m.config.Trace, m.log)
	if err != nil {
		m.metrics.ParseErrors.WithLabelValues(MODULE_ID).Inc()
		m.log.Error(err, "Failed parsing uevent", "size", len(raw))
		return
	}
	m.metrics.Parsed.WithLabelValues(MODULE_ID).Inc()

	if !record.HasRequiredAttributes() {
		m.metrics.Incomplete.WithLabelValues(MODULE_ID).Inc()
		m.log.V(1).Info("Skipped uevent without required attributes", "attributes", record.Names())
		return
	}

	subsystem := record.Attribute(uevent.ATTR_SUBSYSTEM)
	if !m.acceptsSubsystem(subsystem) {
		m.metrics.Filtered.WithLabelValues(MODULE_ID).Inc()
		return
	}

	header, err := record.HeaderLine()
	if err != nil {
		m.log.Error(err, "Failed building header line")
		return
	}

	action := record.Attribute(uevent.ATTR_ACTION)
	data := map[string]interface{}{
		"action":     action,
		"devpath":    record.Attribute(uevent.ATTR_DEVPATH),
		"subsystem":  subsystem,
		"header":     header,
		"attributes": record.Attributes(),
		"user":       m.userInfo.UserName,
		"host":       m.userInfo.HostName,
	}

	if device, ok := parseDevice(record); ok {
		data["vendor_id"] = device.VendorID
		data["product_id"] = device.ProductID
		data["bcd_device"] = device.BCDDevice
		data["device_type"] = device.DeviceType
		if device.Serial != "" {
			data["serial"] = device.Serial
		}
	}

	m.log.Info("Device event", "header", header, "subsystem", subsystem)

	m.addEvent("device_"+action, severityFor(action), data)
}

// 対象のサブシステムかどうかを確認（空または "*" はすべて対象）
func (m *Monitor) acceptsSubsystem(subsystem string) bool {
	if len(m.config.Subsystems) == 0 {
		return true
	}

	for _, s := range m.config.Subsystems {
		if s == "*" || s == subsystem {
			return true
		}
	}

	return false
}

// アクションごとの重要度を取得
func severityFor(action string) int {
	switch action {
	case "add", "bind":
		return ADD_DEVICE_SEVERITY
	case "remove", "unbind":
		return REMOVE_DEVICE_SEVERITY
	case "change", "move":
		return CHANGE_DEVICE_SEVERITY
	default:
		return OTHER_DEVICE_SEVERITY
	}
}

// モニタリングを停止
func (m *Monitor) Stop() error {
	m.log.Info("Stop...")

	if m.cancel != nil {
		m.cancel()
	}

	var err error
	if m.source != nil {
		err = m.source.Close()
	}

	if m.done != nil {
		<-m.done
	}

	return err
}

// モジュールが検出したイベントを取得
func (m *Monitor) GetEvents() []module.Event {
	m.eventsMu.RLock()
	defer m.eventsMu.RUnlock()

	// イベントのコピーを返す（オリジナルが変更されないように）
	eventsCopy := make([]module.Event, len(m.events))
	copy(eventsCopy, m.events)

	return eventsCopy
}

// 新しいイベントを追加
func (m *Monitor) addEvent(eventType string, severity int, data map[string]interface{}) {
	event := module.NewEvent(eventType, severity, data)

	m.eventsMu.Lock()
	m.events = append(m.events, event)
	m.eventsMu.Unlock()

	m.log.V(1).Info("Detection new event", "type", eventType, "severity", severity)

	if err := m.eventDispatcher.Add(event); err != nil {
		m.log.Error(err, "Failed dispatching event", "id", event.ID)
		return
	}
	m.metrics.Dispatched.WithLabelValues(MODULE_ID).Inc()
}
