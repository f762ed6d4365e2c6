package observability

import (
	"chat-desk/domain/event"
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Snapshot aggregates the client-side metrics for display.
type Snapshot struct {
	SendsStarted         uint64  `json:"sends_started"`
	SendsSucceeded       uint64  `json:"sends_succeeded"`
	SendsFailed          uint64  `json:"sends_failed"`
	MessagesAppended     uint64  `json:"messages_appended"`
	ConversationsCreated uint64  `json:"conversations_created"`
	ConversationsDeleted uint64  `json:"conversations_deleted"`
	AllocMemMb           uint64  `json:"alloc_mem_mb"`
	NumGC                uint32  `json:"num_gc"`
	ProcessRssMb         uint64  `json:"process_rss_mb"`
	ProcessCPUPercent    float64 `json:"process_cpu_percent"`
	Uptime               string  `json:"uptime"`
}

// MonitoringManager keeps real-time counters over the chat session.
// It observes the store as one more event sink and is fed directly by the
// orchestrator for request-level counters.
type MonitoringManager struct {
	log       *slog.Logger
	startedAt time.Time
	proc      *process.Process

	sendsStarted         uint64
	sendsSucceeded       uint64
	sendsFailed          uint64
	messagesAppended     uint64
	conversationsCreated uint64
	conversationsDeleted uint64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	// The process handle is optional: metrics degrade to zero values
	// when the platform refuses access.
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process metrics unavailable", "err", err)
		proc = nil
	}
	return &MonitoringManager{
		log:       log,
		startedAt: time.Now(),
		proc:      proc,
	}
}

func (mm *MonitoringManager) IncrSendsStarted()   { atomic.AddUint64(&mm.sendsStarted, 1) }
func (mm *MonitoringManager) IncrSendsSucceeded() { atomic.AddUint64(&mm.sendsSucceeded, 1) }
func (mm *MonitoringManager) IncrSendsFailed()    { atomic.AddUint64(&mm.sendsFailed, 1) }

// Consume counts store mutations. It never fails.
func (mm *MonitoringManager) Consume(_ context.Context, e event.DomainEvent) error {
	switch e.(type) {
	case event.MessageAppended:
		atomic.AddUint64(&mm.messagesAppended, 1)
	case event.ConversationCreated:
		atomic.AddUint64(&mm.conversationsCreated, 1)
	case event.ConversationDeleted:
		atomic.AddUint64(&mm.conversationsDeleted, 1)
	}
	return nil
}

// Snapshot collects the counters plus memory and CPU figures for this process.
func (mm *MonitoringManager) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	snapshot := Snapshot{
		SendsStarted:         atomic.LoadUint64(&mm.sendsStarted),
		SendsSucceeded:       atomic.LoadUint64(&mm.sendsSucceeded),
		SendsFailed:          atomic.LoadUint64(&mm.sendsFailed),
		MessagesAppended:     atomic.LoadUint64(&mm.messagesAppended),
		ConversationsCreated: atomic.LoadUint64(&mm.conversationsCreated),
		ConversationsDeleted: atomic.LoadUint64(&mm.conversationsDeleted),
		AllocMemMb:           mem.Alloc / 1024 / 1024,
		NumGC:                mem.NumGC,
		Uptime:               time.Since(mm.startedAt).Round(time.Second).String(),
	}

	if mm.proc != nil {
		if memInfo, err := mm.proc.MemoryInfo(); err == nil {
			snapshot.ProcessRssMb = memInfo.RSS / 1024 / 1024
		}
		if cpu, err := mm.proc.CPUPercent(); err == nil {
			snapshot.ProcessCPUPercent = cpu
		}
	}
	return snapshot
}
