package auditor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bash586/paytrackbot/internal/model"
	"github.com/bash586/paytrackbot/internal/queue"
	"github.com/bash586/paytrackbot/pkg/logger"
	"github.com/bash586/paytrackbot/pkg/prom"
	"github.com/bash586/paytrackbot/pkg/redis"
	"github.com/bash586/paytrackbot/pkg/worker"
)

type Config struct {
	// SeenTTL is how long a consumed action id is remembered. Redelivered
	// stream entries within the window are dropped instead of double
	// counted.
	SeenTTL time.Duration

	SeenKeyPrefix string

	Workers    int
	BufferSize int
}

func DefaultConfig() Config {
	return Config{
		SeenTTL:       24 * time.Hour,
		SeenKeyPrefix: "audit:seen:",
		Workers:       8,
		BufferSize:    1024,
	}
}

// Auditor tails the action-event stream and keeps audit metrics and logs
// fresh. The actions table stays the source of truth; a lost event here
// loses a counter increment, never ledger data.
type Auditor struct {
	redis   redis.RedisAdapter
	config  Config
	manager *worker.WorkerManager
}

func New(redisAdapter redis.RedisAdapter, config Config) *Auditor {
	if config.Workers <= 0 {
		config.Workers = 8
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1024
	}

	a := &Auditor{
		redis:   redisAdapter,
		config:  config,
		manager: worker.NewWorkerManager(config.BufferSize, config.Workers, make(chan interface{}, config.BufferSize)),
	}
	a.manager.SetWorker(a.process)
	return a
}

// Start runs the worker pool and blocks until Stop.
func (a *Auditor) Start() error {
	return a.manager.Start()
}

func (a *Auditor) Stop() {
	a.manager.Exit()
}

// Handle is the queue consumer entrypoint. Malformed events are dropped
// with a warning; returning an error would only requeue garbage.
func (a *Auditor) Handle(ctx context.Context, msg *queue.Message) error {
	var event model.ActionEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Warn("dropping malformed action event", "message_id", msg.ID, "error", err)
		return nil
	}

	first, err := a.firstSeen(event.ActionID)
	if err != nil {
		logger.Warn("failed to check seen marker", "action_id", event.ActionID, "error", err)
		// Better to risk a double count than to stall the stream.
	} else if !first {
		logger.Debug("duplicate action event, skipping", "action_id", event.ActionID)
		return nil
	}

	a.manager.Enqueue(event)
	return nil
}

// firstSeen marks the action id and reports whether this delivery is the
// first one inside the TTL window.
func (a *Auditor) firstSeen(actionID int64) (bool, error) {
	key := a.config.SeenKeyPrefix + fmt.Sprintf("%d", actionID)
	return a.redis.SetNX(key, []byte("1"), a.config.SeenTTL)
}

func (a *Auditor) process(workerIndex int, job interface{}) {
	event, ok := job.(model.ActionEvent)
	if !ok {
		return
	}

	prom.IncCounterVec(prom.SystemLedger, prom.MetricAuditEventsTotal, string(event.Type))
	logger.Info("action recorded",
		"action_id", event.ActionID,
		"type", event.Type,
		"admin_id", event.AdminID,
		"customer_id", event.CustomerID,
	)
}
