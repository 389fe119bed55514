package processing

import (
	"fmt"
	"sync"

	customlog "github.com/open-teleop/robolink/pkg/log"
)

// EventDirector routes events to the processing pool matching their topic
// priority, so safety events are never queued behind periodic status.
type EventDirector struct {
	logger           customlog.Logger
	highPriorityPool *ProcessingPool
	standardPool     *ProcessingPool
	lowPriorityPool  *ProcessingPool
	topicRegistry    *TopicRegistry
	running          bool
	mu               sync.RWMutex
}

// DirectorOptions holds configuration options for the EventDirector
type DirectorOptions struct {
	HighWorkers      int
	StandardWorkers  int
	LowWorkers       int
	DefaultQueueSize int
}

// NewEventDirector creates the director and its three pools.
func NewEventDirector(logger customlog.Logger, topicRegistry *TopicRegistry, options *DirectorOptions) *EventDirector {
	if options == nil {
		options = &DirectorOptions{
			HighWorkers:      1,
			StandardWorkers:  1,
			LowWorkers:       1,
			DefaultQueueSize: 64,
		}
	}

	d := &EventDirector{
		logger:           logger,
		topicRegistry:    topicRegistry,
		highPriorityPool: NewProcessingPool(PriorityHigh, options.HighWorkers, options.DefaultQueueSize, logger),
		standardPool:     NewProcessingPool(PriorityStandard, options.StandardWorkers, options.DefaultQueueSize, logger),
		lowPriorityPool:  NewProcessingPool(PriorityLow, options.LowWorkers, options.DefaultQueueSize, logger),
	}

	logger.Infof("Event Director initialized with pools: HIGH(%d), STANDARD(%d), LOW(%d)",
		options.HighWorkers, options.StandardWorkers, options.LowWorkers)
	return d
}

// SetProcessor sets the event processor function for all pools
func (d *EventDirector) SetProcessor(processor EventProcessor) {
	d.highPriorityPool.SetProcessor(processor)
	d.standardPool.SetProcessor(processor)
	d.lowPriorityPool.SetProcessor(processor)
}

// SetResultHandler sets the result handler function for all pools
func (d *EventDirector) SetResultHandler(handler ResultHandler) {
	d.highPriorityPool.SetResultHandler(handler)
	d.standardPool.SetResultHandler(handler)
	d.lowPriorityPool.SetResultHandler(handler)
}

// Route hands an event to the pool for its topic's priority.
func (d *EventDirector) Route(ev *Event) error {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()

	if !running {
		return fmt.Errorf("event director is not running")
	}

	priority, exists := d.topicRegistry.GetTopicPriority(ev.Topic)
	if !exists {
		d.logger.Warnf("No priority found for topic '%s', using LOW", ev.Topic)
		priority = PriorityLow
	}
	d.topicRegistry.UpdateTopicStats(ev.Topic, ev.Timestamp)

	var successful bool
	switch priority {
	case PriorityHigh:
		successful = d.highPriorityPool.Enqueue(ev)
	case PriorityStandard:
		successful = d.standardPool.Enqueue(ev)
	default:
		successful = d.lowPriorityPool.Enqueue(ev)
	}

	if !successful {
		return fmt.Errorf("failed to enqueue event for topic '%s' (priority: %s)", ev.Topic, priority)
	}
	return nil
}

// Start starts all processing pools
func (d *EventDirector) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}

	d.running = true
	d.logger.Infof("Starting Event Director")

	d.highPriorityPool.Start()
	d.standardPool.Start()
	d.lowPriorityPool.Start()
}

// Stop stops all processing pools, draining queued events.
func (d *EventDirector) Stop() {
	d.mu.Lock()
	running := d.running
	d.running = false
	d.mu.Unlock()

	if !running {
		return
	}

	d.logger.Infof("Stopping Event Director")

	d.highPriorityPool.Stop()
	d.standardPool.Stop()
	d.lowPriorityPool.Stop()

	d.logger.Infof("Event Director stopped")
}

// GetPoolMetrics returns metrics for all pools
func (d *EventDirector) GetPoolMetrics() map[string]PoolMetrics {
	return map[string]PoolMetrics{
		PriorityHigh:     d.highPriorityPool.GetMetrics(),
		PriorityStandard: d.standardPool.GetMetrics(),
		PriorityLow:      d.lowPriorityPool.GetMetrics(),
	}
}

// GetTopicStats returns per-topic counters.
func (d *EventDirector) GetTopicStats() map[string]map[string]interface{} {
	return d.topicRegistry.GetTopicStats()
}
