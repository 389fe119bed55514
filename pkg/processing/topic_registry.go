package processing

import (
	"sync"

	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/telemetry"
)

// TopicInfo holds metadata for a topic
type TopicInfo struct {
	Topic        string
	Priority     string
	StatCount    int64
	LastReceived int64
}

// TopicRegistry maps topics to priorities and keeps per-topic counters.
type TopicRegistry struct {
	logger customlog.Logger
	topics map[string]*TopicInfo
	mu     sync.RWMutex
}

// NewTopicRegistry creates a registry preloaded with the telemetry topics:
// safety events on HIGH, periodic status on STANDARD.
func NewTopicRegistry(logger customlog.Logger) *TopicRegistry {
	r := &TopicRegistry{
		logger: logger,
		topics: make(map[string]*TopicInfo),
	}
	r.Register(telemetry.TopicSafety, PriorityHigh)
	r.Register(telemetry.TopicStatus, PriorityStandard)
	return r
}

// Register sets the priority for a topic, keeping existing counters.
func (r *TopicRegistry) Register(topic, priority string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, exists := r.topics[topic]; exists {
		info.Priority = priority
		return
	}
	r.topics[topic] = &TopicInfo{Topic: topic, Priority: priority}
}

// GetTopicPriority gets the priority for a topic
func (r *TopicRegistry) GetTopicPriority(topic string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return "", false
	}
	return info.Priority, true
}

// UpdateTopicStats updates statistics for a topic. Unknown topics are
// registered at LOW priority.
func (r *TopicRegistry) UpdateTopicStats(topic string, timestamp int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.topics[topic]
	if !exists {
		info = &TopicInfo{Topic: topic, Priority: PriorityLow}
		r.topics[topic] = info
	}
	info.StatCount++
	info.LastReceived = timestamp
}

// GetTopicStats returns a map of topic statistics
func (r *TopicRegistry) GetTopicStats() map[string]map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]map[string]interface{})
	for topic, info := range r.topics {
		stats[topic] = map[string]interface{}{
			"count":         info.StatCount,
			"last_received": info.LastReceived,
			"priority":      info.Priority,
		}
	}
	return stats
}
