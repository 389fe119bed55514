package diagnostic

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/robolink/pkg/processing"
)

// Counter names exposed in LinkMetrics.Counters.
const (
	CounterCommands         = "commands"
	CounterAuthFailures     = "auth_failures"
	CounterProtocolErrors   = "protocol_errors"
	CounterNotAuthenticated = "not_authenticated"
	CounterHeartbeatTimeout = "heartbeat_timeouts"
	CounterDisconnects      = "disconnects"
	CounterSessions         = "sessions"
	CounterSafetyStops      = "safety_stops"
	CounterActuatorErrors   = "actuator_errors"
)

// LinkMetrics is a snapshot of link and safety counters.
type LinkMetrics struct {
	Timestamp   time.Time        `json:"timestamp"`
	RobotID     string           `json:"robot_id"`
	StartedAt   time.Time        `json:"started_at"`
	Counters    map[string]int64 `json:"counters"`
	LastEvent   string           `json:"last_event,omitempty"`
	LastEventAt time.Time        `json:"last_event_at,omitempty"`
}

// PoolMetricsProvider reports telemetry worker pool metrics. The event
// director satisfies it.
type PoolMetricsProvider interface {
	GetPoolMetrics() map[string]processing.PoolMetrics
	GetTopicStats() map[string]map[string]interface{}
}

// DiagnosticService counts link events for the HTTP diagnostics endpoint.
type DiagnosticService struct {
	mu          sync.RWMutex
	robotID     string
	startedAt   time.Time
	counters    map[string]int64
	lastEvent   string
	lastEventAt time.Time
	pools       PoolMetricsProvider
}

// NewDiagnosticService creates a new diagnostic service instance
func NewDiagnosticService(robotID string) *DiagnosticService {
	return &DiagnosticService{
		robotID:   robotID,
		startedAt: time.Now(),
		counters:  make(map[string]int64),
	}
}

// SetPoolMetricsProvider attaches telemetry pool stats to the handler output.
func (s *DiagnosticService) SetPoolMetricsProvider(p PoolMetricsProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools = p
}

// Inc increments a named counter.
func (s *DiagnosticService) Inc(counter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counter]++
}

// RecordEvent increments counter and remembers event as the latest one.
func (s *DiagnosticService) RecordEvent(counter, event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counter]++
	s.lastEvent = event
	s.lastEventAt = time.Now()
}

// Count returns the current value of a counter.
func (s *DiagnosticService) Count(counter string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[counter]
}

// GetMetrics returns a copy of the current metrics
func (s *DiagnosticService) GetMetrics() LinkMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counters := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		counters[k] = v
	}
	return LinkMetrics{
		Timestamp:   time.Now(),
		RobotID:     s.robotID,
		StartedAt:   s.startedAt,
		Counters:    counters,
		LastEvent:   s.lastEvent,
		LastEventAt: s.lastEventAt,
	}
}

// GetMetricsHandler handles API requests for link metrics
func (s *DiagnosticService) GetMetricsHandler(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":  "success",
		"metrics": s.GetMetrics(),
	}

	s.mu.RLock()
	pools := s.pools
	s.mu.RUnlock()
	if pools != nil {
		resp["telemetry_pools"] = pools.GetPoolMetrics()
		resp["telemetry_topics"] = pools.GetTopicStats()
	}
	return c.JSON(resp)
}
