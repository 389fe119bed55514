package services

import (
	"sync"

	"github.com/open-teleop/robolink/pkg/telemetry"
)

// StatusService holds the latest control loop snapshot for readers outside
// the loop.
type StatusService interface {
	Update(s telemetry.Status)
	Get() telemetry.Status
}

type statusService struct {
	mu     sync.RWMutex
	status telemetry.Status
}

// NewStatusService creates a store seeded with the robot ID.
func NewStatusService(robotID string) StatusService {
	return &statusService{
		status: telemetry.Status{RobotID: robotID, LinkState: "disconnected"},
	}
}

func (s *statusService) Update(status telemetry.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *statusService) Get() telemetry.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
