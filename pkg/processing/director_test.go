package processing

import (
	"errors"
	"sync"
	"testing"
	"time"

	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/telemetry"
)

func TestDirectorRoutesByTopicPriority(t *testing.T) {
	logger := customlog.NewDiscardLogger()
	d := NewEventDirector(logger, NewTopicRegistry(logger), nil)

	var mu sync.Mutex
	seen := map[string]int{}
	done := make(chan struct{}, 8)
	d.SetProcessor(func(ev *Event) error {
		mu.Lock()
		seen[ev.Topic]++
		mu.Unlock()
		done <- struct{}{}
		return nil
	})
	d.Start()

	for _, topic := range []string{telemetry.TopicSafety, telemetry.TopicStatus, "robolink.other"} {
		if err := d.Route(NewEvent(topic, telemetry.Status{RobotID: "r1"})); err != nil {
			t.Fatalf("Route(%s) failed: %v", topic, err)
		}
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
	d.Stop()

	metrics := d.GetPoolMetrics()
	for _, p := range []string{PriorityHigh, PriorityStandard, PriorityLow} {
		if metrics[p].ProcessedCount != 1 {
			t.Errorf("%s pool processed %d events, want 1", p, metrics[p].ProcessedCount)
		}
	}
	if got := d.GetTopicStats()["robolink.other"]["priority"]; got != PriorityLow {
		t.Errorf("unknown topic registered at %v, want LOW", got)
	}
}

func TestRouteWhenStopped(t *testing.T) {
	logger := customlog.NewDiscardLogger()
	d := NewEventDirector(logger, NewTopicRegistry(logger), nil)
	if err := d.Route(NewEvent(telemetry.TopicStatus, telemetry.Status{})); err == nil {
		t.Errorf("Route succeeded on a stopped director")
	}
}

func TestPoolDropsWhenFull(t *testing.T) {
	logger := customlog.NewDiscardLogger()
	p := NewProcessingPool("TEST", 1, 1, logger)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	p.SetProcessor(func(ev *Event) error {
		started <- struct{}{}
		<-release
		return errors.New("boom")
	})
	p.Start()

	if !p.Enqueue(NewEvent("a", telemetry.Status{})) {
		t.Fatalf("first enqueue rejected")
	}
	<-started
	if !p.Enqueue(NewEvent("b", telemetry.Status{})) {
		t.Fatalf("second enqueue rejected with an empty queue")
	}
	if p.Enqueue(NewEvent("c", telemetry.Status{})) {
		t.Errorf("enqueue into a full queue succeeded")
	}
	if m := p.GetMetrics(); m.QueueLength != 1 || m.QueueCapacity != 1 {
		t.Errorf("queue %d/%d, want 1/1", m.QueueLength, m.QueueCapacity)
	}
	close(release)
	p.Stop()

	m := p.GetMetrics()
	if m.ProcessedCount != 2 || m.ErrorCount != 2 || m.DroppedCount != 1 {
		t.Errorf("metrics = %+v, want processed 2, errors 2, dropped 1", m)
	}
	if p.Enqueue(NewEvent("d", telemetry.Status{})) {
		t.Errorf("enqueue on a stopped pool succeeded")
	}
}
