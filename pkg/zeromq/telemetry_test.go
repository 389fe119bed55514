package zeromq

import (
	"testing"
	"time"

	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/telemetry"
)

func TestPublishSubscribeStatus(t *testing.T) {
	logger := customlog.NewDiscardLogger()
	const address = "tcp://127.0.0.1:45563"

	pub, err := NewTelemetryPublisher(address, logger)
	if err != nil {
		t.Fatalf("NewTelemetryPublisher failed: %v", err)
	}
	defer pub.Close()

	type received struct {
		topic  string
		status telemetry.Status
	}
	got := make(chan received, 16)
	sub, err := NewTelemetryListener(address, func(topic string, s telemetry.Status) {
		select {
		case got <- received{topic, s}:
		default:
		}
	}, logger, telemetry.TopicSafety)
	if err != nil {
		t.Fatalf("NewTelemetryListener failed: %v", err)
	}
	sub.Start()
	defer sub.Stop()

	want := telemetry.Status{
		RobotID:   "r1",
		LinkState: "authenticated",
		Joints:    [5]int{90, 90, 90, 90, 110},
		Event:     telemetry.EventHeartbeatTimeout,
	}

	// PUB drops frames until the subscription has propagated, so keep
	// publishing until one arrives.
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case r := <-got:
			if r.topic != telemetry.TopicSafety {
				t.Fatalf("received topic %q, want %q", r.topic, telemetry.TopicSafety)
			}
			if r.status.RobotID != want.RobotID || r.status.Joints != want.Joints || r.status.Event != want.Event {
				t.Fatalf("received %+v, want %+v", r.status, want)
			}
			return
		case <-ticker.C:
			if err := pub.Publish(telemetry.TopicStatus, want); err != nil {
				t.Fatalf("Publish status failed: %v", err)
			}
			if err := pub.Publish(telemetry.TopicSafety, want); err != nil {
				t.Fatalf("Publish safety failed: %v", err)
			}
		case <-deadline:
			t.Fatalf("no telemetry received")
		}
	}
}

func TestPublishAfterClose(t *testing.T) {
	pub, err := NewTelemetryPublisher("inproc://closed-publisher", customlog.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewTelemetryPublisher failed: %v", err)
	}
	pub.Close()
	if err := pub.Publish(telemetry.TopicStatus, telemetry.Status{}); err != ErrPublisherClosed {
		t.Errorf("Publish after Close returned %v, want ErrPublisherClosed", err)
	}
}
