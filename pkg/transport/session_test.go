package transport

import (
	"bufio"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

func waitFrame(t *testing.T, s Session) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msg, ok := s.Poll(); ok {
			return msg
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("no frame received")
	return ""
}

func TestLineSessionOrderingAndClose(t *testing.T) {
	device, peer := net.Pipe()
	s := NewLineSession(device, "pipe")
	defer s.Close()

	if s.ID() == "" {
		t.Fatalf("session has no id")
	}
	if _, ok := s.Poll(); ok {
		t.Fatalf("Poll returned a frame before any arrived")
	}

	go io.WriteString(peer, "AUTH:s3cret\r\nPING\nMECANUM 1 2 3 4\n")
	for _, want := range []string{"AUTH:s3cret", "PING", "MECANUM 1 2 3 4"} {
		if got := waitFrame(t, s); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}

	replies := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(peer).ReadString('\n')
		replies <- line
	}()
	if err := s.Send("PONG"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got := <-replies; got != "PONG\n" {
		t.Errorf("peer read %q", got)
	}

	peer.Close()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session not done after peer closed")
	}
	if err := s.Send("OK"); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after close = %v, want ErrClosed", err)
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a, _ := net.Pipe()
	b, _ := net.Pipe()
	s1 := NewLineSession(a, "a")
	s2 := NewLineSession(b, "b")
	defer s1.Close()
	defer s2.Close()
	if s1.ID() == s2.ID() {
		t.Errorf("duplicate session id %s", s1.ID())
	}
}

func TestBackoff(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: time.Second}
	want := []time.Duration{100, 200, 400, 800, 1000, 1000}
	for i, w := range want {
		if got := b.Next(); got != w*time.Millisecond {
			t.Errorf("attempt %d: %v, want %v", i, got, w*time.Millisecond)
		}
	}
	b.Reset()
	if got := b.Next(); got != 100*time.Millisecond {
		t.Errorf("after Reset: %v", got)
	}
}
