package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/loanflow/origination/internal/core/ports"
)

// recordingMailer collects every delivered message.
type recordingMailer struct {
	mu   sync.Mutex
	sent []ports.Mail
	fail map[string]bool
	done chan struct{}
}

func newRecordingMailer(expected int) *recordingMailer {
	return &recordingMailer{fail: map[string]bool{}, done: make(chan struct{}, expected)}
}

func (r *recordingMailer) Send(_ context.Context, m ports.Mail) error {
	r.mu.Lock()
	r.sent = append(r.sent, m)
	r.mu.Unlock()
	r.done <- struct{}{}
	if r.fail[m.To] {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (r *recordingMailer) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d deliveries", i, n)
		}
	}
}

// ---------------------------------------------------------------------------

func TestShardIndex_StablePerRecipient(t *testing.T) {
	d := NewMailDispatcher(8, newRecordingMailer(0), zerolog.Nop())

	first := d.shardIndex("ana@example.com")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("ana@example.com"); got != first {
			t.Fatalf("shard changed: %d != %d", got, first)
		}
	}
	if got := d.shardIndex("ANA@example.com"); got != first {
		t.Errorf("recipient case should not change shard: %d != %d", got, first)
	}
	if first < 0 || first >= 8 {
		t.Errorf("shard %d out of range", first)
	}
}

func TestNewMailDispatcher_DefaultWorkers(t *testing.T) {
	d := NewMailDispatcher(0, newRecordingMailer(0), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Errorf("workers = %d, want %d", len(d.workers), defaultWorkers)
	}
}

func TestMailDispatcher_DeliversInOrderPerRecipient(t *testing.T) {
	mailer := newRecordingMailer(5)
	d := NewMailDispatcher(4, mailer, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for _, subject := range []string{"1", "2", "3"} {
		d.Enqueue(ports.Mail{To: "ana@example.com", Subject: subject})
	}
	d.Enqueue(ports.Mail{To: "ben@example.com", Subject: "x"})
	d.Enqueue(ports.Mail{To: "cai@example.com", Subject: "y"})
	mailer.wait(t, 5)

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	var ana []string
	for _, m := range mailer.sent {
		if m.To == "ana@example.com" {
			ana = append(ana, m.Subject)
		}
	}
	if len(ana) != 3 || ana[0] != "1" || ana[1] != "2" || ana[2] != "3" {
		t.Errorf("ana's mail out of order: %v", ana)
	}
}

func TestMailDispatcher_FailureDoesNotStopWorker(t *testing.T) {
	mailer := newRecordingMailer(2)
	mailer.fail["ana@example.com"] = true
	d := NewMailDispatcher(1, mailer, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(ports.Mail{To: "ana@example.com", Subject: "fails"})
	d.Enqueue(ports.Mail{To: "ben@example.com", Subject: "delivered"})
	mailer.wait(t, 2)
}

func TestMailDispatcher_FullQueueDrops(t *testing.T) {
	d := NewMailDispatcher(1, newRecordingMailer(0), zerolog.Nop())
	// not started: nothing drains the channel
	for i := 0; i < channelBuffer+5; i++ {
		d.Enqueue(ports.Mail{To: "ana@example.com"})
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Errorf("queued = %d, want %d", got, channelBuffer)
	}
}
