package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/leadpilot/pilot/internal/client"
)

// kindBackend routes status replies by job kind.
type kindBackend struct {
	fakeBackend
	statuses map[client.JobKind]statusReply
}

func (k *kindBackend) JobStatus(_ context.Context, kind client.JobKind) (*client.JobStatus, error) {
	reply := k.statuses[kind]
	return reply.status, reply.err
}

func newTestCoordinator(backend Backend) *Coordinator {
	return NewCoordinator(context.Background(), backend, Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestCoordinator_OneControllerPerKind(t *testing.T) {
	coord := newTestCoordinator(&fakeBackend{})
	t.Cleanup(coord.Close)

	for _, kind := range client.Kinds() {
		first, err := coord.Controller(kind)
		if err != nil {
			t.Fatalf("Controller(%s) error = %v", kind, err)
		}

		second, _ := coord.Controller(kind)
		if first != second {
			t.Errorf("Controller(%s) returned different instances", kind)
		}
		if first.Kind() != kind {
			t.Errorf("Kind() = %s, want %s", first.Kind(), kind)
		}
	}

	if _, err := coord.Controller("email"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Controller(email) error = %v, want ErrUnknownKind", err)
	}

	snaps := coord.Snapshots()
	if len(snaps) != 2 || snaps[0].Kind != client.KindScrape || snaps[1].Kind != client.KindMessaging {
		t.Errorf("Snapshots() = %+v", snaps)
	}
}

func TestCoordinator_KindsAreIndependent(t *testing.T) {
	coord := newTestCoordinator(&fakeBackend{})
	t.Cleanup(coord.Close)

	ctx := context.Background()

	if err := coord.Start(ctx, client.KindScrape, client.ScrapeConfig{Limit: 1}); err != nil {
		t.Fatalf("Start(scrape) error = %v", err)
	}
	if err := coord.Start(ctx, client.KindMessaging, client.MessagingConfig{Limit: 1, MessageTemplate: "Hi"}); err != nil {
		t.Fatalf("Start(messaging) error = %v", err)
	}

	if err := coord.Stop(ctx, client.KindScrape); err != nil {
		t.Fatalf("Stop(scrape) error = %v", err)
	}

	snaps := coord.Snapshots()
	if snaps[0].Phase != PhaseTerminal {
		t.Errorf("scrape phase = %s, want terminal", snaps[0].Phase)
	}
	if snaps[1].Phase != PhaseRunning {
		t.Errorf("messaging phase = %s, want running", snaps[1].Phase)
	}
}

func TestCoordinator_Reconcile(t *testing.T) {
	backend := &kindBackend{
		statuses: map[client.JobKind]statusReply{
			client.KindScrape:    {err: errors.New("connection refused")},
			client.KindMessaging: running("Sending 1/10"),
		},
	}

	coord := newTestCoordinator(backend)
	t.Cleanup(coord.Close)

	err := coord.Reconcile(context.Background())
	if err == nil {
		t.Fatal("Reconcile() expected the scrape status error")
	}

	snaps := coord.Snapshots()
	if snaps[0].Phase != PhaseIdle {
		t.Errorf("scrape phase = %s, want idle", snaps[0].Phase)
	}
	if snaps[1].Phase != PhaseRunning || !snaps[1].Recovered {
		t.Errorf("messaging snapshot = %+v, want recovered running", snaps[1])
	}
}

func TestCoordinator_SnapshotAndAcknowledge(t *testing.T) {
	coord := newTestCoordinator(&fakeBackend{})
	t.Cleanup(coord.Close)

	ctx := context.Background()

	if err := coord.Acknowledge(client.KindScrape); !errors.Is(err, ErrNotTerminal) {
		t.Fatalf("Acknowledge(idle) error = %v, want ErrNotTerminal", err)
	}

	if err := coord.Start(ctx, client.KindScrape, client.ScrapeConfig{Keywords: "dentist", Limit: 1}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := coord.Stop(ctx, client.KindScrape); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	snap, err := coord.Snapshot(client.KindScrape)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if snap.Phase != PhaseTerminal || !snap.Stopped {
		t.Fatalf("Snapshot() = phase %s stopped %v, want stopped terminal", snap.Phase, snap.Stopped)
	}

	if err := coord.Acknowledge(client.KindScrape); err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}

	snap, _ = coord.Snapshot(client.KindScrape)
	if snap.Phase != PhaseIdle || len(snap.Logs) != 0 || snap.ID != "" {
		t.Errorf("after Acknowledge = %+v, want fresh idle session", snap)
	}

	if _, err := coord.Snapshot("email"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Snapshot(email) error = %v, want ErrUnknownKind", err)
	}

	if err := coord.Acknowledge("email"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Acknowledge(email) error = %v, want ErrUnknownKind", err)
	}
}
