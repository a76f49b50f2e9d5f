package race

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDriverTicksSimulatedSession(t *testing.T) {
	s := NewSession("d1", "u1", DefaultSessionConfig())
	d := NewDriver(s, 5*time.Millisecond, zap.NewNop())

	d.Start(context.Background())
	defer d.Stop()

	err := d.Do(context.Background(), func(s *Session) { s.SetUserSpeed(5.0) })
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		snap, err := d.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if snap.GhostSpeed > 4.5 {
			return // ghost responded to the user's pace
		}
		select {
		case <-deadline:
			t.Fatalf("ghost speed never moved off baseline: %v", snap.GhostSpeed)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDriverStopIsDeterministic(t *testing.T) {
	s := NewSession("d2", "u2", DefaultSessionConfig())
	d := NewDriver(s, time.Millisecond, zap.NewNop())

	d.Start(context.Background())
	d.Stop()

	// Once Stop returns nothing can mutate the session.
	snap, err := d.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot after stop: %v", err)
	}
	if snap.Playing {
		t.Error("session still playing after driver stop")
	}

	before, _ := d.Snapshot(context.Background())
	time.Sleep(20 * time.Millisecond)
	after, _ := d.Snapshot(context.Background())
	if before.GhostPos != after.GhostPos {
		t.Error("session mutated after Stop returned")
	}

	// Late commands report the stopped driver instead of hanging.
	if err := d.Do(context.Background(), func(*Session) {}); err != ErrDriverStopped {
		t.Errorf("Do after stop = %v, want ErrDriverStopped", err)
	}
}

func TestDoAfterStopNeverAcceptsCommands(t *testing.T) {
	s := NewSession("d4", "u4", DefaultSessionConfig())
	d := NewDriver(s, time.Millisecond, zap.NewNop())

	d.Start(context.Background())
	d.Stop()

	// Well past the command buffer size: every late command must be
	// refused, not parked in the buffer and dropped.
	executed := 0
	for i := 0; i < 200; i++ {
		err := d.Do(context.Background(), func(*Session) { executed++ })
		if err != ErrDriverStopped {
			t.Fatalf("Do #%d after stop = %v, want ErrDriverStopped", i, err)
		}
	}
	if executed != 0 {
		t.Errorf("%d commands executed after Stop returned", executed)
	}
}

func TestDoIsSynchronous(t *testing.T) {
	s := NewSession("d5", "u5", DefaultSessionConfig())
	d := NewDriver(s, 5*time.Millisecond, zap.NewNop())

	d.Start(context.Background())
	defer d.Stop()

	// A nil return means the command has already run on the loop.
	ran := false
	if err := d.Do(context.Background(), func(*Session) { ran = true }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Error("Do returned nil before the command executed")
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(5*time.Millisecond, zap.NewNop())
	defer m.Shutdown()

	id := m.Create(context.Background(), "u3", DefaultSessionConfig(), NopSink{})
	d, ok := m.Get(id)
	if !ok {
		t.Fatal("created session not found")
	}

	snap, err := d.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.Playing {
		t.Error("created session not playing")
	}

	if err := m.Stop(id); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, ok := m.Get(id); !ok {
		t.Error("stopped session should stay readable for the post-run summary")
	}

	if err := m.Stop("missing"); err != ErrSessionNotFound {
		t.Errorf("Stop(missing) = %v, want ErrSessionNotFound", err)
	}
}
