package timex

import (
	"context"
	"testing"
	"time"

	"spider-go/errcode"
)

func TestOpenTimerWithoutClock(t *testing.T) {
	if _, err := OpenTimer(nil); errcode.Of(err) != errcode.TimerUnavailable {
		t.Fatalf("err = %v", err)
	}
}

func TestWaitTODeadline(t *testing.T) {
	tm, err := OpenTimer(SystemClock())
	if err != nil {
		t.Fatal(err)
	}
	defer tm.Close()

	start := tm.Now()
	woke, err := tm.WaitTO(context.Background(), 5*time.Millisecond, make(chan struct{}))
	if err != nil || woke {
		t.Fatalf("WaitTO = %v, %v; want timeout", woke, err)
	}
	if el := tm.Now() - start; el < 5*time.Millisecond {
		t.Fatalf("returned after %v", el)
	}
}

func TestWaitSignalCancelsDeadline(t *testing.T) {
	tm, _ := OpenTimer(SystemClock())
	defer tm.Close()

	sig := make(chan struct{}, 1)
	sig <- struct{}{}
	woke, err := tm.WaitTO(context.Background(), time.Hour, sig)
	if err != nil || !woke {
		t.Fatalf("WaitTO = %v, %v; want signal", woke, err)
	}
	if tm.Armed() {
		t.Fatal("deadline still armed after signal wake")
	}

	// The aborted request must not leak into the next wait.
	woke, _ = tm.WaitTO(context.Background(), 2*time.Millisecond, nil)
	if woke {
		t.Fatal("stale wake")
	}
}

func TestWaitContextAndClose(t *testing.T) {
	tm, _ := OpenTimer(SystemClock())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tm.WaitTO(ctx, time.Hour, nil); err != context.Canceled {
		t.Fatalf("err = %v", err)
	}
	tm.Close()
	if _, err := tm.Wait(context.Background(), nil); errcode.Of(err) != errcode.TimerUnavailable {
		t.Fatalf("after Close: %v", err)
	}
}
