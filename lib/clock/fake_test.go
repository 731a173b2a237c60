// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}

	clock.Advance(15 * time.Minute)
	want := epoch.Add(15 * time.Minute)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockAfter(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(5 * time.Second)

	clock.Advance(3 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before deadline")
	default:
	}

	clock.Advance(2 * time.Second)
	select {
	case got := <-channel:
		if !got.Equal(epoch.Add(5 * time.Second)) {
			t.Errorf("After delivered %v, want %v", got, epoch.Add(5*time.Second))
		}
	default:
		t.Fatal("After did not fire at the exact deadline")
	}
}

func TestFakeClockAfterNonPositive(t *testing.T) {
	clock := Fake(epoch)
	select {
	case <-clock.After(-time.Second):
	default:
		t.Fatal("After(-1s) should fire immediately")
	}
	if clock.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", clock.PendingCount())
	}
}

func TestFakeClockAfterFunc(t *testing.T) {
	clock := Fake(epoch)
	var calls atomic.Int32
	clock.AfterFunc(2*time.Second, func() { calls.Add(1) })

	clock.Advance(time.Second)
	if calls.Load() != 0 {
		t.Fatal("AfterFunc fired before deadline")
	}

	clock.Advance(time.Second)
	if calls.Load() != 1 {
		t.Fatalf("calls = %d after deadline, want 1", calls.Load())
	}

	clock.Advance(time.Hour)
	if calls.Load() != 1 {
		t.Fatalf("calls = %d after a later advance, want 1 (one-shot)", calls.Load())
	}
}

func TestFakeClockAfterFuncZeroDuration(t *testing.T) {
	clock := Fake(epoch)
	var called atomic.Bool
	timer := clock.AfterFunc(0, func() { called.Store(true) })

	if !called.Load() {
		t.Fatal("AfterFunc(0) should run f synchronously")
	}
	if timer.Stop() {
		t.Error("Stop() on an already-run zero-duration timer should return false")
	}
}

func TestFakeClockAfterFuncStop(t *testing.T) {
	t.Run("before firing", func(t *testing.T) {
		clock := Fake(epoch)
		var called atomic.Bool
		timer := clock.AfterFunc(2*time.Second, func() { called.Store(true) })

		if !timer.Stop() {
			t.Fatal("Stop() should return true for an armed timer")
		}
		if timer.Stop() {
			t.Fatal("second Stop() should return false")
		}
		if clock.PendingCount() != 0 {
			t.Errorf("PendingCount = %d after Stop, want 0", clock.PendingCount())
		}

		clock.Advance(5 * time.Second)
		if called.Load() {
			t.Fatal("callback ran after Stop()")
		}
	})

	t.Run("after firing", func(t *testing.T) {
		clock := Fake(epoch)
		timer := clock.AfterFunc(time.Second, func() {})
		clock.Advance(time.Second)
		if timer.Stop() {
			t.Fatal("Stop() should return false for a fired timer")
		}
	})
}

func TestFakeClockAdvanceFiresInDeadlineOrder(t *testing.T) {
	clock := Fake(epoch)
	var order []int
	clock.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	clock.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	clock.AfterFunc(2*time.Second, func() { order = append(order, 2) })

	clock.Advance(5 * time.Second)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("fire order = %v, want [1 2 3]", order)
	}
}

func TestFakeClockCallbackCanRearm(t *testing.T) {
	clock := Fake(epoch)
	var fired []time.Time
	var arm func()
	arm = func() {
		clock.AfterFunc(10*time.Second, func() {
			fired = append(fired, clock.Now())
			arm()
		})
	}
	arm()

	clock.Advance(10 * time.Second)
	if len(fired) != 1 {
		t.Fatalf("fired %d times after first deadline, want 1", len(fired))
	}
	if clock.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d after re-arm, want 1", clock.PendingCount())
	}

	clock.Advance(10 * time.Second)
	if len(fired) != 2 {
		t.Fatalf("fired %d times after second deadline, want 2", len(fired))
	}
}

func TestFakeClockNextDeadline(t *testing.T) {
	clock := Fake(epoch)
	if _, ok := clock.NextDeadline(); ok {
		t.Fatal("NextDeadline reported a deadline on an idle clock")
	}

	clock.AfterFunc(time.Minute, func() {})
	stopped := clock.AfterFunc(time.Second, func() {})
	stopped.Stop()

	deadline, ok := clock.NextDeadline()
	if !ok {
		t.Fatal("NextDeadline found nothing with one armed timer")
	}
	if !deadline.Equal(epoch.Add(time.Minute)) {
		t.Errorf("NextDeadline = %v, want %v", deadline, epoch.Add(time.Minute))
	}
}

func TestFakeClockWaitForTimers(t *testing.T) {
	clock := Fake(epoch)
	done := make(chan struct{})
	go func() {
		clock.AfterFunc(time.Second, func() { close(done) })
	}()

	clock.WaitForTimers(1)
	clock.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("timer registered from another goroutine never fired")
	}
}
