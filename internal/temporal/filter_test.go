package temporal

import (
	"math"
	"testing"
)

// feed runs a match/no-match sequence for one pose starting at frame 0 and
// collects every emitted event plus the flush.
func feed(f *Filter, pose string, matched []bool) []Event {
	var events []Event
	for frame, m := range matched {
		if e := f.Observe(frame, pose, m, 1.0); e != nil {
			events = append(events, *e)
		}
	}
	return append(events, f.Flush()...)
}

func TestShortRunSuppressed(t *testing.T) {
	f := NewFilter(3)
	events := feed(f, "T-Pose", []bool{false, true, true, false, false})
	if len(events) != 0 {
		t.Fatalf("2-frame run emitted events with k=3: %+v", events)
	}
}

func TestRunConfirmedAtMinimum(t *testing.T) {
	f := NewFilter(3)
	events := feed(f, "T-Pose", []bool{false, true, true, true, false})
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Pose != "T-Pose" || e.StartFrame != 1 || e.EndFrame != 3 || e.FrameCount != 3 {
		t.Errorf("unexpected event: %+v", e)
	}
}

func TestIsolatedMatchesNeverConfirm(t *testing.T) {
	f := NewFilter(2)
	events := feed(f, "Squat", []bool{true, false, true, false, true, false})
	if len(events) != 0 {
		t.Fatalf("isolated single-frame matches confirmed: %+v", events)
	}
}

func TestFlushEmitsOpenRun(t *testing.T) {
	f := NewFilter(3)
	for frame := 0; frame < 5; frame++ {
		if e := f.Observe(frame, "Arms-Up", true, 0.9); e != nil {
			t.Fatalf("event emitted before the sequence ended: %+v", e)
		}
	}

	events := f.Flush()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.StartFrame != 0 || e.EndFrame != 4 || e.FrameCount != 5 {
		t.Errorf("unexpected event bounds: %+v", e)
	}
	if math.Abs(e.AverageConfidence-0.9) > 1e-9 {
		t.Errorf("average confidence = %v, want 0.9", e.AverageConfidence)
	}
}

func TestConfidenceAveragedOverRun(t *testing.T) {
	f := NewFilter(2)
	f.Observe(0, "Lunge", true, 1.0)
	f.Observe(1, "Lunge", true, 0.5)
	e := f.Observe(2, "Lunge", false, 0)
	if e == nil {
		t.Fatal("confirmed run ending should emit an event")
	}
	if math.Abs(e.AverageConfidence-0.75) > 1e-9 {
		t.Errorf("average confidence = %v, want 0.75", e.AverageConfidence)
	}
}

func TestSeparateRunsEmitSeparateEvents(t *testing.T) {
	f := NewFilter(2)
	events := feed(f, "T-Pose", []bool{true, true, false, false, true, true, true})
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].StartFrame != 0 || events[0].EndFrame != 1 {
		t.Errorf("first event bounds wrong: %+v", events[0])
	}
	if events[1].StartFrame != 4 || events[1].EndFrame != 6 {
		t.Errorf("second event bounds wrong: %+v", events[1])
	}
}

func TestPosesTrackedIndependently(t *testing.T) {
	f := NewFilter(2)
	for frame := 0; frame < 3; frame++ {
		f.Observe(frame, "T-Pose", true, 1.0)
		f.Observe(frame, "Arms-Up", frame < 1, 1.0)
	}

	events := f.Flush()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	if events[0].Pose != "T-Pose" {
		t.Errorf("wrong pose confirmed: %+v", events[0])
	}
}

func TestFlushOrderDeterministic(t *testing.T) {
	f := NewFilter(1)
	for _, pose := range []string{"Squat", "Arms-Up", "T-Pose"} {
		f.Observe(0, pose, true, 1.0)
	}

	events := f.Flush()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	want := []string{"Arms-Up", "Squat", "T-Pose"}
	for i, e := range events {
		if e.Pose != want[i] {
			t.Errorf("event %d is %q, want %q", i, e.Pose, want[i])
		}
	}
}

func TestMinRunClampedToOne(t *testing.T) {
	f := NewFilter(0)
	f.Observe(0, "T-Pose", true, 1.0)
	e := f.Observe(1, "T-Pose", false, 0)
	if e == nil {
		t.Fatal("single match with clamped k should confirm")
	}
	if e.FrameCount != 1 {
		t.Errorf("frame count = %d, want 1", e.FrameCount)
	}
}
