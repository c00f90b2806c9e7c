// Package temporal turns raw per-frame pose matches into confirmed pose
// events. A pose must hold for a minimum number of consecutive frames
// before it counts; transient shapes a dancer passes through between
// positions are suppressed.
package temporal

import "sort"

// Event is a confirmed contiguous run of one pose. Frame bounds are
// inclusive and confidence is averaged over the whole run.
type Event struct {
	Pose              string
	StartFrame        int
	EndFrame          int
	FrameCount        int
	AverageConfidence float64
}

type runState int

const (
	stateIdle runState = iota
	stateAccumulating
	stateConfirmed
)

type poseRun struct {
	state         runState
	startFrame    int
	lastFrame     int
	count         int
	confidenceSum float64
}

// Filter tracks one run per pose name. State lives entirely inside the
// Filter, so each analysis run gets a fresh instance and runs stay
// independent.
type Filter struct {
	minRun int
	runs   map[string]*poseRun
}

// NewFilter creates a filter requiring minRun consecutive matching frames.
// Values below 1 are treated as 1 (every match confirms immediately).
func NewFilter(minRun int) *Filter {
	if minRun < 1 {
		minRun = 1
	}
	return &Filter{
		minRun: minRun,
		runs:   make(map[string]*poseRun),
	}
}

// Observe feeds one frame's match result for one pose, in increasing frame
// order. It returns a confirmed event when a run that reached the minimum
// length ends on this frame, and nil otherwise. Runs that end before
// reaching the minimum are discarded silently; those are the suppressed
// false positives.
func (f *Filter) Observe(frame int, pose string, matched bool, confidence float64) *Event {
	run, ok := f.runs[pose]
	if !ok {
		run = &poseRun{}
		f.runs[pose] = run
	}

	if matched {
		if run.state == stateIdle {
			run.startFrame = frame
			run.count = 0
			run.confidenceSum = 0
			run.state = stateAccumulating
		}
		run.count++
		run.confidenceSum += confidence
		run.lastFrame = frame
		if run.count >= f.minRun {
			run.state = stateConfirmed
		}
		return nil
	}

	event := f.finish(pose, run)
	run.state = stateIdle
	return event
}

// Flush ends the sequence: any run still confirmed emits its event using
// frames up to the last matching frame. Events are returned sorted by pose
// name so repeated runs on identical input stay byte-identical downstream.
func (f *Filter) Flush() []Event {
	names := make([]string, 0, len(f.runs))
	for name := range f.runs {
		names = append(names, name)
	}
	sort.Strings(names)

	var events []Event
	for _, name := range names {
		run := f.runs[name]
		if event := f.finish(name, run); event != nil {
			events = append(events, *event)
		}
		run.state = stateIdle
	}
	return events
}

func (f *Filter) finish(pose string, run *poseRun) *Event {
	if run.state != stateConfirmed {
		return nil
	}
	return &Event{
		Pose:              pose,
		StartFrame:        run.startFrame,
		EndFrame:          run.lastFrame,
		FrameCount:        run.count,
		AverageConfidence: run.confidenceSum / float64(run.count),
	}
}
