// Package countdown implements the pomodoro countdown as an explicit state
// machine. State changes only through Reduce, driven by discrete events;
// side effects (notifications, auto-starts) are emitted as commands on a
// channel supplied by the caller. Persisted configuration lives in Config,
// never inside the ephemeral State.
package countdown

import "time"

type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseWork       Phase = "WORK"
	PhaseShortBreak Phase = "SHORT_BREAK"
	PhaseLongBreak  Phase = "LONG_BREAK"
)

type EventType string

const (
	EventStart  EventType = "START"
	EventTick   EventType = "TICK"
	EventPause  EventType = "PAUSE"
	EventResume EventType = "RESUME"
	EventSkip   EventType = "SKIP"
	EventReset  EventType = "RESET"
)

type Event struct {
	Type EventType
	// Elapsed is how much countdown time a TICK consumes. Zero defaults
	// to one second.
	Elapsed time.Duration
}

type CommandType string

const (
	CmdNotifyPhaseDone  CommandType = "NOTIFY_PHASE_DONE"
	CmdAutoStartedPhase CommandType = "AUTO_STARTED_PHASE"
)

// Command is a side effect the reducer wants performed. The reducer never
// touches platform code itself.
type Command struct {
	Type  CommandType
	Phase Phase
}

// Config is the persisted timer configuration.
type Config struct {
	WorkDuration       time.Duration
	ShortBreakDuration time.Duration
	LongBreakDuration  time.Duration
	// LongBreakInterval is the number of work phases before a long break.
	LongBreakInterval int
	AutoStartBreaks   bool
	AutoStartWork     bool
}

func DefaultConfig() Config {
	return Config{
		WorkDuration:       25 * time.Minute,
		ShortBreakDuration: 5 * time.Minute,
		LongBreakDuration:  15 * time.Minute,
		LongBreakInterval:  4,
		AutoStartBreaks:    false,
		AutoStartWork:      false,
	}
}

// State is the ephemeral countdown state. It carries no configuration and
// no callbacks.
type State struct {
	Phase     Phase
	Remaining time.Duration
	Paused    bool
	// WorkStreak counts completed work phases since the last long break.
	WorkStreak int
	// Pending is the phase a START event should enter when idle. Empty
	// means work.
	Pending Phase
}

func Initial() State {
	return State{Phase: PhaseIdle}
}

// Reduce applies one event to the state and returns the next state. Commands
// are sent on cmds, which must be buffered or drained by the caller; a nil
// channel discards them.
func Reduce(s State, cfg Config, ev Event, cmds chan<- Command) State {
	switch ev.Type {
	case EventStart:
		if s.Phase != PhaseIdle {
			return s
		}
		phase := s.Pending
		if phase == "" || phase == PhaseIdle {
			phase = PhaseWork
		}
		return State{Phase: phase, Remaining: phaseDuration(phase, cfg), WorkStreak: s.WorkStreak}

	case EventTick:
		if s.Phase == PhaseIdle || s.Paused {
			return s
		}
		elapsed := ev.Elapsed
		if elapsed <= 0 {
			elapsed = time.Second
		}
		s.Remaining -= elapsed
		if s.Remaining > 0 {
			return s
		}
		return advance(s, cfg, cmds)

	case EventPause:
		if s.Phase == PhaseIdle || s.Paused {
			return s
		}
		s.Paused = true
		return s

	case EventResume:
		if !s.Paused {
			return s
		}
		s.Paused = false
		return s

	case EventSkip:
		if s.Phase == PhaseIdle {
			return s
		}
		return advance(s, cfg, cmds)

	case EventReset:
		return State{WorkStreak: s.WorkStreak}
	}

	return s
}

// advance finishes the current phase and moves to the next one, honoring
// auto-start configuration. A phase that isn't auto-started lands in Idle.
func advance(s State, cfg Config, cmds chan<- Command) State {
	emit(cmds, Command{Type: CmdNotifyPhaseDone, Phase: s.Phase})

	next := State{Phase: PhaseIdle, WorkStreak: s.WorkStreak}

	switch s.Phase {
	case PhaseWork:
		next.WorkStreak++
		target := PhaseShortBreak
		if cfg.LongBreakInterval > 0 && next.WorkStreak%cfg.LongBreakInterval == 0 {
			target = PhaseLongBreak
		}
		if cfg.AutoStartBreaks {
			next.Phase = target
			next.Remaining = phaseDuration(target, cfg)
			emit(cmds, Command{Type: CmdAutoStartedPhase, Phase: target})
		} else {
			next.Pending = target
		}

	case PhaseShortBreak, PhaseLongBreak:
		if s.Phase == PhaseLongBreak {
			next.WorkStreak = 0
		}
		if cfg.AutoStartWork {
			next.Phase = PhaseWork
			next.Remaining = cfg.WorkDuration
			emit(cmds, Command{Type: CmdAutoStartedPhase, Phase: PhaseWork})
		} else {
			next.Pending = PhaseWork
		}
	}

	return next
}

func phaseDuration(p Phase, cfg Config) time.Duration {
	switch p {
	case PhaseShortBreak:
		return cfg.ShortBreakDuration
	case PhaseLongBreak:
		return cfg.LongBreakDuration
	default:
		return cfg.WorkDuration
	}
}

func emit(cmds chan<- Command, cmd Command) {
	if cmds == nil {
		return
	}
	select {
	case cmds <- cmd:
	default:
	}
}
