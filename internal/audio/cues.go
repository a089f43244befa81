package audio

import (
	"time"

	"github.com/gopxl/beep"

	"brickworld.dev/internal/sim/world"
)

// Cue is a short sound tied to a world event.
type Cue int

const (
	CueNone Cue = iota
	CueCoin
	CueBump
	CueBounce
	CueSwitch
	CueRestore
	CueStar
	CueStarEnd
	CueStomp
	CueHurt
	CueHeal
	CueLevel
	CueFell
)

var cueNames = [...]string{"none", "coin", "bump", "bounce", "switch", "restore", "star", "star_end", "stomp", "hurt", "heal", "level", "fell"}

func (c Cue) String() string {
	if c < 0 || int(c) >= len(cueNames) {
		return "none"
	}
	return cueNames[c]
}

// CueFor maps a world event to its sound. Most events are silent.
func CueFor(e world.Event) Cue {
	switch e.Kind {
	case world.EventCollect:
		if e.B == world.KindStar {
			return CueStar
		}
		return CueCoin
	case world.EventMystery:
		return CueBump
	case world.EventBounce:
		return CueBounce
	case world.EventSwitch:
		return CueSwitch
	case world.EventRestore:
		if e.Value == 0 {
			return CueNone
		}
		return CueRestore
	case world.EventInvincibleEnd:
		return CueStarEnd
	case world.EventStomp:
		return CueStomp
	case world.EventDamage:
		return CueHurt
	case world.EventHeal:
		return CueHeal
	case world.EventTransition:
		return CueLevel
	case world.EventFell:
		return CueFell
	default:
		return CueNone
	}
}

// Build synthesizes c at rate. It returns nil for CueNone.
func Build(c Cue, rate beep.SampleRate) beep.Streamer {
	ms := time.Millisecond
	switch c {
	case CueCoin:
		// B5 then E6.
		return beep.Seq(note(987.77, 60*ms, WaveSquare, rate), note(1318.51, 180*ms, WaveSquare, rate))
	case CueBump:
		return note(180, 80*ms, WaveSquare, rate)
	case CueBounce:
		return NewEnvelope(NewSweep(220, 880, 150*ms, WaveTriangle, rate), 150*ms, 5*ms, 50*ms, rate)
	case CueSwitch:
		return beep.Seq(note(440, 60*ms, WaveSquare, rate), note(330, 60*ms, WaveSquare, rate), note(220, 90*ms, WaveSquare, rate))
	case CueRestore:
		return NewEnvelope(NewOscillator(0, 200*ms, WaveNoise, rate), 200*ms, 10*ms, 120*ms, rate)
	case CueStar:
		return beep.Seq(
			note(523.25, 70*ms, WaveSquare, rate),
			note(659.25, 70*ms, WaveSquare, rate),
			note(783.99, 70*ms, WaveSquare, rate),
			note(1046.5, 160*ms, WaveSquare, rate),
		)
	case CueStarEnd:
		return beep.Seq(note(783.99, 80*ms, WaveTriangle, rate), note(523.25, 160*ms, WaveTriangle, rate))
	case CueStomp:
		return NewEnvelope(NewSweep(600, 150, 100*ms, WaveSquare, rate), 100*ms, 2*ms, 40*ms, rate)
	case CueHurt:
		return beep.Mix(
			newVolume(NewEnvelope(NewSweep(300, 80, 250*ms, WaveSquare, rate), 250*ms, 5*ms, 100*ms, rate), 0.7),
			newVolume(NewEnvelope(NewOscillator(0, 250*ms, WaveNoise, rate), 250*ms, 5*ms, 200*ms, rate), 0.3),
		)
	case CueHeal:
		return beep.Seq(note(659.25, 80*ms, WaveSine, rate), note(880, 200*ms, WaveSine, rate))
	case CueLevel:
		return beep.Seq(
			note(392, 100*ms, WaveSquare, rate),
			note(523.25, 100*ms, WaveSquare, rate),
			note(659.25, 100*ms, WaveSquare, rate),
			note(783.99, 300*ms, WaveSquare, rate),
		)
	case CueFell:
		return NewEnvelope(NewSweep(880, 110, 600*ms, WaveTriangle, rate), 600*ms, 5*ms, 200*ms, rate)
	default:
		return nil
	}
}
