package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"brickworld.dev/internal/game"
)

const sampleRate = beep.SampleRate(44100)

// Player plays event cues through the speaker. It is a game.FrameSink.
// A Player whose speaker failed to initialize stays silent.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
	// muted cues are skipped.
	muted map[Cue]bool
}

func NewPlayer(volume float64) *Player {
	return &Player{mixer: &beep.Mixer{}, volume: volume, muted: map[Cue]bool{}}
}

// Initialize opens the speaker and starts the mixer.
func (p *Player) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

func (p *Player) Mute(c Cue) {
	p.mu.Lock()
	p.muted[c] = true
	p.mu.Unlock()
}

func (p *Player) Play(c Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized || c == CueNone || p.muted[c] {
		return
	}
	s := Build(c, sampleRate)
	if s == nil {
		return
	}
	speaker.Lock()
	p.mixer.Add(newVolume(s, p.volume))
	speaker.Unlock()
}

// PublishFrame plays one cue per distinct kind among the frame's events.
func (p *Player) PublishFrame(f game.Frame) {
	for _, c := range Cues(f) {
		p.Play(c)
	}
}

// Cues lists the distinct cues for a frame's events in first-seen order.
func Cues(f game.Frame) []Cue {
	var out []Cue
	seen := map[Cue]bool{}
	for _, e := range f.Events {
		c := CueFor(e)
		if c == CueNone || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	p.initialized = false
}
