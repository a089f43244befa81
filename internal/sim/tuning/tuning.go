package tuning

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"brickworld.dev/internal/sim/world"
)

type Tuning struct {
	TickRateHz      int        `yaml:"tick_rate_hz"`
	FrameEveryTicks int        `yaml:"frame_every_ticks"`
	BlockSize       float64    `yaml:"block_size"`
	Gravity         [2]float64 `yaml:"gravity"`
	StartLevel      string     `yaml:"start_level"`
	RestartOnDeath  bool       `yaml:"restart_on_death"`

	Player Player `yaml:"player"`

	InvincibleMs     int     `yaml:"invincible_ms"`
	SwitchLockMs     int     `yaml:"switch_lock_ms"`
	SwitchRadius     float64 `yaml:"switch_radius"`
	BounceSpeed      float64 `yaml:"bounce_speed"`
	StompBounceSpeed float64 `yaml:"stomp_bounce_speed"`
	FlagHeal         int     `yaml:"flag_heal"`

	Mobs Mobs `yaml:"mobs"`
}

type Player struct {
	Name      string     `yaml:"name"`
	Start     [2]float64 `yaml:"start"`
	MaxHealth int        `yaml:"max_health"`
	MaxSpeed  float64    `yaml:"max_speed"`
	Mass      float64    `yaml:"mass"`
	MoveSpeed float64    `yaml:"move_speed"`
	JumpSpeed float64    `yaml:"jump_speed"`
	DuckSpeed float64    `yaml:"duck_speed"`
	Friction  float64    `yaml:"friction"`
}

type Mobs struct {
	MushroomTempo     float64 `yaml:"mushroom_tempo"`
	MushroomDamage    int     `yaml:"mushroom_damage"`
	MushroomKnockback float64 `yaml:"mushroom_knockback"`
	FireballDamage    int     `yaml:"fireball_damage"`
	CloudTempo        float64 `yaml:"cloud_tempo"`
	CloudRange        float64 `yaml:"cloud_range"`
	CoinValue         int     `yaml:"coin_value"`
}

// MaxTickRateHz keeps TickDuration at a whole millisecond or more, the
// resolution of tick timestamps.
const MaxTickRateHz = 1000

func Defaults() Tuning {
	return Tuning{
		TickRateHz:      60,
		FrameEveryTicks: 1,
		BlockSize:       16,
		Gravity:         [2]float64{0, 300},
		StartLevel:      "level1",
		RestartOnDeath:  true,
		Player: Player{
			Name:      "Mario",
			Start:     [2]float64{16, 16},
			MaxHealth: 5,
			MaxSpeed:  100,
			Mass:      300,
			MoveSpeed: 80,
			JumpSpeed: 150,
			DuckSpeed: 160,
			Friction:  6,
		},
		InvincibleMs:     10000,
		SwitchLockMs:     3000,
		SwitchRadius:     65,
		BounceSpeed:      300,
		StompBounceSpeed: 120,
		FlagHeal:         3,
		Mobs: Mobs{
			MushroomTempo:     40,
			MushroomDamage:    1,
			MushroomKnockback: 80,
			FireballDamage:    1,
			CloudTempo:        20,
			CloudRange:        48,
			CoinValue:         1,
		},
	}
}

// Load reads path over Defaults, so a partial file only overrides what it names.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var bad []string
	if t.TickRateHz <= 0 || t.TickRateHz > MaxTickRateHz {
		bad = append(bad, fmt.Sprintf("tick_rate_hz must be in 1..%d", MaxTickRateHz))
	}
	if t.FrameEveryTicks <= 0 {
		bad = append(bad, "frame_every_ticks must be > 0")
	}
	if t.BlockSize <= 0 {
		bad = append(bad, "block_size must be > 0")
	}
	if t.Player.MaxHealth <= 0 {
		bad = append(bad, "player.max_health must be > 0")
	}
	if t.Player.MaxSpeed <= 0 {
		bad = append(bad, "player.max_speed must be > 0")
	}
	if t.Player.Mass <= 0 {
		bad = append(bad, "player.mass must be > 0")
	}
	if t.InvincibleMs < 0 || t.SwitchLockMs < 0 {
		bad = append(bad, "effect windows must be >= 0")
	}
	if t.SwitchRadius < 0 {
		bad = append(bad, "switch_radius must be >= 0")
	}
	if strings.TrimSpace(t.StartLevel) == "" {
		bad = append(bad, "start_level is required")
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", world.ErrInvalidConfig, strings.Join(bad, "; "))
	}
	return nil
}

func (t Tuning) TickDuration() time.Duration {
	return time.Second / time.Duration(t.TickRateHz)
}

// WorldConfig builds the simulation constants for a level of the given pixel size.
func (t Tuning) WorldConfig(width, height float64) world.Config {
	return world.Config{
		Width:         width,
		Height:        height,
		BlockSize:     t.BlockSize,
		Gravity:       world.VecFromArray(t.Gravity),
		InvincibleFor: time.Duration(t.InvincibleMs) * time.Millisecond,
		SwitchLockFor: time.Duration(t.SwitchLockMs) * time.Millisecond,
		SwitchRadius:  t.SwitchRadius,
		BounceSpeed:   t.BounceSpeed,
		StompBounce:   t.StompBounceSpeed,
		FlagHeal:      t.FlagHeal,
	}
}

// NewPlayer builds the run's player from the tuning.
func (t Tuning) NewPlayer() (*world.Player, error) {
	size := world.Vec2{X: t.BlockSize, Y: t.BlockSize}
	p, err := world.NewPlayer(t.Player.Name, size, t.Player.MaxHealth)
	if err != nil {
		return nil, err
	}
	if err := p.SetMass(t.Player.Mass); err != nil {
		return nil, err
	}
	if err := p.SetMaxSpeed(t.Player.MaxSpeed); err != nil {
		return nil, err
	}
	p.JumpSpeed = t.Player.JumpSpeed
	p.DuckSpeed = t.Player.DuckSpeed
	p.Friction = t.Player.Friction
	return p, nil
}
