package world

// ThingState is a read-only snapshot of one thing, shared by renderers,
// observers and the tick log.
type ThingState struct {
	ID       ThingID  `json:"id"`
	Kind     string   `json:"kind"`
	Category Category `json:"category"`
	Pos      Vec2     `json:"pos"`
	Size     Vec2     `json:"size"`
	Vel      Vec2     `json:"vel"`
	Active   *bool    `json:"active,omitempty"`
}

// PlayerState is the player's HUD-relevant state.
type PlayerState struct {
	Name          string `json:"name"`
	Health        int    `json:"health"`
	MaxHealth     int    `json:"max_health"`
	Score         int    `json:"score"`
	Invincible    bool   `json:"invincible"`
	SwitchLocked  bool   `json:"switch_locked"`
	PendingBricks int    `json:"pending_bricks"`
	OnTunnel      bool   `json:"on_tunnel,omitempty"`
	OnFlag        bool   `json:"on_flag,omitempty"`
	Jumping       bool   `json:"jumping,omitempty"`
}

// Snapshot lists the live things in registration order.
func (w *World) Snapshot() []ThingState {
	out := make([]ThingState, 0, len(w.things))
	for _, t := range w.things {
		b := t.Base()
		if b.removed {
			continue
		}
		st := ThingState{ID: b.id, Kind: b.kind, Category: b.cat, Pos: b.Pos, Size: b.Size, Vel: b.Vel}
		switch v := t.(type) {
		case *MysteryBlock:
			active := v.active
			st.Active = &active
		case *Switch:
			active := v.active
			st.Active = &active
		}
		out = append(out, st)
	}
	return out
}

func (p *Player) State() PlayerState {
	return PlayerState{
		Name:          p.name,
		Health:        p.health,
		MaxHealth:     p.maxHealth,
		Score:         p.score,
		Invincible:    p.invincible.active,
		SwitchLocked:  p.switchLock.active,
		PendingBricks: len(p.pendingBricks),
		OnTunnel:      p.onTunnel,
		OnFlag:        p.onFlag,
		Jumping:       p.jumping,
	}
}
