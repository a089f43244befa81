package observer

import (
	"brickworld.dev/internal/game"
	"brickworld.dev/internal/observerproto"
	"brickworld.dev/internal/sim/world"
)

func frameMsg(f game.Frame, withEvents bool) observerproto.FrameMsg {
	m := observerproto.FrameMsg{
		Type:            observerproto.TypeFrame,
		ProtocolVersion: observerproto.Version,
		Tick:            f.Tick,
		LevelTick:       f.LevelTick,
		Level:           f.Level,
		Width:           f.Width,
		Height:          f.Height,
		Player: observerproto.PlayerState{
			Name:          f.Player.Name,
			Pos:           f.PlayerPos.ToArray(),
			Health:        f.Player.Health,
			MaxHealth:     f.Player.MaxHealth,
			Score:         f.Player.Score,
			Invincible:    f.Player.Invincible,
			SwitchLocked:  f.Player.SwitchLocked,
			PendingBricks: f.Player.PendingBricks,
		},
		Things:   make([]observerproto.ThingState, 0, len(f.Things)),
		GameOver: f.GameOver,
	}
	for _, t := range f.Things {
		m.Things = append(m.Things, observerproto.ThingState{
			ID:       uint64(t.ID),
			Kind:     t.Kind,
			Category: t.Category.String(),
			Pos:      t.Pos.ToArray(),
			Size:     t.Size.ToArray(),
			Active:   t.Active,
		})
	}
	if withEvents {
		for _, e := range f.Events {
			ev := observerproto.EventMsg{Kind: string(e.Kind), A: e.A, B: e.B, Value: e.Value}
			if e.Side != world.SideNone {
				ev.Side = e.Side.String()
			}
			m.Events = append(m.Events, ev)
		}
	}
	return m
}

func parseCommand(c observerproto.CommandMsg) (game.Command, bool) {
	switch k := game.CommandKind(c.Kind); k {
	case game.CmdLeft, game.CmdRight, game.CmdJump, game.CmdDuck, game.CmdReset:
		return game.Command{Kind: k}, true
	case game.CmdLoad:
		if c.Arg == "" {
			return game.Command{}, false
		}
		return game.Command{Kind: k, Arg: c.Arg}, true
	default:
		return game.Command{}, false
	}
}
