package term

import (
	"github.com/gdamore/tcell/v2"

	"brickworld.dev/internal/game"
)

// Command maps a key to a game command: a/Left, d/Right, w/Up/space jump,
// s/Down duck, r reset.
func Command(key tcell.Key, ch rune) (game.Command, bool) {
	switch key {
	case tcell.KeyLeft:
		return game.Command{Kind: game.CmdLeft}, true
	case tcell.KeyRight:
		return game.Command{Kind: game.CmdRight}, true
	case tcell.KeyUp:
		return game.Command{Kind: game.CmdJump}, true
	case tcell.KeyDown:
		return game.Command{Kind: game.CmdDuck}, true
	case tcell.KeyRune:
	default:
		return game.Command{}, false
	}
	switch ch {
	case 'a', 'A':
		return game.Command{Kind: game.CmdLeft}, true
	case 'd', 'D':
		return game.Command{Kind: game.CmdRight}, true
	case 'w', 'W', ' ':
		return game.Command{Kind: game.CmdJump}, true
	case 's', 'S':
		return game.Command{Kind: game.CmdDuck}, true
	case 'r', 'R':
		return game.Command{Kind: game.CmdReset}, true
	}
	return game.Command{}, false
}

func CommandForEvent(ev *tcell.EventKey) (game.Command, bool) {
	return Command(ev.Key(), ev.Rune())
}

// IsQuit reports Escape, Ctrl-C and q.
func IsQuit(key tcell.Key, ch rune) bool {
	return key == tcell.KeyEscape || key == tcell.KeyCtrlC || (key == tcell.KeyRune && ch == 'q')
}
