package sim

import (
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/registry"
)

var natives = registry.New[ExecFunc]("native")

// Ids of the built-in natives.
const (
	NativeEndGame      uint32 = 1
	NativeHealPlayer   uint32 = 2
	NativeSaveProgress uint32 = 3
)

// RegisterNative makes fn callable from EXEC instructions with the given
// id. Panics if the id is taken.
func RegisterNative(id uint32, name string, fn ExecFunc) {
	natives.Register(id, name, fn)
}

// Natives lists the registered natives sorted by id.
func Natives() []registry.Info {
	return natives.List()
}

func init() {
	RegisterNative(NativeEndGame, "end_game", func(m *Map, s *Script) Result {
		m.State |= core.MSFEnding
		m.logger.Info("game ending", "frame", m.Frame)
		return Continue
	})
	RegisterNative(NativeHealPlayer, "heal_player", func(m *Map, s *Script) Result {
		a := m.actors.Get(s.caller)
		if a == nil {
			a = m.Player()
		}
		if a != nil && a.Class.Damage != nil {
			a.Class.Damage(m, a, -100, core.DamageAmbient)
		}
		return Continue
	})
	RegisterNative(NativeSaveProgress, "save_progress", func(m *Map, s *Script) Result {
		if m.deps.OnSave != nil {
			m.deps.OnSave(SavePlayer(m.Player()))
		}
		return Continue
	})
}
