package mapasset

import (
	"fmt"
	"math"
	"strconv"

	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/core"
	"gopkg.in/yaml.v3"
)

// Command operand forms accepted by the source compiler. A command is either
// a bare name ("exit") or a single-key mapping ("delay: 60").
type (
	dialogCmd struct {
		Text   string `yaml:"text"`
		Target string `yaml:"target"`
	}
	cameraCmd struct {
		Target string  `yaml:"target"`
		Speed  float32 `yaml:"speed"`
	}
	waterCmd struct {
		Y     *float32 `yaml:"y"`
		Step  float32  `yaml:"step"`
		Color string   `yaml:"color"`
	}
	loadMapCmd struct {
		Map   uint32 `yaml:"map"`
		Fade  string `yaml:"fade"`
		Color string `yaml:"color"`
	}
	musicCmd struct {
		Music uint32  `yaml:"music"`
		Fade  float32 `yaml:"fade"`
		Flags uint32  `yaml:"flags"`
	}
	soundCmd struct {
		Actor    string `yaml:"actor"`
		Sound    uint32 `yaml:"sound"`
		Priority int32  `yaml:"priority"`
	}
	particlesCmd struct {
		Target            string   `yaml:"target"`
		Gfx               uint16   `yaml:"gfx"`
		Tiles             uint16   `yaml:"tiles"`
		Flags             []string `yaml:"flags"`
		InitFrame         uint16   `yaml:"init_frame"`
		Offset            [2]int32 `yaml:"offset"`
		WidthVariance     uint16   `yaml:"width_variance"`
		HeightVariance    uint16   `yaml:"height_variance"`
		Count             uint16   `yaml:"count"`
		CountVariance     uint16   `yaml:"count_variance"`
		Speed             uint16   `yaml:"speed"`
		SpeedVariance     uint16   `yaml:"speed_variance"`
		AnimSpeed         uint16   `yaml:"anim_speed"`
		AnimSpeedVariance uint16   `yaml:"anim_speed_variance"`
		Angle             uint16   `yaml:"angle"`
		AngleVariance     uint16   `yaml:"angle_variance"`
	}
	actorStateCmd struct {
		Actor string   `yaml:"actor"`
		Mask  *uint32  `yaml:"mask"`
		Bits  uint32   `yaml:"bits"`
		Set   []string `yaml:"set"`
		Clear []string `yaml:"clear"`
	}
	actorTargetCmd struct {
		Actor  string `yaml:"actor"`
		Target string `yaml:"target"`
	}
	damageCmd struct {
		Actor  string `yaml:"actor"`
		Damage int32  `yaml:"damage"`
		Source string `yaml:"source"`
	}
	quakeCmd struct {
		Frames   uint32 `yaml:"frames"`
		Strength uint32 `yaml:"strength"`
	}
)

func (c *compiler) compileScript(name string, singleton bool, cmds []yaml.Node) ([]bytecode.Instr, error) {
	var prog []bytecode.Instr
	if singleton {
		prog = append(prog, bytecode.Simple{Op: bytecode.OpSingleton})
	}
	for i := range cmds {
		in, err := c.command(&cmds[i])
		if err != nil {
			return nil, fmt.Errorf("script %s command %d (line %d): %w", name, i, cmds[i].Line, err)
		}
		prog = append(prog, in)
	}
	if n := len(prog); n == 0 || !terminal(prog[n-1].Opcode()) {
		prog = append(prog, bytecode.Simple{Op: bytecode.OpRet})
	}
	return prog, nil
}

func terminal(op bytecode.Opcode) bool {
	return op == bytecode.OpJump || op == bytecode.OpExit || op == bytecode.OpRet
}

func (c *compiler) command(n *yaml.Node) (bytecode.Instr, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		op, ok := bytecode.ParseOpcode(n.Value)
		if !ok {
			return nil, sourceErr("unknown command %q", n.Value)
		}
		if !bytecode.IsSimple(op) {
			return nil, sourceErr("command %q needs an operand", n.Value)
		}
		return bytecode.Simple{Op: op}, nil
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, sourceErr("command mapping must have exactly one key")
		}
	default:
		return nil, sourceErr("command must be a name or a single-key mapping")
	}

	key, val := n.Content[0].Value, n.Content[1]
	op, ok := bytecode.ParseOpcode(key)
	if !ok {
		return nil, sourceErr("unknown command %q", key)
	}
	if bytecode.IsSimple(op) {
		return nil, sourceErr("command %q takes no operand", key)
	}

	switch op {
	case bytecode.OpJump, bytecode.OpCall, bytecode.OpStartScript:
		id, err := c.scriptRef(val.Value, false)
		if err != nil {
			return nil, err
		}
		switch op {
		case bytecode.OpJump:
			return bytecode.Jump{Script: id}, nil
		case bytecode.OpCall:
			return bytecode.Call{Script: id}, nil
		}
		return bytecode.StartScript{Script: id}, nil
	case bytecode.OpWaitScript, bytecode.OpStopOneScript, bytecode.OpStopScripts:
		id, err := c.scriptRef(val.Value, true)
		if err != nil {
			return nil, err
		}
		return bytecode.ScriptRef{Op: op, ID: id}, nil
	case bytecode.OpExec:
		var native uint32
		if err := val.Decode(&native); err != nil {
			return nil, err
		}
		return bytecode.Exec{Native: native}, nil
	case bytecode.OpDelay:
		var frames uint32
		if err := val.Decode(&frames); err != nil {
			return nil, err
		}
		return bytecode.Delay{Frames: frames}, nil
	case bytecode.OpWaitState, bytecode.OpAcquireState, bytecode.OpReleaseState, bytecode.OpForceState:
		var flags uint32
		if err := val.Decode(&flags); err != nil {
			return nil, err
		}
		return bytecode.State{Op: op, Flags: core.StateFlags(flags)}, nil
	case bytecode.OpShowDialog:
		return c.showDialog(val)
	case bytecode.OpMoveCamera:
		var cmd cameraCmd
		if err := val.Decode(&cmd); err != nil {
			return nil, err
		}
		t, err := c.target(cmd.Target)
		if err != nil {
			return nil, err
		}
		return bytecode.MoveCamera{Target: t, Speed: cmd.Speed}, nil
	case bytecode.OpMoveWater:
		var cmd waterCmd
		if err := val.Decode(&cmd); err != nil {
			return nil, err
		}
		col, err := ParseColor(cmd.Color)
		if err != nil {
			return nil, err
		}
		in := bytecode.MoveWater{Y: bytecode.NoWaterY, Step: cmd.Step, Color: col}
		if cmd.Y != nil {
			in.Y = *cmd.Y
		}
		return in, nil
	case bytecode.OpSetGravity:
		var g [2]float32
		if err := val.Decode(&g); err != nil {
			return nil, err
		}
		return bytecode.SetGravity{X: g[0], Y: g[1]}, nil
	case bytecode.OpLoadMap:
		var cmd loadMapCmd
		if err := val.Decode(&cmd); err != nil {
			return nil, err
		}
		fade := core.FadeNone
		if cmd.Fade != "" {
			if fade, ok = core.ParseFade(cmd.Fade); !ok {
				return nil, sourceErr("unknown fade %q", cmd.Fade)
			}
		}
		col, err := ParseColor(cmd.Color)
		if err != nil {
			return nil, err
		}
		return bytecode.LoadMap{Map: cmd.Map, Fade: fade, Color: col}, nil
	case bytecode.OpChangeMusic:
		var cmd musicCmd
		if val.Kind == yaml.ScalarNode {
			if err := val.Decode(&cmd.Music); err != nil {
				return nil, err
			}
		} else if err := val.Decode(&cmd); err != nil {
			return nil, err
		}
		return bytecode.ChangeMusic{Music: cmd.Music, Fade: cmd.Fade, Flags: cmd.Flags}, nil
	case bytecode.OpPlaySound:
		var cmd soundCmd
		if err := val.Decode(&cmd); err != nil {
			return nil, err
		}
		actor, err := c.actorTarget(cmd.Actor)
		if err != nil {
			return nil, err
		}
		return bytecode.PlaySound{Actor: actor, Sound: cmd.Sound, Priority: cmd.Priority}, nil
	case bytecode.OpSpawnActor:
		var sa SourceActor
		if err := val.Decode(&sa); err != nil {
			return nil, err
		}
		s, err := c.spawn(sa)
		if err != nil {
			return nil, err
		}
		c.asset.Spawns = append(c.asset.Spawns, s)
		return bytecode.SpawnActor{Spawn: uint32(len(c.asset.Spawns) - 1)}, nil
	case bytecode.OpSpawnParticles:
		return c.spawnParticles(val)
	case bytecode.OpSetActorState:
		return c.setActorState(val)
	case bytecode.OpSetActorTarget:
		var cmd actorTargetCmd
		if err := val.Decode(&cmd); err != nil {
			return nil, err
		}
		actor, err := c.actorTarget(cmd.Actor)
		if err != nil {
			return nil, err
		}
		target, err := c.target(cmd.Target)
		if err != nil {
			return nil, err
		}
		if actor == target {
			return nil, sourceErr("actor cannot target itself")
		}
		return bytecode.SetActorTarget{Actor: actor, Target: target}, nil
	case bytecode.OpDamageActor:
		var cmd damageCmd
		if err := val.Decode(&cmd); err != nil {
			return nil, err
		}
		actor, err := c.actorTarget(cmd.Actor)
		if err != nil {
			return nil, err
		}
		src := core.DamageAmbient
		switch cmd.Source {
		case "", "ambient":
		case "physical":
			src = core.DamagePhysical
		default:
			return nil, sourceErr("unknown damage source %q", cmd.Source)
		}
		return bytecode.DamageActor{Actor: actor, Damage: cmd.Damage, Source: src}, nil
	case bytecode.OpDestroyActor:
		actor, err := c.actorTarget(val.Value)
		if err != nil {
			return nil, err
		}
		return bytecode.DestroyActor{Actor: actor}, nil
	case bytecode.OpEarthquake:
		var cmd quakeCmd
		if err := val.Decode(&cmd); err != nil {
			return nil, err
		}
		return bytecode.Earthquake{Frames: cmd.Frames, Strength: cmd.Strength}, nil
	}
	return nil, sourceErr("command %q cannot appear in a source", key)
}

func (c *compiler) showDialog(val *yaml.Node) (bytecode.Instr, error) {
	var cmd dialogCmd
	if val.Kind == yaml.ScalarNode {
		cmd.Text = val.Value
	} else if err := val.Decode(&cmd); err != nil {
		return nil, err
	}
	if cmd.Target == "" {
		cmd.Target = "@caller"
	}
	t, err := c.actorTarget(cmd.Target)
	if err != nil {
		return nil, err
	}
	return bytecode.ShowDialog{Text: c.text(cmd.Text), Target: t}, nil
}

func (c *compiler) spawnParticles(val *yaml.Node) (bytecode.Instr, error) {
	var cmd particlesCmd
	if err := val.Decode(&cmd); err != nil {
		return nil, err
	}
	t, err := c.target(cmd.Target)
	if err != nil {
		return nil, err
	}
	spawn := bytecode.ParticleSpawn{
		Gfx:               cmd.Gfx,
		Tiles:             cmd.Tiles,
		InitFrame:         cmd.InitFrame,
		OffsetX:           cmd.Offset[0],
		OffsetY:           cmd.Offset[1],
		WidthVariance:     cmd.WidthVariance,
		HeightVariance:    cmd.HeightVariance,
		Count:             cmd.Count,
		CountVariance:     cmd.CountVariance,
		Speed:             cmd.Speed,
		SpeedVariance:     cmd.SpeedVariance,
		AnimSpeed:         cmd.AnimSpeed,
		AnimSpeedVariance: cmd.AnimSpeedVariance,
		Angle:             cmd.Angle,
		AngleVariance:     cmd.AngleVariance,
	}
	for _, f := range cmd.Flags {
		bit, ok := particleFlagNames[f]
		if !ok {
			return nil, sourceErr("unknown particle flag %q", f)
		}
		spawn.Flags |= bit
	}
	return bytecode.SpawnParticles{Target: t, Spawn: spawn}, nil
}

var particleFlagNames = map[string]uint16{
	"flip_x":      bytecode.ParticleFlipX,
	"flip_y":      bytecode.ParticleFlipY,
	"flip_d":      bytecode.ParticleFlipD,
	"random_flip": bytecode.ParticleRandomFlip,
	"layer1":      bytecode.ParticleLayer1,
	"looped":      bytecode.ParticleLooped,
}

func (c *compiler) setActorState(val *yaml.Node) (bytecode.Instr, error) {
	var cmd actorStateCmd
	if err := val.Decode(&cmd); err != nil {
		return nil, err
	}
	actor, err := c.actorTarget(cmd.Actor)
	if err != nil {
		return nil, err
	}
	mask, bits := core.ActorFlags(math.MaxUint32), core.ActorFlags(cmd.Bits)
	if cmd.Mask != nil {
		mask = core.ActorFlags(*cmd.Mask)
	}
	for _, name := range cmd.Clear {
		f, err := parseActorFlag(name)
		if err != nil {
			return nil, err
		}
		mask &^= f
	}
	for _, name := range cmd.Set {
		f, err := parseActorFlag(name)
		if err != nil {
			return nil, err
		}
		bits |= f
	}
	return bytecode.SetActorState{Actor: actor, Mask: mask, Bits: bits}, nil
}

// text interns s in the text table.
func (c *compiler) text(s string) uint32 {
	if id, ok := c.texts[s]; ok {
		return id
	}
	id := uint32(len(c.asset.Texts))
	c.asset.Texts = append(c.asset.Texts, s)
	c.texts[s] = id
	return id
}

func (c *compiler) scriptRef(name string, child bool) (uint32, error) {
	if child && name == "@child" {
		return bytecode.ScriptChild, nil
	}
	if id, ok := c.scripts[name]; ok {
		return id, nil
	}
	return 0, sourceErr("unknown script %q", name)
}

// target resolves @origin, @camera, @caller, actor names, waypoint names and
// plain integers, in that order.
func (c *compiler) target(name string) (bytecode.Target, error) {
	switch name {
	case "", "@origin":
		return bytecode.TargetOrigin, nil
	case "@camera":
		return bytecode.TargetCamera, nil
	case "@caller":
		return bytecode.TargetCaller, nil
	}
	if id, ok := c.actors[name]; ok {
		return bytecode.Target(id), nil
	}
	if wp, ok := c.waypoints[name]; ok {
		return bytecode.WaypointTarget(wp), nil
	}
	if v, err := strconv.ParseInt(name, 0, 32); err == nil {
		return bytecode.Target(v), nil
	}
	return 0, sourceErr("unknown target %q", name)
}

// actorTarget accepts only @caller or a positive actor id.
func (c *compiler) actorTarget(name string) (bytecode.Target, error) {
	t, err := c.target(name)
	if err != nil {
		return 0, err
	}
	if t != bytecode.TargetCaller && !t.IsActor() {
		return 0, sourceErr("%q does not name an actor", name)
	}
	return t, nil
}
