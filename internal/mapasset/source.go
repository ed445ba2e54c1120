package mapasset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/collision"
	"github.com/vovakirdan/tidepool/internal/core"
	"gopkg.in/yaml.v3"
)

// Source is the YAML form of a map. Names given to waypoints, actors and
// scripts are resolved to numeric ids when compiling.
type Source struct {
	Music       uint32             `yaml:"music"`
	Bounds      SourceBounds       `yaml:"bounds"`
	Camera      *[2]int32          `yaml:"camera,omitempty"`
	Parallax    [2]int32           `yaml:"parallax"`
	Water       *SourceWater       `yaml:"water,omitempty"`
	Gravity     *[2]float32        `yaml:"gravity,omitempty"`
	Startup     string             `yaml:"startup,omitempty"`
	Tilesets    []SourceTileset    `yaml:"tilesets"`
	Backgrounds []SourceBackground `yaml:"backgrounds"`
	Collision   []SourceShape      `yaml:"collision"`
	Chunks      []SourceChunk      `yaml:"chunks"`
	Waypoints   []SourceWaypoint   `yaml:"waypoints"`
	Actors      []SourceActor      `yaml:"actors"`
	Triggers    []SourceTrigger    `yaml:"triggers"`
	Scripts     []SourceScript     `yaml:"scripts"`
}

// SourceBounds is the map extent in chunks. A zero size is derived from the chunk list.
type SourceBounds struct {
	LowerX int16  `yaml:"lower_x"`
	LowerY int16  `yaml:"lower_y"`
	Width  uint16 `yaml:"width"`
	Height uint16 `yaml:"height"`
}

type SourceWater struct {
	Line  int32  `yaml:"line"`
	Color string `yaml:"color"`
}

type SourceTileset struct {
	First  uint16 `yaml:"first"`
	End    uint16 `yaml:"end"`
	XMask  uint8  `yaml:"xmask"`
	YShift uint8  `yaml:"yshift"`
	Image  uint32 `yaml:"image"`
}

type SourceBackground struct {
	Image       uint32     `yaml:"image"`
	AnimTiles   uint32     `yaml:"anim_tiles"`
	Layer       uint8      `yaml:"layer"`
	Offset      [2]float32 `yaml:"offset"`
	Autoscroll  [2]float32 `yaml:"autoscroll"`
	Parallax    [2]float32 `yaml:"parallax"`
	RepeatX     bool       `yaml:"repeat_x"`
	RepeatY     bool       `yaml:"repeat_y"`
	ClearTop    string     `yaml:"clear_top"`
	ClearBottom string     `yaml:"clear_bottom"`
}

// SourceShape is a collision shape in pixel coordinates.
type SourceShape struct {
	Type   string       `yaml:"type"`
	ID     string       `yaml:"id"`
	Flags  []string     `yaml:"flags"`
	Rect   *[4]float32  `yaml:"rect,omitempty"`
	Radius float32      `yaml:"radius"`
	At     [2]float32   `yaml:"at"`
	Points [][2]float32 `yaml:"points"`
	Prev   [2]float32   `yaml:"prev"`
	Next   [2]float32   `yaml:"next"`
}

type SourceChunk struct {
	At      [2]int16      `yaml:"at"`
	FgLayer *uint8        `yaml:"fg_layer,omitempty"`
	Layers  []SourceLayer `yaml:"layers"`
	Props   []Prop        `yaml:"props"`
}

// SourceLayer is one tile layer; missing rows and columns take Fill.
type SourceLayer struct {
	Fill uint16     `yaml:"fill"`
	Rows [][]uint16 `yaml:"rows"`
}

type SourceWaypoint struct {
	Name string `yaml:"name"`
	X    int32  `yaml:"x"`
	Y    int32  `yaml:"y"`
	Next string `yaml:"next"`
}

// SourceActor is a spawn record. Init actors are spawned on load; the rest
// are only reachable through spawn_actor commands.
type SourceActor struct {
	Type     string   `yaml:"type"`
	Name     string   `yaml:"name"`
	X        int32    `yaml:"x"`
	Y        int32    `yaml:"y"`
	Rotation float64  `yaml:"rotation"`
	Flags    []string `yaml:"flags"`
	Player   bool     `yaml:"player"`
	Waypoint string   `yaml:"waypoint"`
	Speed    *float64 `yaml:"speed,omitempty"`
	Motion   string   `yaml:"motion"`
}

type SourceTrigger struct {
	Name          string      `yaml:"name"`
	Rect          [4]int32    `yaml:"rect"`
	Script        string      `yaml:"script"`
	Commands      []yaml.Node `yaml:"commands"`
	Player        bool        `yaml:"player"`
	Enemy         bool        `yaml:"enemy"`
	Prop          bool        `yaml:"prop"`
	Projectile    bool        `yaml:"projectile"`
	Repeatable    bool        `yaml:"repeatable"`
	Manual        bool        `yaml:"manual"`
	CurrentPlayer bool        `yaml:"current_player"`
}

type SourceScript struct {
	Name      string      `yaml:"name"`
	Singleton bool        `yaml:"singleton"`
	Commands  []yaml.Node `yaml:"commands"`
}

// Defaults applied to sources that leave the field out.
const (
	DefaultGravityY = 1000
	DefaultCameraX  = 214
	DefaultCameraY  = 120
)

var platformMotions = map[string]core.ActorFlags{
	"linear": 0, "hsine": 1, "vsine": 2,
	"circle": 3, "circle_cw": 3, "cw": 3, "circle_ccw": 4, "ccw": 4,
	"swing_90": 5, "swing_45": 6, "swing": 6, "swing_22": 7,
}

var actorFlagNames = map[string]core.ActorFlags{
	"kinematic":  core.AFKinematic,
	"underwater": core.AFUnderwater,
	"rotates":    core.AFRotates,
	"no_collide": core.AFNoCollide,
	"static":     core.AFStatic,
	"gravity":    core.AFGravity,
	"solid":      core.AFSolid,
	"flip_d":     core.AFFlipD,
	"flip_y":     core.AFFlipY,
	"flip_x":     core.AFFlipX,
}

// LoadSource reads and compiles a YAML map source.
func LoadSource(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapasset: cannot read %s: %w", path, err)
	}
	a, err := Compile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Open loads a map from a compiled blob or, for .yaml and .yml files, a source.
func Open(path string) (*Asset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadSource(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapasset: cannot read %s: %w", path, err)
	}
	a, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// compiler carries the name tables while a source is lowered to an Asset.
type compiler struct {
	src       *Source
	asset     *Asset
	waypoints map[string]int
	actors    map[string]uint16
	scripts   map[string]uint32
	texts     map[string]uint32
	nextID    uint16
}

// Compile lowers a YAML map source to an Asset.
func Compile(data []byte) (*Asset, error) {
	var src Source
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("mapasset: cannot parse source: %w", err)
	}
	c := &compiler{
		src:       &src,
		asset:     &Asset{Startup: bytecode.InvalidScript, WaterLine: NoWater},
		waypoints: make(map[string]int),
		actors:    make(map[string]uint16),
		scripts:   make(map[string]uint32),
		texts:     make(map[string]uint32),
	}
	if err := c.compile(); err != nil {
		return nil, err
	}
	return c.asset, nil
}

func sourceErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSource, fmt.Sprintf(format, args...))
}

func (c *compiler) compile() error {
	src, a := c.src, c.asset
	a.Music = src.Music
	a.ParallaxX, a.ParallaxY = src.Parallax[0], src.Parallax[1]
	a.GravityY = DefaultGravityY
	if src.Gravity != nil {
		a.GravityX, a.GravityY = src.Gravity[0], src.Gravity[1]
	}
	if src.Water != nil {
		a.WaterLine = src.Water.Line
		col, err := ParseColor(src.Water.Color)
		if err != nil {
			return err
		}
		a.WaterColor = col
	}

	for _, ts := range src.Tilesets {
		if ts.End < ts.First {
			return sourceErr("tileset range %d..%d is reversed", ts.First, ts.End)
		}
		a.Tilesets = append(a.Tilesets, Tileset{FirstTID: ts.First, EndTID: ts.End, XMask: ts.XMask, YShift: ts.YShift, Image: ts.Image})
	}
	for _, bg := range src.Backgrounds {
		top, err := ParseColor(bg.ClearTop)
		if err != nil {
			return err
		}
		bottom, err := ParseColor(bg.ClearBottom)
		if err != nil {
			return err
		}
		a.Backgrounds = append(a.Backgrounds, Background{
			OffsetX: bg.Offset[0], OffsetY: bg.Offset[1],
			AutoscrollX: bg.Autoscroll[0], AutoscrollY: bg.Autoscroll[1],
			ParallaxX: bg.Parallax[0], ParallaxY: bg.Parallax[1],
			ClearTop: top, ClearBottom: bottom,
			Layer: bg.Layer, RepeatX: bg.RepeatX, RepeatY: bg.RepeatY,
			Image: bg.Image, AnimTiles: bg.AnimTiles,
		})
	}

	if len(src.Collision) > 0 {
		set, err := CompileShapes(src.Collision)
		if err != nil {
			return err
		}
		a.Collision = set
	}
	if err := c.compileChunks(); err != nil {
		return err
	}
	if err := c.compileWaypoints(); err != nil {
		return err
	}
	if err := c.nameActors(); err != nil {
		return err
	}

	// Script names first so commands can reference scripts declared later.
	for i, s := range src.Scripts {
		if s.Name == "" {
			return sourceErr("script %d has no name", i)
		}
		if _, dup := c.scripts[s.Name]; dup {
			return sourceErr("duplicate script %q", s.Name)
		}
		c.scripts[s.Name] = uint32(i)
	}
	a.Scripts = make([][]bytecode.Instr, len(src.Scripts))

	if err := c.compileInitSpawns(); err != nil {
		return err
	}
	for i, s := range src.Scripts {
		prog, err := c.compileScript(s.Name, s.Singleton, s.Commands)
		if err != nil {
			return err
		}
		a.Scripts[i] = prog
	}
	if err := c.compileTriggerScripts(); err != nil {
		return err
	}

	if src.Startup != "" {
		id, ok := c.scripts[src.Startup]
		if !ok {
			return sourceErr("unknown startup script %q", src.Startup)
		}
		a.Startup = id
	}
	c.placeCamera()
	return nil
}

func (c *compiler) compileChunks() error {
	a := c.asset
	seen := make(map[[2]int16]bool)
	for _, sc := range c.src.Chunks {
		if seen[sc.At] {
			return sourceErr("duplicate chunk (%d,%d)", sc.At[0], sc.At[1])
		}
		seen[sc.At] = true
		ch := &Chunk{
			X: sc.At[0], Y: sc.At[1],
			PX: int32(sc.At[0]) << core.ChunkPixelShift, PY: int32(sc.At[1]) << core.ChunkPixelShift,
			FgLayer: uint8(len(sc.Layers)),
			Props:   sc.Props,
		}
		if sc.FgLayer != nil {
			ch.FgLayer = *sc.FgLayer
		}
		for li, sl := range sc.Layers {
			if len(sl.Rows) > 16 {
				return sourceErr("chunk (%d,%d) layer %d has %d rows", ch.X, ch.Y, li, len(sl.Rows))
			}
			layer := make([]uint16, ChunkTiles)
			for i := range layer {
				layer[i] = sl.Fill
			}
			for y, row := range sl.Rows {
				if len(row) > 16 {
					return sourceErr("chunk (%d,%d) layer %d row %d has %d tiles", ch.X, ch.Y, li, y, len(row))
				}
				copy(layer[y*16:], row)
			}
			ch.Layers = append(ch.Layers, layer)
		}
		a.Chunks = append(a.Chunks, ch)
	}

	b := c.src.Bounds
	a.LowerX, a.LowerY, a.Width, a.Height = b.LowerX, b.LowerY, b.Width, b.Height
	if (b.Width == 0 || b.Height == 0) && len(a.Chunks) > 0 {
		minX, minY := a.Chunks[0].X, a.Chunks[0].Y
		maxX, maxY := minX, minY
		for _, ch := range a.Chunks[1:] {
			minX, maxX = min(minX, ch.X), max(maxX, ch.X)
			minY, maxY = min(minY, ch.Y), max(maxY, ch.Y)
		}
		a.LowerX, a.LowerY = minX, minY
		a.Width, a.Height = uint16(maxX-minX+1), uint16(maxY-minY+1)
	}
	for _, ch := range a.Chunks {
		cx, cy := int(ch.X)-int(a.LowerX), int(ch.Y)-int(a.LowerY)
		if cx < 0 || cy < 0 || cx >= int(a.Width) || cy >= int(a.Height) {
			return sourceErr("chunk (%d,%d) outside bounds", ch.X, ch.Y)
		}
	}
	return nil
}

func (c *compiler) compileWaypoints() error {
	for i, w := range c.src.Waypoints {
		if w.Name != "" {
			if _, dup := c.waypoints[w.Name]; dup {
				return sourceErr("duplicate waypoint %q", w.Name)
			}
			c.waypoints[w.Name] = i
		}
	}
	for _, w := range c.src.Waypoints {
		wp := Waypoint{X: w.X, Y: w.Y, Next: NoWaypoint}
		if w.Next != "" {
			if w.Next == w.Name {
				return sourceErr("waypoint %q cannot follow itself", w.Name)
			}
			next, ok := c.waypoints[w.Next]
			if !ok {
				return sourceErr("unknown waypoint %q", w.Next)
			}
			wp.Next = next
		}
		c.asset.Waypoints = append(c.asset.Waypoints, wp)
	}
	return nil
}

// nameActors assigns ids from 1 to named actors and triggers in declaration
// order. Actors spawned by scripts under a new name continue the sequence.
func (c *compiler) nameActors() error {
	c.nextID = 1
	add := func(name string) error {
		if name == "" {
			return nil
		}
		if _, dup := c.actors[name]; dup {
			return sourceErr("duplicate actor %q", name)
		}
		c.actors[name] = c.nextID
		c.nextID++
		return nil
	}
	for _, sa := range c.src.Actors {
		if err := add(sa.Name); err != nil {
			return err
		}
	}
	for _, st := range c.src.Triggers {
		if err := add(st.Name); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) spawn(sa SourceActor) (Spawn, error) {
	t, ok := core.ParseActorType(sa.Type)
	if !ok || t == core.ActorTrigger {
		return Spawn{}, sourceErr("unknown actor type %q", sa.Type)
	}
	if _, ok := c.actors[sa.Name]; sa.Name != "" && !ok {
		c.actors[sa.Name] = c.nextID
		c.nextID++
	}
	s := Spawn{
		Type:     t,
		X:        sa.X,
		Y:        sa.Y,
		ID:       c.actors[sa.Name],
		Rotation: uint16(int64(sa.Rotation*65536/360) & 0xffff),
	}
	for _, name := range sa.Flags {
		f, err := parseActorFlag(name)
		if err != nil {
			return Spawn{}, err
		}
		s.Flags |= f
	}
	if sa.Player {
		s.Flags |= core.AFCurPlayer
	}
	if t.IsPlatform() {
		motion, ok := platformMotions[sa.Motion]
		if sa.Motion != "" && !ok {
			return Spawn{}, sourceErr("unknown platform motion %q", sa.Motion)
		}
		s.Flags |= motion
		arg := PlatformArg{Waypoint: NoWaypoint, Speed: DefaultPlatformSpeed}
		if sa.Speed != nil {
			arg.Speed = uint16(core.ClampF(*sa.Speed*16, 0, 0xffff))
		}
		if sa.Waypoint != "" {
			wp, ok := c.waypoints[sa.Waypoint]
			if !ok {
				return Spawn{}, sourceErr("actor %q: unknown waypoint %q", sa.Name, sa.Waypoint)
			}
			arg.Waypoint = wp
		}
		s.Arg = arg
	}
	return s, nil
}

func parseActorFlag(name string) (core.ActorFlags, error) {
	if f, ok := actorFlagNames[name]; ok {
		return f, nil
	}
	if n, ok := strings.CutPrefix(name, "user"); ok {
		if bit, err := strconv.Atoi(n); err == nil && bit >= 0 && bit < 16 {
			return core.AFUser0 << bit, nil
		}
	}
	return 0, sourceErr("unknown actor flag %q", name)
}

func (c *compiler) compileInitSpawns() error {
	for _, sa := range c.src.Actors {
		s, err := c.spawn(sa)
		if err != nil {
			return err
		}
		c.asset.Spawns = append(c.asset.Spawns, s)
	}
	for _, st := range c.src.Triggers {
		x0, y0, x1, y1 := st.Rect[0], st.Rect[1], st.Rect[2], st.Rect[3]
		if x1 <= x0 || y1 <= y0 {
			return sourceErr("trigger %q has an empty rect", st.Name)
		}
		var flags core.ActorFlags
		for bit, on := range map[core.ActorFlags]bool{
			core.TrigPlayer:     st.Player,
			core.TrigEnemy:      st.Enemy,
			core.TrigProp:       st.Prop,
			core.TrigProjectile: st.Projectile,
			core.TrigRepeatable: st.Repeatable,
			core.TrigManual:     st.Manual,
			core.TrigCurPlayer:  st.CurrentPlayer,
		} {
			if on {
				flags |= bit
			}
		}
		c.asset.Spawns = append(c.asset.Spawns, Spawn{
			Type:  core.ActorTrigger,
			X:     x0,
			Y:     y0,
			Flags: flags,
			ID:    c.actors[st.Name],
			Arg: TriggerArg{
				Collision: collision.Box(0, 0, float32(x1-x0), float32(y1-y0), 0, collision.Tag{}),
			},
		})
	}
	c.asset.SpawnInit = len(c.asset.Spawns)
	return nil
}

// compileTriggerScripts binds trigger scripts once every named script has
// been compiled; inline commands become anonymous scripts.
func (c *compiler) compileTriggerScripts() error {
	base := len(c.src.Actors)
	for i, st := range c.src.Triggers {
		var id uint32
		switch {
		case st.Script != "" && len(st.Commands) > 0:
			return sourceErr("trigger %q has both script and commands", st.Name)
		case st.Script != "":
			sid, ok := c.scripts[st.Script]
			if !ok {
				return sourceErr("trigger %q: unknown script %q", st.Name, st.Script)
			}
			id = sid
		case len(st.Commands) > 0:
			prog, err := c.compileScript(fmt.Sprintf("trigger %q", st.Name), false, st.Commands)
			if err != nil {
				return err
			}
			id = uint32(len(c.asset.Scripts))
			c.asset.Scripts = append(c.asset.Scripts, prog)
		default:
			return sourceErr("trigger %q has no script", st.Name)
		}
		arg := c.asset.Spawns[base+i].Arg.(TriggerArg)
		arg.Script = id
		c.asset.Spawns[base+i].Arg = arg
	}
	return nil
}

func (c *compiler) placeCamera() {
	a := c.asset
	if c.src.Camera != nil {
		a.CameraX, a.CameraY = c.src.Camera[0], c.src.Camera[1]
		return
	}
	a.CameraX, a.CameraY = DefaultCameraX, DefaultCameraY
	for _, s := range a.Spawns[:a.SpawnInit] {
		if s.Flags.Has(core.AFCurPlayer) {
			a.CameraX, a.CameraY = s.X, s.Y
			return
		}
	}
}

// CompileShapes converts pixel-space source shapes to a collision set.
func CompileShapes(shapes []SourceShape) (*collision.Set, error) {
	set := &collision.Set{}
	pt := func(p [2]float32) collision.Point {
		return collision.Point{X: p[0] * core.PointScale, Y: p[1] * core.PointScale}
	}
	for i, ss := range shapes {
		sh := collision.Shape{ID: collision.MakeTag(ss.ID)}
		for _, f := range ss.Flags {
			switch f {
			case "sensor":
				sh.Flags |= collision.FlagSensor
			case "interactive":
				sh.Flags |= collision.FlagInteractive
			default:
				return nil, sourceErr("shape %d: unknown flag %q", i, f)
			}
		}
		want := 0
		switch ss.Type {
		case "circle":
			sh.Kind = collision.KindCircle
			sh.Radius = ss.Radius * core.PointScale
			sh.Points = []collision.Point{pt(ss.At)}
		case "aabb":
			if ss.Rect == nil {
				return nil, sourceErr("shape %d: aabb needs rect", i)
			}
			r := ss.Rect
			sh.Kind = collision.KindAABB
			sh.Points = []collision.Point{pt([2]float32{r[0], r[1]}), pt([2]float32{r[2], r[3]})}
		case "triangle":
			sh.Kind, want = collision.KindTriangle, 3
		case "quad":
			sh.Kind, want = collision.KindQuad, 4
		case "edge":
			sh.Kind, want = collision.KindEdge, 2
		case "poly":
			sh.Kind = collision.KindPoly
			if len(ss.Points) < 3 {
				return nil, sourceErr("shape %d: poly needs at least 3 points", i)
			}
		case "chain":
			sh.Kind = collision.KindChain
			if len(ss.Points) < 2 {
				return nil, sourceErr("shape %d: chain needs at least 2 points", i)
			}
			sh.Prev, sh.Next = pt(ss.Prev), pt(ss.Next)
		default:
			return nil, sourceErr("shape %d: unknown type %q", i, ss.Type)
		}
		if want > 0 && len(ss.Points) != want {
			return nil, sourceErr("shape %d: %s needs %d points, got %d", i, ss.Type, want, len(ss.Points))
		}
		if sh.Points == nil {
			for _, p := range ss.Points {
				sh.Points = append(sh.Points, pt(p))
			}
		}
		set.Shapes = append(set.Shapes, sh)
	}
	return set, nil
}

// ParseColor accepts "#rrggbb" or "#rrggbbaa". An empty string is transparent black.
func ParseColor(s string) (core.Color, error) {
	if s == "" {
		return core.Color{}, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if len(hex) != 8 || err != nil {
		return core.Color{}, sourceErr("bad color %q", s)
	}
	return core.ColorFromUint32(uint32(v)), nil
}
