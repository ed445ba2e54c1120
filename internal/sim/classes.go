package sim

import (
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

// Class describes the behaviour shared by every actor of one type.
type Class struct {
	Name      string
	Init      func(m *Map, a *Actor, spawn *mapasset.Spawn)
	Tick      TickFunc
	SetTarget func(m *Map, a *Actor, t Target)
	Collide   CollideFunc
	Damage    func(m *Map, a *Actor, damage int32, src core.DamageSource)
	Draw      DrawFunc
	Cleanup   func(m *Map, a *Actor)
	NewState  func() ActorState

	Gfx   uint32
	Tiles uint32
	Flags core.ActorFlags

	DrawPriority    int
	CollidePriority int
	Category        core.Category
	Mask            core.Category
	Density         float64
}

// Target is a resolved actor or waypoint reference handed to SetTarget.
type Target struct {
	Actor    *Actor
	Waypoint int
}

// IsWaypoint reports whether t names a waypoint.
func (t Target) IsWaypoint() bool {
	return t.Actor == nil && t.Waypoint != mapasset.NoWaypoint
}

const (
	drawPlayer  = 100
	drawEnemy   = 75
	drawPowerup = 50
	drawProp    = 25

	collideTrigger = 100
	collideEnemy   = 75
	collidePowerup = 50
	collidePlayer  = 25
)

// ClassAsset is the manifest id of the sprite sheet and tile set of a class.
func ClassAsset(t core.ActorType) uint32 {
	return classAssetBase + uint32(t)
}

const classAssetBase = 0x100

var classes [core.ActorTypeCount]Class

// ClassOf returns the class descriptor of t.
func ClassOf(t core.ActorType) *Class {
	core.Assertf(t < core.ActorTypeCount, "actor type %d out of range", uint32(t))
	return &classes[t]
}

func init() {
	const (
		player  = core.AFSolid | core.AFGravity
		crate   = core.AFSolid | core.AFGravity | core.AFRotates
		mob     = core.AFSolid | core.AFGravity
		mobMask = core.CBAll &^ (core.CBPowerup | core.CBEnemy)
	)

	playerClass := func(name string, t core.ActorType) Class {
		return Class{
			Name:            name,
			Init:            initPlayer,
			Tick:            tickPlayer,
			Collide:         collidePlayerHook,
			Damage:          damagePlayer,
			Draw:            drawSprite,
			NewState:        func() ActorState { return &PlayerState{} },
			Gfx:             ClassAsset(t),
			Tiles:           ClassAsset(t),
			Flags:           player,
			DrawPriority:    drawPlayer,
			CollidePriority: collidePlayer,
			Category:        core.CBPlayer,
			Mask:            core.CBAll,
			Density:         1,
		}
	}
	crateClass := func(name string, t core.ActorType, density float64) Class {
		return Class{
			Name:         name,
			Init:         initSpriteActor,
			Tick:         tickCrate,
			Draw:         drawSprite,
			NewState:     func() ActorState { return &PropState{} },
			Gfx:          ClassAsset(t),
			Tiles:        ClassAsset(t),
			Flags:        crate,
			DrawPriority: drawProp,
			Category:     core.CBProp,
			Mask:         core.CBAll,
			Density:      density,
		}
	}
	springClass := func(name string, t core.ActorType, impulse float64) Class {
		return Class{
			Name:            name,
			Init:            initSpriteActor,
			Tick:            tickSpring,
			Collide:         springCollider(impulse),
			Draw:            drawSprite,
			NewState:        func() ActorState { return &PropState{} },
			Gfx:             ClassAsset(t),
			Tiles:           ClassAsset(t),
			Flags:           core.AFStatic,
			DrawPriority:    drawProp,
			CollidePriority: collideTrigger,
			Category:        core.CBInteractive,
			Mask:            core.CBPlayer | core.CBEnemy | core.CBProp,
			Density:         1,
		}
	}
	mobClass := func(name string, t core.ActorType, flags core.ActorFlags, density, speed float64, health int32) Class {
		return Class{
			Name:            name,
			Init:            mobInit(speed, health),
			Tick:            tickMob,
			SetTarget:       setMobTarget,
			Damage:          damageMob,
			Draw:            drawSprite,
			NewState:        func() ActorState { return &MobState{} },
			Gfx:             ClassAsset(t),
			Tiles:           ClassAsset(t),
			Flags:           flags,
			DrawPriority:    drawEnemy,
			CollidePriority: collideEnemy,
			Category:        core.CBEnemy,
			Mask:            mobMask,
			Density:         density,
		}
	}
	mineClass := func(name string, t core.ActorType, damage int32) Class {
		return Class{
			Name:            name,
			Init:            initMine,
			Tick:            tickMine,
			Collide:         mineCollider(damage),
			Draw:            drawSprite,
			NewState:        func() ActorState { return &MineState{} },
			Gfx:             ClassAsset(t),
			Tiles:           ClassAsset(t),
			Flags:           core.AFSolid | core.AFRotates,
			DrawPriority:    drawEnemy - 1,
			CollidePriority: collideEnemy,
			Category:        core.CBEnemy,
			Mask:            core.CBPlayer | core.CBProp,
			Density:         8,
		}
	}
	crystalClass := func(name string, t core.ActorType, value int32) Class {
		return Class{
			Name:            name,
			Init:            initCrystal,
			Tick:            tickCrystal,
			Collide:         crystalCollider(value),
			Draw:            drawSprite,
			NewState:        func() ActorState { return &CrystalState{} },
			Gfx:             ClassAsset(t),
			Tiles:           ClassAsset(t),
			Flags:           core.AFStatic,
			DrawPriority:    drawPowerup,
			CollidePriority: collidePowerup,
			Category:        core.CBPowerup,
			Mask:            core.CBPlayer,
			Density:         1,
		}
	}
	platformClass := func(name string, t core.ActorType) Class {
		return Class{
			Name:         name,
			Init:         initPlatform,
			Tick:         tickPlatform,
			SetTarget:    setPlatformTarget,
			Draw:         drawSprite,
			NewState:     func() ActorState { return &PlatformState{} },
			Gfx:          ClassAsset(t),
			Tiles:        ClassAsset(t),
			Flags:        core.AFStatic | core.AFSolid,
			DrawPriority: drawProp,
			Category:     core.CBGround,
			Mask:         core.CBPlayer | core.CBEnemy | core.CBProp | core.CBProjectile,
			Density:      1,
		}
	}

	classes = [core.ActorTypeCount]Class{
		core.ActorTrigger: {
			Name:            "trigger",
			Init:            initTrigger,
			Collide:         collideTriggerHook,
			Cleanup:         cleanupTrigger,
			NewState:        func() ActorState { return &TriggerState{} },
			Flags:           core.AFStatic,
			CollidePriority: collideTrigger,
			Category:        core.CBTrigger,
			Mask:            core.CBPlayer | core.CBProp | core.CBEnemy | core.CBProjectile,
			Density:         1,
		},
		core.ActorYellow: playerClass("yellow", core.ActorYellow),
		core.ActorPink:   playerClass("pink", core.ActorPink),
		core.ActorBlue:   playerClass("blue", core.ActorBlue),

		core.ActorCrate:    crateClass("crate", core.ActorCrate, 0.6),
		core.ActorCrateBig: crateClass("crate_big", core.ActorCrateBig, 1.2),

		core.ActorMushSpringSmall: springClass("mush_spring_sm", core.ActorMushSpringSmall, springImpulse),
		core.ActorMushSpringBig:   springClass("mush_spring_big", core.ActorMushSpringBig, springImpulse*2),

		core.ActorWalker:     mobClass("walker", core.ActorWalker, mob, 5, 1, 3),
		core.ActorCrab:       mobClass("crab", core.ActorCrab, mob, 0.5, 0.5, 2),
		core.ActorPiranha:    mobClass("piranha", core.ActorPiranha, mob, 0.5, 1.5, 1),
		core.ActorPiranhaBig: mobClass("piranha_big", core.ActorPiranhaBig, mob, 0.5, 1, 3),
		core.ActorDartFish:   mobClass("dart_fish", core.ActorDartFish, mob, 0.5, 2.5, 1),
		core.ActorOctopus:    mobClass("octopus", core.ActorOctopus, mob, 0.5, 0.5, 4),
		core.ActorFlyDemon:   mobClass("fly_demon", core.ActorFlyDemon, core.AFSolid, 0.5, 1, 2),
		core.ActorMeerman:    mobClass("meerman", core.ActorMeerman, mob, 0.5, 1, 3),

		core.ActorMineSmall:  mineClass("mine_sm", core.ActorMineSmall, 25),
		core.ActorMineMedium: mineClass("mine_med", core.ActorMineMedium, 50),
		core.ActorMineBig:    mineClass("mine_big", core.ActorMineBig, 100),

		core.ActorCrystalBig:   crystalClass("crystal_big", core.ActorCrystalBig, 5),
		core.ActorCrystalSmall: crystalClass("crystal_sm", core.ActorCrystalSmall, 1),
		core.ActorPowerup: {
			Name:            "powerup",
			Init:            initSpriteActor,
			Tick:            tickSprite,
			Collide:         collidePowerupHook,
			Draw:            drawSprite,
			NewState:        func() ActorState { return &PropState{} },
			Gfx:             ClassAsset(core.ActorPowerup),
			Tiles:           ClassAsset(core.ActorPowerup),
			Flags:           core.AFStatic,
			DrawPriority:    drawPowerup,
			CollidePriority: collidePowerup,
			Category:        core.CBPowerup,
			Mask:            core.CBPlayer,
			Density:         1,
		},

		core.ActorCliffPlatformBig:    platformClass("cliff_platform_big", core.ActorCliffPlatformBig),
		core.ActorCliffPlatformSmall1: platformClass("cliff_platform_sm_1", core.ActorCliffPlatformSmall1),
		core.ActorCliffPlatformSmall2: platformClass("cliff_platform_sm_2", core.ActorCliffPlatformSmall2),
		core.ActorCliffPlatformSmall3: platformClass("cliff_platform_sm_3", core.ActorCliffPlatformSmall3),
		core.ActorUnderwaterPlatform:  platformClass("underwater_platform", core.ActorUnderwaterPlatform),

		core.ActorSpaceship: {
			Name:         "spaceship",
			Init:         initSpaceship,
			Draw:         drawModel,
			Cleanup:      cleanupVehicle,
			NewState:     func() ActorState { return &VehicleState{} },
			Gfx:          ClassAsset(core.ActorSpaceship),
			Tiles:        ClassAsset(core.ActorSpaceship),
			Flags:        core.AFStatic | core.AFSolid,
			DrawPriority: drawProp,
			Category:     core.CBGround,
			Mask:         core.CBAll,
			Density:      20,
		},
		core.ActorSubmarine: {
			Name:            "submarine",
			Init:            initSubmarine,
			Tick:            tickSubmarine,
			Collide:         collideSubmarine,
			Draw:            drawModel,
			Cleanup:         cleanupVehicle,
			NewState:        func() ActorState { return &VehicleState{} },
			Gfx:             ClassAsset(core.ActorSubmarine),
			Tiles:           ClassAsset(core.ActorSubmarine),
			Flags:           core.AFSolid | core.AFGravity | core.AFRotates,
			DrawPriority:    drawPlayer,
			CollidePriority: collidePlayer,
			Category:        core.CBPlayer,
			Mask:            core.CBAll,
			Density:         8,
		},
	}
}

// PropState is the state of classes that keep nothing beyond the actor.
type PropState struct{}

func (*PropState) actorState() {}

// initSpriteActor is the Init of classes drawn from their tile set.
func initSpriteActor(m *Map, a *Actor, spawn *mapasset.Spawn) {
	m.initSprite(a, spawn)
}

func drawSprite(m *Map, a *Actor, r Renderer) {
	x, y := m.world.Position(a)
	r.Sprite(a, x, y)
}

func drawModel(m *Map, a *Actor, r Renderer) {
	x, y := m.world.Position(a)
	r.Model(a, x, y, m.world.Angle(a))
}
