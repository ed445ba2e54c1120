package core

// ActorType indexes the static class table. The order is part of the map
// asset format: spawn records store the numeric value.
type ActorType uint32

const (
	ActorTrigger ActorType = iota
	ActorYellow
	ActorPink
	ActorBlue
	ActorCrate
	ActorCrateBig
	ActorMushSpringSmall
	ActorMushSpringBig
	ActorWalker
	ActorCrab
	ActorPiranha
	ActorPiranhaBig
	ActorDartFish
	ActorOctopus
	ActorFlyDemon
	ActorMeerman
	ActorMineSmall
	ActorMineMedium
	ActorMineBig
	ActorCrystalBig
	ActorCrystalSmall
	ActorPowerup
	ActorCliffPlatformBig
	ActorCliffPlatformSmall1
	ActorCliffPlatformSmall2
	ActorCliffPlatformSmall3
	ActorUnderwaterPlatform
	ActorSpaceship
	ActorSubmarine

	ActorTypeCount
)

var actorTypeNames = [ActorTypeCount]string{
	"trigger",
	"yellow",
	"pink",
	"blue",
	"crate",
	"crate_big",
	"mush_spring_sm",
	"mush_spring_big",
	"walker",
	"crab",
	"piranha",
	"piranha_big",
	"dart_fish",
	"octopus",
	"fly_demon",
	"meerman",
	"mine_sm",
	"mine_med",
	"mine_big",
	"crystal_big",
	"crystal_sm",
	"powerup",
	"cliff_platform_big",
	"cliff_platform_sm_1",
	"cliff_platform_sm_2",
	"cliff_platform_sm_3",
	"underwater_platform",
	"spaceship",
	"submarine",
}

// String returns the name used by map sources.
func (t ActorType) String() string {
	if t < ActorTypeCount {
		return actorTypeNames[t]
	}
	return "unknown"
}

// IsPlatform reports whether spawns of t carry a platform path argument.
func (t ActorType) IsPlatform() bool {
	return t >= ActorCliffPlatformBig && t <= ActorUnderwaterPlatform
}

// ParseActorType looks up a type by its map source name.
func ParseActorType(name string) (ActorType, bool) {
	for i, n := range actorTypeNames {
		if n == name {
			return ActorType(i), true
		}
	}
	return 0, false
}

// ActorFlags is the per-actor flag word. The low 16 bits are free for class use.
type ActorFlags uint32

const (
	AFUser0  ActorFlags = 1 << 0
	AFUser1  ActorFlags = 1 << 1
	AFUser2  ActorFlags = 1 << 2
	AFUser3  ActorFlags = 1 << 3
	AFUser4  ActorFlags = 1 << 4
	AFUser5  ActorFlags = 1 << 5
	AFUser6  ActorFlags = 1 << 6
	AFUser7  ActorFlags = 1 << 7
	AFUser8  ActorFlags = 1 << 8
	AFUser9  ActorFlags = 1 << 9
	AFUser10 ActorFlags = 1 << 10
	AFUser11 ActorFlags = 1 << 11
	AFUser12 ActorFlags = 1 << 12
	AFUser13 ActorFlags = 1 << 13
	AFUser14 ActorFlags = 1 << 14
	AFUser15 ActorFlags = 1 << 15

	AFUserMask ActorFlags = 0xffff

	AFKinematic      ActorFlags = 1 << 18
	AFUnderwater     ActorFlags = 1 << 19
	AFRotates        ActorFlags = 1 << 20
	AFNoCollide      ActorFlags = 1 << 21
	AFStatic         ActorFlags = 1 << 22
	AFGravity        ActorFlags = 1 << 23
	AFSolid          ActorFlags = 1 << 24
	AFCollisionOwned ActorFlags = 1 << 25
	AFFlipD          ActorFlags = 1 << 26
	AFFlipY          ActorFlags = 1 << 27
	AFFlipX          ActorFlags = 1 << 28
	AFCurPlayer      ActorFlags = 1 << 29
	AFDestroying     ActorFlags = 1 << 30
	AFDestroyed      ActorFlags = 1 << 31
)

// Has reports whether every bit of mask is set.
func (f ActorFlags) Has(mask ActorFlags) bool {
	return f&mask == mask
}

// Any reports whether at least one bit of mask is set.
func (f ActorFlags) Any(mask ActorFlags) bool {
	return f&mask != 0
}

// Category is a physics collision category bitset.
type Category uint16

const (
	CBGround      Category = 1 << 0
	CBPlayer      Category = 1 << 1
	CBEnemy       Category = 1 << 2
	CBProp        Category = 1 << 3
	CBProjectile  Category = 1 << 4
	CBWater       Category = 1 << 5
	CBPowerup     Category = 1 << 6
	CBTrigger     Category = 1 << 14
	CBInteractive Category = 1 << 15
	CBAll         Category = 0xffff
)

// Trigger flag bits stored in the user range of a trigger's spawn flags.
const (
	TrigPlayer     ActorFlags = 1 << 1
	TrigEnemy      ActorFlags = 1 << 2
	TrigProp       ActorFlags = 1 << 3
	TrigProjectile ActorFlags = 1 << 4
	TrigRepeatable ActorFlags = 1 << 8
	TrigManual     ActorFlags = 1 << 9
	TrigCurPlayer  ActorFlags = 1 << 10

	TrigCategoryMask = TrigPlayer | TrigEnemy | TrigProp | TrigProjectile
)

// TriggerCategories converts trigger activation bits to the physics
// categories they accept. The bit positions line up with Category.
func TriggerCategories(f ActorFlags) Category {
	return Category(f & TrigCategoryMask)
}

// StateFlags is the map-wide state word. The named bits are driven by the
// engine; scripts use the whole word as a set of cooperative locks.
type StateFlags uint32

const (
	MSFPlayerControl StateFlags = 1 << 0
	MSFPlayerChanged StateFlags = 1 << 1
	MSFCameraMoving  StateFlags = 1 << 2
	MSFWaterMoving   StateFlags = 1 << 3
	MSFRespawning    StateFlags = 1 << 4
	MSFForceRespawn  StateFlags = 1 << 5
	MSFEnding        StateFlags = 1 << 6
)

// Fade is a map transition effect.
type Fade uint32

const (
	FadeNone Fade = iota
	FadeOutColor
	FadeOutWipe
	FadeInWipe
	FadeInColor
	FadeInOutColor
	FadeInOutWipe
	FadeCross
	FadeCrossWipe
)

var fadeNames = [...]string{
	"none", "out_color", "out_wipe", "in_wipe", "in_color",
	"inout_color", "inout_wipe", "cross", "cross_wipe",
}

func (f Fade) String() string {
	if int(f) < len(fadeNames) {
		return fadeNames[f]
	}
	return "unknown"
}

// ParseFade looks up a fade by name.
func ParseFade(name string) (Fade, bool) {
	for i, n := range fadeNames {
		if n == name {
			return Fade(i), true
		}
	}
	return 0, false
}

// DamageSource tells the damage hook where a hit came from.
type DamageSource uint32

const (
	DamageAmbient DamageSource = iota
	DamagePhysical
)
