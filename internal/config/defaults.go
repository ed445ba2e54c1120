package config

import (
	_ "embed"
)

//go:embed defaults/engine.yaml
var defaultEngineYAML []byte

// DefaultEngineConfig returns the built-in engine configuration.
func DefaultEngineConfig() Engine {
	return Engine{
		Sim: SimConfig{
			FPS:                60,
			VelocityIterations: 6,
			PositionIterations: 2,
			PropUnloadFrames:   60,
			ActiveClipExtend:   128,
			FadeLen:            20,
			RespawnFrames:      30,
			HUDCounterFrames:   90,
		},
		Water: WaterConfig{
			Damping:     0.5,
			BoxSize:     4096,
			SplashSpeed: 0.0625,
		},
		Screen: ScreenConfig{
			Width:  320,
			Height: 240,
		},
		Audio: AudioConfig{
			SampleRate: 22050,
			Channels:   8,
		},
		Storage: StorageConfig{
			DB: "~/.tidepool/saves.db",
		},
	}
}
