// Package config provides YAML-based engine configuration loading for the
// simulation, the audio sink, the monitor and the save store.
package config

import (
	"errors"
	"fmt"
)

// Engine contains all tunables of a tidepool run.
type Engine struct {
	Sim     SimConfig     `yaml:"sim"`
	Water   WaterConfig   `yaml:"water"`
	Screen  ScreenConfig  `yaml:"screen"`
	Audio   AudioConfig   `yaml:"audio"`
	Storage StorageConfig `yaml:"storage"`
}

// SimConfig defines the frame loop and physics stepping.
type SimConfig struct {
	FPS                int `yaml:"fps"`
	VelocityIterations int `yaml:"velocity_iterations"`
	PositionIterations int `yaml:"position_iterations"`
	PropUnloadFrames   int `yaml:"prop_unload_frames"` // Frames a prop stays cached after it was last seen
	ActiveClipExtend   int `yaml:"active_clip_extend"` // Pixels added around the view for particles and props
	FadeLen            int `yaml:"fade_len"`
	RespawnFrames      int `yaml:"respawn_frames"`
	HUDCounterFrames   int `yaml:"hud_counter_frames"`
}

// WaterConfig defines how bodies react to the water volume.
type WaterConfig struct {
	Damping     float64 `yaml:"damping"`
	BoxSize     float64 `yaml:"box_size"`     // Side of the water sensor in physics units
	SplashSpeed float64 `yaml:"splash_speed"` // Vertical speed that makes a splash on entry or exit
}

// ScreenConfig is the logical view size in pixels.
type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// AudioConfig defines the headless mixer.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
}

// StorageConfig locates the save database.
type StorageConfig struct {
	DB string `yaml:"db"`
}

// HalfWidth returns half the screen width.
func (s ScreenConfig) HalfWidth() int {
	return s.Width / 2
}

// HalfHeight returns half the screen height.
func (s ScreenConfig) HalfHeight() int {
	return s.Height / 2
}

// Validate rejects values the frame loop cannot run with.
func (e Engine) Validate() error {
	var errs []error
	if e.Sim.FPS <= 0 {
		errs = append(errs, fmt.Errorf("sim.fps must be positive, got %d", e.Sim.FPS))
	}
	if e.Sim.VelocityIterations <= 0 || e.Sim.PositionIterations <= 0 {
		errs = append(errs, fmt.Errorf("sim iterations must be positive, got %d/%d",
			e.Sim.VelocityIterations, e.Sim.PositionIterations))
	}
	if e.Screen.Width <= 0 || e.Screen.Height <= 0 {
		errs = append(errs, fmt.Errorf("screen size must be positive, got %dx%d", e.Screen.Width, e.Screen.Height))
	}
	if e.Audio.Channels < 0 {
		errs = append(errs, fmt.Errorf("audio.channels must not be negative, got %d", e.Audio.Channels))
	}
	return errors.Join(errs...)
}
