package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

// tone is an endless sine streamer with a short attack so voices start
// without a click.
type tone struct {
	sr     beep.SampleRate
	freq   float64
	pos    int
	attack int
}

func newTone(sr beep.SampleRate, freq float64) *tone {
	return &tone{sr: sr, freq: freq, attack: sr.N(5 * time.Millisecond)}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	step := 2 * math.Pi * t.freq / float64(t.sr)
	for i := range samples {
		v := math.Sin(step * float64(t.pos))
		if t.pos < t.attack {
			v *= float64(t.pos) / float64(t.attack)
		}
		samples[i][0] = v
		samples[i][1] = v
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// fxFrequency maps a sound id onto a chromatic scale above A3.
func fxFrequency(sound uint32) float64 {
	return 220 * math.Pow(2, float64(sound%24)/12)
}

// fxLength is how long a one-shot sound plays.
func fxLength(sr beep.SampleRate, sound uint32) int {
	return sr.N(time.Duration(120+40*(sound%4)) * time.Millisecond)
}

// musicFrequency picks the drone pitch of a music track.
func musicFrequency(id uint32) float64 {
	return 55 * math.Pow(2, float64(id%12)/12)
}
