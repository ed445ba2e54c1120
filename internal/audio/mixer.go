// Package audio is the sound sink of the simulation. It mixes positional
// one-shot effects and a music bed on a beep mixer that is pulled by the
// frame clock instead of a sound device.
package audio

import (
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/vovakirdan/tidepool/internal/config"
	"github.com/vovakirdan/tidepool/internal/core"
)

const (
	panWidth  = 214.0
	panHeight = 120.0

	falloffStart = panWidth*panWidth + panHeight*panHeight
	falloffEnd   = falloffStart * 4

	musicVolume = 0.75

	// maxVoices bounds the slot part of a channel handle.
	maxVoices = 1 << channelSlotBits

	channelSlotBits = 8
	channelGenMask  = 1<<(31-channelSlotBits) - 1
)

// Music play flags.
const (
	// MusicRestart restarts a track that is already playing.
	MusicRestart uint32 = 1 << 0
	// MusicAllSounds fades the effects out along with the old track.
	MusicAllSounds uint32 = 1 << 1
)

// MusicNone is the silent track.
const MusicNone uint32 = 0

type voice struct {
	gen      uint32
	active   bool
	sound    uint32
	priority int32
	x, y     float64

	ctrl *beep.Ctrl
	vol  *effects.Volume
	pan  *effects.Pan
}

// Stats counts mixer activity.
type Stats struct {
	Active  int
	Played  uint64
	Stolen  uint64
	Dropped uint64
	Frames  uint64
	Music   uint32
}

// Mixer allocates voices for positional effects and mixes them with the
// music bed. It implements sim.Audio.
type Mixer struct {
	mu sync.Mutex

	sr       beep.SampleRate
	perFrame int
	mixer    *beep.Mixer
	buf      [][2]float64
	logger   *log.Logger

	voices []voice
	gen    uint32

	listenerX, listenerY float64

	fxGain   float64
	fxFade   float64
	music    *beep.Ctrl
	musicVol *effects.Volume
	musicID  uint32
	pending  uint32
	gain     float64
	fade     float64

	stats Stats
}

// NewMixer builds a mixer for cfg pulled at fps frames per second.
func NewMixer(cfg config.AudioConfig, fps int, logger *log.Logger) *Mixer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if fps <= 0 {
		fps = core.FPS
	}
	sr := beep.SampleRate(cfg.SampleRate)
	if sr <= 0 {
		sr = 22050
	}
	n := min(max(cfg.Channels, 1), maxVoices)
	perFrame := int(sr) / fps
	return &Mixer{
		sr:       sr,
		perFrame: perFrame,
		mixer:    &beep.Mixer{},
		buf:      make([][2]float64, perFrame),
		logger:   logger,
		voices:   make([]voice, n),
		fxGain:   1,
		gain:     1,
	}
}

func channelOf(slot int, gen uint32) core.Channel {
	return core.Channel(int32(gen&channelGenMask)<<channelSlotBits | int32(slot))
}

// lookup resolves ch to its voice, or nil when the channel has been reused
// or freed since it was handed out.
func (m *Mixer) lookup(ch core.Channel) *voice {
	if ch < 0 {
		return nil
	}
	slot := int(ch) & (maxVoices - 1)
	if slot >= len(m.voices) {
		return nil
	}
	v := &m.voices[slot]
	if !v.active || channelOf(slot, v.gen) != ch {
		return nil
	}
	return v
}

// attenuation is 1 within the pan box around the listener and falls off to
// 0 at twice its diagonal.
func (m *Mixer) attenuation(x, y float64) float64 {
	dx, dy := x-m.listenerX, y-m.listenerY
	d := dx*dx + dy*dy
	switch {
	case d >= falloffEnd:
		return 0
	case d <= falloffStart:
		return 1
	}
	r := 1 - (d-falloffStart)/(falloffEnd-falloffStart)
	return r * r
}

func setGain(v *effects.Volume, g float64) {
	if g <= 0 {
		v.Silent = true
		return
	}
	v.Silent = false
	v.Volume = math.Log2(g)
}

func (m *Mixer) place(v *voice) {
	setGain(v.vol, m.attenuation(v.x, v.y)*m.fxGain)
	v.pan.Pan = max(-1, min(1, (v.x-m.listenerX)/panWidth))
}

// findSlot returns a free voice, else the first one playing something
// less important than priority, else -1.
func (m *Mixer) findSlot(priority int32) int {
	for i := range m.voices {
		if !m.voices[i].active {
			return i
		}
	}
	for i := range m.voices {
		if m.voices[i].priority < priority {
			return i
		}
	}
	return -1
}

func (m *Mixer) stopLocked(v *voice) {
	if v.ctrl != nil {
		// A nil streamer drains the ctrl out of the beep mixer.
		v.ctrl.Streamer = nil
	}
	*v = voice{gen: v.gen}
}

// PlayFX starts sound at x,y. Sounds out of earshot are not played.
func (m *Mixer) PlayFX(sound uint32, x, y float64, priority int32) core.Channel {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.attenuation(x, y) <= 0 {
		return core.NoChannel
	}
	slot := m.findSlot(priority)
	if slot < 0 {
		m.stats.Dropped++
		m.logger.Debug("no voice for sound", "sound", sound, "priority", priority)
		return core.NoChannel
	}
	v := &m.voices[slot]
	if v.active {
		m.stats.Stolen++
		m.logger.Debug("voice stolen", "slot", slot, "sound", v.sound, "by", sound)
		m.stopLocked(v)
	}

	m.gen++
	gen := m.gen
	vol := &effects.Volume{
		Streamer: beep.Take(fxLength(m.sr, sound), newTone(m.sr, fxFrequency(sound))),
		Base:     2,
	}
	pan := &effects.Pan{Streamer: vol}
	ctrl := &beep.Ctrl{Streamer: beep.Seq(pan, beep.Callback(func() {
		// Runs inside Advance with mu held.
		m.finishLocked(slot, gen)
	}))}
	*v = voice{
		gen:      gen,
		active:   true,
		sound:    sound,
		priority: priority,
		x:        x,
		y:        y,
		ctrl:     ctrl,
		vol:      vol,
		pan:      pan,
	}
	m.place(v)
	m.mixer.Add(ctrl)
	m.stats.Played++
	return channelOf(slot, gen)
}

func (m *Mixer) finishLocked(slot int, gen uint32) {
	v := &m.voices[slot]
	if v.active && v.gen == gen {
		*v = voice{gen: v.gen}
	}
}

// ReleaseChannel stops the voice on ch. Stale channels are ignored.
func (m *Mixer) ReleaseChannel(ch core.Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v := m.lookup(ch); v != nil {
		m.stopLocked(v)
	}
}

// SetVoicePosition moves the source of ch.
func (m *Mixer) SetVoicePosition(ch core.Channel, x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v := m.lookup(ch); v != nil {
		v.x, v.y = x, y
		m.place(v)
	}
}

// SetListener moves the ear.
func (m *Mixer) SetListener(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listenerX, m.listenerY = x, y
	for i := range m.voices {
		if m.voices[i].active {
			m.place(&m.voices[i])
		}
	}
}

// Playing reports whether ch still holds its voice.
func (m *Mixer) Playing(ch core.Channel) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(ch) != nil
}

// PlayMusic switches the music bed to track id, fading the current one out
// over fade seconds. Switching to the playing track is a no-op unless
// MusicRestart is set.
func (m *Mixer) PlayMusic(id uint32, fade float64, flags uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if flags&MusicRestart == 0 && m.fade == 0 && m.musicID == id {
		return
	}
	if m.musicID == MusicNone {
		fade = 0
	}
	m.pending = id
	m.fade = 1
	if fade > 0 {
		m.fade = 1 / (fade * float64(m.sr))
	}
	if flags&MusicAllSounds != 0 {
		m.fxFade = m.fade
	}
}

func (m *Mixer) switchMusicLocked() {
	if m.music != nil {
		m.music.Streamer = nil
		m.music, m.musicVol = nil, nil
	}
	m.musicID = m.pending
	if m.musicID == MusicNone {
		return
	}
	m.musicVol = &effects.Volume{Streamer: newTone(m.sr, musicFrequency(m.musicID)), Base: 2}
	m.music = &beep.Ctrl{Streamer: m.musicVol}
	m.mixer.Add(m.music)
	m.logger.Debug("music", "track", m.musicID)
}

// stepFadesLocked advances the music and effect fades by one frame of samples.
func (m *Mixer) stepFadesLocked() {
	n := float64(m.perFrame)
	if m.fade > 0 {
		m.gain -= m.fade * n
		if m.gain <= 0 {
			m.gain = 1
			m.fade = 0
			m.switchMusicLocked()
		}
	}
	if m.fxFade > 0 {
		m.fxGain -= m.fxFade * n
		if m.fxGain <= 0 {
			m.fxGain = 1
			m.fxFade = 0
			for i := range m.voices {
				if m.voices[i].active {
					m.stopLocked(&m.voices[i])
				}
			}
		}
		for i := range m.voices {
			if m.voices[i].active {
				m.place(&m.voices[i])
			}
		}
	}
	if m.musicVol != nil {
		setGain(m.musicVol, musicVolume*m.gain)
	}
}

// Advance mixes frames frames worth of samples. Finished effects free
// their voices while mixing.
func (m *Mixer) Advance(frames int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for range frames {
		m.stepFadesLocked()
		clear(m.buf)
		m.mixer.Stream(m.buf)
		m.stats.Frames++
	}
}

// Peak is the largest absolute sample of the last mixed frame.
func (m *Mixer) Peak() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var peak float64
	for _, s := range m.buf {
		peak = max(peak, math.Abs(s[0]), math.Abs(s[1]))
	}
	return peak
}

// Stats returns a snapshot of the mixer counters.
func (m *Mixer) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.stats
	st.Music = m.musicID
	for i := range m.voices {
		if m.voices[i].active {
			st.Active++
		}
	}
	return st
}
