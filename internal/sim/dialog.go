package sim

import (
	"github.com/vovakirdan/tidepool/internal/arena"
)

const (
	dialogFadeLen    = 20
	dialogMaxLines   = 3
	dialogCountShift = 1
)

type dialogState struct {
	active  bool
	text    string
	lines   int
	counter int
	fade    int
	target  arena.Handle
}

func (d *dialogState) full() int {
	return len(d.text) << dialogCountShift
}

// DialogView is what a renderer needs to draw the dialog box.
type DialogView struct {
	Text   string
	Shown  int
	Lines  int
	Alpha  float64
	Target *Actor
}

// SetDialog opens a dialog box anchored to target (may be nil).
func (m *Map) SetDialog(text string, target *Actor) {
	m.dialog = dialogState{
		active: text != "",
		text:   text,
		lines:  1,
		target: handleOf(target),
	}
}

// ClearDialog closes the dialog box.
func (m *Map) ClearDialog() {
	m.dialog = dialogState{}
}

// AdvanceDialog reveals the rest of the text, or closes the box when
// everything is already shown.
func (m *Map) AdvanceDialog() {
	d := &m.dialog
	if !d.active {
		return
	}
	if d.counter < d.full() {
		d.counter = d.full()
		d.fade = dialogFadeLen
		return
	}
	m.ClearDialog()
}

// Dialog returns the open dialog.
func (m *Map) Dialog() (DialogView, bool) {
	d := &m.dialog
	if !d.active {
		return DialogView{}, false
	}
	return DialogView{
		Text:   d.text,
		Shown:  d.counter >> dialogCountShift,
		Lines:  d.lines,
		Alpha:  float64(d.fade) / dialogFadeLen,
		Target: m.actors.Get(d.target),
	}, true
}

// tickDialog types the text in one character every other frame. fast
// speeds the typing up, pages past full boxes and dismisses the finished
// dialog.
func (m *Map) tickDialog(fast bool) {
	d := &m.dialog
	if !d.active {
		return
	}

	if d.counter >= d.full() {
		switch {
		case d.fade >= dialogFadeLen:
			if fast {
				d.fade = dialogFadeLen - 1
			}
		case d.fade > 0:
			if fast {
				d.fade -= 4
			} else {
				d.fade--
			}
			d.fade = max(d.fade, 0)
		default:
			m.ClearDialog()
		}
		return
	}

	if d.fade < dialogFadeLen {
		if fast {
			d.fade += 2 << dialogCountShift
		} else {
			d.fade++
		}
		d.fade = min(d.fade, dialogFadeLen)
		return
	}

	inc := 1
	if fast {
		inc = 4 << dialogCountShift
	}
	for ; inc > 0; inc-- {
		if d.counter&(1<<dialogCountShift-1) == 0 {
			idx := d.counter >> dialogCountShift
			if idx < len(d.text) && d.text[idx] == '\n' {
				if d.lines >= dialogMaxLines {
					if !fast {
						break
					}
					d.text = d.text[idx+1:]
					d.counter -= (idx + 1) << dialogCountShift
				} else {
					d.lines++
				}
			}
		}
		d.counter++
	}
	d.counter = min(d.counter, d.full())
}
