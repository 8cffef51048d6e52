package editor

import (
	"lineedit/buffer"

	"github.com/gdamore/tcell/v2"
)

func (s *Session) handleKey(ev *tcell.EventKey) {
	// Alt-modified rune bindings first, they never insert
	if ev.Key() == tcell.KeyRune && ev.Modifiers()&tcell.ModAlt != 0 {
		switch ev.Rune() {
		case 'b':
			s.buf.Move(buffer.MotionWordLeft)
		case 'f':
			s.buf.Move(buffer.MotionWordRight)
		case 'z':
			s.buf.ApplyRedo()
		}
		return
	}

	switch ev.Key() {
	case tcell.KeyEnter:
		s.accept()
	case tcell.KeyCtrlC:
		s.buf.Reset()
		s.err = ErrInterrupted
		s.done = true
	case tcell.KeyCtrlD:
		if s.buf.Len() == 0 {
			s.err = ErrEOF
			s.done = true
			return
		}
		s.buf.DeleteAtCursor()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		s.buf.DeleteBeforeCursor()
	case tcell.KeyDelete:
		s.buf.DeleteAtCursor()
	case tcell.KeyLeft:
		if ev.Modifiers()&tcell.ModCtrl != 0 {
			s.buf.Move(buffer.MotionWordLeft)
		} else {
			s.buf.Move(buffer.MotionLeft)
		}
	case tcell.KeyRight:
		if ev.Modifiers()&tcell.ModCtrl != 0 {
			s.buf.Move(buffer.MotionWordRight)
		} else {
			s.buf.Move(buffer.MotionRight)
		}
	case tcell.KeyHome, tcell.KeyCtrlA:
		s.buf.Move(buffer.MotionHome)
	case tcell.KeyEnd, tcell.KeyCtrlE:
		s.buf.Move(buffer.MotionEnd)
	case tcell.KeyUp:
		s.historyUp()
	case tcell.KeyDown:
		s.historyDown()
	case tcell.KeyCtrlZ:
		s.buf.ApplyUndo()
	case tcell.KeyCtrlK:
		s.killToEnd()
	case tcell.KeyCtrlU:
		s.killToStart()
	case tcell.KeyCtrlW:
		s.killWordLeft()
	case tcell.KeyCtrlY:
		s.yank()
	case tcell.KeyCtrlL:
		s.bridge.RequestFullRender()
	case tcell.KeyTab:
		s.buf.InsertRune('\t')
	case tcell.KeyRune:
		s.buf.InsertRune(ev.Rune())
	}
}
