package system

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testTVSize = 16

func inputEvent(typ, code uint16, value int32) []byte {
	rec := make([]byte, testTVSize+8)
	binary.LittleEndian.PutUint16(rec[testTVSize:], typ)
	binary.LittleEndian.PutUint16(rec[testTVSize+2:], code)
	binary.LittleEndian.PutUint32(rec[testTVSize+4:], uint32(value))
	return rec
}

func TestKeyPresses(t *testing.T) {
	var buf []byte
	buf = append(buf, inputEvent(evKey, KeyF11, 1)...)
	buf = append(buf, inputEvent(evKey, KeyF11, 0)...) // release
	buf = append(buf, inputEvent(0x04, 4, 1)...)       // EV_MSC scan code
	buf = append(buf, inputEvent(evKey, KeyF4, 2)...)  // autorepeat
	buf = append(buf, inputEvent(evKey, KeyEsc, 1)...)
	buf = append(buf, 0x01, 0x02) // truncated tail

	assert.Equal(t, []uint16{KeyF11, KeyEsc}, keyPresses(buf, testTVSize))
	assert.Nil(t, keyPresses(nil, testTVSize))
}

func TestKeyBindingsDispatch(t *testing.T) {
	var got []string
	b := KeyBindings{
		KeyF4:  func() { got = append(got, "exit") },
		KeyF11: func() { got = append(got, "fullscreen") },
		KeyG:   nil,
	}
	b.dispatch([]uint16{KeyF11, KeyG, KeyEsc, KeyF4})
	assert.Equal(t, []string{"fullscreen", "exit"}, got)
}

var errNoTTYForTest = errors.New("no tty")

type recordingLogger struct{ infos, errors []string }

func (l *recordingLogger) Infof(_ string, format string, _ ...interface{}) {
	l.infos = append(l.infos, format)
}
func (l *recordingLogger) Errorf(_ string, format string, _ ...interface{}) {
	l.errors = append(l.errors, format)
}

func TestLogResult(t *testing.T) {
	l := &recordingLogger{}
	assert.NoError(t, logResult(l, nil, "cursor hidden", "hide cursor failed"))
	assert.ErrorIs(t, logResult(l, errNoTTYForTest, "cursor shown", "show cursor failed"), errNoTTYForTest)
	assert.Equal(t, []string{"%s"}, l.infos)
	assert.Equal(t, []string{"%s: %v"}, l.errors)

	assert.NoError(t, logResult(nil, nil, "", ""))
}
