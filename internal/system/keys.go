package system

import "encoding/binary"

// Key codes from linux/input-event-codes.h.
const (
	KeyEsc uint16 = 1
	KeyG   uint16 = 34
	KeyF4  uint16 = 62
	KeyF11 uint16 = 87
)

const (
	evKey      = 0x01
	keyPressed = 1
)

// KeyBindings maps key codes to actions run on key press.
type KeyBindings map[uint16]func()

// keyPresses decodes a buffer of input_event records and returns the codes of
// keys that went down. tvSize is the platform's struct timeval size; a
// trailing partial record is ignored.
func keyPresses(buf []byte, tvSize int) []uint16 {
	eventSize := tvSize + 2 + 2 + 4
	var out []uint16
	for off := 0; off+eventSize <= len(buf); off += eventSize {
		rec := buf[off : off+eventSize]
		typ := binary.LittleEndian.Uint16(rec[tvSize : tvSize+2])
		code := binary.LittleEndian.Uint16(rec[tvSize+2 : tvSize+4])
		value := int32(binary.LittleEndian.Uint32(rec[tvSize+4 : tvSize+8]))
		if typ == evKey && value == keyPressed {
			out = append(out, code)
		}
	}
	return out
}

// dispatch runs the bindings for every pressed key it knows.
func (b KeyBindings) dispatch(codes []uint16) {
	for _, code := range codes {
		if fn := b[code]; fn != nil {
			fn()
		}
	}
}
