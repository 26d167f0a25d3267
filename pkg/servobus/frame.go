package servobus

import "github.com/pkg/errors"

const frameHeader = 0xFF

// Instruction bytes.
const (
	instPing  = 0x01
	instRead  = 0x02
	instWrite = 0x03
)

// buildFrame assembles a request packet:
// [0xFF 0xFF id len inst params... checksum]
// where len counts inst + params + checksum and the checksum is the
// bitwise complement of the byte sum from id through the last param.
func buildFrame(id int, instruction byte, params []byte) []byte {
	length := len(params) + 2
	frame := make([]byte, 0, 6+len(params))
	frame = append(frame, frameHeader, frameHeader)
	frame = append(frame, byte(id), byte(length), instruction)
	frame = append(frame, params...)
	frame = append(frame, checksum(frame[2:]))
	return frame
}

func checksum(body []byte) byte {
	var sum byte
	for _, b := range body {
		sum += b
	}
	return ^sum
}

type reply struct {
	id     int
	status byte
	params []byte
}

var (
	errShortReply    = errors.New("short reply")
	errNoHeader      = errors.New("reply header not found")
	errBadChecksum   = errors.New("reply checksum mismatch")
	errBadLength     = errors.New("reply length out of bounds")
	errWrongReplyID  = errors.New("reply from unexpected servo id")
	errEmptyRegister = errors.New("empty register payload")
)

// parseReply extracts a status packet from raw bytes, tolerating leading
// noise before the header. Layout mirrors the request frame with the
// instruction byte replaced by the servo's status byte.
func parseReply(buf []byte) (reply, error) {
	start := -1
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == frameHeader && buf[i+1] == frameHeader {
			start = i
			break
		}
	}
	if start < 0 {
		return reply{}, errNoHeader
	}
	buf = buf[start:]
	if len(buf) < 6 {
		return reply{}, errShortReply
	}

	length := int(buf[3])
	if length < 2 || 4+length > len(buf) {
		return reply{}, errBadLength
	}

	body := buf[2 : 4+length]
	if checksum(body[:len(body)-1]) != body[len(body)-1] {
		return reply{}, errBadChecksum
	}

	return reply{
		id:     int(buf[2]),
		status: buf[4],
		params: buf[5 : 3+length],
	}, nil
}
