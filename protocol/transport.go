// Serial transport framing.
//
// Each frame on the wire is:
//
//	[length u8] [id lo] [id hi] [payload ...] [crc hi] [crc lo] [sync]
//
// length counts every byte of the frame including the trailer. The
// CRC16 covers the length, id and payload bytes. The trailing sync
// byte (0x7E) lets the receiver resynchronize after corruption: on any
// framing error the stream is scanned forward to the next sync byte.

package protocol

const (
	FrameHeaderSize  = 3 // length + 16-bit id
	FrameTrailerSize = 3 // CRC16 + sync byte
	FrameLengthMin   = FrameHeaderSize + FrameTrailerSize
	FrameLengthMax   = 64
	FrameSyncByte    = 0x7E
)

// FrameHandler is called for each complete, CRC-verified frame.
type FrameHandler func(id uint16, data []byte) error

// Transport reassembles frames from a byte stream. It is fed from a
// single reader goroutine; the handler runs on that goroutine.
type Transport struct {
	synchronized bool
	buf          []byte
	handler      FrameHandler

	// Counters for link diagnostics.
	framesOK  uint32
	framesBad uint32
}

// NewTransport creates a transport delivering frames to handler.
func NewTransport(handler FrameHandler) *Transport {
	return &Transport{
		synchronized: true,
		handler:      handler,
	}
}

// EncodeFrame builds the on-wire bytes for one frame.
func EncodeFrame(id uint16, payload []byte) []byte {
	total := FrameLengthMin + len(payload)
	buf := make([]byte, 0, total)

	buf = append(buf, uint8(total), uint8(id&0xFF), uint8(id>>8))
	buf = append(buf, payload...)

	crc := CRC16(buf)
	buf = append(buf, uint8(crc>>8), uint8(crc&0xFF), FrameSyncByte)
	return buf
}

// Receive feeds raw bytes from the link into the reassembler. Complete
// frames are dispatched to the handler; handler errors do not stop
// processing of later frames in the same chunk.
func (t *Transport) Receive(data []byte) {
	t.buf = append(t.buf, data...)

	for len(t.buf) > 0 {
		if !t.synchronized {
			syncPos := -1
			for i, b := range t.buf {
				if b == FrameSyncByte {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				t.buf = t.buf[:0]
				return
			}
			t.buf = t.buf[syncPos+1:]
			t.synchronized = true
			continue
		}

		// Stray sync bytes between frames are harmless.
		if t.buf[0] == FrameSyncByte {
			t.buf = t.buf[1:]
			continue
		}

		if len(t.buf) < FrameLengthMin {
			return
		}

		frameLen := int(t.buf[0])
		if frameLen < FrameLengthMin || frameLen > FrameLengthMax {
			t.desync()
			continue
		}
		if len(t.buf) < frameLen {
			return
		}

		if t.buf[frameLen-1] != FrameSyncByte {
			t.desync()
			continue
		}

		wantCRC := uint16(t.buf[frameLen-3])<<8 | uint16(t.buf[frameLen-2])
		if CRC16(t.buf[:frameLen-FrameTrailerSize]) != wantCRC {
			t.desync()
			continue
		}

		id := uint16(t.buf[1]) | uint16(t.buf[2])<<8
		payload := t.buf[FrameHeaderSize : frameLen-FrameTrailerSize]

		t.framesOK++
		if t.handler != nil {
			_ = t.handler(id, payload)
		}

		t.buf = t.buf[frameLen:]
	}
}

func (t *Transport) desync() {
	t.synchronized = false
	t.framesBad++
	t.buf = t.buf[1:]
}

// Stats returns the counts of valid and rejected frames.
func (t *Transport) Stats() (framesOK, framesBad uint32) {
	return t.framesOK, t.framesBad
}

// Reset drops any partial frame and resynchronizes the stream.
func (t *Transport) Reset() {
	t.buf = t.buf[:0]
	t.synchronized = true
}
