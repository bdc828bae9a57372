package tuya

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

const (
	prefix uint32 = 0x000055AA
	suffix uint32 = 0x0000AA55

	headerLen  = 16
	trailerLen = 8 // crc32 + suffix

	// maxFrameLen bounds a single frame; status replies are a few hundred bytes.
	maxFrameLen = 64 * 1024
)

// Command codes used by this client.
const (
	CmdStatus    uint32 = 0x08
	CmdHeartBeat uint32 = 0x09
	CmdDPQuery   uint32 = 0x0a
)

var (
	ErrBadFrame = errors.New("tuya: malformed frame")
	ErrCRC      = errors.New("tuya: frame crc mismatch")
)

// Frame is one decoded protocol message.
//
// Wire layout (big-endian):
//
//	prefix(4) seq(4) cmd(4) len(4) payload(len-8) crc32(4) suffix(4)
//
// crc32 covers the header and the payload.
type Frame struct {
	Seq     uint32
	Cmd     uint32
	Payload []byte
}

func (f Frame) Encode() []byte {
	buf := make([]byte, headerLen+len(f.Payload)+trailerLen)
	binary.BigEndian.PutUint32(buf[0:4], prefix)
	binary.BigEndian.PutUint32(buf[4:8], f.Seq)
	binary.BigEndian.PutUint32(buf[8:12], f.Cmd)
	binary.BigEndian.PutUint32(buf[12:16], uint32(len(f.Payload)+trailerLen))
	copy(buf[headerLen:], f.Payload)

	end := headerLen + len(f.Payload)
	binary.BigEndian.PutUint32(buf[end:end+4], crc32.ChecksumIEEE(buf[:end]))
	binary.BigEndian.PutUint32(buf[end+4:end+8], suffix)
	return buf
}

// ReadFrame reads exactly one frame from r.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [headerLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, err
	}

	if binary.BigEndian.Uint32(header[0:4]) != prefix {
		return Frame{}, fmt.Errorf("%w: bad prefix % x", ErrBadFrame, header[0:4])
	}

	length := binary.BigEndian.Uint32(header[12:16])
	if length < trailerLen || length > maxFrameLen {
		return Frame{}, fmt.Errorf("%w: length %d", ErrBadFrame, length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, err
	}

	payload := body[:length-trailerLen]
	gotCRC := binary.BigEndian.Uint32(body[length-trailerLen : length-4])
	if binary.BigEndian.Uint32(body[length-4:]) != suffix {
		return Frame{}, fmt.Errorf("%w: bad suffix", ErrBadFrame)
	}

	crc := crc32.NewIEEE()
	crc.Write(header[:])
	crc.Write(payload)
	if crc.Sum32() != gotCRC {
		return Frame{}, ErrCRC
	}

	return Frame{
		Seq:     binary.BigEndian.Uint32(header[4:8]),
		Cmd:     binary.BigEndian.Uint32(header[8:12]),
		Payload: bytes.Clone(payload),
	}, nil
}
