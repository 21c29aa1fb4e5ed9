// Package wire implements the length-prefixed, type-tagged frame format
// and the protocol/subprotocol tag registry used to dispatch frames to
// typed handlers.
//
// Frame layout is little-endian: total_len(u16) | type_tag(u16) | payload.
// total_len counts the whole frame (header included), so it is always
// >= HeaderLen and a frame occupies exactly total_len bytes on the wire.
package wire

import (
	"encoding/binary"
	"errors"
)

// HeaderLen is the size of the fixed frame header (total_len + type_tag).
const HeaderLen = 4

// MaxFrameLen is the largest value total_len may take.
const MaxFrameLen = 0xFFFF

var (
	// ErrFrameTooLarge is returned when a payload would overflow MaxFrameLen.
	ErrFrameTooLarge = errors.New("wire: frame exceeds maximum length")
	// ErrHeaderTooShort is returned by DecodeHeader when fewer than HeaderLen bytes are available.
	ErrHeaderTooShort = errors.New("wire: header too short")
	// ErrBadLength is returned when a declared total_len is smaller than HeaderLen.
	ErrBadLength = errors.New("wire: total_len below minimum")
)

// Header is the decoded form of a frame's fixed-size prefix.
type Header struct {
	TotalLen uint16 // whole frame length, header included
	Tag      uint16
}

// PayloadLen returns the number of payload bytes this header describes.
func (h Header) PayloadLen() int {
	return int(h.TotalLen) - HeaderLen
}

// DecodeHeader reads a Header from the first HeaderLen bytes of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, ErrHeaderTooShort
	}
	total := binary.LittleEndian.Uint16(b[0:2])
	if total < HeaderLen {
		return Header{}, ErrBadLength
	}
	tag := binary.LittleEndian.Uint16(b[2:4])
	return Header{TotalLen: total, Tag: tag}, nil
}

// Encode writes the framed representation of (tag, payload) into dst,
// which must have length >= HeaderLen+len(payload). It returns the
// number of bytes written.
func Encode(dst []byte, tag uint16, payload []byte) (int, error) {
	total := HeaderLen + len(payload)
	if total > MaxFrameLen {
		return 0, ErrFrameTooLarge
	}
	if len(dst) < total {
		return 0, errors.New("wire: destination buffer too small")
	}
	binary.LittleEndian.PutUint16(dst[0:2], uint16(total))
	binary.LittleEndian.PutUint16(dst[2:4], tag)
	copy(dst[4:], payload)
	return total, nil
}

// AppendEncoded appends the framed representation of (tag, payload) to dst
// and returns the extended slice.
func AppendEncoded(dst []byte, tag uint16, payload []byte) ([]byte, error) {
	total := HeaderLen + len(payload)
	if total > MaxFrameLen {
		return dst, ErrFrameTooLarge
	}
	var hdr [HeaderLen]byte
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(total))
	binary.LittleEndian.PutUint16(hdr[2:4], tag)
	dst = append(dst, hdr[:]...)
	dst = append(dst, payload...)
	return dst, nil
}

// Scan looks for one complete frame at the start of readable. It returns
// the decoded tag, a view into readable holding just the payload, the
// total number of bytes consumed (header+payload), and ok=true. If
// readable does not yet hold a complete frame, ok is false and the caller
// should wait for more bytes — this is a parse stall, not an error.
func Scan(readable []byte) (tag uint16, payload []byte, consumed int, ok bool, err error) {
	if len(readable) < HeaderLen {
		return 0, nil, 0, false, nil
	}
	hdr, decErr := DecodeHeader(readable)
	if decErr != nil {
		return 0, nil, 0, false, decErr
	}
	if len(readable) < int(hdr.TotalLen) {
		return 0, nil, 0, false, nil
	}
	return hdr.Tag, readable[HeaderLen:hdr.TotalLen], int(hdr.TotalLen), true, nil
}
