package classfile

import (
	"encoding/binary"
	"errors"
)

// ErrTruncated indicates the input ended before a structure was complete.
var ErrTruncated = errors.New("classfile: truncated input")

// ---------------------------------------------------------------------------
// reader: cursor over big-endian class-file bytes
// ---------------------------------------------------------------------------

// reader walks a byte slice with an explicit cursor. All multi-byte
// quantities in the class-file format are big-endian.
type reader struct {
	data   []byte
	offset int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

// remaining returns the number of unread bytes.
func (r *reader) remaining() int {
	return len(r.data) - r.offset
}

func (r *reader) u8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, ErrTruncated
	}
	b := r.data[r.offset]
	r.offset++
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(r.data[r.offset:])
	r.offset += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint64(r.data[r.offset:])
	r.offset += 8
	return v, nil
}

func (r *reader) s32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

// bytes returns the next n bytes without copying. Callers that retain
// the slice past the life of the input must copy it themselves.
func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, ErrTruncated
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

// skip advances the cursor by n bytes.
func (r *reader) skip(n int) error {
	if n < 0 || r.remaining() < n {
		return ErrTruncated
	}
	r.offset += n
	return nil
}
