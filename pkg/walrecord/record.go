// Package walrecord implements the WAL's physical framing: the
// length-prefixed, CRC-checked Record, and the chunking/block-decoding
// rules that pack a sequence of records into fixed-size blocks with
// trailing zero padding (spec.md §4.3).
package walrecord

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// Type identifies how a record's payload relates to the logical payload it
// is part of.
type Type uint8

const (
	// Full records carry an entire payload in one record.
	Full Type = 1
	// First records carry the beginning of a payload split across records.
	First Type = 2
	// Middle records carry an interior chunk of a split payload.
	Middle Type = 3
	// Last records carry the final chunk of a split payload. Never empty.
	Last Type = 4
)

// HeaderSize is the size in bytes of a record's fixed header: a 4-byte
// CRC-32, a 2-byte length, and a 1-byte type.
const HeaderSize = 7

var (
	// ErrInvalidRecord is returned by Decode when the header fails
	// validation: a zero length, or a type outside {Full,First,Middle,Last}.
	// Both conditions are how a reader tells a real record apart from
	// trailing zero padding.
	ErrInvalidRecord = errors.New("walrecord: invalid record header")

	// ErrChecksumMismatch is returned by block-level decoding (not by
	// Record.Decode, which does not verify the checksum) when the stored
	// CRC does not match the payload.
	ErrChecksumMismatch = errors.New("walrecord: checksum mismatch")
)

// Record is one physical frame: a typed, CRC-checked chunk of an
// application payload.
type Record struct {
	Checksum uint32
	Type     Type
	Data     []byte
}

// Size returns the encoded size of r: HeaderSize plus the payload length.
func (r Record) Size() int {
	return HeaderSize + len(r.Data)
}

// checksum computes the CRC-32 over data followed by the type byte, per
// spec.md §3: "Checksum is CRC-32 over payload ‖ [type_byte]".
func checksum(typ Type, data []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write(data)
	crc.Write([]byte{byte(typ)})
	return crc.Sum32()
}

// NewRecord builds a Record over data with its checksum computed.
func NewRecord(typ Type, data []byte) Record {
	return Record{Checksum: checksum(typ, data), Type: typ, Data: data}
}

// Encode writes r to buf, which must be exactly r.Size() bytes long.
func (r Record) Encode(buf []byte) error {
	if len(buf) != r.Size() {
		return errors.New("walrecord: buffer does not match record size")
	}
	binary.LittleEndian.PutUint32(buf[0:4], r.Checksum)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(r.Data)))
	buf[6] = byte(r.Type)
	copy(buf[HeaderSize:], r.Data)
	return nil
}

// Decode reads a single record's header and payload from the front of buf.
// It returns ErrInvalidRecord if the header is malformed (length 0 or an
// unknown type) — the signal a block reader uses to recognize it has hit
// zero-padding rather than a real record. The checksum is NOT verified
// here; that is the block reader's job (see DecodeBlock).
func Decode(buf []byte) (Record, int, error) {
	if len(buf) < HeaderSize {
		return Record{}, 0, ErrInvalidRecord
	}

	checksumField := binary.LittleEndian.Uint32(buf[0:4])
	length := binary.LittleEndian.Uint16(buf[4:6])
	typ := Type(buf[6])

	if length == 0 {
		return Record{}, 0, ErrInvalidRecord
	}
	switch typ {
	case Full, First, Middle, Last:
	default:
		return Record{}, 0, ErrInvalidRecord
	}

	total := HeaderSize + int(length)
	if len(buf) < total {
		return Record{}, 0, ErrInvalidRecord
	}

	data := buf[HeaderSize:total]
	return Record{Checksum: checksumField, Type: typ, Data: data}, total, nil
}

// Chunk splits payload into the sequence of records needed to store it in
// blocks of size blockSize, per spec.md §4.3's chunking rule. blockSize
// must exceed HeaderSize.
func Chunk(payload []byte, blockSize int) []Record {
	maxPayload := blockSize - HeaderSize

	if HeaderSize+len(payload) <= blockSize {
		return []Record{NewRecord(Full, payload)}
	}

	var records []Record
	remaining := payload
	first := true
	for len(remaining) > 0 {
		n := maxPayload
		last := false
		if n >= len(remaining) {
			n = len(remaining)
			last = true
		}

		chunk := remaining[:n]
		remaining = remaining[n:]

		var typ Type
		switch {
		case first && last:
			typ = Full
		case first:
			typ = First
		case last:
			typ = Last
		default:
			typ = Middle
		}
		records = append(records, NewRecord(typ, chunk))
		first = false
	}

	return records
}

// DecodeBlock decodes every record found at the front of block, stopping
// (without error) the first time a header fails validation — that is
// interpreted as having reached the block's zero-padding. Unlike
// Record.Decode, DecodeBlock verifies each record's checksum and returns
// ErrChecksumMismatch if one fails, terminating the block's replay at that
// point (spec.md §4.4's "corrupted record terminates replay of that
// block").
func DecodeBlock(block []byte) ([]Record, error) {
	var records []Record
	offset := 0

	for offset < len(block) {
		rec, n, err := Decode(block[offset:])
		if err != nil {
			break
		}

		if checksum(rec.Type, rec.Data) != rec.Checksum {
			return records, ErrChecksumMismatch
		}

		records = append(records, rec)
		offset += n
	}

	return records, nil
}
