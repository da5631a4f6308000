// Package event defines the application-level payloads that the engine
// hands to the WAL: writes and deletes. These are the bytes that get
// chunked into records and packed into blocks by package walrecord; event
// encoding carries no checksum of its own — integrity is the WAL's job.
package event

import (
	"encoding/binary"
	"errors"
)

// Tag identifies which Event variant follows in the wire encoding.
type Tag uint8

const (
	// TagWrite marks a Write{Key, Value} event.
	TagWrite Tag = 1
	// TagDelete marks a Delete{Key} event.
	TagDelete Tag = 2
)

// ErrInvalidEvent is returned by Deserialize when the leading tag byte is
// not TagWrite or TagDelete.
var ErrInvalidEvent = errors.New("event: invalid tag")

// Event is a write or a delete. Exactly one of the two constructors below
// should be used; the zero value is not meaningful.
type Event struct {
	Tag   Tag
	Key   []byte
	Value []byte // unused for TagDelete
}

// NewWrite returns a Write event for key/value.
func NewWrite(key, value []byte) Event {
	return Event{Tag: TagWrite, Key: key, Value: value}
}

// NewDelete returns a Delete event for key.
func NewDelete(key []byte) Event {
	return Event{Tag: TagDelete, Key: key}
}

// Size returns the number of bytes Serialize would produce for e.
func (e Event) Size() int {
	switch e.Tag {
	case TagWrite:
		return 1 + 4 + len(e.Key) + 4 + len(e.Value)
	case TagDelete:
		return 1 + 4 + len(e.Key)
	default:
		return 0
	}
}

// Serialize encodes e as, little-endian:
//
//	write:  tag(1)=1 keylen(4) key vallen(4) value
//	delete: tag(1)=2 keylen(4) key
func Serialize(e Event) []byte {
	buf := make([]byte, e.Size())
	buf[0] = byte(e.Tag)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(e.Key)))
	offset := 5
	copy(buf[offset:], e.Key)
	offset += len(e.Key)

	if e.Tag == TagWrite {
		binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(len(e.Value)))
		offset += 4
		copy(buf[offset:], e.Value)
	}

	return buf
}

// Deserialize decodes data produced by Serialize. The returned Event's Key
// and Value are views into data, not copies.
func Deserialize(data []byte) (Event, error) {
	if len(data) < 1 {
		return Event{}, ErrInvalidEvent
	}

	tag := Tag(data[0])
	if tag != TagWrite && tag != TagDelete {
		return Event{}, ErrInvalidEvent
	}

	if len(data) < 5 {
		return Event{}, ErrInvalidEvent
	}
	keyLen := binary.LittleEndian.Uint32(data[1:5])
	offset := 5
	if offset+int(keyLen) > len(data) {
		return Event{}, ErrInvalidEvent
	}
	key := data[offset : offset+int(keyLen)]
	offset += int(keyLen)

	if tag == TagDelete {
		return Event{Tag: tag, Key: key}, nil
	}

	if offset+4 > len(data) {
		return Event{}, ErrInvalidEvent
	}
	valueLen := binary.LittleEndian.Uint32(data[offset : offset+4])
	offset += 4
	if offset+int(valueLen) > len(data) {
		return Event{}, ErrInvalidEvent
	}
	value := data[offset : offset+int(valueLen)]

	return Event{Tag: tag, Key: key, Value: value}, nil
}
