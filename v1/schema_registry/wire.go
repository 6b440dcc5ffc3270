package schema_registry

import (
	"encoding/binary"
	"fmt"
)

// MagicByte is the first byte of every framed message.
const MagicByte byte = 0x0

const (
	magicByteSize  = 1
	registryIDSize = 4
	headerSize     = magicByteSize + registryIDSize
	indexCountSize = 4
)

// DefaultMessageIndexes selects the first message of a Protobuf file.
var DefaultMessageIndexes = []int{0}

// Message is a decoded envelope in the basic layout.
type Message struct {
	MagicByte  byte
	RegistryID int32
	Payload    []byte
}

// ExtendedMessage is a decoded envelope carrying an explicit message index list.
type ExtendedMessage struct {
	MagicByte            byte
	RegistryID           int32
	MessageIndexesLength int32
	MessageIndexes       []int
	Payload              []byte
}

// EncodeMessage frames payload for the given registry id.
//
// Layout:
//
//	[magic byte (1)] [registry id (4, big-endian)] [message indexes (1 byte each)] [payload]
//
// Avro and JSON Schema pass no indexes; Protobuf passes DefaultMessageIndexes.
func EncodeMessage(registryID int32, payload []byte, messageIndexes ...int) []byte {
	buf := make([]byte, headerSize, headerSize+len(messageIndexes)+len(payload))
	buf[0] = MagicByte
	binary.BigEndian.PutUint32(buf[magicByteSize:], uint32(registryID))
	for _, idx := range messageIndexes {
		buf = append(buf, byte(idx))
	}
	return append(buf, payload...)
}

// DecodeMessage splits a framed buffer into magic byte, registry id and payload.
// The magic byte is returned as found; checking it is up to the caller.
func DecodeMessage(buf []byte) (Message, error) {
	if buf == nil {
		return Message{}, newArgumentError("invalid buffer: nil")
	}
	if len(buf) < headerSize {
		return Message{}, newArgumentError("invalid buffer: expected at least %d bytes, got %d", headerSize, len(buf))
	}
	return Message{
		MagicByte:  buf[0],
		RegistryID: int32(binary.BigEndian.Uint32(buf[magicByteSize:headerSize])),
		Payload:    buf[headerSize:],
	}, nil
}

// EncodeExtended frames payload with a length-prefixed message index list.
//
// Layout:
//
//	[magic byte (1)] [registry id (4)] [index count (4)] [indexes (1 byte each)] [payload]
func EncodeExtended(registryID int32, payload []byte, messageIndexes []int) []byte {
	buf := make([]byte, headerSize+indexCountSize, headerSize+indexCountSize+len(messageIndexes)+len(payload))
	buf[0] = MagicByte
	binary.BigEndian.PutUint32(buf[magicByteSize:], uint32(registryID))
	binary.BigEndian.PutUint32(buf[headerSize:], uint32(len(messageIndexes)))
	for _, idx := range messageIndexes {
		buf = append(buf, byte(idx))
	}
	return append(buf, payload...)
}

// DecodeExtended is the counterpart of EncodeExtended.
func DecodeExtended(buf []byte) (ExtendedMessage, error) {
	if buf == nil {
		return ExtendedMessage{}, newArgumentError("invalid buffer: nil")
	}
	if len(buf) < headerSize+indexCountSize {
		return ExtendedMessage{}, newArgumentError("invalid buffer: expected at least %d bytes, got %d",
			headerSize+indexCountSize, len(buf))
	}
	count := int32(binary.BigEndian.Uint32(buf[headerSize:]))
	start := headerSize + indexCountSize
	if count < 0 || len(buf)-start < int(count) {
		return ExtendedMessage{}, newArgumentError("invalid buffer: message index count %d exceeds remaining %d bytes",
			count, len(buf)-start)
	}
	indexes := make([]int, count)
	for i := range indexes {
		indexes[i] = int(buf[start+i])
	}
	return ExtendedMessage{
		MagicByte:            buf[0],
		RegistryID:           int32(binary.BigEndian.Uint32(buf[magicByteSize:headerSize])),
		MessageIndexesLength: count,
		MessageIndexes:       indexes,
		Payload:              buf[start+int(count):],
	}, nil
}

// checkMagicByte fails with an ArgumentError naming both bytes when b is not MagicByte.
func checkMagicByte(b byte) error {
	if b != MagicByte {
		return newArgumentError("message encoded with magic byte %s, expected %s", formatByte(b), formatByte(MagicByte))
	}
	return nil
}

func formatByte(b byte) string {
	return fmt.Sprintf("0x%02x", b)
}
