package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dKS/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasSpace     byte = 1 << 0
	hasEntity    byte = 1 << 1
	hasModel     byte = 1 << 2
	hasStatement byte = 1 << 3
	hasCode      byte = 1 << 4
	hasEntries   byte = 1 << 5
	hasErr       byte = 1 << 6
	hasMeta      byte = 1 << 7
)

// Bit flags carrying boolean fields directly, no payload needed
const (
	bitVolatile byte = 1 << 0
	bitForce    byte = 1 << 1
	bitOk       byte = 1 << 2
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flag bytes
	var flags byte = 0
	var bits byte = 0

	// Set position for writing
	pos := 3 // Start after MsgType and the two flag bytes

	// Handle Space
	if msg.Space != "" {
		flags |= hasSpace
		pos = putString(result, pos, msg.Space)
	}

	// Handle Entity
	if msg.Entity != "" {
		flags |= hasEntity
		pos = putString(result, pos, msg.Entity)
	}

	// Handle Model (the zero tag deserializes from absence)
	if msg.Model != 0 {
		flags |= hasModel
		result[pos] = msg.Model
		pos += 1
	}

	// Handle Statement
	if msg.Statement != nil {
		flags |= hasStatement
		pos = putBytes(result, pos, msg.Statement)
	}

	// Handle Code
	if msg.Code != 0 {
		flags |= hasCode
		result[pos] = msg.Code
		pos += 1
	}

	// Handle Entries
	if msg.Entries != nil {
		flags |= hasEntries
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Entries)))
		pos += 4
		for _, entry := range msg.Entries {
			pos = putString(result, pos, entry)
		}
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		pos = putString(result, pos, msg.Err)
	}

	// Handle Meta
	if msg.Meta != nil {
		flags |= hasMeta
		pos = putBytes(result, pos, msg.Meta)
	}

	// Handle the boolean fields
	if msg.Volatile {
		bits |= bitVolatile
	}
	if msg.Force {
		bits |= bitForce
	}
	if msg.Ok {
		bits |= bitOk
	}

	// Set the flag bytes after knowing which fields are present
	result[1] = flags
	result[2] = bits

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + two flag bytes)
	if len(data) < 3 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type and flags
	msg.MsgType = common.MessageType(data[0])
	flags := data[1]
	bits := data[2]

	// Initialize read position
	pos := 3

	// Read Space if present
	if flags&hasSpace != 0 {
		s, next, err := getString(data, pos, "space")
		if err != nil {
			return err
		}
		msg.Space = s
		pos = next
	} else {
		msg.Space = ""
	}

	// Read Entity if present
	if flags&hasEntity != 0 {
		s, next, err := getString(data, pos, "entity")
		if err != nil {
			return err
		}
		msg.Entity = s
		pos = next
	} else {
		msg.Entity = ""
	}

	// Read Model if present
	if flags&hasModel != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for model tag")
		}
		msg.Model = data[pos]
		pos += 1
	} else {
		msg.Model = 0
	}

	// Read Statement if present
	if flags&hasStatement != 0 {
		v, next, err := getBytes(data, pos, msg.Statement, "statement")
		if err != nil {
			return err
		}
		msg.Statement = v
		pos = next
	} else {
		msg.Statement = nil
	}

	// Read Code if present
	if flags&hasCode != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for code")
		}
		msg.Code = data[pos]
		pos += 1
	} else {
		msg.Code = 0
	}

	// Read Entries if present
	if flags&hasEntries != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for entry count")
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		// An empty non-nil slice survives the round trip
		entries := make([]string, 0, count)
		for i := uint32(0); i < count; i++ {
			s, next, err := getString(data, pos, "entry")
			if err != nil {
				return err
			}
			entries = append(entries, s)
			pos = next
		}
		msg.Entries = entries
	} else {
		msg.Entries = nil
	}

	// Read Err if present
	if flags&hasErr != 0 {
		s, next, err := getString(data, pos, "error")
		if err != nil {
			return err
		}
		msg.Err = s
		pos = next
	} else {
		msg.Err = ""
	}

	// Read Meta if present
	if flags&hasMeta != 0 {
		v, next, err := getBytes(data, pos, msg.Meta, "meta")
		if err != nil {
			return err
		}
		msg.Meta = v
		pos = next
	} else {
		msg.Meta = nil
	}

	// Read the boolean fields
	msg.Volatile = bits&bitVolatile != 0
	msg.Force = bits&bitForce != 0
	msg.Ok = bits&bitOk != 0

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// putString writes a length-prefixed string and returns the next position
func putString(buf []byte, pos int, s string) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(s)))
	pos += 4
	copy(buf[pos:pos+len(s)], s)
	return pos + len(s)
}

// putBytes writes a length-prefixed byte slice and returns the next position
func putBytes(buf []byte, pos int, v []byte) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(v)))
	pos += 4
	copy(buf[pos:pos+len(v)], v)
	return pos + len(v)
}

// getString reads a length-prefixed string starting at pos
func getString(data []byte, pos int, field string) (string, int, error) {
	if pos+4 > len(data) {
		return "", 0, fmt.Errorf("data too short for %s length", field)
	}
	n := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4
	if pos+int(n) > len(data) {
		return "", 0, fmt.Errorf("data too short for %s data", field)
	}
	return string(data[pos : pos+int(n)]), pos + int(n), nil
}

// getBytes reads a length-prefixed byte slice starting at pos, reusing dst
// if it has enough capacity
func getBytes(data []byte, pos int, dst []byte, field string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, 0, fmt.Errorf("data too short for %s length", field)
	}
	n := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4
	if pos+int(n) > len(data) {
		return nil, 0, fmt.Errorf("data too short for %s data", field)
	}

	// Allocate only if needed
	if dst == nil || cap(dst) < int(n) {
		dst = make([]byte, n)
	} else {
		dst = dst[:n]
	}
	if n > 0 {
		copy(dst, data[pos:pos+int(n)])
	}
	return dst, pos + int(n), nil
}

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 2 flag bytes
	size := 3

	// Add sizes for fields that require length encoding
	if msg.Space != "" {
		size += 4 + len(msg.Space)
	}
	if msg.Entity != "" {
		size += 4 + len(msg.Entity)
	}
	if msg.Model != 0 {
		size += 1
	}
	if msg.Statement != nil {
		size += 4 + len(msg.Statement)
	}
	if msg.Code != 0 {
		size += 1
	}
	if msg.Entries != nil {
		size += 4 // entry count
		for _, entry := range msg.Entries {
			size += 4 + len(entry)
		}
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}
