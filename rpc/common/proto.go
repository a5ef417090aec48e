package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/dKS/lib/core"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Space     string `json:"space,omitempty"`     // Used for: all DDL requests (empty means the default space)
	Entity    string `json:"entity,omitempty"`    // Used for: CreateModel, DropModel, Use, InspectModel, Snapshot (name)
	Model     uint8  `json:"model,omitempty"`     // Used for: CreateModel requests (table model tag)
	Volatile  bool   `json:"volatile,omitempty"`  // Used for: CreateModel requests
	Force     bool   `json:"force,omitempty"`     // Used for: DropSpace, DropModel requests
	Statement []byte `json:"statement,omitempty"` // Used for: Statement requests (raw DDL source)

	// Response only fields
	Ok      bool     `json:"ok,omitempty"`      // Used for: Ping responses
	Code    uint8    `json:"code,omitempty"`    // DDL failure class + 1, zero if the error carries no class
	Entries []string `json:"entries,omitempty"` // Used for: Use, Inspect*, Statement, Snapshot responses
	Err     string   `json:"err,omitempty"`     // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// DdlCode returns the transported DDL failure class of a response, if the
// error carries one.
func (m *Message) DdlCode() (core.DdlCode, bool) {
	if m.Code == 0 {
		return 0, false
	}
	return core.DdlCode(m.Code - 1), true
}

// applyError stores err in the message. DDL errors keep their failure
// class so clients can reconstruct the typed error; the bare message is
// transported to avoid double prefixing on the way back.
func (m *Message) applyError(err error) *Message {
	if err == nil {
		return m
	}
	var ddlErr *core.DdlError
	if errors.As(err, &ddlErr) {
		m.Code = uint8(ddlErr.Code) + 1
		m.Err = ddlErr.Msg
		return m
	}
	m.Err = err.Error()
	return m
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewCreateSpaceRequest creates a new CreateSpace request
func NewCreateSpaceRequest(space string) *Message {
	return &Message{
		MsgType: MsgTDDLCreateSpace,
		Space:   space,
	}
}

// NewCreateSpaceResponse creates a new CreateSpace response
func NewCreateSpaceResponse(err error) *Message {
	return (&Message{MsgType: MsgTDDLCreateSpace}).applyError(err)
}

// NewDropSpaceRequest creates a new DropSpace request
func NewDropSpaceRequest(space string, force bool) *Message {
	return &Message{
		MsgType: MsgTDDLDropSpace,
		Space:   space,
		Force:   force,
	}
}

// NewDropSpaceResponse creates a new DropSpace response
func NewDropSpaceResponse(err error) *Message {
	return (&Message{MsgType: MsgTDDLDropSpace}).applyError(err)
}

// NewCreateModelRequest creates a new CreateModel request. The model is the
// numeric table model tag.
func NewCreateModelRequest(space, entity string, model uint8, volatile bool) *Message {
	return &Message{
		MsgType:  MsgTDDLCreateModel,
		Space:    space,
		Entity:   entity,
		Model:    model,
		Volatile: volatile,
	}
}

// NewCreateModelResponse creates a new CreateModel response
func NewCreateModelResponse(err error) *Message {
	return (&Message{MsgType: MsgTDDLCreateModel}).applyError(err)
}

// NewDropModelRequest creates a new DropModel request
func NewDropModelRequest(space, entity string, force bool) *Message {
	return &Message{
		MsgType: MsgTDDLDropModel,
		Space:   space,
		Entity:  entity,
		Force:   force,
	}
}

// NewDropModelResponse creates a new DropModel response
func NewDropModelResponse(err error) *Message {
	return (&Message{MsgType: MsgTDDLDropModel}).applyError(err)
}

// NewUseRequest creates a new Use request
func NewUseRequest(space, entity string) *Message {
	return &Message{
		MsgType: MsgTDDLUse,
		Space:   space,
		Entity:  entity,
	}
}

// NewUseResponse creates a new Use response
func NewUseResponse(entries []string, err error) *Message {
	return (&Message{MsgType: MsgTDDLUse, Entries: entries}).applyError(err)
}

// NewInspectSpacesRequest creates a new InspectSpaces request
func NewInspectSpacesRequest() *Message {
	return &Message{MsgType: MsgTDDLInspectSpaces}
}

// NewInspectSpacesResponse creates a new InspectSpaces response
func NewInspectSpacesResponse(entries []string, err error) *Message {
	return (&Message{MsgType: MsgTDDLInspectSpaces, Entries: entries}).applyError(err)
}

// NewInspectSpaceRequest creates a new InspectSpace request
func NewInspectSpaceRequest(space string) *Message {
	return &Message{
		MsgType: MsgTDDLInspectSpace,
		Space:   space,
	}
}

// NewInspectSpaceResponse creates a new InspectSpace response
func NewInspectSpaceResponse(entries []string, err error) *Message {
	return (&Message{MsgType: MsgTDDLInspectSpace, Entries: entries}).applyError(err)
}

// NewInspectModelRequest creates a new InspectModel request
func NewInspectModelRequest(space, entity string) *Message {
	return &Message{
		MsgType: MsgTDDLInspectModel,
		Space:   space,
		Entity:  entity,
	}
}

// NewInspectModelResponse creates a new InspectModel response
func NewInspectModelResponse(entries []string, err error) *Message {
	return (&Message{MsgType: MsgTDDLInspectModel, Entries: entries}).applyError(err)
}

// NewStatementRequest creates a new Statement request. The space sets the
// session cursor the statement runs under; empty means the default space.
func NewStatementRequest(space string, statement []byte) *Message {
	return &Message{
		MsgType:   MsgTDDLStatement,
		Space:     space,
		Statement: statement,
	}
}

// NewStatementResponse creates a new Statement response
func NewStatementResponse(entries []string, err error) *Message {
	return (&Message{MsgType: MsgTDDLStatement, Entries: entries}).applyError(err)
}

// NewFlushRequest creates a new Flush request
func NewFlushRequest() *Message {
	return &Message{MsgType: MsgTSysFlush}
}

// NewFlushResponse creates a new Flush response
func NewFlushResponse(err error) *Message {
	return (&Message{MsgType: MsgTSysFlush}).applyError(err)
}

// NewSnapshotRequest creates a new Snapshot request. An empty name asks
// for a timestamped snapshot subject to the retention policy.
func NewSnapshotRequest(name string) *Message {
	return &Message{
		MsgType: MsgTSysSnapshot,
		Entity:  name,
	}
}

// NewSnapshotResponse creates a new Snapshot response. On success entries
// holds the name of the written snapshot.
func NewSnapshotResponse(entries []string, err error) *Message {
	return (&Message{MsgType: MsgTSysSnapshot, Entries: entries}).applyError(err)
}

// NewPingRequest creates a new Ping request
func NewPingRequest() *Message {
	return &Message{MsgType: MsgTSysPing}
}

// NewPingResponse creates a new Ping response
func NewPingResponse() *Message {
	return &Message{MsgType: MsgTSysPing, Ok: true}
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTDDLCreateSpace:
		return "createSpace"
	case MsgTDDLDropSpace:
		return "dropSpace"
	case MsgTDDLCreateModel:
		return "createModel"
	case MsgTDDLDropModel:
		return "dropModel"
	case MsgTDDLUse:
		return "use"
	case MsgTDDLInspectSpaces:
		return "inspectSpaces"
	case MsgTDDLInspectSpace:
		return "inspectSpace"
	case MsgTDDLInspectModel:
		return "inspectModel"
	case MsgTDDLStatement:
		return "statement"
	case MsgTSysFlush:
		return "flush"
	case MsgTSysSnapshot:
		return "snapshot"
	case MsgTSysPing:
		return "ping"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "createSpace":
		*t = MsgTDDLCreateSpace
	case "dropSpace":
		*t = MsgTDDLDropSpace
	case "createModel":
		*t = MsgTDDLCreateModel
	case "dropModel":
		*t = MsgTDDLDropModel
	case "use":
		*t = MsgTDDLUse
	case "inspectSpaces":
		*t = MsgTDDLInspectSpaces
	case "inspectSpace":
		*t = MsgTDDLInspectSpace
	case "inspectModel":
		*t = MsgTDDLInspectModel
	case "statement":
		*t = MsgTDDLStatement
	case "flush":
		*t = MsgTSysFlush
	case "snapshot":
		*t = MsgTSysSnapshot
	case "ping":
		*t = MsgTSysPing
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// DDL operations

	MsgTDDLCreateSpace   // Create a keyspace
	MsgTDDLDropSpace     // Drop a keyspace
	MsgTDDLCreateModel   // Create a table in a keyspace
	MsgTDDLDropModel     // Drop a table from a keyspace
	MsgTDDLUse           // Validate and resolve a session cursor
	MsgTDDLInspectSpaces // List all keyspaces
	MsgTDDLInspectSpace  // List the tables of one keyspace
	MsgTDDLInspectModel  // Describe one table
	MsgTDDLStatement     // Run a raw DDL statement

	// Maintenance operations

	MsgTSysFlush    // Flush the hierarchy to disk
	MsgTSysSnapshot // Write a point-in-time snapshot
	MsgTSysPing     // Health check
)
