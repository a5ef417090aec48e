package client

import (
	"fmt"

	"github.com/ValentinKolb/dKS/lib/table"
	"github.com/ValentinKolb/dKS/rpc/common"
	"github.com/ValentinKolb/dKS/rpc/serializer"
	"github.com/ValentinKolb/dKS/rpc/transport"
)

// IDDLClient is the client-side view of the DDL and maintenance operations
// of a remote object hierarchy. All methods are safe for concurrent use.
//
// An empty space parameter addresses the default space. Sessions live
// client-side: Use only validates and resolves a cursor, the caller keeps
// it and passes it back in to Statement.
type IDDLClient interface {
	// CreateSpace creates a new space
	CreateSpace(space string) error
	// DropSpace drops a space, with force skipping the reference check
	DropSpace(space string, force bool) error
	// CreateModel creates a model with the given table model in a space
	CreateModel(space, entity string, model table.Model, volatile bool) error
	// DropModel drops a model, with force skipping the reference check
	DropModel(space, entity string, force bool) error
	// Use validates a cursor and returns its resolved form
	Use(space, entity string) (string, error)
	// InspectSpaces lists all spaces
	InspectSpaces() ([]string, error)
	// InspectSpace lists the models of one space
	InspectSpace(space string) ([]string, error)
	// InspectModel describes one model
	InspectModel(space, entity string) (string, error)
	// Statement runs a raw DDL statement under the given cursor space
	Statement(space string, statement []byte) ([]string, error)
	// Flush persists the remote hierarchy to disk
	Flush() error
	// Snapshot writes a snapshot and returns its name. An empty name asks
	// for a timestamped snapshot subject to the retention policy
	Snapshot(name string) (string, error)
	// Ping checks that the server answers
	Ping() error
	// Close closes the underlying transport
	Close() error
}

// NewRPCDDLClient creates a new DDL client
// The function takes a config, a transport and a serializer as parameters
// It returns an IDDLClient and an error
func NewRPCDDLClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (IDDLClient, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new DDL client
	c := ddlClient{
		rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the DDL client
	return &c, nil
}

type ddlClient struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IDDLClient)
// --------------------------------------------------------------------------

func (c *ddlClient) CreateSpace(space string) (err error) {
	req := common.NewCreateSpaceRequest(space)
	_, err = invokeRPCRequest(req, c.transport, c.serializer)
	return err
}

func (c *ddlClient) DropSpace(space string, force bool) (err error) {
	req := common.NewDropSpaceRequest(space, force)
	_, err = invokeRPCRequest(req, c.transport, c.serializer)
	return err
}

func (c *ddlClient) CreateModel(space, entity string, model table.Model, volatile bool) (err error) {
	req := common.NewCreateModelRequest(space, entity, uint8(model), volatile)
	_, err = invokeRPCRequest(req, c.transport, c.serializer)
	return err
}

func (c *ddlClient) DropModel(space, entity string, force bool) (err error) {
	req := common.NewDropModelRequest(space, entity, force)
	_, err = invokeRPCRequest(req, c.transport, c.serializer)
	return err
}

func (c *ddlClient) Use(space, entity string) (string, error) {
	req := common.NewUseRequest(space, entity)
	resp, err := invokeRPCRequest(req, c.transport, c.serializer)
	if err != nil {
		return "", err
	}
	if len(resp.Entries) != 1 {
		return "", fmt.Errorf("RPC DDLClient - Use returned no cursor")
	}
	return resp.Entries[0], nil
}

func (c *ddlClient) InspectSpaces() ([]string, error) {
	req := common.NewInspectSpacesRequest()
	resp, err := invokeRPCRequest(req, c.transport, c.serializer)
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *ddlClient) InspectSpace(space string) ([]string, error) {
	req := common.NewInspectSpaceRequest(space)
	resp, err := invokeRPCRequest(req, c.transport, c.serializer)
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *ddlClient) InspectModel(space, entity string) (string, error) {
	req := common.NewInspectModelRequest(space, entity)
	resp, err := invokeRPCRequest(req, c.transport, c.serializer)
	if err != nil {
		return "", err
	}
	if len(resp.Entries) != 1 {
		return "", fmt.Errorf("RPC DDLClient - InspectModel returned no description")
	}
	return resp.Entries[0], nil
}

func (c *ddlClient) Statement(space string, statement []byte) ([]string, error) {
	req := common.NewStatementRequest(space, statement)
	resp, err := invokeRPCRequest(req, c.transport, c.serializer)
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *ddlClient) Flush() (err error) {
	req := common.NewFlushRequest()
	_, err = invokeRPCRequest(req, c.transport, c.serializer)
	return err
}

func (c *ddlClient) Snapshot(name string) (string, error) {
	req := common.NewSnapshotRequest(name)
	resp, err := invokeRPCRequest(req, c.transport, c.serializer)
	if err != nil {
		return "", err
	}
	if len(resp.Entries) != 1 {
		return "", fmt.Errorf("RPC DDLClient - Snapshot returned no name")
	}
	return resp.Entries[0], nil
}

func (c *ddlClient) Ping() error {
	req := common.NewPingRequest()
	resp, err := invokeRPCRequest(req, c.transport, c.serializer)
	if err != nil {
		return err
	}
	if !resp.Ok {
		return fmt.Errorf("RPC DDLClient - server did not acknowledge the ping")
	}
	return nil
}

func (c *ddlClient) Close() error {
	return c.transport.Close()
}
