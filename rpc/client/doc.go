// Package client implements the RPC client for the data definition system.
// It provides an implementation of the IDDLClient interface that communicates
// with a remote server via RPC.
//
// The package focuses on:
//   - Transparent RPC access to the remote object hierarchy
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCDDLClient: Factory function that creates a client implementing the
//     IDDLClient interface. This client forwards all operations to a remote server
//     via the configured transport layer.
//
// Errors returned by the server are reconstructed as typed core.DdlError values
// where possible, so callers can match them with errors.Is against the core
// sentinels (core.ErrAlreadyExists, core.ErrObjectNotFound, ...).
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:5000"},
//	    TimeoutSecond:          5,
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	// Create a serializer
//	serializer := serializer.NewBinarySerializer()
//
//	// Create the client
//	ddl, _ := client.NewRPCDDLClient(config, tcp.NewTCPClientTransport(), serializer)
//
//	// Use the client
//	ddl.CreateSpace("apps")
//	ddl.CreateModel("apps", "sessions", table.KVStrListStr, true)
//	spaces, _ := ddl.InspectSpaces()
//
// Performance Considerations:
//
//   - For applications that frequently send large statements, increasing
//     ConnectionsPerEndpoint can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient
//     due to reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary
//     serializer provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client is thread-safe and can be used concurrently from multiple
//	goroutines without additional synchronization.
package client
