// Package server implements the RPC server for the object hierarchy system.
// It provides the adapter for handling DDL and maintenance requests, along
// with the core server implementation that owns the hierarchy and drives
// background persistence.
//
// The package focuses on:
//   - Server-side RPC request handling for DDL and maintenance operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Background flush and snapshot loops driven by the server configuration
//   - Metrics and pprof exposure on a dedicated debug endpoint
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against the
//     hierarchy.
//
//   - NewDDLServerAdapter: Factory function creating an adapter for DDL
//     operations, translating RPC requests to statements run by a ql.Executor.
//
//   - NewRPCServer: Factory function creating a configured server with the
//     specified transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Transport: common.ServerTransportConfig{
//	    Endpoint: "0.0.0.0:8080",
//	    WorkersPerConn: 4,
//	  },
//	  TimeoutSecond: 5,
//	  DataDir: "/var/lib/dks",
//	  LogLevel: "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// On startup the server loads the persisted hierarchy from DataDir (creating
// the reserved default and system spaces on first start) and registers the
// transport handler. Depending on the configuration it then runs periodic
// flushes and snapshots, and a final flush runs when the process receives
// SIGINT or SIGTERM.
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently against
//	the shared hierarchy. The Listen method is not thread-safe and should be
//	called only once.
package server
