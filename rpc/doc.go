// Package rpc provides a framework for remote procedure calls in the object
// hierarchy system. It acts as the communication layer between clients and
// the server owning the hierarchy, enabling DDL operations across network
// boundaries.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: RPC client implementation for DDL and maintenance operations,
//     allowing applications to manage the remote hierarchy transparently.
//
//   - server: RPC server components that handle incoming requests, including
//     the adapter for DDL and maintenance operations.
package rpc
