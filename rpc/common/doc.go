// Package common provides core data structures and utilities shared across
// the DDL server and its clients. It defines fundamental types,
// configuration structures, and protocol elements used by other packages.
//
// The package focuses on:
//   - Message protocol definition for inter-component communication
//   - Configuration structures for client and server components
//   - Custom logging implementation with per-package log levels
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication between
//     components, with a flexible structure that adapts to different
//     operation types. Includes factory methods for creating various
//     request and response messages. DDL failures keep their machine
//     readable failure class across the wire so clients can reconstruct
//     the typed error on their side.
//
//   - MessageType: Enumeration defining all supported operation types in
//     the system, categorized into DDL operations (create, drop, use,
//     inspect, raw statements) and maintenance operations (flush,
//     snapshot, ping).
//
//   - ServerConfig: Comprehensive configuration for the server, including
//     transport tuning, storage and snapshot policy, the debug listener
//     and logging. ClientConfig mirrors the client side with endpoints,
//     timeouts and retry behavior.
//
//   - Logger: Custom logging implementation providing consistent
//     formatting across the application.
package common
