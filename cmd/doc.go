// Package cmd implements the command-line interface for the dKS keyspace
// server. It provides a hierarchical command structure with operations
// for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - ddl: Commands for managing spaces and models (create-space, create-model, inspect, etc.)
//   - serve: Commands for starting and configuring the dKS server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dks -help for a list of all commands.
package cmd
