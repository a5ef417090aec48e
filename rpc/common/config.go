package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/dKS/lib/core"
)

// --------------------------------------------------------------------------
// Shared transport tuning
// --------------------------------------------------------------------------

// SocketConf holds kernel socket buffer sizes shared by all stream
// transports. Zero values leave the system defaults untouched.
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific tuning knobs, ignored by other transports.
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the transport settings of the server.
type ServerTransportConfig struct {
	// Endpoint is the address to listen on (host:port or a socket path)
	Endpoint string
	// WorkersPerConn limits concurrent in-flight requests per connection
	WorkersPerConn int
	SocketConf
	TCPConf
}

// SnapshotConf holds the snapshot policy of the server. EverySec zero
// disables periodic snapshots, Atmost zero disables pruning.
type SnapshotConf struct {
	EverySec uint64
	Atmost   uint64
}

// Enabled reports whether any snapshot capability should be configured.
func (c SnapshotConf) Enabled() bool {
	return c.EverySec > 0 || c.Atmost > 0
}

// ToCoreConfig converts the snapshot settings into the policy the
// hierarchy tracks. Returns nil when snapshots are disabled.
func (c SnapshotConf) ToCoreConfig() *core.SnapshotConfig {
	if !c.Enabled() {
		return nil
	}
	return &core.SnapshotConfig{
		Every:  time.Duration(c.EverySec) * time.Second,
		Atmost: c.Atmost,
	}
}

// ServerConfig holds all configuration parameters for the DDL server.
type ServerConfig struct {
	// Transport settings
	Transport ServerTransportConfig

	// Request timeout applied to transport reads and writes
	TimeoutSecond int64

	// Storage parameters
	DataDir       string
	FlushEverySec uint64
	Snapshot      SnapshotConf

	// Debug listener for pprof and metrics, empty disables it
	DebugEndpoint string

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	// Storage settings
	addSection("Storage")
	addField("Data Directory", c.DataDir)
	if c.FlushEverySec > 0 {
		addField("Flush Interval", fmt.Sprintf("%d sec", c.FlushEverySec))
	} else {
		addField("Flush Interval", "disabled")
	}

	// Snapshot settings
	addSection("Snapshots")
	if c.Snapshot.Enabled() {
		if c.Snapshot.EverySec > 0 {
			addField("Snapshot Interval", fmt.Sprintf("%d sec", c.Snapshot.EverySec))
		} else {
			addField("Snapshot Interval", "on demand only")
		}
		if c.Snapshot.Atmost > 0 {
			addField("Retained Snapshots", strconv.FormatUint(c.Snapshot.Atmost, 10))
		} else {
			addField("Retained Snapshots", "unlimited")
		}
	} else {
		addField("Snapshots", "disabled")
	}

	// Debug listener
	if c.DebugEndpoint != "" {
		addSection("Debug")
		addField("Debug Endpoint", c.DebugEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the transport settings of the client.
type ClientTransportConfig struct {
	// Endpoints lists the servers to connect to
	Endpoints []string
	// ConnectionsPerEndpoint opens parallel connections per endpoint
	ConnectionsPerEndpoint int
	// RetryCount is how often a request is retried before giving up
	RetryCount int
	SocketConf
	TCPConf
}

// ClientConfig holds all configuration parameters for the DDL client.
type ClientConfig struct {
	Transport     ClientTransportConfig
	TimeoutSecond int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
