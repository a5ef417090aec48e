package serve

import (
	"fmt"
	"strings"

	cmdUtil "github.com/ValentinKolb/dKS/cmd/util"
	"github.com/ValentinKolb/dKS/rpc/common"
	"github.com/ValentinKolb/dKS/rpc/serializer"
	"github.com/ValentinKolb/dKS/rpc/server"
	"github.com/ValentinKolb/dKS/rpc/transport"
	"github.com/ValentinKolb/dKS/rpc/transport/http"
	"github.com/ValentinKolb/dKS/rpc/transport/tcp"
	"github.com/ValentinKolb/dKS/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the dKS server",
		Long:    `Start the dKS server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DKS_<flag> (e.g. DKS_FLUSH_EVERY=30)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080, /tmp/dks.sock, ...)"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 10, cmdUtil.WrapString("How many requests may be processed concurrently per client connection"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for transport reads and writes"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("DataDir is the directory used for storing the hierarchy and its snapshots"))

	key = "flush-every"
	ServeCmd.PersistentFlags().Uint64(key, 60, cmdUtil.WrapString("How often the hierarchy is flushed to disk (in seconds, 0 disables periodic flushing)"))

	key = "snapshot-every"
	ServeCmd.PersistentFlags().Uint64(key, 0, cmdUtil.WrapString("How often a snapshot of the hierarchy is written (in seconds, 0 means snapshots are taken on demand only)"))

	key = "snapshot-atmost"
	ServeCmd.PersistentFlags().Uint64(key, 0, cmdUtil.WrapString("How many timestamped snapshots are retained before the oldest ones are pruned (0 retains all)"))

	key = "debug-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional address for the debug listener serving pprof and metrics (e.g. localhost:6060, empty disables it)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the write buffer for the transport (in KB, ignored for http)"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the read buffer for the transport (in KB, ignored for http)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY for client connections (only for tcp)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval for client connections (in seconds, only for tcp)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time for client connections (in seconds, only for tcp)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Endpoint:       viper.GetString("endpoint"),
		WorkersPerConn: viper.GetInt("workers-per-conn"),
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("tcp-linger"),
		},
	}
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.FlushEverySec = viper.GetUint64("flush-every")
	serveCmdConfig.Snapshot = common.SnapshotConf{
		EverySec: viper.GetUint64("snapshot-every"),
		Atmost:   viper.GetUint64("snapshot-atmost"),
	}
	serveCmdConfig.DebugEndpoint = viper.GetString("debug-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	// the hierarchy is loaded from and flushed to this directory
	if serveCmdConfig.DataDir == "" {
		return fmt.Errorf("data-dir must not be empty")
	}

	return nil
}

// run starts the dKS server
func run(_ *cobra.Command, _ []string) error {

	// parse the serializer
	var s serializer.IRPCSerializer
	switch viper.GetString("serializer") {
	case "json":
		s = serializer.NewJSONSerializer()
	case "gob":
		s = serializer.NewGOBSerializer()
	case "binary":
		s = serializer.NewBinarySerializer()
	default:
		return fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}

	// Parse the transport
	var t transport.IRPCServerTransport
	switch viper.GetString("transport") {
	case "http":
		t = http.NewHttpServerTransport()
	case "tcp":
		t = tcp.NewTCPServerTransport()
	case "unix":
		t = unix.NewUnixServerTransport()
	default:
		return fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	return serv.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dks")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
