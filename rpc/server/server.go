package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ValentinKolb/dKS/lib/core"
	"github.com/ValentinKolb/dKS/lib/storage"
	"github.com/ValentinKolb/dKS/rpc/common"
	"github.com/ValentinKolb/dKS/rpc/serializer"
	"github.com/ValentinKolb/dKS/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"

	_ "net/http/pprof"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	ms         *core.Memstore
	adapter    IRPCServerAdapter
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		// Decode the request
		err := s.serializer.Deserialize(req, &msg)

		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to deserialize request: %s", err),
			}
		} else {
			// Count the request before handling it
			metrics.GetOrCreateCounter(fmt.Sprintf(`dks_rpc_requests_total{type=%q}`, msg.MsgType)).Inc()
			start := time.Now()

			// Let the adapter handle the request
			respMsg = *s.adapter.Handle(&msg, s.ms)

			metrics.GetOrCreateSummary(fmt.Sprintf(`dks_rpc_request_duration_seconds{type=%q}`, msg.MsgType)).UpdateDuration(start)
		}

		// Count failed requests by type
		if respMsg.Err != "" {
			metrics.GetOrCreateCounter(fmt.Sprintf(`dks_rpc_errors_total{type=%q}`, respMsg.MsgType)).Inc()
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %v", err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse("failed to serialize response"))
		}
		return val
	})
}

func (s *rpcServer) init() error {

	// Init logger
	common.InitLoggers(s.config)

	// Load the persisted hierarchy, bootstrapping the reserved objects on
	// first start
	storeDir := s.storeDir()
	ms, err := storage.Open(storeDir, s.config.Snapshot.ToCoreConfig())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	s.ms = ms
	s.adapter = NewDDLServerAdapter(storeDir, s.snapsDir())

	Logger.Infof("loaded hierarchy with %d spaces", ms.KeyspaceCount())

	// Periodic flush of the hierarchy to disk
	if s.config.FlushEverySec > 0 {
		go s.runFlusher()
	}

	// Periodic snapshots
	if s.config.Snapshot.EverySec > 0 {
		go s.runSnapshotter()
	}

	// Flush once more on shutdown
	go s.handleSignals()

	// Debug listener with pprof and prometheus metrics
	if s.config.DebugEndpoint != "" {
		go s.serveDebug()
	}

	Logger.Infof("dKS setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the hierarchy and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// storeDir is where the hierarchy files live
func (s *rpcServer) storeDir() string {
	return filepath.Join(s.config.DataDir, "store")
}

// snapsDir is the root directory for snapshots
func (s *rpcServer) snapsDir() string {
	return filepath.Join(s.config.DataDir, "snaps")
}

// runFlusher periodically flushes the hierarchy to disk
func (s *rpcServer) runFlusher() {
	storeDir := s.storeDir()
	ticker := time.NewTicker(time.Duration(s.config.FlushEverySec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		start := time.Now()
		if err := storage.FlushAll(storeDir, s.ms); err != nil {
			Logger.Errorf("periodic flush failed: %v", err)
			continue
		}
		Logger.Debugf("periodic flush took %s", time.Since(start))
	}
}

// runSnapshotter periodically writes a snapshot of the hierarchy
func (s *rpcServer) runSnapshotter() {
	snapsDir := s.snapsDir()
	ticker := time.NewTicker(time.Duration(s.config.Snapshot.EverySec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		name, err := storage.Snapshot(s.ms, snapsDir)
		if errors.Is(err, storage.ErrSnapshotBusy) {
			Logger.Warningf("skipping periodic snapshot, one is already in progress")
			continue
		}
		if err != nil {
			Logger.Errorf("periodic snapshot failed: %v", err)
			continue
		}
		Logger.Infof("wrote snapshot %s", name)
	}
}

// handleSignals flushes the hierarchy once more before the process exits
func (s *rpcServer) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	Logger.Infof("received %s, flushing before shutdown", sig)
	if err := storage.FlushAll(s.storeDir(), s.ms); err != nil {
		Logger.Errorf("shutdown flush failed: %v", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// serveDebug exposes pprof (registered on the DefaultServeMux by the side
// effect import) and prometheus metrics on the debug endpoint
func (s *rpcServer) serveDebug() {
	http.HandleFunc("/debug/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	Logger.Infof("Starting debug server on %s", s.config.DebugEndpoint)
	Logger.Infof("%v", http.ListenAndServe(s.config.DebugEndpoint, nil))
}
