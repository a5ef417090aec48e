package server

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dKS/lib/core"
	"github.com/ValentinKolb/dKS/lib/ql"
	"github.com/ValentinKolb/dKS/lib/storage"
	"github.com/ValentinKolb/dKS/lib/table"
	"github.com/ValentinKolb/dKS/rpc/common"
)

// NewDDLServerAdapter creates an adapter that applies DDL and maintenance
// requests to the object hierarchy. storeDir is where flushes are written,
// snapsDir is the root for snapshots.
func NewDDLServerAdapter(storeDir, snapsDir string) IRPCServerAdapter {
	return &ddlServerAdapterImpl{storeDir: storeDir, snapsDir: snapsDir}
}

type ddlServerAdapterImpl struct {
	storeDir string
	snapsDir string
}

func (adapter *ddlServerAdapterImpl) Handle(req *common.Message, ms *core.Memstore) *common.Message {
	// Check for nil hierarchy
	if ms == nil {
		return common.NewErrorResponse("handler: hierarchy is nil")
	}

	// Every request gets its own executor, sessions live client-side
	exec := ql.NewExecutor(ms)

	// Handle different message types
	switch req.MsgType {
	case common.MsgTDDLCreateSpace:
		if req.Space == "" {
			return common.NewErrorResponse("createSpace: space name required")
		}
		_, err := exec.Run(ql.CreateSpace{Name: req.Space})
		return common.NewCreateSpaceResponse(err)
	case common.MsgTDDLDropSpace:
		if req.Space == "" {
			return common.NewErrorResponse("dropSpace: space name required")
		}
		_, err := exec.Run(ql.DropSpace{Name: req.Space, Force: req.Force})
		return common.NewDropSpaceResponse(err)
	case common.MsgTDDLCreateModel:
		if req.Entity == "" {
			return common.NewErrorResponse("createModel: model name required")
		}
		keyType, valueType, ok := ql.ModelTypes(table.Model(req.Model))
		if !ok {
			return common.NewErrorResponse(fmt.Sprintf("createModel: invalid model tag %d", req.Model))
		}
		_, err := exec.Run(ql.CreateModel{
			Entity:   ql.Entity{Space: req.Space, Name: req.Entity},
			KeyType:  keyType,
			Value:    valueType,
			Volatile: req.Volatile,
		})
		return common.NewCreateModelResponse(err)
	case common.MsgTDDLDropModel:
		if req.Entity == "" {
			return common.NewErrorResponse("dropModel: model name required")
		}
		_, err := exec.Run(ql.DropModel{
			Entity: ql.Entity{Space: req.Space, Name: req.Entity},
			Force:  req.Force,
		})
		return common.NewDropModelResponse(err)
	case common.MsgTDDLUse:
		if req.Space == "" {
			return common.NewErrorResponse("use: space name required")
		}
		res, err := exec.Run(ql.Use{Space: req.Space, Model: req.Entity})
		return common.NewUseResponse(res.Entries, err)
	case common.MsgTDDLInspectSpaces:
		res, err := exec.Run(ql.InspectSpaces{})
		return common.NewInspectSpacesResponse(res.Entries, err)
	case common.MsgTDDLInspectSpace:
		res, err := exec.Run(ql.InspectSpace{Name: req.Space})
		return common.NewInspectSpaceResponse(res.Entries, err)
	case common.MsgTDDLInspectModel:
		res, err := exec.Run(ql.InspectModel{Entity: ql.Entity{Space: req.Space, Name: req.Entity}})
		return common.NewInspectModelResponse(res.Entries, err)
	case common.MsgTDDLStatement:
		if err := restoreCursor(exec, req); err != nil {
			return common.NewStatementResponse(nil, err)
		}
		res, err := exec.Execute(req.Statement)
		return common.NewStatementResponse(res.Entries, err)
	case common.MsgTSysFlush:
		err := storage.FlushAll(adapter.storeDir, ms)
		return common.NewFlushResponse(sysError(err))
	case common.MsgTSysSnapshot:
		if req.Entity == "" {
			name, err := storage.Snapshot(ms, adapter.snapsDir)
			if err != nil {
				return common.NewSnapshotResponse(nil, sysError(err))
			}
			return common.NewSnapshotResponse([]string{name}, nil)
		}
		if err := storage.SnapshotNamed(ms, adapter.snapsDir, req.Entity); err != nil {
			return common.NewSnapshotResponse(nil, sysError(err))
		}
		return common.NewSnapshotResponse([]string{req.Entity}, nil)
	case common.MsgTSysPing:
		return common.NewPingResponse()
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC DDLAdapter - Unsuported message type: %s", req.MsgType),
		)
	}
}

// restoreCursor moves the executor onto the session cursor carried by a
// statement request. An empty space leaves the executor at default:default.
func restoreCursor(exec *ql.Executor, req *common.Message) error {
	if req.Space == "" {
		return nil
	}
	space, ok := core.ObjectIDFromString(req.Space)
	if !ok {
		return fmt.Errorf("invalid cursor space %q", req.Space)
	}
	var model core.ObjectID
	if req.Entity != "" {
		model, ok = core.ObjectIDFromString(req.Entity)
		if !ok {
			return fmt.Errorf("invalid cursor model %q", req.Entity)
		}
	}
	exec.SetCurrent(space, model)
	return nil
}

// sysError maps storage conditions onto transported DDL failure classes so
// clients see a NotReady class instead of a plain string.
func sysError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrSnapshotsDisabled):
		return core.NewDdlError(core.DdlCNotReady, "snapshots are disabled")
	case errors.Is(err, storage.ErrSnapshotBusy):
		return core.NewDdlError(core.DdlCNotReady, "a snapshot is already in progress")
	default:
		return err
	}
}
