package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/easyeda/eext-simulation-with-ngspice/errors"
)

// Session is one simulation run against a live engine module. Sessions
// are not reused: the bridge creates a fresh one per request.
//
// A Session is not safe for concurrent use.
type Session struct {
	mod    api.Module
	handle int32
}

// NewSession constructs a simulation session from the module instance.
func (m *Module) NewSession(ctx context.Context) (*Session, error) {
	fn := m.mod.ExportedFunction(ExportSessionNew)
	if fn == nil {
		return nil, errors.Exec("session constructor", fmt.Errorf("engine does not export %s", ExportSessionNew))
	}
	res, err := fn.Call(ctx)
	if err != nil {
		return nil, errors.Exec("session constructor", err)
	}
	handle := int32(res[0])
	if handle < 0 {
		return nil, errors.Exec("session constructor", fmt.Errorf("engine returned handle %d", handle))
	}
	return &Session{mod: m.mod, handle: handle}, nil
}

// LoadNetlist loads circuit description text into the session.
func (s *Session) LoadNetlist(ctx context.Context, netlist string) error {
	ptr, length, err := s.writeString(ctx, netlist)
	if err != nil {
		return errors.Exec("load netlist", err)
	}
	defer s.free(ctx, ptr)

	if err := s.call0(ctx, ExportLoadNetlist, uint64(uint32(s.handle)), uint64(ptr), uint64(length)); err != nil {
		return errors.Exec("load netlist", err)
	}
	return nil
}

// AddProbeNode registers one measurement point.
func (s *Session) AddProbeNode(ctx context.Context, node string, kind, low, high float64) error {
	ptr, length, err := s.writeString(ctx, node)
	if err != nil {
		return errors.Exec("add probe", err)
	}
	defer s.free(ctx, ptr)

	if err := s.call0(ctx, ExportAddProbe,
		uint64(uint32(s.handle)), uint64(ptr), uint64(length),
		api.EncodeF64(kind), api.EncodeF64(low), api.EncodeF64(high)); err != nil {
		return errors.Exec("add probe", err)
	}
	return nil
}

// Run executes the loaded netlist.
func (s *Session) Run(ctx context.Context) error {
	if err := s.call0(ctx, ExportRun, uint64(uint32(s.handle))); err != nil {
		return errors.Exec("run", err)
	}
	return nil
}

// ResultJSON retrieves the serialized result text. The text is
// forwarded to the host verbatim and never parsed here.
func (s *Session) ResultJSON(ctx context.Context) (string, error) {
	ptrFn := s.mod.ExportedFunction(ExportResultPtr)
	lenFn := s.mod.ExportedFunction(ExportResultLen)
	if ptrFn == nil || lenFn == nil {
		return "", errors.Exec("fetch result", fmt.Errorf("engine does not export %s/%s", ExportResultPtr, ExportResultLen))
	}

	ptrRes, err := ptrFn.Call(ctx, uint64(uint32(s.handle)))
	if err != nil {
		return "", errors.Exec("fetch result", err)
	}
	lenRes, err := lenFn.Call(ctx, uint64(uint32(s.handle)))
	if err != nil {
		return "", errors.Exec("fetch result", err)
	}

	ptr, length := uint32(ptrRes[0]), uint32(lenRes[0])
	if length == 0 {
		return "", nil
	}
	data, ok := s.mod.Memory().Read(ptr, length)
	if !ok {
		return "", errors.Exec("fetch result", fmt.Errorf("memory read out of bounds at ptr=%d len=%d", ptr, length))
	}
	return string(data), nil
}

// call0 invokes an export that reports failure through a non-zero
// return code.
func (s *Session) call0(ctx context.Context, name string, params ...uint64) error {
	fn := s.mod.ExportedFunction(name)
	if fn == nil {
		return fmt.Errorf("engine does not export %s", name)
	}
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return err
	}
	if len(res) > 0 && int32(res[0]) != 0 {
		return fmt.Errorf("%s returned %d", name, int32(res[0]))
	}
	return nil
}

// writeString copies s into the engine's linear memory via the exported
// allocator. The caller frees the returned pointer.
func (s *Session) writeString(ctx context.Context, text string) (uint32, uint32, error) {
	data := []byte(text)
	size := uint32(len(data))
	if size == 0 {
		return 0, 0, nil
	}

	malloc := s.mod.ExportedFunction(ExportMalloc)
	if malloc == nil {
		return 0, 0, fmt.Errorf("engine does not export %s", ExportMalloc)
	}
	res, err := malloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, 0, err
	}
	ptr := uint32(res[0])
	if ptr == 0 {
		return 0, 0, fmt.Errorf("malloc(%d) returned null", size)
	}
	if !s.mod.Memory().Write(ptr, data) {
		s.free(ctx, ptr)
		return 0, 0, fmt.Errorf("memory write out of bounds at ptr=%d len=%d", ptr, size)
	}
	return ptr, size, nil
}

func (s *Session) free(ctx context.Context, ptr uint32) {
	if ptr == 0 {
		return
	}
	if freeFn := s.mod.ExportedFunction(ExportFree); freeFn != nil {
		_, _ = freeFn.Call(ctx, uint64(ptr))
	}
}
