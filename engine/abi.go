package engine

// mainModuleName is the instance name of the engine's main module in the
// runtime namespace.
const mainModuleName = "ngspice"

// The engine is a reactor-model WASM build: the host controls execution
// flow through the exports below instead of a blocking _start().
const (
	// ExportInitialize initializes the engine runtime.
	// Signature: _initialize() -> void
	ExportInitialize = "_initialize"

	// ExportSessionNew creates a simulation session.
	// Signature: sim_new() -> i32 (session handle, <0 on failure)
	ExportSessionNew = "sim_new"

	// ExportLoadNetlist loads circuit description text into a session.
	// Signature: sim_load_netlist(handle: i32, ptr: i32, len: i32) -> i32 (0 on success)
	ExportLoadNetlist = "sim_load_netlist"

	// ExportAddProbe registers one measurement point.
	// Signature: sim_add_probe(handle: i32, ptr: i32, len: i32,
	//            kind: f64, low: f64, high: f64) -> i32 (0 on success)
	ExportAddProbe = "sim_add_probe"

	// ExportRun executes the loaded netlist.
	// Signature: sim_run(handle: i32) -> i32 (0 on success)
	ExportRun = "sim_run"

	// ExportResultPtr returns a pointer to the serialized result text.
	// Signature: sim_result_ptr(handle: i32) -> i32
	ExportResultPtr = "sim_result_ptr"

	// ExportResultLen returns the length of the serialized result text.
	// Signature: sim_result_len(handle: i32) -> i32
	ExportResultLen = "sim_result_len"

	// ExportMalloc allocates memory in the engine's linear memory.
	// Signature: malloc(size: i32) -> i32 (pointer)
	ExportMalloc = "malloc"

	// ExportFree frees memory allocated with malloc.
	// Signature: free(ptr: i32) -> void
	ExportFree = "free"
)
