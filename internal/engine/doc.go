// Package engine provides the core mesh editing engine for Meshstorm.
//
// The engine package serves as the main facade, combining the scene,
// interaction modes, the edit-mesh lifecycle, and operator dispatch
// into a unified, thread-safe API.
//
// # Architecture
//
// The engine is built on several sub-packages and peers:
//
//   - geom: small vector math types used by mesh data
//   - mesh: polygon mesh storage with per-element selection state and
//     kind-indexed lookup tables
//   - mode: interaction mode state machine (object mode, edit mode)
//   - dispatcher: operator registration and invocation pipeline
//   - event: topic-based publish/subscribe bus
//
// # Modes and the Edit-Mesh
//
// The engine starts in object mode. Entering edit mode stages a working
// copy of the active object's mesh with fresh lookup tables; operators
// then act on that copy. Leaving edit mode writes the copy back to the
// object. FlushEdit writes back without leaving edit mode, and switching
// edit to edit restages, refreshing a handle whose lookup tables have
// gone stale.
//
// # Basic Usage
//
// Create an engine, add an object, and run operators on it:
//
//	e := engine.New()
//	e.AddObject("Cube", mesh.NewCube(2))
//
//	e.SetMode(engine.ModeEdit)
//	res := e.Invoke("mesh.selectAll", operator.Params{"action": "SELECT"}, operator.SourceAPI)
//	res = e.Invoke("mesh.inset", operator.Params{"thickness": 0.1}, operator.SourceAPI)
//	e.SetMode(engine.ModeObject)
//
// # Script Operators
//
// Scripts extend the operator set at runtime:
//
//	e.RegisterScriptOp("custom.twist", func(req operator.Request, ctx *opctx.Context) operator.Result {
//	    // ...
//	    return operator.Success()
//	})
//
// # Thread Safety
//
// All Engine operations are thread-safe. Mesh data itself is not;
// operators receive the edit-mesh through the dispatch pipeline, which
// serializes access per invocation.
package engine
