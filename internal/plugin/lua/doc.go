// Package lua embeds a sandboxed Lua runtime for scripting the mesh
// engine.
//
// This package wraps the gopher-lua library to provide:
//   - A sandboxed Lua state (no file loading, no os/io libraries)
//   - Go-Lua type conversion
//   - Single-goroutine execution of all Lua code
//
// # Host
//
// The Host type binds a Lua state to an engine and exposes the API as
// a single global table, ms:
//
//	host, err := lua.New(eng)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer host.Close()
//
//	if err := host.DoFile(ctx, "setup.lua"); err != nil {
//	    log.Fatal(err)
//	}
//
// # The ms table
//
// Scripts interact with the engine through ms and its modules:
//
//	ms.log.info("starting")
//	ms.scene.add("Patch", "grid", 2)
//	ms.mode.set(ms.mode.EDIT)
//	ms.mesh.select("faces", 0)
//	local report = ms.applier.run{kind = "faces", op = "mesh.inset",
//	    params = {thickness = 0.1}}
//	ms.log.info("applied", #report.applied, "elements")
//
// Element indices in the ms API are zero-based, matching the engine.
//
// # Concurrency
//
// A Lua state is not safe for concurrent use. The Host confines all
// execution to one worker goroutine: DoString, DoFile, Call and Invoke
// queue work onto it, and event subscriptions made with ms.events.on
// run their callbacks there as well. Operators registered with
// ms.ops.register must be dispatched through Host.Invoke or from
// inside a running script.
package lua
