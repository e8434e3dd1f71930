package lua

import (
	lua "github.com/yuin/gopher-lua"
)

// newState creates a Lua state with only the safe standard libraries
// open. Scripts get base, table, string and math; io, os, debug and the
// module loader stay closed, and the base library's file loaders are
// stripped so scripts cannot reach the filesystem.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	return L
}
