package ast

import (
	"github.com/davecgh/go-spew/spew"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

// Dump renders the tree for debugging. It is a library helper; no CLI
// command calls it.
func Dump(n Node) string {
	return dumpConfig.Sdump(n)
}
