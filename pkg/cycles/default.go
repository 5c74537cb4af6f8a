package cycles

import (
	"sync"

	"github.com/oisee/sm83-optable/pkg/inst"
)

var defaultTable = sync.OnceValue(func() *Table {
	t, err := Build(inst.Entries())
	if err != nil {
		panic("cycles: " + err.Error())
	}
	return t
})

// Default returns the table built from the full primary and extended catalogs.
func Default() *Table { return defaultTable() }

// Cycles looks d up in the default table.
func Cycles(d inst.Descriptor) (uint8, error) { return Default().Cycles(d) }

// CyclesJmp looks d up in the default table.
func CyclesJmp(d inst.Descriptor, taken bool) (uint8, error) {
	return Default().CyclesJmp(d, taken)
}
