package mapping

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Canonical mode keeps compiled caches deterministic, so identical
// tables produce identical cache files.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("mapping: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalTable serializes a table's entries to CBOR bytes.
func MarshalTable(t *Table) ([]byte, error) {
	return cborEncMode.Marshal(t.classes)
}

// UnmarshalTable deserializes a table from CBOR bytes.
func UnmarshalTable(data []byte) (*Table, error) {
	var classes []Class
	if err := cbor.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("mapping: unmarshal table: %w", err)
	}
	return NewTable(classes), nil
}
