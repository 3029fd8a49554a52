package emulator

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/ezrec/synvm/vm"
)

// Canonical mode keeps snapshot files byte-for-byte reproducible.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("emulator: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalSnapshot serializes a Snapshot to CBOR bytes.
func MarshalSnapshot(snap *vm.Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(snap)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*vm.Snapshot, error) {
	var snap vm.Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("emulator: unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
