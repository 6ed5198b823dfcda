package ifmap

import (
	"fmt"
	"sync"

	"github.com/hobro-11/txutil/txcommit/errors"
)

const KindBridge = "bridge"

// BridgeVLANs tracks the untagged VLAN of each 802.1D bridge. Bridges without
// an entry fall back to the reserved VLAN.
type BridgeVLANs struct {
	mu       sync.Mutex
	untagged map[string]uint16
	reserved uint16
}

func NewBridgeVLANs() *BridgeVLANs {
	return &BridgeVLANs{untagged: map[string]uint16{}}
}

// Untagged returns the untagged VLAN of bridge, or the reserved VLAN when the
// bridge has none. It fails when neither is set.
func (b *BridgeVLANs) Untagged(bridge string) (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if vid, ok := b.untagged[bridge]; ok {
		return vid, nil
	}
	if b.reserved == 0 {
		return 0, fmt.Errorf("no untagged vlan for bridge %s", bridge)
	}
	return b.reserved, nil
}

func (b *BridgeVLANs) Add(bridge string, vid uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.untagged[bridge]; ok {
		return errors.NewErrAlreadyExists(KindBridge, bridge)
	}
	b.untagged[bridge] = vid
	return nil
}

func (b *BridgeVLANs) Delete(bridge string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.untagged[bridge]; !ok {
		return errors.NewErrNotFound(KindBridge, bridge)
	}
	delete(b.untagged, bridge)
	return nil
}

func (b *BridgeVLANs) SetReserved(vid uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reserved = vid
}

func (b *BridgeVLANs) Reserved() uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reserved
}
