package ifmap

import (
	"slices"
	"strings"
	"sync"

	"github.com/hobro-11/txutil/txcommit/errors"
)

const KindVRF = "vrf"

// VRF is the control block of one VRF.
type VRF struct {
	Name string
	// InternalID is the kernel side id, ObjectID the switch side one.
	InternalID uint32
	ObjectID   uint64
}

// VRFTable maps VRF names to their control blocks.
type VRFTable struct {
	mu     sync.RWMutex
	byName map[string]VRF
}

func NewVRFTable() *VRFTable {
	return &VRFTable{byName: map[string]VRF{}}
}

func (t *VRFTable) Add(v VRF) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byName[v.Name]; ok {
		return errors.NewErrAlreadyExists(KindVRF, v.Name)
	}
	t.byName[v.Name] = v
	return nil
}

// Update copies the internal id of v onto the existing entry. A zero id
// leaves the entry unchanged.
func (t *VRFTable) Update(v VRF) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.byName[v.Name]
	if !ok {
		return errors.NewErrNotFound(KindVRF, v.Name)
	}
	if v.InternalID != 0 {
		cur.InternalID = v.InternalID
		t.byName[v.Name] = cur
	}
	return nil
}

func (t *VRFTable) Delete(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byName[name]; !ok {
		return errors.NewErrNotFound(KindVRF, name)
	}
	delete(t.byName, name)
	return nil
}

func (t *VRFTable) Get(name string) (VRF, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.byName[name]
	if !ok {
		return VRF{}, errors.NewErrNotFound(KindVRF, name)
	}
	return v, nil
}

// All returns every VRF sorted by name.
func (t *VRFTable) All() []VRF {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]VRF, 0, len(t.byName))
	for _, v := range t.byName {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b VRF) int { return strings.Compare(a.Name, b.Name) })
	return out
}
