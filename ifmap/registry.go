package ifmap

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/hobro-11/txutil/txcommit/errors"
)

const (
	KindInterface = "interface"

	// MaxDescLen is the longest description UpdateDesc accepts.
	MaxDescLen = 256
)

// IndexAllocator hands out interface indexes for entries registered
// without one. dynamostore.SequenceAllocator is the backed implementation.
type IndexAllocator interface {
	Next(ctx context.Context) (uint, error)
}

// Registry maps interfaces by port, ifindex, tap id, name, VLAN id and LAG id.
// Each entry is indexed under every query valid for its type with a
// non-zero key.
type Registry struct {
	mu      sync.RWMutex
	records map[*Interface]struct{}
	byKey   map[QueryType]map[uint64]*Interface
	byName  map[string]*Interface
	alloc   IndexAllocator
}

type Option func(*Registry)

// WithAllocator makes Register draw an ifindex for entries that have none.
func WithAllocator(a IndexAllocator) Option {
	return func(r *Registry) {
		r.alloc = a
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		records: map[*Interface]struct{}{},
		byKey:   map[QueryType]map[uint64]*Interface{},
		byName:  map[string]*Interface{},
	}
	for _, q := range allQueries {
		if q != FromIfName {
			r.byKey[q] = map[uint64]*Interface{}
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) locate(q QueryType, want *Interface) *Interface {
	if !q.validFor(want.Type) {
		return nil
	}
	if q == FromIfName {
		return r.byName[want.Name]
	}
	k := q.key(want)
	if k == 0 {
		return nil
	}
	return r.byKey[q][k]
}

func (r *Registry) locateAny(want *Interface) *Interface {
	for _, q := range allQueries {
		if rec := r.locate(q, want); rec != nil {
			return rec
		}
	}
	return nil
}

func (r *Registry) add(q QueryType, rec *Interface) bool {
	if !q.validFor(rec.Type) {
		return false
	}
	if q == FromIfName {
		if rec.Name == "" {
			return false
		}
		r.byName[rec.Name] = rec
		return true
	}
	k := q.key(rec)
	if k == 0 {
		return false
	}
	r.byKey[q][k] = rec
	return true
}

// Register adds intf to every index it has a key for and returns the stored
// entry. It fails when any index already holds an entry for intf, or when
// intf has no key at all.
func (r *Registry) Register(ctx context.Context, intf Interface) (Interface, error) {
	if intf.IfIndex == 0 && r.alloc != nil {
		seq, err := r.alloc.Next(ctx)
		if err != nil {
			return Interface{}, fmt.Errorf("allocate ifindex for %s: %w", intf.Name, err)
		}
		intf.IfIndex = int(seq)
	}
	return r.insert(intf)
}

func (r *Registry) insert(intf Interface) (Interface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locateAny(&intf) != nil {
		return Interface{}, errors.NewErrAlreadyExists(KindInterface, describe(&intf))
	}

	rec := intf
	added := false
	for _, q := range allQueries {
		if r.add(q, &rec) {
			added = true
		}
	}
	if !added {
		return Interface{}, fmt.Errorf("interface %s has no lookup key", describe(&intf))
	}
	r.records[&rec] = struct{}{}
	return rec, nil
}

// Deregister removes the entry located by any of intf's keys from every
// index. Removing an unknown interface is not an error.
func (r *Registry) Deregister(intf Interface) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.locateAny(&intf)
	if rec == nil {
		return
	}
	for _, q := range allQueries {
		if q == FromIfName || !q.validFor(rec.Type) {
			continue
		}
		if k := q.key(rec); k != 0 {
			delete(r.byKey[q], k)
		}
	}
	if rec.Name != "" {
		delete(r.byName, rec.Name)
	}
	delete(r.records, rec)
}

// Lookup finds the entry whose q-key equals want's.
func (r *Registry) Lookup(q QueryType, want Interface) (Interface, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec := r.locate(q, &want)
	if rec == nil {
		return Interface{}, errors.NewErrNotFound(KindInterface, q.String()+" "+describe(&want))
	}
	return *rec, nil
}

// UpdateMAC sets the MAC address of the entry with the given ifindex. Only
// the MAC is mutable in place; other fields need a deregister and register.
func (r *Registry) UpdateMAC(vrfID uint32, ifIndex int, mac string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := Interface{VRFID: vrfID, IfIndex: ifIndex}
	rec := r.locate(FromIf, &want)
	if rec == nil {
		return errors.NewErrNotFound(KindInterface, "ifindex "+strconv.Itoa(ifIndex))
	}
	rec.MAC = mac
	return nil
}

// UpdateDesc sets the description of the entry located by q. An empty desc
// clears it.
func (r *Registry) UpdateDesc(q QueryType, want Interface, desc string) error {
	if len(desc) > MaxDescLen {
		return fmt.Errorf("description of %d bytes exceeds %d", len(desc), MaxDescLen)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.locate(q, &want)
	if rec == nil {
		return errors.NewErrNotFound(KindInterface, q.String()+" "+describe(&want))
	}
	rec.Desc = desc
	return nil
}

// NextIfIndex returns the smallest registered ifindex above cur, or the
// smallest one when cur is nil.
func (r *Registry) NextIfIndex(cur *int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	next, found := 0, false
	for rec := range r.records {
		if rec.IfIndex == 0 || (cur != nil && rec.IfIndex <= *cur) {
			continue
		}
		if !found || rec.IfIndex < next {
			next, found = rec.IfIndex, true
		}
	}
	if !found {
		return 0, errors.NewErrNotFound(KindInterface, "next ifindex")
	}
	return next, nil
}

// IsVirtualPort reports whether ifIndex is a port with no NPU port behind it.
func (r *Registry) IsVirtualPort(ifIndex int) bool {
	rec, err := r.Lookup(FromIf, Interface{IfIndex: ifIndex})
	if err != nil {
		log.Warnf("ifmap: %v", err)
		return false
	}
	return rec.Type == TypePort && rec.NPUID == 0 && rec.PortID == 0
}

// All returns every entry ordered by ifindex, then name.
func (r *Registry) All() []Interface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Interface, 0, len(r.records))
	for rec := range r.records {
		out = append(out, *rec)
	}
	slices.SortFunc(out, func(a, b Interface) int {
		if a.IfIndex != b.IfIndex {
			return a.IfIndex - b.IfIndex
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out
}

// Dump writes every index with its entries.
func (r *Registry) Dump(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sections := []struct {
		title string
		q     QueryType
	}{
		{"NPU/Port mapping", FromPort},
		{"interface name mapping", FromIfName},
		{"interface index mapping", FromIf},
		{"tap index mapping", FromTap},
		{"VLAN ID mapping", FromVLAN},
		{"LAG ID mapping", FromLAG},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "Dumping %s...\n", s.title)
		if s.q == FromIfName {
			names := make([]string, 0, len(r.byName))
			for name := range r.byName {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				fmt.Fprintf(w, "ifname:%s %s\n", name, r.byName[name])
			}
			continue
		}
		keys := make([]uint64, 0, len(r.byKey[s.q]))
		for k := range r.byKey[s.q] {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "idx %d %s\n", k, r.byKey[s.q][k])
		}
	}
}

func describe(intf *Interface) string {
	if intf.Name != "" {
		return intf.Name
	}
	return "ifindex " + strconv.Itoa(intf.IfIndex)
}
