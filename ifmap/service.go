package ifmap

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2/log"

	"github.com/hobro-11/txutil/txcommit/types"
)

// Object attribute names of an interface entry.
const (
	AttrName       = "name"
	AttrIfIndex    = "if-index"
	AttrVRFID      = "vrf-id"
	AttrType       = "type"
	AttrMAC        = "mac-address"
	AttrDesc       = "description"
	AttrNPUID      = "npu-id"
	AttrPortID     = "port-id"
	AttrSubPort    = "sub-port"
	AttrTapID      = "tap-id"
	AttrVLANID     = "vlan-id"
	AttrLAGID      = "lag-id"
	AttrPortMapped = "port-mapped"
)

// Service exposes a Registry as a txcommit.Service: create registers, set
// updates the MAC address or description, delete deregisters. rpc is
// rejected.
type Service struct {
	reg *Registry
}

func NewService(reg *Registry) *Service {
	return &Service{reg: reg}
}

// Transaction applies the items in order. When one fails the ones already
// applied are undone and the reason is written to every item.
func (s *Service) Transaction(ctx context.Context, items []*types.TxItem) bool {
	var undo []func()
	for _, item := range items {
		u, err := s.apply(ctx, item)
		if err != nil {
			log.Warnf("ifmap: %s: %v", item.Operation, err)
			for i := len(undo) - 1; i >= 0; i-- {
				undo[i]()
			}
			rs := err.Error()
			for _, it := range items {
				if it.Change == nil {
					it.Change = types.Object{}
				}
				it.Change[types.ReturnStringAttr] = rs
			}
			return false
		}
		undo = append(undo, u)
	}
	return true
}

func (s *Service) apply(ctx context.Context, item *types.TxItem) (func(), error) {
	if item.Change == nil {
		return nil, fmt.Errorf("empty change")
	}

	switch item.Operation {
	case types.VerbCreate:
		intf, err := fromObject(item.Change)
		if err != nil {
			return nil, err
		}
		rec, err := s.reg.Register(ctx, intf)
		if err != nil {
			return nil, err
		}
		// write assigned values back so the caller sees them
		for k, v := range toObject(rec) {
			item.Change[k] = v
		}
		return func() { s.reg.Deregister(rec) }, nil

	case types.VerbSet:
		q, want, err := selector(item.Change)
		if err != nil {
			return nil, err
		}
		old, err := s.reg.Lookup(q, want)
		if err != nil {
			return nil, err
		}
		return s.update(q, old, item.Change)

	case types.VerbDelete:
		q, want, err := selector(item.Change)
		if err != nil {
			return nil, err
		}
		old, err := s.reg.Lookup(q, want)
		if err != nil {
			return nil, err
		}
		s.reg.Deregister(old)
		return func() {
			if _, err := s.reg.insert(old); err != nil {
				log.Errorf("ifmap: restore %s: %v", old.Name, err)
			}
		}, nil

	default:
		return nil, fmt.Errorf("%s is not supported", item.Operation)
	}
}

func (s *Service) update(q QueryType, old Interface, change types.Object) (func(), error) {
	mac, hasMAC := change[AttrMAC]
	desc, hasDesc := change[AttrDesc]
	if !hasMAC && !hasDesc {
		return nil, fmt.Errorf("nothing to update on %s", describe(&old))
	}
	if hasDesc && len(fmt.Sprint(desc)) > MaxDescLen {
		return nil, fmt.Errorf("description of %d bytes exceeds %d", len(fmt.Sprint(desc)), MaxDescLen)
	}

	if hasMAC {
		if err := s.reg.UpdateMAC(old.VRFID, old.IfIndex, fmt.Sprint(mac)); err != nil {
			return nil, err
		}
	}
	if hasDesc {
		if err := s.reg.UpdateDesc(q, old, fmt.Sprint(desc)); err != nil {
			return nil, err
		}
	}

	return func() {
		if hasMAC {
			_ = s.reg.UpdateMAC(old.VRFID, old.IfIndex, old.MAC)
		}
		if hasDesc {
			_ = s.reg.UpdateDesc(q, old, old.Desc)
		}
	}, nil
}

// Get implements txcommit.Service. A filter with a name or an ifindex
// returns that entry, an empty filter returns every entry.
func (s *Service) Get(_ context.Context, filters []types.Object, out *[]types.Object) bool {
	for _, filter := range filters {
		if len(filter) == 0 {
			for _, intf := range s.reg.All() {
				*out = append(*out, toObject(intf))
			}
			continue
		}

		q, want, err := selector(filter)
		if err != nil {
			log.Warnf("ifmap: get: %v", err)
			return false
		}
		intf, err := s.reg.Lookup(q, want)
		if err != nil {
			continue
		}
		*out = append(*out, toObject(intf))
	}
	return true
}

// selector picks the index an object addresses: name first, then ifindex.
func selector(obj types.Object) (QueryType, Interface, error) {
	if name, ok := obj[AttrName]; ok {
		return FromIfName, Interface{Name: fmt.Sprint(name)}, nil
	}
	if _, ok := obj[AttrIfIndex]; ok {
		want := Interface{}
		var err error
		if want.IfIndex, err = intAttr(obj, AttrIfIndex); err != nil {
			return 0, Interface{}, err
		}
		if want.VRFID, err = uint32Attr(obj, AttrVRFID); err != nil {
			return 0, Interface{}, err
		}
		return FromIf, want, nil
	}
	return 0, Interface{}, fmt.Errorf("%s or %s is required", AttrName, AttrIfIndex)
}

func fromObject(obj types.Object) (Interface, error) {
	intf := Interface{}
	var err error

	if v, ok := obj[AttrName]; ok {
		intf.Name = fmt.Sprint(v)
	}
	if v, ok := obj[AttrType]; ok {
		if intf.Type, err = TypeFromIETF(fmt.Sprint(v)); err != nil {
			return Interface{}, err
		}
	}
	if v, ok := obj[AttrMAC]; ok {
		intf.MAC = fmt.Sprint(v)
	}
	if v, ok := obj[AttrDesc]; ok {
		intf.Desc = fmt.Sprint(v)
		if len(intf.Desc) > MaxDescLen {
			return Interface{}, fmt.Errorf("description of %d bytes exceeds %d", len(intf.Desc), MaxDescLen)
		}
	}
	if v, ok := obj[AttrPortMapped].(bool); ok {
		intf.PortMapped = v
	}

	if intf.IfIndex, err = intAttr(obj, AttrIfIndex); err != nil {
		return Interface{}, err
	}
	for _, f := range []struct {
		name string
		dst  *uint32
	}{
		{AttrVRFID, &intf.VRFID},
		{AttrNPUID, &intf.NPUID},
		{AttrPortID, &intf.PortID},
		{AttrSubPort, &intf.SubInterface},
		{AttrTapID, &intf.TapID},
		{AttrVLANID, &intf.VLANID},
	} {
		if *f.dst, err = uint32Attr(obj, f.name); err != nil {
			return Interface{}, err
		}
	}
	if intf.LAGID, err = uint64Attr(obj, AttrLAGID); err != nil {
		return Interface{}, err
	}
	return intf, nil
}

func toObject(intf Interface) types.Object {
	obj := types.Object{
		AttrName:    intf.Name,
		AttrIfIndex: intf.IfIndex,
		AttrVRFID:   intf.VRFID,
	}
	if t, ok := intf.Type.IETF(); ok {
		obj[AttrType] = t
	}
	if intf.MAC != "" {
		obj[AttrMAC] = intf.MAC
	}
	if intf.Desc != "" {
		obj[AttrDesc] = intf.Desc
	}
	switch intf.Type {
	case TypePort, TypeCPU, TypeFC:
		obj[AttrNPUID] = intf.NPUID
		obj[AttrPortID] = intf.PortID
		obj[AttrPortMapped] = intf.PortMapped
		if intf.TapID != 0 {
			obj[AttrTapID] = intf.TapID
		}
	case TypeVLAN:
		obj[AttrVLANID] = intf.VLANID
	case TypeLAG:
		obj[AttrLAGID] = intf.LAGID
	}
	return obj
}

func uint64Attr(obj types.Object, name string) (uint64, error) {
	v, ok := obj[name]
	if !ok {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		if n >= 0 {
			return uint64(n), nil
		}
	case int32:
		if n >= 0 {
			return uint64(n), nil
		}
	case int64:
		if n >= 0 {
			return uint64(n), nil
		}
	case uint:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case float64:
		if n >= 0 && n == math.Trunc(n) && n < math.MaxUint64 {
			return uint64(n), nil
		}
	case string:
		if u, err := strconv.ParseUint(n, 10, 64); err == nil {
			return u, nil
		}
	}
	return 0, fmt.Errorf("%s must be a non-negative integer, got %v", name, v)
}

func uint32Attr(obj types.Object, name string) (uint32, error) {
	n, err := uint64Attr(obj, name)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("%s out of range: %d", name, n)
	}
	return uint32(n), nil
}

func intAttr(obj types.Object, name string) (int, error) {
	n, err := uint64Attr(obj, name)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%s out of range: %d", name, n)
	}
	return int(n), nil
}
