package ifmap

import "fmt"

// IntfType is the kind of a registered interface.
type IntfType int

const (
	TypePort IntfType = iota
	TypeVLAN
	TypeLAG
	TypeCPU
	TypeLoopback
	TypeFC
	TypeMgmt
	TypeMACVLAN
	TypeVLANSubIntf
	TypeVXLAN
	TypeBridge
)

var ietfTypes = map[IntfType]string{
	TypeCPU:      "base-if:cpu",
	TypePort:     "ianaift:ethernetCsmacd",
	TypeVLAN:     "ianaift:l2vlan",
	TypeLAG:      "ianaift:ieee8023adLag",
	TypeLoopback: "ianaift:softwareLoopback",
	TypeFC:       "ianaift:fibreChannel",
	TypeMACVLAN:  "base-if:macvlan",
	TypeMgmt:     "base-if:management",
}

// IETF returns the iana-if-type identity of t. Types without one report
// ok == false.
func (t IntfType) IETF() (string, bool) {
	s, ok := ietfTypes[t]
	return s, ok
}

// TypeFromIETF is the inverse of IETF.
func TypeFromIETF(s string) (IntfType, error) {
	for t, name := range ietfTypes {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown interface type %q", s)
}

// QueryType selects the index a lookup goes through.
type QueryType int

const (
	FromPort QueryType = iota
	FromIf
	FromTap
	FromIfName
	FromVLAN
	FromLAG
)

var allQueries = []QueryType{FromPort, FromIf, FromTap, FromIfName, FromVLAN, FromLAG}

func (q QueryType) String() string {
	switch q {
	case FromPort:
		return "port"
	case FromIf:
		return "ifindex"
	case FromTap:
		return "tap"
	case FromIfName:
		return "name"
	case FromVLAN:
		return "vlan"
	case FromLAG:
		return "lag"
	default:
		return fmt.Sprintf("query(%d)", int(q))
	}
}

// validFor reports whether interfaces of type t are indexed under q.
func (q QueryType) validFor(t IntfType) bool {
	switch q {
	case FromIf, FromIfName:
		return true
	case FromPort, FromTap:
		return t == TypePort || t == TypeCPU || t == TypeFC
	case FromVLAN:
		return t == TypeVLAN
	case FromLAG:
		return t == TypeLAG
	}
	return false
}

// key is the numeric index key of intf under q. Zero means not indexed.
func (q QueryType) key(intf *Interface) uint64 {
	switch q {
	case FromPort:
		return pair(intf.NPUID, intf.PortID)
	case FromIf:
		return pair(intf.VRFID, uint32(intf.IfIndex))
	case FromTap:
		return uint64(intf.TapID)
	case FromVLAN:
		return uint64(intf.VLANID)
	case FromLAG:
		return intf.LAGID
	}
	return 0
}

func pair(hi, lo uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}

// Interface is one entry of the interface mapping table.
type Interface struct {
	Name         string
	IfIndex      int
	VRFID        uint32
	Type         IntfType
	MAC          string
	Desc         string
	NPUID        uint32
	PortID       uint32
	PortMapped   bool
	SubInterface uint32
	TapID        uint32
	VLANID       uint32
	LAGID        uint64
}

func (i *Interface) String() string {
	return fmt.Sprintf("Name:%s, NPU:%d, Port:%d, SubPort:%d, TapID:%d, VRF:%d, IFIndex:%d MAC %s",
		i.Name, i.NPUID, i.PortID, i.SubInterface, i.TapID, i.VRFID, i.IfIndex, i.MAC)
}
