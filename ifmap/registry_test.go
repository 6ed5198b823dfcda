package ifmap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	txerrors "github.com/hobro-11/txutil/txcommit/errors"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type seqAllocator struct {
	next uint
	err  error
}

func (a *seqAllocator) Next(context.Context) (uint, error) {
	if a.err != nil {
		return 0, a.err
	}
	a.next++
	return a.next, nil
}

func intf1() Interface {
	return Interface{Name: "intf1", NPUID: 1, PortID: 2, IfIndex: 3, VRFID: 4, PortMapped: true}
}

func TestRegisterIndexesByEveryKey(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(context.Background(), intf1())
	require.NoError(t, err)

	for _, tc := range []struct {
		q    QueryType
		want Interface
	}{
		{FromPort, Interface{NPUID: 1, PortID: 2}},
		{FromIf, Interface{VRFID: 4, IfIndex: 3}},
		{FromIfName, Interface{Name: "intf1"}},
	} {
		got, err := r.Lookup(tc.q, tc.want)
		require.NoError(t, err, tc.q.String())
		assert.Equal(t, intf1(), got)
	}

	_, err = r.Lookup(FromIf, Interface{VRFID: 0, IfIndex: 3})
	assert.True(t, txerrors.IsNotFound(err))
	_, err = r.Lookup(FromVLAN, Interface{Type: TypeVLAN, VLANID: 3})
	assert.True(t, txerrors.IsNotFound(err))
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(context.Background(), intf1())
	require.NoError(t, err)

	dup := intf1()
	dup.Name = "other"
	_, err = r.Register(context.Background(), dup)
	assert.True(t, txerrors.IsAlreadyExists(err))
	assert.Equal(t, "interface already exists : other", err.Error())
}

func TestRegisterWithoutKey(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register(context.Background(), Interface{})
	assert.EqualError(t, err, "interface ifindex 0 has no lookup key")
	assert.Empty(t, r.All())
}

func TestRegisterAllocatesIfIndex(t *testing.T) {
	r := NewRegistry(WithAllocator(&seqAllocator{next: 99}))

	got, err := r.Register(context.Background(), Interface{Name: "lo0", Type: TypeLoopback})
	require.NoError(t, err)
	assert.Equal(t, 100, got.IfIndex)

	found, err := r.Lookup(FromIf, Interface{IfIndex: 100})
	require.NoError(t, err)
	assert.Equal(t, "lo0", found.Name)

	// a given ifindex is kept
	got, err = r.Register(context.Background(), Interface{Name: "lo1", Type: TypeLoopback, IfIndex: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, got.IfIndex)
}

func TestRegisterAllocatorFailure(t *testing.T) {
	r := NewRegistry(WithAllocator(&seqAllocator{err: errors.New("throttled")}))

	_, err := r.Register(context.Background(), Interface{Name: "lo0", Type: TypeLoopback})
	assert.EqualError(t, err, "allocate ifindex for lo0: throttled")
	assert.Empty(t, r.All())
}

func TestDeregisterVirtualPort(t *testing.T) {
	r := NewRegistry()
	virt := Interface{Name: "virt_intf", VRFID: 1}

	_, err := r.Register(context.Background(), virt)
	require.NoError(t, err)
	_, err = r.Register(context.Background(), virt)
	require.Error(t, err)

	_, err = r.Lookup(FromIfName, Interface{Name: "unknown"})
	assert.Error(t, err)
	_, err = r.Lookup(FromIfName, Interface{Name: "virt_intf"})
	require.NoError(t, err)

	r.Deregister(Interface{Name: "virt_intf"})
	r.Deregister(Interface{Name: "virt_intf"})

	_, err = r.Lookup(FromIfName, Interface{Name: "virt_intf"})
	assert.True(t, txerrors.IsNotFound(err))
	_, err = r.Lookup(FromIf, Interface{VRFID: 1})
	assert.True(t, txerrors.IsNotFound(err))
	assert.Empty(t, r.All())
}

func TestVLANAndLAGIndexes(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(context.Background(), Interface{Name: "br100", Type: TypeVLAN, VLANID: 100, IfIndex: 10, NPUID: 1, PortID: 1})
	require.NoError(t, err)
	_, err = r.Register(context.Background(), Interface{Name: "bond0", Type: TypeLAG, LAGID: 0x2000000001, IfIndex: 11})
	require.NoError(t, err)

	vlan, err := r.Lookup(FromVLAN, Interface{Type: TypeVLAN, VLANID: 100})
	require.NoError(t, err)
	assert.Equal(t, "br100", vlan.Name)

	lag, err := r.Lookup(FromLAG, Interface{Type: TypeLAG, LAGID: 0x2000000001})
	require.NoError(t, err)
	assert.Equal(t, "bond0", lag.Name)

	// VLANs are never indexed by port
	_, err = r.Lookup(FromPort, Interface{NPUID: 1, PortID: 1})
	assert.Error(t, err)
}

func TestUpdateDesc(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(context.Background(), intf1())
	require.NoError(t, err)
	byName := Interface{Name: "intf1"}

	require.NoError(t, r.UpdateDesc(FromIfName, byName, "intf_desc"))
	got, _ := r.Lookup(FromIfName, byName)
	assert.Equal(t, "intf_desc", got.Desc)

	require.NoError(t, r.UpdateDesc(FromIfName, byName, ""))
	got, _ = r.Lookup(FromIfName, byName)
	assert.Empty(t, got.Desc)

	require.NoError(t, r.UpdateDesc(FromIfName, byName, "uplink"))
	err = r.UpdateDesc(FromIfName, byName, strings.Repeat("a", 299))
	assert.Error(t, err)
	got, _ = r.Lookup(FromIfName, byName)
	assert.Equal(t, "uplink", got.Desc)

	assert.NoError(t, r.UpdateDesc(FromIfName, byName, strings.Repeat("a", MaxDescLen)))
	assert.True(t, txerrors.IsNotFound(r.UpdateDesc(FromIfName, Interface{Name: "nope"}, "x")))
}

func TestUpdateMAC(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(context.Background(), intf1())
	require.NoError(t, err)

	require.NoError(t, r.UpdateMAC(4, 3, "11:22:33:44:55:66"))
	got, _ := r.Lookup(FromPort, Interface{NPUID: 1, PortID: 2})
	assert.Equal(t, "11:22:33:44:55:66", got.MAC)

	err = r.UpdateMAC(0, 3, "aa:bb:cc:dd:ee:ff")
	assert.EqualError(t, err, "interface not found : ifindex 3")
}

func TestNextIfIndex(t *testing.T) {
	r := NewRegistry()
	for i, idx := range []int{5, 2, 9} {
		_, err := r.Register(context.Background(), Interface{Name: fmt.Sprintf("e%d", i), IfIndex: idx})
		require.NoError(t, err)
	}

	var got []int
	var cur *int
	for {
		next, err := r.NextIfIndex(cur)
		if err != nil {
			assert.True(t, txerrors.IsNotFound(err))
			break
		}
		got = append(got, next)
		cur = &next
	}
	assert.Equal(t, []int{2, 5, 9}, got)
}

func TestIsVirtualPort(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(context.Background(), intf1())
	require.NoError(t, err)
	_, err = r.Register(context.Background(), Interface{Name: "virt0", IfIndex: 20})
	require.NoError(t, err)
	_, err = r.Register(context.Background(), Interface{Name: "lo", Type: TypeLoopback, IfIndex: 21})
	require.NoError(t, err)

	assert.True(t, r.IsVirtualPort(20))
	assert.False(t, r.IsVirtualPort(21))
	assert.False(t, r.IsVirtualPort(404))

	// intf1 lives in vrf 4, so a vrf 0 lookup misses it
	assert.False(t, r.IsVirtualPort(3))
}

func TestRegisterMany(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 1000; i++ {
		_, err := r.Register(context.Background(), Interface{
			Name: fmt.Sprintf("cliff%d", i), PortID: uint32(i + 1), IfIndex: i + 1,
		})
		require.NoError(t, err)
	}

	for i := 0; i < 1000; i++ {
		_, err := r.Lookup(FromIf, Interface{IfIndex: i + 1})
		require.NoError(t, err)
	}
	assert.Len(t, r.All(), 1000)
}

func TestDump(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(context.Background(), intf1())
	require.NoError(t, err)
	require.NoError(t, r.UpdateMAC(4, 3, "00:11:22:33:44:55"))

	var out bytes.Buffer
	r.Dump(&out)

	rec := "Name:intf1, NPU:1, Port:2, SubPort:0, TapID:0, VRF:4, IFIndex:3 MAC 00:11:22:33:44:55"
	assert.Contains(t, out.String(), "Dumping NPU/Port mapping...\nidx 4294967298 "+rec+"\n")
	assert.Contains(t, out.String(), "ifname:intf1 "+rec+"\n")
	assert.Contains(t, out.String(), "idx 17179869187 "+rec+"\n")
	assert.Contains(t, out.String(), "Dumping LAG ID mapping...\n")
}

func TestIETFTypes(t *testing.T) {
	s, ok := TypeLAG.IETF()
	require.True(t, ok)
	assert.Equal(t, "ianaift:ieee8023adLag", s)

	got, err := TypeFromIETF("base-if:management")
	require.NoError(t, err)
	assert.Equal(t, TypeMgmt, got)

	_, ok = TypeVXLAN.IETF()
	assert.False(t, ok)
	_, err = TypeFromIETF("ianaift:tunnel")
	assert.Error(t, err)
}
