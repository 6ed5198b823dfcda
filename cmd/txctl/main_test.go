package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hobro-11/txutil/txcommit"
	"github.com/hobro-11/txutil/txcommit/types"
)

type stubService struct {
	accept bool
	items  []*types.TxItem
}

func (s *stubService) Transaction(_ context.Context, items []*types.TxItem) bool {
	s.items = append(s.items, items...)
	return s.accept
}

func (s *stubService) Get(_ context.Context, _ []types.Object, out *[]types.Object) bool {
	*out = append(*out, types.Object{"pk": "eth0"})
	return true
}

func TestRunUsage(t *testing.T) {
	var out, errOut bytes.Buffer

	assert.Equal(t, 2, run(nil, &out, &errOut))
	assert.Contains(t, errOut.String(), "usage: txctl")

	errOut.Reset()
	assert.Equal(t, 2, run([]string{"patch", "pk=eth0"}, &out, &errOut))
	assert.Contains(t, errOut.String(), "unknown verb: patch")
	assert.Empty(t, out.String())
}

func TestDispatch(t *testing.T) {
	svc := &stubService{accept: true}
	var out bytes.Buffer
	d := txcommit.New(svc, txcommit.WithOutput(&out))

	code := dispatch(context.Background(), d, []string{"set", "pk=eth0", "mtu=9000", "admin=true"}, &out, io.Discard)

	assert.Equal(t, 0, code)
	assert.Equal(t, "Success\n", out.String())
	require.Len(t, svc.items, 1)
	assert.Equal(t, types.VerbSet, svc.items[0].Operation)
	assert.Equal(t, types.Object{"pk": "eth0", "mtu": int64(9000), "admin": true}, svc.items[0].Change)
}

func TestDispatchRejected(t *testing.T) {
	d := txcommit.New(&stubService{}, txcommit.WithOutput(io.Discard))
	assert.Equal(t, 1, dispatch(context.Background(), d, []string{"delete", "pk=eth0"}, io.Discard, io.Discard))
}

func TestDispatchGet(t *testing.T) {
	var out bytes.Buffer
	d := txcommit.New(&stubService{}, txcommit.WithOutput(&out))

	assert.Equal(t, 0, dispatch(context.Background(), d, []string{"get", "pk=eth0"}, &out, io.Discard))
	assert.Equal(t, "pk = eth0\n\n", out.String())
}

func TestDispatchBadAttribute(t *testing.T) {
	var errOut bytes.Buffer
	d := txcommit.New(&stubService{accept: true}, txcommit.WithOutput(io.Discard))

	assert.Equal(t, 2, dispatch(context.Background(), d, []string{"set", "mtu"}, io.Discard, &errOut))
	assert.Contains(t, errOut.String(), `invalid attribute "mtu"`)
}

func TestParseObject(t *testing.T) {
	obj, err := parseObject([]string{"name=t", "mtu=1500", "enabled=true", "admin=false", "flag=TRUE", "desc="})
	require.NoError(t, err)

	assert.Equal(t, types.Object{
		"name":    "t",
		"mtu":     int64(1500),
		"enabled": true,
		"admin":   false,
		"flag":    "TRUE",
		"desc":    "",
	}, obj)
}
