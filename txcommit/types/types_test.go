package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hobro-11/txutil/txcommit/errors"
)

func TestParseVerb(t *testing.T) {
	for _, v := range Verbs {
		got, err := ParseVerb(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	_, err := ParseVerb("patch")
	assert.True(t, errors.IsNotFound(err))
}

func TestVerbIsMutation(t *testing.T) {
	assert.True(t, VerbCreate.IsMutation())
	assert.True(t, VerbRPC.IsMutation())
	assert.False(t, VerbGet.IsMutation())
	assert.False(t, Verb(42).IsMutation())
}

func TestObjectAttrData(t *testing.T) {
	obj := NewObject(map[string]any{"mtu": 1500})

	v, err := obj.AttrData("mtu")
	require.NoError(t, err)
	assert.Equal(t, 1500, v)

	_, err = obj.AttrData(ReturnStringAttr)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, "attribute not found : "+ReturnStringAttr, err.Error())
}

func TestObjectGetIsSnapshot(t *testing.T) {
	obj := Object{"name": "eth0"}
	snap := obj.Get()
	snap["name"] = "eth1"

	assert.Equal(t, "eth0", obj["name"])
	assert.Equal(t, Object{}, NewObject(nil))
}

func TestTxItemAsObject(t *testing.T) {
	item := NewTxItem(Object{"name": "eth0"}, VerbDelete)

	raw := item.AsObject()
	assert.Equal(t, "delete", raw["operation"])
	assert.Equal(t, map[string]any{"name": "eth0"}, raw["change"])

	item.Change = nil
	_, ok := item.AsObject()["change"]
	assert.False(t, ok)
}
