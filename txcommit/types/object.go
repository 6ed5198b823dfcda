package types

import (
	"maps"
	"sort"

	"github.com/hobro-11/txutil/txcommit/errors"
)

// ReturnStringAttr carries the human-readable reason a change was rejected.
const ReturnStringAttr = "cps/object-group/return-string"

// Object is the representation of an object's fields keyed by attribute name.
type Object map[string]any

func NewObject(raw map[string]any) Object {
	if raw == nil {
		return Object{}
	}
	return Object(maps.Clone(raw))
}

// Get returns a snapshot of the current fields, so an Object can be used
// directly as a handle.
func (o Object) Get() Object {
	return NewObject(o)
}

// AttrData returns the decoded value of the named attribute.
func (o Object) AttrData(name string) (any, error) {
	v, ok := o[name]
	if !ok {
		return nil, errors.NewErrAttrNotFound(name)
	}
	return v, nil
}

// Keys returns the attribute names in sorted order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
