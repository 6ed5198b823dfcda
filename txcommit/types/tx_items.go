package types

import (
	"github.com/hobro-11/txutil/txcommit/errors"
)

type (
	// Verb is the operation a transaction item asks the service to perform.
	Verb int

	// TxItem is one entry of a transaction request.
	// The service may rewrite Change in place, on success (generated keys)
	// as well as on rejection (return string).
	TxItem struct {
		Change    Object
		Operation Verb
	}
)

const (
	VerbCreate Verb = iota
	VerbSet
	VerbDelete
	VerbGet
	VerbRPC
)

// Verbs lists every verb in declaration order.
var Verbs = []Verb{VerbCreate, VerbSet, VerbDelete, VerbGet, VerbRPC}

func (v Verb) String() string {
	switch v {
	case VerbCreate:
		return "create"
	case VerbSet:
		return "set"
	case VerbDelete:
		return "delete"
	case VerbGet:
		return "get"
	case VerbRPC:
		return "rpc"
	default:
		return "unknown"
	}
}

// IsMutation reports whether v is submitted through a transaction.
// get goes through the query path instead.
func (v Verb) IsMutation() bool {
	switch v {
	case VerbCreate, VerbSet, VerbDelete, VerbRPC:
		return true
	default:
		return false
	}
}

// ParseVerb resolves a verb name. 알 수 없는 이름이면 not-found 에러를 반환한다.
func ParseVerb(name string) (Verb, error) {
	for _, v := range Verbs {
		if v.String() == name {
			return v, nil
		}
	}
	return 0, errors.NewErrUnknownVerb(name)
}

// NewTxItem builds a request item from a snapshot of the object.
func NewTxItem(change Object, op Verb) *TxItem {
	return &TxItem{
		Change:    change,
		Operation: op,
	}
}

// AsObject returns the whole item in its raw form,
// {"change": ..., "operation": ...}.
func (t *TxItem) AsObject() Object {
	raw := Object{
		"operation": t.Operation.String(),
	}
	if t.Change != nil {
		raw["change"] = map[string]any(t.Change)
	}
	return raw
}
