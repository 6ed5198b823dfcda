package txcommit

import (
	"context"

	"github.com/hobro-11/txutil/txcommit/errors"
	"github.com/hobro-11/txutil/txcommit/types"
)

// Method runs one verb against a handle. The get method always returns the
// zero Result since reads carry no success signal.
type Method func(ctx context.Context, h Handle) Result

// Method returns the function bound to verb.
func (d *Dispatcher) Method(verb types.Verb) (Method, error) {
	switch verb {
	case types.VerbCreate:
		return d.Create, nil
	case types.VerbSet:
		return d.Set, nil
	case types.VerbDelete:
		return d.Delete, nil
	case types.VerbGet:
		return d.get, nil
	case types.VerbRPC:
		return d.RPC, nil
	default:
		return nil, errors.NewErrUnknownVerb(verb.String())
	}
}

// MethodByName resolves "create", "set", "delete", "get" or "rpc".
// Any other name fails with a not-found error.
func (d *Dispatcher) MethodByName(name string) (Method, error) {
	verb, err := types.ParseVerb(name)
	if err != nil {
		return nil, err
	}
	return d.Method(verb)
}

func (d *Dispatcher) get(ctx context.Context, h Handle) Result {
	d.Get(ctx, h)
	return Result{}
}
