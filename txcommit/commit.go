package txcommit

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gofiber/fiber/v2/log"

	"github.com/hobro-11/txutil/txcommit/types"
)

// Handle is the caller's object. The dispatcher only reads from it.
type Handle interface {
	Get() types.Object
}

// Service is the object-transaction service the dispatcher submits to.
type Service interface {
	// Transaction submits the items in order and reports whether the service
	// accepted them. Change may be rewritten in place.
	Transaction(ctx context.Context, items []*types.TxItem) bool
	// Get runs a read query and appends the matching objects to out.
	Get(ctx context.Context, filters []types.Object, out *[]types.Object) bool
}

// Result is the outcome of a mutation.
type Result struct {
	Accepted bool
	// Items is the submitted request after commit, only set when Accepted.
	Items []*types.TxItem
	// Diagnostic is the rejection reason, nil when none could be extracted.
	Diagnostic *string
}

// Dispatcher submits single-object changes and reports the outcome
// to its output writer.
type Dispatcher struct {
	svc Service
	out io.Writer
}

type Option func(*Dispatcher)

// WithOutput sets where status lines and rendered objects are written.
func WithOutput(w io.Writer) Option {
	return func(d *Dispatcher) {
		if w != nil {
			d.out = w
		}
	}
}

func New(svc Service, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		svc: svc,
		out: os.Stdout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Commit wraps h in a one-item transaction with the given verb and submits it.
func (d *Dispatcher) Commit(ctx context.Context, h Handle, verb types.Verb) Result {
	items := []*types.TxItem{types.NewTxItem(h.Get(), verb)}

	if d.svc.Transaction(ctx, items) {
		fmt.Fprintln(d.out, "Success")
		return Result{Accepted: true, Items: items}
	}

	rs, ok := diagnose(items)
	if !ok {
		log.Warnf("txcommit: %s rejected", verb)
		fmt.Fprintln(d.out, "Failed")
		return Result{}
	}

	log.Warnf("txcommit: %s rejected: %s", verb, rs)
	fmt.Fprintf(d.out, "Error: %s\n", rs)
	return Result{Diagnostic: &rs}
}

// diagnose reads the return string off the first rejected item. A missing
// item or attribute reports false.
func diagnose(items []*types.TxItem) (string, bool) {
	if len(items) == 0 || items[0] == nil {
		return "", false
	}

	obj := items[0].Change
	if obj == nil {
		obj = items[0].AsObject()
	}

	v, err := obj.AttrData(types.ReturnStringAttr)
	if err != nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

// Create commits h with the create verb and, on success, renders the
// post-commit object so server-assigned values are visible.
func (d *Dispatcher) Create(ctx context.Context, h Handle) Result {
	res := d.Commit(ctx, h, types.VerbCreate)
	if res.Accepted && len(res.Items) > 0 && res.Items[0] != nil {
		Render(d.out, res.Items[0].Change)
	}
	return res
}

func (d *Dispatcher) Set(ctx context.Context, h Handle) Result {
	return d.Commit(ctx, h, types.VerbSet)
}

func (d *Dispatcher) Delete(ctx context.Context, h Handle) Result {
	return d.Commit(ctx, h, types.VerbDelete)
}

func (d *Dispatcher) RPC(ctx context.Context, h Handle) Result {
	return d.Commit(ctx, h, types.VerbRPC)
}

// Get queries with h as the only filter and renders every returned object.
// A failed query renders nothing.
func (d *Dispatcher) Get(ctx context.Context, h Handle) {
	var got []types.Object
	if !d.svc.Get(ctx, []types.Object{h.Get()}, &got) {
		return
	}
	for _, obj := range got {
		Render(d.out, obj)
	}
}
