package txcommit

import (
	"fmt"
	"io"

	"github.com/hobro-11/txutil/txcommit/types"
)

// Render writes obj as one "key = value" line per field in key order,
// followed by a blank line.
func Render(w io.Writer, obj types.Object) {
	for _, k := range obj.Keys() {
		fmt.Fprintf(w, "%s = %v\n", k, obj[k])
	}
	fmt.Fprintln(w)
}
