package mergefn

import (
	"fmt"

	"tlog.app/go/loc"
)

// bug reports a broken IR invariant. There is no recovery path, the
// module is malformed or the pass state is corrupted.
func bug(msg string, args ...any) {
	name, file, line := loc.Caller(1).NameFileLine()

	panic(fmt.Sprintf("bug: %v (at %v %v:%v)", fmt.Sprintf(msg, args...), name, file, line))
}
