package mergefn

import (
	"hash/fnv"

	"github.com/rilllang/rill/compiler/ir"
	"github.com/rilllang/rill/compiler/tp"
)

// kindForHash folds pointers into the integer kind: the comparator
// treats pointers and integers of pointer width as equal, so the hash
// must not separate them.
func kindForHash(t *tp.Type) tp.Kind {
	if t.Kind() == tp.Ptr {
		return tp.Int
	}

	return t.Kind()
}

// fingerprint hashes everything two equivalent functions agree on
// without looking at the instructions. Equal fingerprints are
// necessary for equivalence, never sufficient.
func fingerprint(f *ir.Func) uint64 {
	h := fnv.New64a()

	w := func(v uint64) {
		var b [8]byte

		for i := range b {
			b[i] = byte(v >> (8 * i))
		}

		_, _ = h.Write(b[:])
	}
	wb := func(v bool) {
		if v {
			w(1)
		} else {
			w(0)
		}
	}

	sig := f.Sig

	w(uint64(len(f.Blocks)))
	w(uint64(f.CC))
	wb(f.GC != "")
	wb(sig.Variadic())
	w(uint64(kindForHash(sig.Ret())))

	for i := 0; i < sig.NumParams(); i++ {
		w(uint64(kindForHash(sig.Param(i))))
	}

	return h.Sum64()
}
