package ir

import (
	"github.com/rilllang/rill/compiler/tp"
)

type (
	Op int

	OptFlags  uint8
	MemOrder  int
	SyncScope int
	RMWKind   int
	Pred      int

	// Instr is a single operation: opcode, ordered operands, result
	// type, and flat opcode-specific subclass data. Branch targets are
	// *Block operands.
	Instr struct {
		Op   Op
		Typ  *tp.Type
		Args []Value

		Name string
		Blk  *Block

		// subclass data
		Opt      OptFlags
		Volatile bool
		Align    uint32
		Ord      MemOrder // success ordering for cmpxchg
		Ord2     MemOrder // failure ordering for cmpxchg
		Scope    SyncScope
		RMW      RMWKind
		Pred     Pred
		CC       CallConv
		Attrs    AttrSet
		Index    []uint32
	}
)

const (
	opInvalid Op = iota

	// terminators
	Ret
	Br
	CondBr
	Switch
	Invoke
	Unreachable

	// binary
	Add
	FAdd
	Sub
	FSub
	Mul
	FMul
	UDiv
	SDiv
	FDiv
	URem
	SRem
	Shl
	LShr
	AShr
	And
	Or
	Xor

	// memory
	Load
	Store
	Fence
	CmpXchg
	AtomicRMW
	GEP

	// casts
	Trunc
	ZExt
	SExt
	BitCast
	IntToPtr
	PtrToInt

	// other
	ICmp
	FCmp
	Select
	Phi
	ExtractValue
	InsertValue
	Call
)

const (
	OptNUW OptFlags = 1 << iota
	OptNSW
	OptExact
	OptFast
	OptTail
)

const (
	OrdNone MemOrder = iota
	OrdUnordered
	OrdMonotonic
	OrdAcquire
	OrdRelease
	OrdAcqRel
	OrdSeqCst
)

const (
	ScopeSingle SyncScope = iota
	ScopeSystem
)

const (
	RMWXchg RMWKind = iota
	RMWAdd
	RMWSub
	RMWAnd
	RMWNand
	RMWOr
	RMWXor
	RMWMax
	RMWMin
	RMWUMax
	RMWUMin
)

const (
	PredNone Pred = iota

	IEQ
	INE
	IUGT
	IUGE
	IULT
	IULE
	ISGT
	ISGE
	ISLT
	ISLE

	FOEQ
	FOGT
	FOGE
	FOLT
	FOLE
	FONE
	FORD
	FUNO
)

func (x *Instr) Type() *tp.Type { return x.Typ }
func (x *Instr) Class() Class   { return ClassInstr }

func (x *Instr) IsTerminator() bool {
	switch x.Op {
	case Ret, Br, CondBr, Switch, Invoke, Unreachable:
		return true
	}

	return false
}

// Succs lists the successor blocks of a terminator in operand order.
func (x *Instr) Succs() []*Block {
	blk := func(i int) *Block { return x.Args[i].(*Block) }

	switch x.Op {
	case Br:
		return []*Block{blk(0)}
	case CondBr:
		return []*Block{blk(1), blk(2)}
	case Switch:
		s := []*Block{blk(1)}

		for i := 3; i < len(x.Args); i += 2 {
			s = append(s, blk(i))
		}

		return s
	case Invoke:
		return []*Block{blk(len(x.Args) - 2), blk(len(x.Args) - 1)}
	default:
		return nil
	}
}

// Callee is the called operand of a call or invoke.
func (x *Instr) Callee() Value { return x.Args[0] }

func (x *Instr) CallArgs() []Value {
	switch x.Op {
	case Call:
		return x.Args[1:]
	case Invoke:
		return x.Args[1 : len(x.Args)-2]
	}

	return nil
}

func NewCall(callee *Func, args []Value, cc CallConv, tail bool) *Instr {
	x := &Instr{
		Op:   Call,
		Typ:  callee.Sig.Ret(),
		Args: append([]Value{callee}, args...),
		CC:   cc,
	}

	if tail {
		x.Opt |= OptTail
	}

	return x
}

func NewRet(tc *tp.Context, v Value) *Instr {
	x := &Instr{
		Op:  Ret,
		Typ: tc.Void(),
	}

	if v != nil {
		x.Args = []Value{v}
	}

	return x
}

func NewCast(op Op, v Value, t *tp.Type) *Instr {
	return &Instr{
		Op:   op,
		Typ:  t,
		Args: []Value{v},
	}
}
