package ir

var (
	opNames = map[Op]string{
		Ret: "ret", Br: "br", CondBr: "br", Switch: "switch", Invoke: "invoke", Unreachable: "unreachable",
		Add: "add", FAdd: "fadd", Sub: "sub", FSub: "fsub", Mul: "mul", FMul: "fmul",
		UDiv: "udiv", SDiv: "sdiv", FDiv: "fdiv", URem: "urem", SRem: "srem",
		Shl: "shl", LShr: "lshr", AShr: "ashr", And: "and", Or: "or", Xor: "xor",
		Load: "load", Store: "store", Fence: "fence", CmpXchg: "cmpxchg", AtomicRMW: "atomicrmw", GEP: "gep",
		Trunc: "trunc", ZExt: "zext", SExt: "sext", BitCast: "bitcast", IntToPtr: "inttoptr", PtrToInt: "ptrtoint",
		ICmp: "icmp", FCmp: "fcmp", Select: "select", Phi: "phi",
		ExtractValue: "extractvalue", InsertValue: "insertvalue", Call: "call",
	}

	ordNames = map[MemOrder]string{
		OrdUnordered: "unordered", OrdMonotonic: "monotonic", OrdAcquire: "acquire",
		OrdRelease: "release", OrdAcqRel: "acq_rel", OrdSeqCst: "seq_cst",
	}

	rmwNames = map[RMWKind]string{
		RMWXchg: "xchg", RMWAdd: "add", RMWSub: "sub", RMWAnd: "and", RMWNand: "nand",
		RMWOr: "or", RMWXor: "xor", RMWMax: "max", RMWMin: "min", RMWUMax: "umax", RMWUMin: "umin",
	}

	predNames = map[Pred]string{
		IEQ: "eq", INE: "ne", IUGT: "ugt", IUGE: "uge", IULT: "ult", IULE: "ule",
		ISGT: "sgt", ISGE: "sge", ISLT: "slt", ISLE: "sle",
		FOEQ: "oeq", FOGT: "ogt", FOGE: "oge", FOLT: "olt", FOLE: "ole",
		FONE: "one", FORD: "ord", FUNO: "uno",
	}

	linkNames = map[Linkage]string{
		External: "external", AvailableExternally: "available_externally",
		LinkOnce: "linkonce", Weak: "weak", Common: "common",
		ExternWeak: "extern_weak", Internal: "internal", Private: "private",
	}
)

func (op Op) String() string      { return opNames[op] }
func (o MemOrder) String() string { return ordNames[o] }
func (k RMWKind) String() string  { return rmwNames[k] }
func (p Pred) String() string     { return predNames[p] }
func (l Linkage) String() string  { return linkNames[l] }

// Name tables for the textual reader.

func OpByName(s string) (Op, bool) {
	for op, n := range opNames {
		if n == s && op != Br && op != CondBr {
			return op, true
		}
	}
	if s == "br" {
		return Br, true
	}

	return 0, false
}

func OrdByName(s string) (MemOrder, bool) {
	for o, n := range ordNames {
		if n == s {
			return o, true
		}
	}

	return 0, false
}

func RMWByName(s string) (RMWKind, bool) {
	for k, n := range rmwNames {
		if n == s {
			return k, true
		}
	}

	return 0, false
}

func PredByName(s string) (Pred, bool) {
	for p, n := range predNames {
		if n == s {
			return p, true
		}
	}

	return 0, false
}

func LinkageByName(s string) (Linkage, bool) {
	for l, n := range linkNames {
		if n == s {
			return l, true
		}
	}

	return 0, false
}
