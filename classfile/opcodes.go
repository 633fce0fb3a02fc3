package classfile

// JVM opcodes referenced by name in the codec. The full name table
// below covers the rest.
const (
	OpBipush         byte = 0x10
	OpSipush         byte = 0x11
	OpLdc            byte = 0x12
	OpLdcW           byte = 0x13
	OpLdc2W          byte = 0x14
	OpIload          byte = 0x15
	OpAload          byte = 0x19
	OpIstore         byte = 0x36
	OpAstore         byte = 0x3a
	OpIinc           byte = 0x84
	OpIfeq           byte = 0x99
	OpGoto           byte = 0xa7
	OpJsr            byte = 0xa8
	OpRet            byte = 0xa9
	OpTableswitch    byte = 0xaa
	OpLookupswitch   byte = 0xab
	OpReturn         byte = 0xb1
	OpGetstatic      byte = 0xb2
	OpInvokevirtual  byte = 0xb6
	OpInvokestatic   byte = 0xb8
	OpInvokeinterface byte = 0xb9
	OpInvokedynamic  byte = 0xba
	OpNew            byte = 0xbb
	OpNewarray       byte = 0xbc
	OpAnewarray      byte = 0xbd
	OpCheckcast      byte = 0xc0
	OpInstanceof     byte = 0xc1
	OpWide           byte = 0xc4
	OpMultianewarray byte = 0xc5
	OpIfnull         byte = 0xc6
	OpIfnonnull      byte = 0xc7
	OpGotoW          byte = 0xc8
	OpJsrW           byte = 0xc9
)

// opcodeNames maps opcode values to mnemonics, JVM spec chapter 6.
var opcodeNames = [...]string{
	"nop", "aconst_null", "iconst_m1", "iconst_0", "iconst_1", "iconst_2",
	"iconst_3", "iconst_4", "iconst_5", "lconst_0", "lconst_1", "fconst_0",
	"fconst_1", "fconst_2", "dconst_0", "dconst_1", "bipush", "sipush",
	"ldc", "ldc_w", "ldc2_w", "iload", "lload", "fload", "dload", "aload",
	"iload_0", "iload_1", "iload_2", "iload_3", "lload_0", "lload_1",
	"lload_2", "lload_3", "fload_0", "fload_1", "fload_2", "fload_3",
	"dload_0", "dload_1", "dload_2", "dload_3", "aload_0", "aload_1",
	"aload_2", "aload_3", "iaload", "laload", "faload", "daload", "aaload",
	"baload", "caload", "saload", "istore", "lstore", "fstore", "dstore",
	"astore", "istore_0", "istore_1", "istore_2", "istore_3", "lstore_0",
	"lstore_1", "lstore_2", "lstore_3", "fstore_0", "fstore_1", "fstore_2",
	"fstore_3", "dstore_0", "dstore_1", "dstore_2", "dstore_3", "astore_0",
	"astore_1", "astore_2", "astore_3", "iastore", "lastore", "fastore",
	"dastore", "aastore", "bastore", "castore", "sastore", "pop", "pop2",
	"dup", "dup_x1", "dup_x2", "dup2", "dup2_x1", "dup2_x2", "swap",
	"iadd", "ladd", "fadd", "dadd", "isub", "lsub", "fsub", "dsub", "imul",
	"lmul", "fmul", "dmul", "idiv", "ldiv", "fdiv", "ddiv", "irem", "lrem",
	"frem", "drem", "ineg", "lneg", "fneg", "dneg", "ishl", "lshl", "ishr",
	"lshr", "iushr", "lushr", "iand", "land", "ior", "lor", "ixor", "lxor",
	"iinc", "i2l", "i2f", "i2d", "l2i", "l2f", "l2d", "f2i", "f2l", "f2d",
	"d2i", "d2l", "d2f", "i2b", "i2c", "i2s", "lcmp", "fcmpl", "fcmpg",
	"dcmpl", "dcmpg", "ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle",
	"if_icmpeq", "if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt",
	"if_icmple", "if_acmpeq", "if_acmpne", "goto", "jsr", "ret",
	"tableswitch", "lookupswitch", "ireturn", "lreturn", "freturn",
	"dreturn", "areturn", "return", "getstatic", "putstatic", "getfield",
	"putfield", "invokevirtual", "invokespecial", "invokestatic",
	"invokeinterface", "invokedynamic", "new", "newarray", "anewarray",
	"arraylength", "athrow", "checkcast", "instanceof", "monitorenter",
	"monitorexit", "wide", "multianewarray", "ifnull", "ifnonnull",
	"goto_w", "jsr_w",
}

// OpcodeName returns the mnemonic for an opcode, or "" for values
// outside the standard instruction set.
func OpcodeName(op byte) string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return ""
}

// operandWidth returns the fixed operand byte count for an opcode, or
// -1 for the variable-length instructions (wide, tableswitch,
// lookupswitch).
func operandWidth(op byte) int {
	switch {
	case op == OpWide || op == OpTableswitch || op == OpLookupswitch:
		return -1
	case op == OpBipush || op == OpLdc || op == OpNewarray || op == OpRet ||
		(op >= OpIload && op <= OpAload) || (op >= OpIstore && op <= OpAstore):
		return 1
	case op == OpSipush || op == OpLdcW || op == OpLdc2W || op == OpIinc ||
		(op >= OpIfeq && op <= OpJsr) || (op >= OpGetstatic && op <= OpInvokestatic) ||
		op == OpNew || op == OpAnewarray || op == OpCheckcast || op == OpInstanceof ||
		op == OpIfnull || op == OpIfnonnull:
		return 2
	case op == OpMultianewarray:
		return 3
	case op == OpInvokeinterface || op == OpInvokedynamic || op == OpGotoW || op == OpJsrW:
		return 4
	default:
		return 0
	}
}
