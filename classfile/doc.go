// Package classfile implements a codec for JVM-format class files.
//
// This package contains:
//   - Structural parser and serializer for the class-file format
//   - Constant pool model with lookup and interning
//   - Code attribute codec with instruction-level decoding
//   - Opcode tables and a disassembler
//
// The model is transformation-oriented: everything the parser does not
// understand is carried as raw attribute payloads, and serializing an
// unmodified parse reproduces the input bytes.
package classfile
