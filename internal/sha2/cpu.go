package sha2

import "golang.org/x/sys/cpu"

// hasVectorSupport reports whether the CPU exposes the byte-shuffle-capable
// 128-bit vector extension (SSSE3-class) the batched four-block SHA-256
// transform is modeled on. golang.org/x/sys/cpu resolves cpu.X86 to all-false
// on non-x86 targets, so this degrades to the scalar-only path everywhere
// else.
func hasVectorSupport() bool {
	return cpu.X86.HasSSSE3 || cpu.X86.HasAVX2
}
