package dndbg

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"github.com/pockees/dnSpy/pkg/cordbg"
)

const maxInstructionLength = 15

// AsmInstruction is one decoded machine instruction of a native frame.
type AsmInstruction struct {
	Offset uint32
	Bytes  []byte
	Text   string
}

// Disassemble decodes up to max machine instructions starting at this
// frame's current native instruction pointer, Intel syntax. It returns
// nil if the frame is not a native frame, the code bytes cannot be
// read or nothing decodes.
func (f *Frame) Disassemble(max int) []AsmInstruction {
	nf, ok := f.raw.(cordbg.NativeFrame)
	if !ok || f.caps&CapNative == 0 || max <= 0 {
		return nil
	}
	ip, st := nf.NativeIP()
	if st.Failed() {
		return nil
	}
	mem, st := nf.CodeBytes(ip, max*maxInstructionLength)
	if st.Failed() || len(mem) == 0 {
		return nil
	}

	var out []AsmInstruction
	offset := ip
	for len(mem) > 0 && len(out) < max {
		inst, err := x86asm.Decode(mem, 64)
		if err != nil {
			// Undecodable byte: emit it as data and resync on the next.
			out = append(out, AsmInstruction{Offset: offset, Bytes: mem[:1], Text: fmt.Sprintf("db %#02x", mem[0])})
			mem = mem[1:]
			offset++
			continue
		}
		out = append(out, AsmInstruction{
			Offset: offset,
			Bytes:  mem[:inst.Len],
			Text:   x86asm.IntelSyntax(inst, uint64(offset), nil),
		})
		mem = mem[inst.Len:]
		offset += uint32(inst.Len)
	}
	return out
}

func (inst AsmInstruction) String() string {
	return fmt.Sprintf("0x%04x: %s", inst.Offset, inst.Text)
}
