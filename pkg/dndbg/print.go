package dndbg

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pockees/dnSpy/pkg/cordbg"
)

// FormatFlags controls what a Formatter includes in a frame's textual
// rendering.
type FormatFlags uint32

const (
	// ShowModuleNames prefixes the method name with its module.
	ShowModuleNames FormatFlags = 1 << iota
	// ShowGenericArguments appends the method's generic arguments.
	ShowGenericArguments
	// ShowOffsets appends the IL and native instruction pointers.
	ShowOffsets
	// ShowTokens appends the method's metadata token.
	ShowTokens

	// FormatDefault is what String uses.
	FormatDefault = ShowGenericArguments | ShowOffsets
)

// NameResolver turns a metadata token into a display name. The
// metadata store implements it; a Formatter works without one by
// falling back to raw tokens.
type NameResolver interface {
	MethodName(module cordbg.Module, token uint32) (string, bool)
}

// Formatter renders frames as text. The rendering is a collaborator
// contract: the frame layer ships a plain implementation and callers
// can inject richer ones (e.g. one backed by an expression evaluator).
type Formatter interface {
	WriteFrame(w io.Writer, f *Frame, flags FormatFlags) error
}

type frameFormatter struct {
	resolver NameResolver
}

// NewFormatter returns the plain frame formatter. resolver can be nil,
// in which case methods render as raw metadata tokens.
func NewFormatter(resolver NameResolver) Formatter {
	return &frameFormatter{resolver: resolver}
}

func (ff *frameFormatter) WriteFrame(w io.Writer, f *Frame, flags FormatFlags) error {
	switch {
	case f.IsInternalFrame():
		_, err := io.WriteString(w, "[internal frame]")
		return err
	case f.IsRuntimeUnwindableFrame():
		_, err := io.WriteString(w, "[runtime unwindable frame]")
		return err
	}

	var buf bytes.Buffer

	name := ""
	if ff.resolver != nil {
		if fn := f.Function(); fn != nil {
			if n, ok := ff.resolver.MethodName(fn.Module(), fn.Token()); ok {
				name = n
			}
		}
	}
	if flags&ShowModuleNames != 0 {
		if fn := f.Function(); fn != nil {
			if module := fn.Module(); module != nil {
				if mname, st := module.Name(); !st.Failed() && mname != "" {
					buf.WriteString(mname)
					buf.WriteByte('!')
				}
			}
		}
	}
	if name != "" {
		buf.WriteString(name)
	} else {
		fmt.Fprintf(&buf, "method_%08X", f.FunctionToken())
	}

	if flags&ShowGenericArguments != 0 {
		writeGenericArguments(&buf, f)
	}
	if flags&ShowOffsets != 0 {
		if f.IsILFrame() {
			ip := f.ILIP()
			fmt.Fprintf(&buf, " @ IL_%04X", ip.Offset)
			if !ip.IsExact() {
				fmt.Fprintf(&buf, " (%s)", ip.Mapping)
			}
		} else if f.IsNativeFrame() {
			fmt.Fprintf(&buf, " @ native+0x%X", f.NativeIP())
		}
	}
	if flags&ShowTokens != 0 {
		fmt.Fprintf(&buf, " [%08X]", f.FunctionToken())
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// writeGenericArguments renders the flat generic argument list in
// enumeration order, type-level arguments first. Slots that failed to
// materialize render as "?".
func writeGenericArguments(buf *bytes.Buffer, f *Frame) {
	it := f.TypeParameters()
	if it.Count() == 0 {
		return
	}
	buf.WriteByte('<')
	first := true
	for it.Next() {
		if !first {
			buf.WriteString(", ")
		}
		first = false
		th := it.TypeHandle()
		if th == nil {
			buf.WriteByte('?')
			continue
		}
		if name := th.Name(); name != "" {
			buf.WriteString(name)
		} else {
			fmt.Fprintf(buf, "type_%08X", th.Token())
		}
	}
	buf.WriteByte('>')
}

// WriteText renders the frame through fmtr. A nil fmtr uses the plain
// formatter without a name resolver.
func (f *Frame) WriteText(w io.Writer, fmtr Formatter, flags FormatFlags) error {
	if fmtr == nil {
		fmtr = NewFormatter(nil)
	}
	return fmtr.WriteFrame(w, f, flags)
}

func (f *Frame) String() string {
	var buf bytes.Buffer
	if err := f.WriteText(&buf, nil, FormatDefault); err != nil {
		return fmt.Sprintf("method_%08X", f.funcToken)
	}
	return buf.String()
}
