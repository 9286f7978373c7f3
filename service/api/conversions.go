package api

import (
	"fmt"

	"github.com/pockees/dnSpy/pkg/dndbg"
)

// ConvertFrame converts a frame wrapper to its wire representation.
// resolver may be nil, in which case Function falls back to a
// method_<token> placeholder.
func ConvertFrame(f *dndbg.Frame, resolver dndbg.NameResolver) Frame {
	if f == nil {
		return Frame{}
	}
	out := Frame{
		ID:            f.HandleID(),
		FunctionToken: f.FunctionToken(),
		ILFrame:       f.IsILFrame(),
		NativeFrame:   f.IsNativeFrame(),
		JITCompiled:   f.IsJITCompiledFrame(),
		Internal:      f.IsInternalFrame(),
		Unwindable:    f.IsRuntimeUnwindableFrame(),
		Neutered:      f.IsNeutered(),
	}
	out.StackStart, out.StackEnd = f.StackRange()

	if out.ILFrame {
		ip := f.ILIP()
		out.ILOffset = ip.Offset
		out.ILMapping = ip.Mapping.String()
	}
	if out.NativeFrame {
		out.NativeIP = f.NativeIP()
	}

	out.Module = moduleName(f)
	out.Function = functionName(f, resolver)

	for it := f.TypeParameters(); it.Next(); {
		tp := it.TypeHandle()
		if tp == nil {
			out.GenericArgs = append(out.GenericArgs, "?")
			continue
		}
		out.GenericArgs = append(out.GenericArgs, tp.Name())
	}
	return out
}

// ConvertChain converts a chain and all of its frames.
func ConvertChain(c *dndbg.Chain, resolver dndbg.NameResolver) Chain {
	if c == nil {
		return Chain{}
	}
	out := Chain{
		ID:      c.HandleID(),
		Reason:  c.Reason().String(),
		Managed: c.IsManaged(),
	}
	out.StackStart, out.StackEnd = c.StackRange()
	for it := c.Frames(); it.Next(); {
		out.Frames = append(out.Frames, ConvertFrame(it.Frame(), resolver))
	}
	return out
}

// ConvertValues converts an argument or local iterator to wire slots,
// preserving index alignment for failed fetches.
func ConvertValues(it *dndbg.ValueIter) []Variable {
	if it == nil {
		return nil
	}
	vars := make([]Variable, 0, it.Count())
	for i := 0; it.Next(); i++ {
		v := it.Value()
		if v == nil {
			vars = append(vars, Variable{Index: i, Unavailable: true})
			continue
		}
		vars = append(vars, Variable{Index: i, Type: v.TypeName(), Value: v.String()})
	}
	return vars
}

func moduleName(f *dndbg.Frame) string {
	fn := f.Function()
	if fn == nil {
		return ""
	}
	mod := fn.Module()
	if mod == nil {
		return ""
	}
	name, st := mod.Name()
	if st.Failed() {
		return ""
	}
	return name
}

func functionName(f *dndbg.Frame, resolver dndbg.NameResolver) string {
	if f.IsInternalFrame() || f.IsRuntimeUnwindableFrame() {
		return ""
	}
	token := f.FunctionToken()
	if token == 0 {
		return ""
	}
	if resolver != nil {
		if fn := f.Function(); fn != nil {
			if name, ok := resolver.MethodName(fn.Module(), token); ok {
				return name
			}
		}
	}
	return fmt.Sprintf("method_%08X", token)
}
