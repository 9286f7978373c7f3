// Package starbind exposes frame inspection to starlark scripts. A
// script sees the stack through a handful of builtins; everything
// degrades the way the frame layer does, returning None where a handle
// could not be read.
package starbind

import (
	"fmt"
	"io"
	"os"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"

	"github.com/pockees/dnSpy/pkg/dndbg"
	"github.com/pockees/dnSpy/pkg/metadata"
)

const (
	framesBuiltinName     = "frames"
	frameIPBuiltinName    = "frame_ip"
	localsBuiltinName     = "locals"
	argsBuiltinName       = "args"
	typeParamsBuiltinName = "type_params"
	resumeBuiltinName     = "resume"
	readFileBuiltinName   = "read_file"
)

func init() {
	resolve.AllowNestedDef = true
	resolve.AllowLambda = true
	resolve.AllowFloat = true
	resolve.AllowSet = true
	resolve.AllowBitwise = true
	resolve.AllowRecursion = true
	resolve.AllowGlobalReassign = true
}

// Context is what a script operates on: the frame inspection session.
type Context interface {
	Frames() []*dndbg.Frame
	Resume()
	Store() *metadata.Store
}

// Env is the environment used to evaluate starlark scripts.
type Env struct {
	env    starlark.StringDict
	thread *starlark.Thread

	ctx Context
	out io.Writer
}

// New creates a new starlark binding environment.
func New(ctx Context, out io.Writer) *Env {
	env := &Env{ctx: ctx, out: out}
	env.env = starlark.StringDict{}

	env.env[framesBuiltinName] = starlark.NewBuiltin(framesBuiltinName, func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		frames := env.ctx.Frames()
		elems := make([]starlark.Value, len(frames))
		for i, f := range frames {
			elems[i] = frameValue(f, env.ctx.Store())
		}
		return starlark.NewList(elems), nil
	})

	env.env[frameIPBuiltinName] = starlark.NewBuiltin(frameIPBuiltinName, func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		f, err := frameArg(thread, env.ctx, args)
		if err != nil {
			return nil, err
		}
		if !f.IsILFrame() {
			return starlark.None, nil
		}
		ip := f.ILIP()
		d := starlark.NewDict(2)
		d.SetKey(starlark.String("offset"), starlark.MakeUint64(uint64(ip.Offset)))
		d.SetKey(starlark.String("mapping"), starlark.String(ip.Mapping.String()))
		return d, nil
	})

	env.env[localsBuiltinName] = starlark.NewBuiltin(localsBuiltinName, func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		f, err := frameArg(thread, env.ctx, args)
		if err != nil {
			return nil, err
		}
		return valuesList(f.ILLocals()), nil
	})

	env.env[argsBuiltinName] = starlark.NewBuiltin(argsBuiltinName, func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		f, err := frameArg(thread, env.ctx, args)
		if err != nil {
			return nil, err
		}
		return valuesList(f.ILArguments()), nil
	})

	env.env[typeParamsBuiltinName] = starlark.NewBuiltin(typeParamsBuiltinName, func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		f, err := frameArg(thread, env.ctx, args)
		if err != nil {
			return nil, err
		}
		handles := f.TypeParameters().Slice()
		elems := make([]starlark.Value, len(handles))
		for i, th := range handles {
			if th == nil {
				elems[i] = starlark.None
				continue
			}
			elems[i] = starlark.String(th.Name())
		}
		return starlark.NewList(elems), nil
	})

	env.env[resumeBuiltinName] = starlark.NewBuiltin(resumeBuiltinName, func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		env.ctx.Resume()
		return starlark.None, nil
	})

	env.env[readFileBuiltinName] = starlark.NewBuiltin(readFileBuiltinName, func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(args) != 1 {
			return nil, decorateError(thread, fmt.Errorf("wrong number of arguments"))
		}
		path, ok := args[0].(starlark.String)
		if !ok {
			return nil, decorateError(thread, fmt.Errorf("argument of read_file was not a string"))
		}
		buf, err := os.ReadFile(string(path))
		if err != nil {
			return nil, decorateError(thread, err)
		}
		return starlark.String(string(buf)), nil
	})

	env.thread = &starlark.Thread{
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(env.out, msg)
		},
	}

	return env
}

// ExecFile executes a starlark script.
func (env *Env) ExecFile(path string) error {
	_, err := starlark.ExecFile(env.thread, path, nil, env.env)
	return err
}

// Exec executes starlark source from a string. Used by tests and by
// one-off expressions.
func (env *Env) Exec(name, source string) error {
	_, err := starlark.ExecFile(env.thread, name, source, env.env)
	return err
}

func frameArg(thread *starlark.Thread, ctx Context, args starlark.Tuple) (*dndbg.Frame, error) {
	if len(args) != 1 {
		return nil, decorateError(thread, fmt.Errorf("wrong number of arguments"))
	}
	iv, ok := args[0].(starlark.Int)
	if !ok {
		return nil, decorateError(thread, fmt.Errorf("frame index is not an integer"))
	}
	i, ok := iv.Int64()
	if !ok {
		return nil, decorateError(thread, fmt.Errorf("frame index out of range"))
	}
	frames := ctx.Frames()
	if i < 0 || i >= int64(len(frames)) {
		return nil, decorateError(thread, fmt.Errorf("frame index %d out of range", i))
	}
	return frames[i], nil
}

func frameValue(f *dndbg.Frame, resolver dndbg.NameResolver) starlark.Value {
	d := starlark.NewDict(6)
	d.SetKey(starlark.String("token"), starlark.MakeUint64(uint64(f.FunctionToken())))
	start, end := f.StackRange()
	d.SetKey(starlark.String("stack_start"), starlark.MakeUint64(start))
	d.SetKey(starlark.String("stack_end"), starlark.MakeUint64(end))
	d.SetKey(starlark.String("il"), starlark.Bool(f.IsILFrame()))
	d.SetKey(starlark.String("native"), starlark.Bool(f.IsNativeFrame()))
	d.SetKey(starlark.String("internal"), starlark.Bool(f.IsInternalFrame()))
	if resolver != nil {
		if fn := f.Function(); fn != nil {
			if name, ok := resolver.MethodName(fn.Module(), fn.Token()); ok {
				d.SetKey(starlark.String("name"), starlark.String(name))
			}
		}
	}
	return d
}

func valuesList(it *dndbg.ValueIter) *starlark.List {
	var elems []starlark.Value
	for it.Next() {
		v := it.Value()
		if v == nil {
			elems = append(elems, starlark.None)
			continue
		}
		d := starlark.NewDict(2)
		d.SetKey(starlark.String("type"), starlark.String(v.TypeName()))
		d.SetKey(starlark.String("value"), starlark.String(v.String()))
		elems = append(elems, d)
	}
	return starlark.NewList(elems)
}

func decorateError(thread *starlark.Thread, err error) error {
	if err == nil {
		return nil
	}
	pos := thread.CallFrame(1).Pos
	if pos.Col > 0 {
		return fmt.Errorf("%s:%d:%d: %v", pos.Filename(), pos.Line, pos.Col, err)
	}
	return fmt.Errorf("%s:%d: %v", pos.Filename(), pos.Line, err)
}
