package simdbg

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/pockees/dnSpy/pkg/cordbg"
)

// Snapshot describes a complete debuggee: the stacks of its threads
// plus the metadata tables the engine resolves tokens against.
type Snapshot struct {
	Threads  []ThreadSpec `yaml:"threads"`
	Metadata MetadataSpec `yaml:"metadata"`
}

// ThreadSpec describes one thread's stack.
type ThreadSpec struct {
	ID     int         `yaml:"id"`
	Chains []ChainSpec `yaml:"chains"`
}

// ChainSpec describes one chain, callee-most first within the thread.
type ChainSpec struct {
	// Reason is one of: none, class-init, exception-filter, security,
	// context-policy, interception, process-start, thread-start,
	// enter-managed, enter-unmanaged.
	Reason  string      `yaml:"reason"`
	Managed bool        `yaml:"managed"`
	Frames  []FrameSpec `yaml:"frames"`
}

// FrameSpec describes one frame. The capability set of the issued
// handle follows from which sections are present: an il section grants
// the IL capability, a native section the machine code capability, and
// so on. Internal and unwindable frames carry neither.
type FrameSpec struct {
	Token      uint32 `yaml:"token"`
	ClassToken uint32 `yaml:"class-token"`
	Module     string `yaml:"module"`
	StackStart uint64 `yaml:"stack-start"`
	StackEnd   uint64 `yaml:"stack-end"`

	// FailIdentity makes the identity queries (function token, stack
	// range) fail, exercising the wrapper's sentinel defaults.
	FailIdentity bool `yaml:"fail-identity"`

	Internal     bool   `yaml:"internal"`
	InternalKind uint32 `yaml:"internal-kind"`
	Unwindable   bool   `yaml:"unwindable"`

	IL         *ILSpec         `yaml:"il,omitempty"`
	Native     *NativeSpec     `yaml:"native,omitempty"`
	TypeParams []TypeParamSpec `yaml:"type-params,omitempty"`
}

// ILSpec describes the IL view of a frame.
type ILSpec struct {
	IP       uint32 `yaml:"ip"`
	Mapping  string `yaml:"mapping"`
	BodySize uint32 `yaml:"body-size"`

	Args   []SlotSpec `yaml:"args"`
	Locals []SlotSpec `yaml:"locals"`

	// Extended grants the multiple code representation capability.
	Extended      bool       `yaml:"extended"`
	ReJITBodySize uint32     `yaml:"rejit-body-size"`
	ReJITLocals   []SlotSpec `yaml:"rejit-locals"`
}

// NativeSpec describes the machine code view of a frame. Code is the
// hex encoded machine code of the method.
type NativeSpec struct {
	IP      uint32 `yaml:"ip"`
	Address uint64 `yaml:"address"`
	Code    string `yaml:"code"`
}

func (n *NativeSpec) codeBytes() ([]byte, error) {
	s := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\t' {
			return -1
		}
		return r
	}, n.Code)
	if s == "" {
		return nil, nil
	}
	code, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("bad native code: %v", err)
	}
	return code, nil
}

// SlotSpec describes one argument or local slot. Fail marks a slot the
// debuggee cannot materialize.
type SlotSpec struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
	Fail  bool   `yaml:"fail"`
}

// TypeParamSpec describes one generic argument, type-level arguments
// first in the list.
type TypeParamSpec struct {
	Name  string `yaml:"name"`
	Token uint32 `yaml:"token"`
	Fail  bool   `yaml:"fail"`
}

// MetadataSpec describes the metadata tables of the debuggee's
// modules.
type MetadataSpec struct {
	Modules []ModuleSpec `yaml:"modules"`
}

// ModuleSpec describes one module's metadata.
type ModuleSpec struct {
	Name    string      `yaml:"name"`
	Types   []TokenSpec `yaml:"types"`
	Methods []TokenSpec `yaml:"methods"`
}

// TokenSpec describes one type or method row: its display name and how
// many generic parameters it declares directly.
type TokenSpec struct {
	Token         uint32 `yaml:"token"`
	Name          string `yaml:"name"`
	GenericParams int    `yaml:"generic-params"`
}

// Load reads a YAML snapshot file and builds a debuggee from it.
func Load(path string) (*Debuggee, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := yaml.UnmarshalStrict(data, &snap); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return New(&snap)
}

// ParseMapping converts a snapshot mapping name to its MappingResult.
// The empty string means exact.
func ParseMapping(s string) (cordbg.MappingResult, error) {
	switch s {
	case "", "exact":
		return cordbg.MappingExact, nil
	case "approximate":
		return cordbg.MappingApproximate, nil
	case "prolog":
		return cordbg.MappingProlog, nil
	case "epilog":
		return cordbg.MappingEpilog, nil
	case "no-info":
		return cordbg.MappingNoInfo, nil
	case "unmapped":
		return cordbg.MappingUnmappedAddress, nil
	case "after-tail-call":
		return cordbg.MappingAfterTailCall, nil
	}
	return 0, fmt.Errorf("unknown mapping %q", s)
}

func parseChainReason(s string) (cordbg.ChainReason, error) {
	switch s {
	case "", "none":
		return cordbg.ChainNone, nil
	case "class-init":
		return cordbg.ChainClassInit, nil
	case "exception-filter":
		return cordbg.ChainExceptionFilter, nil
	case "security":
		return cordbg.ChainSecurity, nil
	case "context-policy":
		return cordbg.ChainContextPolicy, nil
	case "interception":
		return cordbg.ChainInterception, nil
	case "process-start":
		return cordbg.ChainProcessStart, nil
	case "thread-start":
		return cordbg.ChainThreadStart, nil
	case "enter-managed":
		return cordbg.ChainEnterManaged, nil
	case "enter-unmanaged":
		return cordbg.ChainEnterUnmanaged, nil
	}
	return 0, fmt.Errorf("unknown chain reason %q", s)
}
