package metadata

import (
	"sync"

	"github.com/pockees/dnSpy/pkg/cordbg/simdbg"
)

// MapReader is an in-memory Reader built from explicit rows. The
// snapshot loader uses it to turn a simdbg metadata section into a
// metadata source; tests build it directly.
type MapReader struct {
	mu     sync.Mutex
	counts map[rowKey]int
	names  map[rowKey]string

	// Reads counts how many times GenericParamCount hit the reader,
	// bypassing the Store cache. Tests use it to verify memoization.
	Reads int
}

type rowKey struct {
	module string
	token  uint32
}

// NewMapReader returns an empty MapReader.
func NewMapReader() *MapReader {
	return &MapReader{
		counts: make(map[rowKey]int),
		names:  make(map[rowKey]string),
	}
}

// AddToken registers a type or method row.
func (r *MapReader) AddToken(module string, token uint32, name string, genericParams int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := rowKey{module, token}
	r.counts[key] = genericParams
	r.names[key] = name
}

// GenericParamCount implements Reader.
func (r *MapReader) GenericParamCount(module string, token uint32) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reads++
	n, ok := r.counts[rowKey{module, token}]
	if !ok {
		return 0, ErrUnknownToken
	}
	return n, nil
}

// TokenName implements Reader.
func (r *MapReader) TokenName(module string, token uint32) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[rowKey{module, token}]
	return name, ok && name != ""
}

// MethodNames implements Reader. It returns the names of method rows
// (token table 0x06) only.
func (r *MapReader) MethodNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for key, name := range r.names {
		if key.token>>24 == 0x06 && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// FromSnapshot builds a MapReader from a snapshot metadata section.
func FromSnapshot(meta simdbg.MetadataSpec) *MapReader {
	r := NewMapReader()
	for _, m := range meta.Modules {
		for _, t := range m.Types {
			r.AddToken(m.Name, t.Token, t.Name, t.GenericParams)
		}
		for _, fn := range m.Methods {
			r.AddToken(m.Name, fn.Token, fn.Name, fn.GenericParams)
		}
	}
	return r
}
