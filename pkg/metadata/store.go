// Package metadata resolves metadata tokens to the information the
// frame layer and its callers need: generic parameter counts and
// display names. Lookups go through a Reader, which in a live setup
// crosses the engine/debuggee boundary, so results are memoized in an
// LRU cache keyed by (module, token). Method names are additionally
// indexed in a trie for prefix completion.
package metadata

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/derekparker/trie"
	lru "github.com/hashicorp/golang-lru"

	"github.com/pockees/dnSpy/pkg/cordbg"
	"github.com/pockees/dnSpy/pkg/logflags"
)

// Reader is the backing source of metadata rows. Implementations may
// be remote and slow; the Store caches on top of them.
type Reader interface {
	// GenericParamCount returns the number of generic parameters
	// declared directly on the type or method token.
	GenericParamCount(module string, token uint32) (int, error)
	// TokenName returns the display name of a type or method token.
	TokenName(module string, token uint32) (string, bool)
	// MethodNames returns every known fully qualified method name, for
	// completion indexing.
	MethodNames() []string
}

// ErrUnknownToken is returned by readers for tokens absent from the
// metadata tables.
var ErrUnknownToken = errors.New("unknown metadata token")

const defaultCacheSize = 512

// Store implements cordbg.Metadata and dndbg.NameResolver on top of a
// Reader.
type Store struct {
	reader Reader
	counts *lru.Cache
	names  *trie.Trie
	logger logflags.Logger

	mu sync.Mutex
}

type countKey struct {
	module string
	token  uint32
}

// NewStore builds a Store over reader. cacheSize <= 0 selects the
// default size.
func NewStore(reader Reader, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	names := trie.New()
	for _, name := range reader.MethodNames() {
		names.Add(name, nil)
	}
	return &Store{
		reader: reader,
		counts: cache,
		names:  names,
		logger: logflags.MetadataLogger(),
	}, nil
}

// GenericParamCount implements cordbg.Metadata.
func (s *Store) GenericParamCount(module cordbg.Module, token uint32) (int, error) {
	if module == nil {
		return 0, errors.New("nil module")
	}
	name, st := module.Name()
	if st.Failed() {
		return 0, fmt.Errorf("module name query failed: status %#x", uint32(st))
	}
	key := countKey{module: name, token: token}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.counts.Get(key); ok {
		return n.(int), nil
	}
	n, err := s.reader.GenericParamCount(name, token)
	if err != nil {
		return 0, err
	}
	s.counts.Add(key, n)
	if logflags.Metadata() {
		s.logger.Debugf("generic param count %s/%#x = %d", name, token, n)
	}
	return n, nil
}

// MethodName implements dndbg.NameResolver.
func (s *Store) MethodName(module cordbg.Module, token uint32) (string, bool) {
	if module == nil {
		return "", false
	}
	name, st := module.Name()
	if st.Failed() {
		return "", false
	}
	return s.reader.TokenName(name, token)
}

// Complete returns every indexed method name starting with prefix,
// sorted.
func (s *Store) Complete(prefix string) []string {
	matches := s.names.PrefixSearch(prefix)
	sort.Strings(matches)
	return matches
}
