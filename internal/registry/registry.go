package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/wirecall/internal/protocol"
)

var (
	ErrFunctionNotRegistered = errors.New("registry: function not registered")
	ErrCallNotRegistered     = errors.New("registry: call not registered")
	ErrArityMismatch         = errors.New("registry: arity mismatch")
	ErrDuplicateKey          = errors.New("registry: duplicate key")
	ErrInvalidKey            = errors.New("registry: invalid key")
	ErrNotBound              = errors.New("registry: function has no implementation")
)

// Key is the symbolic identity of a remote-callable function. It never goes
// on the wire; the registry position does.
type Key string

// Invoker decodes positional argument tokens, calls the bound function and
// encodes its result.
type Invoker func(args []string) (protocol.Response, error)

// Entry is one registry slot. Build entries with the typed handles
// (Func0..Func4, Proc0..Proc4).
type Entry struct {
	Key    Key
	Params []protocol.Kind
	Result protocol.Kind
	invoke Invoker
}

// Bound reports whether the entry carries an implementation.
func (e Entry) Bound() bool {
	return e.invoke != nil
}

// Invoke runs the entry's invoker against the argument tokens.
func (e Entry) Invoke(args []string) (protocol.Response, error) {
	if e.invoke == nil {
		return protocol.Response{}, fmt.Errorf("%w: %s", ErrNotBound, e.Key)
	}
	if len(args) != len(e.Params) {
		return protocol.Response{}, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArityMismatch, e.Key, len(e.Params), len(args))
	}
	return e.invoke(args)
}

// Descriptor is the read-only metadata view of one entry.
type Descriptor struct {
	Index  int             `json:"index"`
	Key    Key             `json:"key"`
	Params []protocol.Kind `json:"params"`
	Result protocol.Kind   `json:"result"`
	Bound  bool            `json:"bound"`
}

// Signature renders the descriptor as "key(p1,p2) result".
func (d Descriptor) Signature() string {
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s(%s) %s", d.Key, strings.Join(params, ","), d.Result)
}

// Registry is an immutable ordered list of entries. Both peers must build it
// from the same entries in the same order.
type Registry struct {
	entries []Entry
}

// New builds a registry from entries in wire order.
func New(entries ...Entry) (*Registry, error) {
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if err := ValidateKey(e.Key); err != nil {
			return nil, fmt.Errorf("entry[%d]: %w", i, err)
		}
		for _, prev := range out {
			if prev.Key == e.Key {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, e.Key)
			}
		}
		e.Params = append([]protocol.Kind(nil), e.Params...)
		out = append(out, e)
	}
	return &Registry{entries: out}, nil
}

// MustNew is New for package-level registries.
func MustNew(entries ...Entry) *Registry {
	r, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Resolve returns the wire index of key.
func (r *Registry) Resolve(key Key) (int, error) {
	for i, e := range r.entries {
		if e.Key == key {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrFunctionNotRegistered, key)
}

// Entry returns the entry at a wire index.
func (r *Registry) Entry(index uint64) (Entry, error) {
	if index >= uint64(len(r.entries)) {
		return Entry{}, fmt.Errorf("%w: index %d outside [0,%d)", ErrCallNotRegistered, index, len(r.entries))
	}
	return r.entries[index], nil
}

// Dispatch invokes the entry addressed by call.
func (r *Registry) Dispatch(call protocol.Call) (protocol.Response, error) {
	e, err := r.Entry(call.Index)
	if err != nil {
		return protocol.Response{}, err
	}
	return e.Invoke(call.Args)
}

// Descriptors returns metadata in wire order.
func (r *Registry) Descriptors() []Descriptor {
	list := make([]Descriptor, 0, len(r.entries))
	for i, e := range r.entries {
		list = append(list, Descriptor{
			Index:  i,
			Key:    e.Key,
			Params: append([]protocol.Kind(nil), e.Params...),
			Result: e.Result,
			Bound:  e.Bound(),
		})
	}
	return list
}

// ValidateKey checks key format: lowercase letters, digits and single
// '.', '-' or '_' separators that neither start nor end the key.
func ValidateKey(key Key) error {
	id := string(key)
	if id == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return fmt.Errorf("%w: %q", ErrInvalidKey, id)
		}
		if (i == 0 || i == len(id)-1) && isSep {
			return fmt.Errorf("%w: %q", ErrInvalidKey, id)
		}
		if isSep && lastSep {
			return fmt.Errorf("%w: %q", ErrInvalidKey, id)
		}
		lastSep = isSep
	}
	return nil
}
