package moniker

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Fingerprints returned for symbols without declarations.
const (
	// FingerprintUnknown keeps the historical misspelling; consumers
	// compare against it literally.
	FingerprintUnknown   = "unkown"
	FingerprintUndefined = "undefined"
	FingerprintNone      = "none"
)

// transientMarker prefixes the serialized fragments of transient symbols.
// Serialized fragment lists always start with a msgpack array header, so
// the marker cannot collide with a non-transient input.
var transientMarker = []byte("transient\x00")

// Fragment is the canonical location of one declaration.
type Fragment struct {
	_msgpack struct{} `msgpack:",as_array"`

	File  string
	Start int
	End   int
	Kind  SyntaxKind
}

func (f Fragment) less(o Fragment) bool {
	if f.File != o.File {
		return f.File < o.File
	}
	if f.Start != o.Start {
		return f.Start < o.Start
	}
	if f.End != o.End {
		return f.End < o.End
	}
	return f.Kind < o.Kind
}

// Fragments returns the sorted fragments of decls.
func Fragments(decls []Declaration) []Fragment {
	frags := make([]Fragment, len(decls))
	for i, d := range decls {
		frags[i] = Fragment{File: d.File, Start: d.Start, End: d.End, Kind: d.Kind}
	}
	sort.Slice(frags, func(i, j int) bool { return frags[i].less(frags[j]) })
	return frags
}

// HashStrategy identifies symbols by a digest of their declaration
// locations. Fingerprints are memoized per symbol, so a HashStrategy must
// only be used with a single program snapshot.
type HashStrategy struct {
	memo sync.Map // SymbolID -> string
}

var _ Strategy = (*HashStrategy)(nil)

// NewHashStrategy returns a HashStrategy with an empty memo.
func NewHashStrategy() *HashStrategy {
	return &HashStrategy{}
}

// Name implements Strategy.
func (h *HashStrategy) Name() string { return StrategyHash }

// Moniker implements Strategy. Every symbol has a fingerprint.
func (h *HashStrategy) Moniker(r Resolver, sym SymbolID) (string, bool) {
	return h.Fingerprint(r, sym), true
}

// Fingerprint returns sym's fingerprint, computing it on first use.
func (h *HashStrategy) Fingerprint(r Resolver, sym SymbolID) string {
	if v, ok := h.memo.Load(sym); ok {
		return v.(string)
	}
	fp := computeFingerprint(r, sym)
	// Concurrent writers compute the same value; keep whichever landed first.
	v, _ := h.memo.LoadOrStore(sym, fp)
	return v.(string)
}

func computeFingerprint(r Resolver, sym SymbolID) string {
	decls := r.Declarations(sym)
	if len(decls) == 0 {
		switch sym {
		case r.UnknownSymbol():
			return FingerprintUnknown
		case r.UndefinedSymbol():
			return FingerprintUndefined
		default:
			return FingerprintNone
		}
	}

	var buf bytes.Buffer
	if r.Flags(sym).Has(FlagTransient) {
		buf.Write(transientMarker)
	}
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	// Encoding plain structs into a bytes.Buffer cannot fail.
	_ = enc.Encode(Fragments(decls))

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
