package ontology

import (
	"crypto/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/cyberonlab/ontology-engine/pkg/graph"
)

// Section is one entry of the structured ontology outline: a title plus
// named subsections of ordered free-form items. It is read-mostly and
// does not participate in graph invariants (spec.md §3).
type Section struct {
	Title       string
	Subsections map[string][]string
}

// Outline is the structured ontology: integer section number -> Section.
type Outline map[int]Section

// QueryEngine is the sole entry point for reads, mutations, analytics,
// and persistence over one in-memory graph plus its companion outline.
//
// Grounded on pkg/storage/memory.go's MemoryEngine: a single
// sync.RWMutex wraps every public method (reads take RLock, mutations
// take Lock) because several operations here are multi-step even when
// the underlying graph.Store call is atomic — derived-id collision
// resolution, duplicate-relationship checks, and cascade deletes all
// need the check-then-act sequence to be indivisible at the engine
// level, not just at the store level.
type QueryEngine struct {
	mu sync.RWMutex

	store   *graph.Store
	outline Outline

	// sourcePath is the file save_changes writes back to; set by
	// LoadFromFile, empty for an engine built programmatically.
	sourcePath string

	// extra preserves unknown top-level document keys, and kgExtra
	// preserves unknown keys nested under "knowledge_graph" (e.g. the
	// "graph" sub-object), so save_changes round-trips them unchanged.
	extra   map[string]any
	kgExtra map[string]any
}

// New returns an empty QueryEngine with no nodes, edges, or outline.
func New() *QueryEngine {
	return &QueryEngine{
		store:   graph.New(),
		outline: make(Outline),
		extra:   make(map[string]any),
		kgExtra: make(map[string]any),
	}
}

var idNormalizer = regexp.MustCompile(`[^a-z0-9]+`)

// deriveID lowercases label and collapses runs of non-alphanumerics into
// a single underscore, per spec.md §3's id-derivation rule.
func deriveID(label string) string {
	id := idNormalizer.ReplaceAllString(strings.ToLower(label), "_")
	return strings.Trim(id, "_")
}

// randomSuffix returns an 8-character lowercase alphanumeric suffix used
// to disambiguate a derived id collision. Uses crypto/rand rather than
// math/rand, matching the teacher's preference for crypto/-prefixed
// packages anywhere an identifier is involved (see pkg/encryption).
func randomSuffix() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	out := make([]byte, 8)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}

func nowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
