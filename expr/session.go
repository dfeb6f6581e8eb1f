package expr

import (
	"log/slog"

	"github.com/cottand/symdag/dag"
	"github.com/cottand/symdag/internal/log"
	"github.com/cottand/symdag/util"
	"github.com/cottand/symdag/value"
)

// Session owns every node of one expression DAG: the per-kind tables, the
// pools their payloads live in, the weak table and the subexpression cache.
//
// A Session must only be used from one goroutine at a time.
type Session struct {
	cfg        Config
	baseLogger *slog.Logger
	logger     *slog.Logger
	cseLogger  *slog.Logger

	budget   dag.Budget
	nodes    *dag.Slab[Node]
	lists    *dag.Slab[builderList]
	addTerms *dag.Pool[AddTerm]
	intPows  *dag.Pool[IntPow]
	realPows *dag.Pool[RealPow]
	argLists *dag.Pool[*Node]

	tables    [numHashedKinds]*table
	weak      *dag.WeakTable[*Node]
	cache     *subexprCache
	predictor *dag.Predictor

	releasing dag.Stack[*Node]
	draining  bool

	// scratch buffers reused across canonicalizations
	sums     util.Stack[*sumScratch]
	products util.Stack[*prodScratch]
	hashBuf  []byte

	nextID   uint64
	builders int
	depth    int
	closed   bool

	reclaims int
}

func NewSession(cfg Config, opts ...Option) *Session {
	s := &Session{cfg: cfg, baseLogger: log.DefaultLogger}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.baseLogger.With("section", "store")
	s.cseLogger = s.baseLogger.With("section", "cse")
	s.budget.Limit = cfg.PoolWordLimit
	s.nodes = dag.NewSlab[Node](&s.budget)
	s.lists = dag.NewSlab[builderList](&s.budget)
	s.addTerms = dag.NewPool[AddTerm](&s.budget)
	s.intPows = dag.NewPool[IntPow](&s.budget)
	s.realPows = dag.NewPool[RealPow](&s.budget)
	s.argLists = dag.NewPool[*Node](&s.budget)
	for k := range s.tables {
		s.tables[k] = newTable(Kind(k), cfg.TableMinBuckets)
	}
	s.weak = dag.NewWeakTable[*Node]()
	s.cache = newSubexprCache(s, cfg.CacheCapacity)
	s.predictor = dag.NewPredictor(cfg.PredictorMaxDepth)
	return s
}

// Close tears the session down: first the subexpression cache, then the
// node tables, then the pools. Handles still alive become inert; releasing
// them afterwards does nothing.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.cache.clear()

	leaked := 0
	for _, t := range s.tables {
		leaked += t.count
		t.reset()
	}
	if leaked > 0 || s.builders > 0 {
		s.logger.Warn("session closed with live nodes", "nodes", leaked, "builders", s.builders)
	}
	s.weak.Clear()
	s.releasing.Reset()
	s.closed = true

	s.purgePools()
}

func (s *Session) purgePools() {
	s.nodes.Purge()
	s.lists.Purge()
	s.addTerms.Purge()
	s.intPows.Purge()
	s.realPows.Purge()
	s.argLists.Purge()
}

// reclaim frees whatever memory can be given back without invalidating a
// live handle. It is the single retry step before out-of-memory is fatal.
func (s *Session) reclaim() {
	s.reclaims++
	s.logger.Warn("node pools exhausted, clearing caches", "reserved_words", s.budget.Reserved())
	s.cache.clear()
	s.purgePools()
}

// Stats is a snapshot of a Session's bookkeeping.
type Stats struct {
	Live          map[Kind]int
	Buckets       map[Kind]int
	Builders      int
	WeakRefs      int
	CacheEntries  int
	CacheHits     uint64
	CacheMisses   uint64
	CacheStores   uint64
	ReservedWords int
	Reclaims      int
	// ReleaseSlots is the capacity the release stack has grown to.
	ReleaseSlots int
}

func (s *Session) Stats() Stats {
	st := Stats{
		Live:          make(map[Kind]int, len(s.tables)),
		Buckets:       make(map[Kind]int, len(s.tables)),
		Builders:      s.builders,
		WeakRefs:      s.weak.Len(),
		CacheEntries:  s.cache.len(),
		CacheHits:     s.cache.hits,
		CacheMisses:   s.cache.misses,
		CacheStores:   s.cache.stores,
		ReservedWords: s.budget.Reserved(),
		Reclaims:      s.reclaims,
		ReleaseSlots:  s.releasing.Capacity(),
	}
	for k, t := range s.tables {
		st.Live[Kind(k)] = t.count
		st.Buckets[Kind(k)] = len(t.buckets)
	}
	return st
}

// LiveNodes is the number of canonical nodes currently stored.
func (s *Session) LiveNodes() int {
	total := 0
	for _, t := range s.tables {
		total += t.count
	}
	return total
}

func (s *Session) mustAlloc(what string, alloc func() bool) {
	if alloc() {
		return
	}
	s.reclaim()
	if !alloc() {
		s.outOfMemory(what)
	}
}

func (s *Session) allocNode(kind Kind) *Node {
	var n *Node
	s.mustAlloc("node", func() (ok bool) {
		n, ok = s.nodes.New()
		return ok
	})
	s.nextID++
	n.kind = kind
	n.id = s.nextID
	n.refs = 1
	return n
}

func (s *Session) scalarValue(v value.Value) *Node {
	return s.getOrCreate(&shape{kind: KindScalar, scalar: v})
}
