package expr

// table is the hash-consing index of one node kind. Buckets are singly
// linked through Node.next.
type table struct {
	kind       Kind
	buckets    []*Node
	count      int
	minBuckets int
}

func newTable(kind Kind, minBuckets int) *table {
	size := 16
	for size < minBuckets {
		size <<= 1
	}
	return &table{kind: kind, buckets: make([]*Node, size), minBuckets: size}
}

func (t *table) slot(hash uint64) int {
	return int(hash & uint64(len(t.buckets)-1))
}

func (t *table) find(hash uint64, match func(*Node) bool) *Node {
	for n := t.buckets[t.slot(hash)]; n != nil; n = n.next {
		if n.hash == hash && match(n) {
			return n
		}
	}
	return nil
}

func (t *table) insert(n *Node) {
	if t.count+1 > len(t.buckets) {
		t.resize(2 * len(t.buckets))
	}
	i := t.slot(n.hash)
	n.next = t.buckets[i]
	t.buckets[i] = n
	t.count++
}

func (t *table) remove(n *Node) {
	i := t.slot(n.hash)
	for p := &t.buckets[i]; *p != nil; p = &(*p).next {
		if *p == n {
			*p = n.next
			n.next = nil
			t.count--
			if len(t.buckets) > t.minBuckets && t.count < len(t.buckets)/8 {
				t.resize(len(t.buckets) / 2)
			}
			return
		}
	}
	invariantf("%s node %d missing from its table", n.kind, n.id)
}

func (t *table) resize(size int) {
	old := t.buckets
	t.buckets = make([]*Node, size)
	for _, head := range old {
		for n := head; n != nil; {
			next := n.next
			i := t.slot(n.hash)
			n.next = t.buckets[i]
			t.buckets[i] = n
			n = next
		}
	}
}

func (t *table) reset() {
	t.buckets = make([]*Node, t.minBuckets)
	t.count = 0
}
