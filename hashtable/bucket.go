package hashtable

import (
	"github.com/google/btree"

	"github.com/james-card/cnext/descriptor"
)

const bucketDegree = 8

// bucket is one slot of the table array: a balanced ordered tree of entries
// plus the in-bucket endpoints of the intrusive chain. The tree owns key
// ordering; the chain is maintained incrementally on every mutation so that
// the table-global traversal never has to consult the trees.
type bucket struct {
	tree       *btree.BTreeG[*Entry]
	head, tail *Entry
}

func newBucket(keyType *descriptor.Type) *bucket {
	cmp := keyType.Compare
	return &bucket{
		tree: btree.NewG(bucketDegree, func(a, b *Entry) bool {
			return cmp(a.key, b.key) < 0
		}),
	}
}

func (b *bucket) len() int { return b.tree.Len() }

// get returns the entry for key, or nil.
func (b *bucket) get(key any) *Entry {
	e, ok := b.tree.Get(&Entry{key: key})
	if !ok {
		return nil
	}
	return e
}

// insert adds e to the bucket, splicing it into the chain between its
// in-bucket neighbors. When a neighbor's outward link crosses into an
// adjacent bucket the splice preserves it, so only a bucket that was empty
// needs table-level linking; insert reports that case via needsLink.
//
// If the key already exists the existing entry is returned instead and e is
// discarded; the caller decides how to merge.
func (b *bucket) insert(e *Entry) (inserted *Entry, existing *Entry, needsLink bool) {
	if prior := b.get(e.key); prior != nil {
		return nil, prior, false
	}
	b.tree.ReplaceOrInsert(e)

	// Find the in-bucket predecessor of e.
	var pred *Entry
	b.tree.DescendLessOrEqual(e, func(cur *Entry) bool {
		if cur == e {
			return true
		}
		pred = cur
		return false
	})

	switch {
	case pred != nil:
		// Splice after pred; pred.next may live in a neighboring bucket.
		e.next = pred.next
		e.prev = pred
		if e.next != nil {
			e.next.prev = e
		}
		pred.next = e
	case b.head != nil:
		// e is the new in-bucket head; splice before the old one.
		e.prev = b.head.prev
		e.next = b.head
		if e.prev != nil {
			e.prev.next = e
		}
		b.head.prev = e
	default:
		// Bucket was empty. The table links e to neighboring buckets.
		needsLink = true
	}

	if b.head == nil || b.head == e.next {
		b.head = e
	}
	if b.tail == nil || b.tail == e.prev {
		b.tail = e
	}
	return e, nil, needsLink
}

// remove deletes the entry for key, bridging the chain across it. The
// returned entry is already unlinked; nil means the key was not present.
func (b *bucket) remove(key any) *Entry {
	e, ok := b.tree.Delete(&Entry{key: key})
	if !ok {
		return nil
	}
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if b.head == e {
		if e.next != nil && b.tree.Has(e.next) {
			b.head = e.next
		} else {
			b.head = nil
		}
	}
	if b.tail == e {
		if e.prev != nil && b.tree.Has(e.prev) {
			b.tail = e.prev
		} else {
			b.tail = nil
		}
	}
	e.prev, e.next = nil, nil
	return e
}
