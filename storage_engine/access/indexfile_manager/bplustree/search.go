package bplus

import (
	"bptreeidx/storage_engine/page"
	"bptreeidx/storage_engine/rid"
	"fmt"
)

// childIndex returns the index of the child an internal node would
// descend into to find key: the first slot whose key is strictly greater
// than the search key, or the last live child if key is >= every
// separator in the node.
func childIndex(n *Node, key int32) int {
	numKeys := n.NumKeys()
	for i := 0; i < numKeys; i++ {
		if key < n.keys[i] {
			return i
		}
	}
	return numKeys
}

// leafSlot returns the index of the first key >= the search key within a
// leaf's live slots, and whether that slot is an exact match. When no live
// key is >= key, it returns NumKeys() (the insertion point at the end).
func leafSlot(n *Node, key int32) (idx int, exact bool) {
	numKeys := n.NumKeys()
	for i := 0; i < numKeys; i++ {
		if n.keys[i] == key {
			return i, true
		}
		if n.keys[i] > key {
			return i, false
		}
	}
	return numKeys, false
}

// descendToLeaf walks from the root down to the leaf that would contain
// key, fetching (and releasing) every internal node along the way. It
// returns the leaf node and its still-pinned backing page.
func (t *BPlusTree) descendToLeaf(key int32) (*Node, *page.Page, error) {
	if t.meta.RootPageID == InvalidPageID {
		return nil, nil, fmt.Errorf("descendToLeaf: tree has no root")
	}

	id := t.meta.RootPageID
	for {
		n, pg, err := t.fetchNode(id)
		if err != nil {
			return nil, nil, err
		}

		if n.kind == KindLeaf {
			return n, pg, nil
		}

		next := n.children[childIndex(n, key)]
		t.releaseNode(pg, false)
		if next == InvalidPageID {
			return nil, nil, fmt.Errorf("descendToLeaf: internal node %d has no child for key %d", n.pageID, key)
		}
		id = next
	}
}

// FindKey performs a point lookup, returning the RecordID stored under key.
func (t *BPlusTree) FindKey(key int32) (rid.RecordID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf, pg, err := t.descendToLeaf(key)
	if err != nil {
		return rid.RecordID{}, fmt.Errorf("FindKey: %w", err)
	}
	defer t.releaseNode(pg, false)

	idx, exact := leafSlot(leaf, key)
	if !exact {
		return rid.RecordID{}, ErrNoSuchKeyFound
	}
	return leaf.rids[idx], nil
}
