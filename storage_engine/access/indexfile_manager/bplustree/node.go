package bplus

import (
	"bptreeidx/storage_engine/page"
	"bptreeidx/storage_engine/rid"
	"fmt"
)

// newEmptyNode builds a blank in-memory node of the given kind with every
// slot sentinel-filled: keys hold IntMax, children/RecordIDs hold their
// zero value. It does not touch disk.
func newEmptyNode(pageID PageID, kind NodeKind) *Node {
	n := &Node{pageID: pageID, kind: kind, isDirty: true}
	switch kind {
	case KindLeaf:
		n.keys = make([]int32, LeafOccupancy)
		n.rids = make([]rid.RecordID, LeafOccupancy)
		for i := range n.keys {
			n.keys[i] = IntMax
		}
	case KindInternal:
		n.keys = make([]int32, InternalOccupancy)
		n.children = make([]PageID, InternalOccupancy+1)
		for i := range n.keys {
			n.keys[i] = IntMax
		}
	}
	return n
}

// allocNode asks the BufferPool for a fresh page, pins it, and returns a
// blank node of the requested kind along with the backing page (still
// pinned — the caller is responsible for writing it back and unpinning).
func (t *BPlusTree) allocNode(kind NodeKind) (*Node, *page.Page, error) {
	pg, err := t.bufferPool.NewPage(t.fileID, page.TypeBPlusNode)
	if err != nil {
		return nil, nil, fmt.Errorf("allocNode: %w", err)
	}

	localID := PageID(t.diskManager.GetLocalPageID(pg.ID))
	n := newEmptyNode(localID, kind)
	return n, pg, nil
}

// fetchNode pins and reads the node at id, returning both the decoded node
// and its backing page (still pinned — release via releaseNode).
func (t *BPlusTree) fetchNode(id PageID) (*Node, *page.Page, error) {
	globalID, err := t.diskManager.GetGlobalPageID(t.fileID, int64(id))
	if err != nil {
		return nil, nil, fmt.Errorf("fetchNode: %w", err)
	}

	pg, err := t.bufferPool.FetchPage(globalID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetchNode: failed to fetch page %d: %w", id, err)
	}

	pg.RLock()
	n, err := deserializeNode(id, pg.Data)
	pg.RUnlock()
	if err != nil {
		t.bufferPool.UnpinPage(pg.ID, false)
		return nil, nil, fmt.Errorf("fetchNode: %w", err)
	}

	return n, pg, nil
}

// writeNode serializes n into its backing page. The page stays pinned;
// the caller still owns the matching releaseNode/UnpinPage call.
func (t *BPlusTree) writeNode(n *Node, pg *page.Page) error {
	pg.Lock()
	defer pg.Unlock()
	if err := serializeNode(n, pg.Data); err != nil {
		return fmt.Errorf("writeNode: %w", err)
	}
	pg.IsDirty = true
	return nil
}

// releaseNode unpins pg, the page backing a node. dirty should be true
// whenever the caller mutated that node since fetchNode/allocNode (and already called writeNode
// to flush that mutation into pg.Data).
func (t *BPlusTree) releaseNode(pg *page.Page, dirty bool) {
	t.bufferPool.UnpinPage(pg.ID, dirty)
}
