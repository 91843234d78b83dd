// Structure of the B+ tree index
/*
Tree
 ├── Internal Node (keys + child page ids)
 │      └── Child Internal Nodes ...
 │             └── Leaf Nodes (keys + RecordIDs + right-sibling pointer)

  - keys are int32, sorted ascending within a node
  - internal nodes: live children == live keys + 1
  - leaf nodes: RecordIDs parallel live keys
  - leaf nodes linked via rightSib for ascending range scans
  - all leaves at the same depth

Occupancy is fixed rather than counted: unused key slots hold IntMax and
unused child/RecordID slots hold the zero PageID/RecordID. A node's live
key count is the position of the first IntMax, matching the convention the
on-disk format was distilled from — no separate slot-count field.
*/
package bplus

import (
	"bptreeidx/storage_engine/bufferpool"
	diskmanager "bptreeidx/storage_engine/disk_manager"
	"bptreeidx/storage_engine/page"
	"bptreeidx/storage_engine/rid"
	"math"
	"sync"
)

// PageID is a page number local to a single index file. An index file owns
// its on-disk pages exclusively, so page numbers never need a fileID
// alongside them once inside the tree.
type PageID int32

// InvalidPageID marks an absent child, sibling, or root pointer. Node page
// numbers start at 1 (the meta page permanently occupies local page 0), so
// 0 can never collide with a real node.
const InvalidPageID PageID = 0

// MetaPageID is the fixed local page number of the index's metadata page.
const MetaPageID PageID = 0

// IntMax fills unused key slots, and the first IntMax slot marks the end of
// a node's live keys. InsertEntry does not reject a key equal to IntMax;
// such a key is written into the first unused slot and reads back as an
// empty slot, so it is not found by a lookup or a scan.
const IntMax int32 = math.MaxInt32

type NodeKind uint8

const (
	KindLeaf     NodeKind = 1
	KindInternal NodeKind = 2
)

const (
	leafHeaderSize = 12 // kind(1) + reserved(7) + rightSib(4)
	leafSlotSize   = 12 // key(4) + RecordID(8)

	// LeafOccupancy is the number of (key, RecordID) slots a leaf page holds.
	LeafOccupancy = (page.Size - leafHeaderSize) / leafSlotSize

	internalHeaderSize = 8 // kind(1) + reserved(7)
	internalSlotSize   = 4 // one int32 key or one int32 child pointer

	// InternalOccupancy is the number of separator keys an internal page
	// holds; it has InternalOccupancy+1 children.
	InternalOccupancy = (page.Size - internalHeaderSize - internalSlotSize) / (2 * internalSlotSize)
)

// Node is the in-memory form of one index page — either a leaf or an
// internal node, not both at once, but represented with one struct the
// way the rest of this package's ancestors keep a single node type.
type Node struct {
	pageID   PageID
	kind     NodeKind
	rightSib PageID          // leaf only
	keys     []int32         // leaf: LeafOccupancy slots; internal: InternalOccupancy slots
	rids     []rid.RecordID  // leaf only, parallel to keys
	children []PageID        // internal only, InternalOccupancy+1 slots

	isDirty bool
	mu      sync.RWMutex
}

// NumKeys returns the count of live keys — the offset of the first IntMax
// sentinel, or the full slot count if none is found.
func (n *Node) NumKeys() int {
	for i, k := range n.keys {
		if k == IntMax {
			return i
		}
	}
	return len(n.keys)
}

// MetaPage is the fixed-layout first page of every index file: it names
// the relation and attribute the index was built over and points at the
// current root.
type MetaPage struct {
	RelationName   string   // source relation name, truncated to metaNameLen
	AttrByteOffset int32    // fixed byte offset of the indexed attribute within a record
	AttrType       AttrType // always AttrInteger; persisted so a mismatched reopen is caught as ErrBadIndexInfo
	RootPageID     PageID
	Height         int32 // number of levels in the tree, 1 when the root is a leaf
}

// scanPhase is the state of a BPlusTree's single in-progress range scan.
type scanPhase uint8

const (
	scanIdle scanPhase = iota
	scanActive
	scanExhausted
)

// BPlusTree is a disk-resident B+ tree index over a fixed int32 record
// attribute, mapping key -> RecordID. One BPlusTree owns exactly one index
// file, identified by fileID in the shared DiskManager/BufferPool.
//
// A BPlusTree holds at most one in-progress range scan at a time: the
// scan* fields below track it, guarded by the same mu as every other tree
// operation rather than adding a second lock — mutation and scan never
// overlap on one tree.
type BPlusTree struct {
	fileID      uint32
	meta        MetaPage
	bufferPool  *bufferpool.BufferPool
	diskManager *diskmanager.DiskManager
	mu          sync.RWMutex

	scanState   scanPhase
	scanLeaf    *Node
	scanPg      *page.Page
	scanEntry   int
	scanHighVal int32
	scanHighOp  ScanOp
}
