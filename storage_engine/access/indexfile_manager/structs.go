package indexfile

import (
	bplus "bptreeidx/storage_engine/access/indexfile_manager/bplustree"
	"bptreeidx/storage_engine/bufferpool"
	diskmanager "bptreeidx/storage_engine/disk_manager"
	"sync"
)

// IndexFileManager is the open-once, per-relation-attribute cache in
// front of the bplus package's Open/Close lifecycle: at most one
// *bplus.BPlusTree is ever live per (relationName, attrByteOffset) pair,
// keyed by the same "<relationName>.<attrByteOffset>" name bplus.Open
// derives for the on-disk file itself.
type IndexFileManager struct {
	baseDir     string                      // e.g., /data/mydb/indexes
	indexes     map[string]*bplus.BPlusTree // indexName → cached B+ tree
	bufferPool  *bufferpool.BufferPool      // ← shared with heap files
	diskManager *diskmanager.DiskManager    // ← shared with heap files
	mu          sync.RWMutex
}
