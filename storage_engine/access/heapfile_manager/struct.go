package heapfile

import (
	"bptreeidx/storage_engine/bufferpool"
	diskmanager "bptreeidx/storage_engine/disk_manager"
	"sync"
)

// HeapFile represents a single heap file on disk — one relation's worth of
// slotted pages, insert-only. It is the relation half of §6's external
// collaborators: a sequential scan over a HeapFile is what a bulk index
// build walks.
type HeapFile struct {
	fileID      uint32 // which file it is
	tableName   string // table this heap file belongs to
	diskManager *diskmanager.DiskManager
	bufferPool  *bufferpool.BufferPool
	filePath    string
	mu          sync.RWMutex
}

// HeapFileManager manages all heap files.
type HeapFileManager struct {
	baseDir     string
	files       map[uint32]*HeapFile
	tableIndex  map[string]uint32 // tableName -> fileID
	bufferPool  *bufferpool.BufferPool
	diskManager *diskmanager.DiskManager
	mu          sync.RWMutex
}
