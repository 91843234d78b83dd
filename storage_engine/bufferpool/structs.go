package bufferpool

import (
	diskmanager "bptreeidx/storage_engine/disk_manager"
	"bptreeidx/storage_engine/page"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// ############################################# BUFFER POOL #############################################

// BufferPool manages cached pages in memory with LRU eviction. It is the
// buffer manager collaborator of §6 — the index file pages and (when a
// relation is being scanned for bulk load) the heap pages both pass
// through it.
type BufferPool struct {
	pages       map[int64]*page.Page // pageID -> Page
	capacity    int
	diskManager *diskmanager.DiskManager
	hotCache    *ristretto.Cache[int64, []byte] // read-through snapshot of recently evicted pages
	accessOrder []int64                         // LRU tracking: most recently used at end
	mu          sync.Mutex
}

// BufferPoolStats reports buffer pool occupancy, useful for diagnostics.
type BufferPoolStats struct {
	TotalPages  int
	PinnedPages int
	DirtyPages  int
	Capacity    int
}
