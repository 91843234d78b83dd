package bufferpool

import (
	diskmanager "bptreeidx/storage_engine/disk_manager"
	"bptreeidx/storage_engine/page"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

/*
This file is the main file of the bufferpool.
The buffer pool works on an LRU based caching mechanism and holds access to
the disk manager for flushing cached pages to disk; on a cache miss the
disk manager loads the page from disk and adds it to the cache for future
access.

Pages are identified by globalPageID.

A small ristretto hot-page cache sits in front of the disk read path: when
a clean page is evicted from the LRU map its bytes are kept in ristretto,
so a page that cycles back in soon after eviction (a hot root or
upper-level internal node, typically) is reconstructed from memory instead
of going back to the disk manager. It is strictly a read-through
accelerator — the LRU map remains the sole source of truth for pin counts,
and any page that becomes dirty is evicted from the hot cache immediately
so a stale snapshot can never be served.
*/

// NewBufferPool creates a new buffer pool with the given capacity.
func NewBufferPool(capacity int, diskManager *diskmanager.DiskManager) *BufferPool {
	hotCache, err := ristretto.NewCache(&ristretto.Config[int64, []byte]{
		NumCounters: int64(capacity) * 10,
		MaxCost:     int64(capacity) * page.Size,
		BufferItems: 64,
	})
	if err != nil {
		// Falling back to "no hot cache" keeps the pool correct — ristretto
		// is an accelerator, never load-bearing.
		hotCache = nil
	}

	return &BufferPool{
		pages:       make(map[int64]*page.Page, capacity),
		capacity:    capacity,
		diskManager: diskManager,
		hotCache:    hotCache,
		accessOrder: make([]int64, 0, capacity),
	}
}

// FetchPage retrieves a page from the buffer pool, loading from the hot
// cache or disk if necessary. Returns the page with pin count incremented.
func (bp *BufferPool) FetchPage(pageID int64) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if pg, exists := bp.pages[pageID]; exists {
		fmt.Printf("[BufferPool] HIT  pageID=%d pinCount=%d\n", pageID, pg.PinCount)
		bp.updateAccessOrder(pageID)
		pg.Lock()
		pg.PinCount++
		pg.Unlock()
		return pg, nil
	}

	if bp.diskManager == nil {
		return nil, fmt.Errorf("disk manager not set")
	}

	var pg *page.Page
	if bp.hotCache != nil {
		if cached, ok := bp.hotCache.Get(pageID); ok {
			fmt.Printf("[BufferPool] HOT  pageID=%d — served from hot cache\n", pageID)
			pg = diskmanager.NewPage(pageID, uint32(pageID>>32), page.Type(cached[0]))
			copy(pg.Data, cached)
		}
	}

	if pg == nil {
		fmt.Printf("[BufferPool] MISS pageID=%d — loading from disk\n", pageID)
		var err error
		pg, err = bp.diskManager.ReadPage(pageID)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d from disk: %w", pageID, err)
		}
	}

	if err := bp.addPage(pg); err != nil {
		return nil, fmt.Errorf("failed to add page to buffer pool: %w", err)
	}

	pg.Lock()
	pg.PinCount++
	pg.Unlock()

	return pg, nil
}

// NewPage asks the DiskManager for the next available page ID for the
// given file, constructs a blank Page struct entirely in RAM, marks it
// dirty so the BufferPool eventually flushes it, and pins it for the
// caller.
func (bp *BufferPool) NewPage(fileID uint32, pageType page.Type) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.diskManager == nil {
		return nil, fmt.Errorf("disk manager not set")
	}

	pageID, err := bp.diskManager.AllocatePage(fileID, pageType)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate page: %w", err)
	}

	pg := diskmanager.NewPage(pageID, fileID, pageType)
	pg.IsDirty = true

	pg.Lock()
	pg.PinCount++
	pg.Unlock()

	if err := bp.addPage(pg); err != nil {
		pg.Lock()
		pg.PinCount--
		pg.Unlock()
		return nil, fmt.Errorf("failed to add new page to buffer pool: %w", err)
	}

	return pg, nil
}

// UnpinPage decrements the pin count for a page.
func (bp *BufferPool) UnpinPage(pageID int64, isDirty bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, exists := bp.pages[pageID]
	if !exists {
		return fmt.Errorf("page %d not in buffer pool", pageID)
	}

	pg.Lock()
	defer pg.Unlock()

	if pg.PinCount > 0 {
		pg.PinCount--
	}

	if isDirty {
		pg.IsDirty = true
		if bp.hotCache != nil {
			bp.hotCache.Del(pageID)
		}
	}

	return nil
}

// FlushPage writes a specific page to disk if dirty.
func (bp *BufferPool) FlushPage(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, exists := bp.pages[pageID]
	if !exists {
		return fmt.Errorf("page %d not in buffer pool", pageID)
	}

	pg.Lock()
	defer pg.Unlock()

	if !pg.IsDirty {
		return nil
	}

	if err := bp.diskManager.WritePage(pg); err != nil {
		return fmt.Errorf("failed to flush page %d: %w", pageID, err)
	}

	pg.IsDirty = false
	return nil
}

// FlushFile writes every dirty resident page belonging to fileID to disk —
// the buffer manager contract's flushFile(file), scoped to one file rather
// than the whole pool so closing one index doesn't force-write pages still
// owned by another open file sharing this pool.
func (bp *BufferPool) FlushFile(fileID uint32) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.diskManager == nil {
		return fmt.Errorf("disk manager not set")
	}

	for pageID, pg := range bp.pages {
		if pg.FileID != fileID {
			continue
		}
		pg.Lock()
		if pg.IsDirty {
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("failed to flush page %d: %w", pageID, err)
			}
			pg.IsDirty = false
		}
		pg.Unlock()
	}

	return nil
}

// FlushAllPages writes all dirty pages of every file to disk. Durability is
// best-effort — there is no WAL backing these files.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.diskManager == nil {
		return fmt.Errorf("disk manager not set")
	}

	fmt.Printf("[BufferPool] FlushAllPages — pool size=%d\n", len(bp.pages))

	for pageID, pg := range bp.pages {
		pg.Lock()
		if pg.IsDirty {
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("failed to flush page %d: %w", pageID, err)
			}
			fmt.Printf("[BufferPool]   flushing pageID=%d\n", pageID)
			pg.IsDirty = false
		}
		pg.Unlock()
	}

	return nil
}

// addPage adds a page to the buffer pool, evicting if necessary. Assumes
// the lock is already held.
func (bp *BufferPool) addPage(pg *page.Page) error {
	if _, exists := bp.pages[pg.ID]; exists {
		bp.updateAccessOrder(pg.ID)
		return nil
	}

	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLRU(); err != nil {
			return fmt.Errorf("failed to evict page: %w", err)
		}
	}

	bp.pages[pg.ID] = pg
	bp.updateAccessOrder(pg.ID)

	return nil
}

// evictLRU evicts the least recently used unpinned page. Assumes the lock
// is already held.
func (bp *BufferPool) evictLRU() error {
	for i := 0; i < len(bp.accessOrder); i++ {
		pageID := bp.accessOrder[i]
		pg, exists := bp.pages[pageID]

		if !exists {
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			i--
			continue
		}

		pg.Lock()
		pinCount := pg.PinCount
		isDirty := pg.IsDirty

		if pinCount > 0 {
			pg.Unlock()
			continue
		}

		fmt.Printf("[BufferPool] EVICT pageID=%d dirty=%v\n", pageID, isDirty)
		if isDirty && bp.diskManager != nil {
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("failed to write page %d during eviction: %w", pageID, err)
			}
			pg.IsDirty = false
		}

		if bp.hotCache != nil {
			snapshot := make([]byte, len(pg.Data))
			copy(snapshot, pg.Data)
			bp.hotCache.Set(pageID, snapshot, int64(len(snapshot)))
		}
		pg.Unlock()

		delete(bp.pages, pageID)
		bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
		return nil
	}

	return fmt.Errorf("all pages are pinned, cannot evict")
}

// updateAccessOrder moves a page to the end of access order (most recently
// used). Assumes the lock is already held.
func (bp *BufferPool) updateAccessOrder(pageID int64) {
	for i, id := range bp.accessOrder {
		if id == pageID {
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			break
		}
	}
	bp.accessOrder = append(bp.accessOrder, pageID)
}
