package bufferpool

import (
	"bptreeidx/storage_engine/page"
	"fmt"

	"github.com/dustin/go-humanize"
)

/*
This file holds helper functions for the bufferpool
*/

// GetStats returns current buffer pool statistics.
func (bp *BufferPool) GetStats() BufferPoolStats {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	stats := BufferPoolStats{
		TotalPages: len(bp.pages),
		Capacity:   bp.capacity,
	}

	for _, pg := range bp.pages {
		pg.RLock()
		if pg.PinCount > 0 {
			stats.PinnedPages++
		}
		if pg.IsDirty {
			stats.DirtyPages++
		}
		pg.RUnlock()
	}

	return stats
}

// LogStats prints a human-readable summary of buffer pool occupancy.
func (bp *BufferPool) LogStats() {
	stats := bp.GetStats()
	fmt.Printf("[BufferPool] %s/%s pages resident, %d pinned, %d dirty\n",
		humanize.Comma(int64(stats.TotalPages)), humanize.Comma(int64(stats.Capacity)),
		stats.PinnedPages, stats.DirtyPages)
}

// Reset clears all pages from the buffer pool (for testing or reset).
func (bp *BufferPool) Reset() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for _, pg := range bp.pages {
		pg.Lock()
		if pg.IsDirty && bp.diskManager != nil {
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("failed to flush page during reset: %w", err)
			}
		}
		pg.Unlock()
	}

	bp.pages = make(map[int64]*page.Page, bp.capacity)
	bp.accessOrder = make([]int64, 0, bp.capacity)

	return nil
}

// Size returns the current number of pages in the buffer pool.
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pages)
}

// Capacity returns the maximum capacity of the buffer pool.
func (bp *BufferPool) Capacity() int {
	return bp.capacity
}

// GetPage returns a page from the buffer pool without loading from disk.
// Returns nil if the page is not resident.
func (bp *BufferPool) GetPage(pageID int64) *page.Page {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.pages[pageID]
}

// MarkDirty marks a resident page as dirty (modified).
func (bp *BufferPool) MarkDirty(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, exists := bp.pages[pageID]
	if !exists {
		return fmt.Errorf("page %d not in buffer pool", pageID)
	}

	pg.Lock()
	pg.IsDirty = true
	pg.Unlock()

	if bp.hotCache != nil {
		bp.hotCache.Del(pageID)
	}

	return nil
}
