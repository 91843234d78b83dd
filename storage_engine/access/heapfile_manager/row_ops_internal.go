package heapfile

import (
	"bptreeidx/storage_engine/page"
	"bptreeidx/storage_engine/rid"
	"fmt"
)

// This file contains internal functions — lock-free. The external functions
// in row_ops_external.go are responsible for holding the heap file's lock.

// insertRow inserts a row into the heap file and returns its RecordID.
func (hf *HeapFile) insertRow(rowData []byte) (rid.RecordID, error) {
	rowLen := uint16(len(rowData))
	const maxRowSize = page.Size - HeapHeaderSize - SlotSize
	if int(rowLen) > maxRowSize {
		return rid.RecordID{}, fmt.Errorf("row too large: %d bytes (max %d)", rowLen, maxRowSize)
	}

	for {
		pg, localPageNum, err := hf.findSuitablePage(rowLen)
		if err != nil {
			return rid.RecordID{}, fmt.Errorf("failed to find suitable page: %w", err)
		}

		pg.Lock()

		if FreeSpace(pg) < int(rowLen) {
			pg.Unlock()
			hf.bufferPool.UnpinPage(pg.ID, false)
			continue
		}

		slotIndex, err := InsertRecord(pg, rowData)
		if err != nil {
			pg.Unlock()
			hf.bufferPool.UnpinPage(pg.ID, false)
			return rid.RecordID{}, fmt.Errorf("failed to insert record into page: %w", err)
		}

		pg.Unlock()
		hf.bufferPool.UnpinPage(pg.ID, true)

		fmt.Printf("[Heap] INSERT fileID=%d page=%d slot=%d\n", hf.fileID, localPageNum, slotIndex)

		return rid.RecordID{PageNo: int32(localPageNum), SlotNo: int32(slotIndex)}, nil
	}
}

func (hf *HeapFile) getRow(r rid.RecordID) ([]byte, error) {
	globalPageID, err := hf.diskManager.GetGlobalPageID(hf.fileID, int64(r.PageNo))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve page %d: %w", r.PageNo, err)
	}

	pg, err := hf.bufferPool.FetchPage(globalPageID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", globalPageID, err)
	}
	defer hf.bufferPool.UnpinPage(pg.ID, false)

	pg.RLock()
	defer pg.RUnlock()

	return GetRecord(pg, uint16(r.SlotNo))
}
