package heapfile

import (
	page "bptreeidx/storage_engine/page"
	"fmt"
)

/*
This file contains helpers related to HeapFileManager and HeapFile.
*/

func (hfm *HeapFileManager) UpdateBaseDir(dir string) {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()
	hfm.baseDir = dir
}

func (hfm *HeapFileManager) GetHeapFileByTable(tableName string) (*HeapFile, error) {
	hfm.mu.RLock()
	defer hfm.mu.RUnlock()

	fileID, exists := hfm.tableIndex[tableName]
	if !exists {
		return nil, fmt.Errorf("no heap file open for table '%s'", tableName)
	}

	hf, exists := hfm.files[fileID]
	if !exists {
		return nil, fmt.Errorf("heap file index inconsistency for table '%s'", tableName)
	}

	return hf, nil
}

func (hfm *HeapFileManager) GetHeapFileByID(fileID uint32) (*HeapFile, error) {
	hfm.mu.RLock()
	hf, exists := hfm.files[fileID]
	hfm.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("heap file %d not found", fileID)
	}

	return hf, nil
}

// findSuitablePage finds a page with enough space for the required row size,
// allocating a new one if no existing page has room.
func (hf *HeapFile) findSuitablePage(requiredSpace uint16) (*page.Page, uint32, error) {
	requiredWithSlot := int(requiredSpace) + SlotSize

	fd, err := hf.diskManager.GetFileDescriptor(hf.fileID)
	if err != nil {
		return nil, 0, err
	}

	totalPages := fd.NextPageID

	for localPageNum := int64(0); localPageNum < totalPages; localPageNum++ {
		globalPageID, err := hf.diskManager.GetGlobalPageID(hf.fileID, localPageNum)
		if err != nil {
			continue
		}

		pg, err := hf.bufferPool.FetchPage(globalPageID)
		if err != nil {
			continue
		}

		if FreeSpace(pg) >= requiredWithSlot {
			return pg, uint32(localPageNum), nil
		}

		hf.bufferPool.UnpinPage(globalPageID, false)
	}

	pg, err := hf.bufferPool.NewPage(hf.fileID, page.TypeHeapData)
	if err != nil {
		return nil, 0, err
	}

	InitHeapPage(pg)

	fd, err = hf.diskManager.GetFileDescriptor(hf.fileID)
	if err != nil {
		hf.bufferPool.UnpinPage(pg.ID, false)
		return nil, 0, err
	}

	localPageNum := uint32(fd.NextPageID - 1)
	SetPageNo(pg, localPageNum)
	if err := hf.diskManager.RegisterPage(hf.fileID, int64(localPageNum)); err != nil {
		hf.bufferPool.UnpinPage(pg.ID, false)
		return nil, 0, fmt.Errorf("failed to register new page: %w", err)
	}

	return pg, localPageNum, nil
}

// Flush flushes all dirty pages for this heap file.
func (hf *HeapFile) Flush() error {
	return hf.bufferPool.FlushAllPages()
}

// PageCount returns the number of pages currently allocated to this heap file.
func (hf *HeapFile) PageCount() (int64, error) {
	fd, err := hf.diskManager.GetFileDescriptor(hf.fileID)
	if err != nil {
		return 0, err
	}
	return fd.NextPageID, nil
}
