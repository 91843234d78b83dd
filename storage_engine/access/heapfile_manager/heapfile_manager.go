package heapfile

import (
	"bptreeidx/storage_engine/bufferpool"
	diskmanager "bptreeidx/storage_engine/disk_manager"
	"bptreeidx/storage_engine/page"
	"fmt"
	"os"
	"path/filepath"
)

/*
This file is the start of the heap file manager. It is responsible for
creating heap files, which ultimately means initializing the first heap
page.

HeapFileManager knows the DiskManager for file-level operations
(OpenFileWithID, CloseFile) and the BufferPool to add created/accessed
pages to the cache.
*/

// NewHeapFileManager creates a new heap file manager.
func NewHeapFileManager(baseDir string, diskManager *diskmanager.DiskManager, bufferPool *bufferpool.BufferPool) (*HeapFileManager, error) {
	return &HeapFileManager{
		baseDir:     baseDir,
		files:       make(map[uint32]*HeapFile),
		tableIndex:  make(map[string]uint32),
		diskManager: diskManager,
		bufferPool:  bufferPool,
	}, nil
}

// CreateHeapfile drives:
//  1. DiskManager.OpenFileWithID → creates the OS file under fileID
//  2. BufferPool.NewPage    → allocates a page ID (RAM only, dirty)
//  3. InitHeapPage          → writes header fields into the in-RAM buffer
//  4. BufferPool.UnpinPage  → caller is done; pool may flush when it needs space
//  5. (later) BufferPool flush → DiskManager.WritePage → bytes hit disk
func (hfm *HeapFileManager) CreateHeapfile(tableName string, fileID int) error {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()

	if _, exists := hfm.tableIndex[tableName]; exists {
		return fmt.Errorf("heap file for table '%s' already open", tableName)
	}

	catalogFileID := uint32(fileID)

	heapPath := filepath.Join(hfm.baseDir, fmt.Sprintf("%d.heap", catalogFileID))

	if _, err := os.Stat(heapPath); err == nil {
		return fmt.Errorf("heapfile %d already exists", catalogFileID)
	}

	if err := os.MkdirAll(hfm.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create heap directory: %w", err)
	}

	if _, err := hfm.diskManager.OpenFileWithID(heapPath, catalogFileID); err != nil {
		return fmt.Errorf("failed to create heapfile: %w", err)
	}

	pg, err := hfm.bufferPool.NewPage(catalogFileID, page.TypeHeapData)
	if err != nil {
		_ = hfm.diskManager.CloseFile(catalogFileID)
		return fmt.Errorf("buffer pool failed to allocate first page: %w", err)
	}

	InitHeapPage(pg)

	if err := hfm.bufferPool.UnpinPage(pg.ID, true); err != nil {
		_ = hfm.diskManager.CloseFile(catalogFileID)
		return fmt.Errorf("failed to unpin first heap page: %w", err)
	}

	hf := &HeapFile{
		fileID:      catalogFileID,
		tableName:   tableName,
		filePath:    heapPath,
		diskManager: hfm.diskManager,
		bufferPool:  hfm.bufferPool,
	}

	hfm.files[catalogFileID] = hf
	hfm.tableIndex[tableName] = catalogFileID

	return nil
}

// LoadHeapFile reopens an existing heap file on disk and re-registers all
// of its pages with the disk manager so they are addressable again.
func (hfm *HeapFileManager) LoadHeapFile(catalogFileID uint32, tableName string) (*HeapFile, error) {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()

	if hf, exists := hfm.files[catalogFileID]; exists {
		return hf, nil
	}

	heapPath := filepath.Join(hfm.baseDir, fmt.Sprintf("%d.heap", catalogFileID))

	if _, err := os.Stat(heapPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("heap file %d not found on disk", catalogFileID)
	}

	if _, err := hfm.diskManager.OpenFileWithID(heapPath, catalogFileID); err != nil {
		return nil, fmt.Errorf("failed to open heap file: %w", err)
	}

	fd, err := hfm.diskManager.GetFileDescriptor(catalogFileID)
	if err != nil {
		return nil, err
	}

	for localPage := int64(0); localPage < fd.NextPageID; localPage++ {
		if err := hfm.diskManager.RegisterPage(catalogFileID, localPage); err != nil {
			return nil, fmt.Errorf("failed to register page %d: %w", localPage, err)
		}
	}

	hf := &HeapFile{
		fileID:      catalogFileID,
		tableName:   tableName,
		filePath:    heapPath,
		diskManager: hfm.diskManager,
		bufferPool:  hfm.bufferPool,
	}

	hfm.files[catalogFileID] = hf
	hfm.tableIndex[tableName] = catalogFileID

	return hf, nil
}
