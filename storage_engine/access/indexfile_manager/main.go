package indexfile

import (
	bplus "bptreeidx/storage_engine/access/indexfile_manager/bplustree"
	heapfile "bptreeidx/storage_engine/access/heapfile_manager"
	"bptreeidx/storage_engine/bufferpool"
	diskmanager "bptreeidx/storage_engine/disk_manager"
	"bptreeidx/storage_engine/rid"
	"fmt"
	"os"
)

/*
This file is the main file for Index File Manager that deals with the Index pages
Similar to HeapFileManager this also have access to disk manager and buffer pool

It wraps the bplus package's B+ tree: Open either reuses an index file
already on disk or creates one and bulk-loads it by scanning the named
relation's heap file end to end, exactly as §4.1 describes.
*/

// relationScanAdapter satisfies bplus.RelationScanner over a
// heapfile.RelationScan, translating the heap file's (rid, ok, err) Next
// into the ScanNext/GetRecord pair the B+ tree core expects, with
// end-of-stream folded into bplus.ErrEndOfFile.
type relationScanAdapter struct {
	hf      *heapfile.HeapFile
	scan    *heapfile.RelationScan
	lastRID rid.RecordID
}

func (a *relationScanAdapter) ScanNext() (rid.RecordID, error) {
	r, ok, err := a.scan.Next()
	if err != nil {
		return rid.RecordID{}, err
	}
	if !ok {
		return rid.RecordID{}, bplus.ErrEndOfFile
	}
	a.lastRID = r
	return r, nil
}

func (a *relationScanAdapter) GetRecord() ([]byte, error) {
	return a.hf.GetRow(a.lastRID)
}

func NewIndexFileManager(baseDir string, diskManager *diskmanager.DiskManager, bufferPool *bufferpool.BufferPool) (*IndexFileManager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create indexes directory: %w", err)
	}

	return &IndexFileManager{
		baseDir:     baseDir,
		indexes:     make(map[string]*bplus.BPlusTree),
		bufferPool:  bufferPool,
		diskManager: diskManager,
	}, nil
}

// Open returns the B+ tree index over relationName's attribute at
// attrByteOffset, opening it from disk (or creating and bulk-loading it
// from heapFile, scanning heapFile end to end) the first time this pair
// is requested, and returning the cached tree on every call after that.
// indexFileID is the stable id the shared DiskManager should register the
// underlying file under; it is only consulted the first time the file is
// created or registered. heapFile may be nil when the caller already
// knows the index file exists — bulk load is skipped in that case.
func (ifm *IndexFileManager) Open(relationName string, attrByteOffset int32, indexFileID uint32, heapFile *heapfile.HeapFile) (*bplus.BPlusTree, string, error) {
	indexName := bplus.IndexName(relationName, attrByteOffset)

	ifm.mu.RLock()
	if btree, exists := ifm.indexes[indexName]; exists {
		ifm.mu.RUnlock()
		return btree, indexName, nil
	}
	ifm.mu.RUnlock()

	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	if btree, exists := ifm.indexes[indexName]; exists {
		return btree, indexName, nil
	}

	var scanner bplus.RelationScanner
	if heapFile != nil {
		scan, err := heapFile.NewScan()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open relation scan for '%s': %w", relationName, err)
		}
		scanner = &relationScanAdapter{hf: heapFile, scan: scan}
	}

	btree, name, err := bplus.Open(ifm.baseDir, relationName, attrByteOffset, bplus.AttrInteger, indexFileID, ifm.bufferPool, ifm.diskManager, scanner)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open index for '%s': %w", relationName, err)
	}

	ifm.indexes[name] = btree
	return btree, name, nil
}

// CloseIndex closes the B+ tree cached under indexName and removes it
// from the cache. The index is flushed to disk before closing.
func (ifm *IndexFileManager) CloseIndex(indexName string) error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	btree, exists := ifm.indexes[indexName]
	if !exists {
		return nil // not open, nothing to do
	}

	if err := btree.Close(); err != nil {
		return fmt.Errorf("failed to close index '%s': %w", indexName, err)
	}

	delete(ifm.indexes, indexName)
	return nil
}

// CloseAll closes every cached index and clears the cache. Called when
// switching databases or shutting down the storage engine.
func (ifm *IndexFileManager) CloseAll() error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	var lastErr error
	for indexName, btree := range ifm.indexes {
		if err := btree.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close index '%s': %w", indexName, err)
		}
		delete(ifm.indexes, indexName)
	}

	return lastErr
}
