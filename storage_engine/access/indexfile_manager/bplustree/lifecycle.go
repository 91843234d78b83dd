package bplus

import (
	"bptreeidx/storage_engine/bufferpool"
	diskmanager "bptreeidx/storage_engine/disk_manager"
	"bptreeidx/storage_engine/rid"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AttrType tags the datatype of the attribute an index was built over.
// This module supports exactly one: AttrInteger. The tag still round-trips
// through the meta page so reopening an index against a relation/attribute
// it wasn't built for is caught as ErrBadIndexInfo rather than silently
// misreading four bytes of someone else's column.
type AttrType int32

const AttrInteger AttrType = 1

// RelationScanner is the sequential relation-scanner collaborator of §6.
// Open drives one to completion to bulk-load a freshly created index;
// ScanNext returns ErrEndOfFile once the underlying relation is exhausted.
type RelationScanner interface {
	ScanNext() (rid.RecordID, error)
	GetRecord() ([]byte, error)
}

// IndexName derives the persistent on-disk index name for a relation
// attribute: "<relationName>.<attrByteOffset>", no path separators added.
func IndexName(relationName string, attrByteOffset int32) string {
	return fmt.Sprintf("%s.%d", relationName, attrByteOffset)
}

// Open opens the index file for (relationName, attrByteOffset) under
// baseDir. If the file already exists it is reopened in place and its
// meta page is checked against the requested relation/attribute. If not,
// a fresh file is created — a meta page and an empty leaf root are
// allocated — and, when scanner is non-nil, every (key, rid) pair the
// scanner yields is inserted before Open returns. fileID is the stable id
// the caller wants this file registered under in the shared DiskManager.
func Open(baseDir, relationName string, attrByteOffset int32, attrType AttrType, fileID uint32, bp *bufferpool.BufferPool, dm *diskmanager.DiskManager, scanner RelationScanner) (*BPlusTree, string, error) {
	if attrType != AttrInteger {
		return nil, "", fmt.Errorf("bplus: Open: unsupported attribute type %d", attrType)
	}

	indexName := IndexName(relationName, attrByteOffset)
	indexPath := filepath.Join(baseDir, indexName)

	_, statErr := os.Stat(indexPath)
	fresh := os.IsNotExist(statErr)

	assignedID, err := dm.OpenFileWithID(indexPath, fileID)
	if err != nil {
		return nil, "", fmt.Errorf("bplus: Open: %w", err)
	}

	t := &BPlusTree{fileID: assignedID, bufferPool: bp, diskManager: dm}

	if fresh {
		if err := t.create(relationName, attrByteOffset, attrType); err != nil {
			return nil, "", fmt.Errorf("bplus: Open: %w", err)
		}
		if scanner != nil {
			if err := t.bulkLoad(scanner); err != nil {
				return nil, "", fmt.Errorf("bplus: Open: %w", err)
			}
		}
		return t, indexName, nil
	}

	if err := t.reopen(relationName, attrByteOffset); err != nil {
		return nil, "", fmt.Errorf("bplus: Open: %w", err)
	}
	return t, indexName, nil
}

// create allocates a brand new index file's meta page (always local page
// 0) followed by an empty leaf root (local page 1), per §4.1/§9.
func (t *BPlusTree) create(relationName string, attrByteOffset int32, attrType AttrType) error {
	if err := t.allocMetaPage(MetaPage{
		RelationName:   relationName,
		AttrByteOffset: attrByteOffset,
		AttrType:       attrType,
		RootPageID:     InvalidPageID,
		Height:         1,
	}); err != nil {
		return fmt.Errorf("create: %w", err)
	}

	root, pg, err := t.allocNode(KindLeaf)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := t.writeNode(root, pg); err != nil {
		t.releaseNode(pg, false)
		return fmt.Errorf("create: %w", err)
	}
	t.releaseNode(pg, true)

	t.meta.RootPageID = root.pageID
	t.meta.Height = 1
	return t.writeMeta()
}

// reopen re-registers an existing index file's pages with the shared disk
// manager (mirroring heapfile_manager.LoadHeapFile) and recovers the root
// from the meta page, rejecting a relation/attribute mismatch.
func (t *BPlusTree) reopen(relationName string, attrByteOffset int32) error {
	fd, err := t.diskManager.GetFileDescriptor(t.fileID)
	if err != nil {
		return fmt.Errorf("reopen: %w", err)
	}
	for local := int64(0); local < fd.NextPageID; local++ {
		if err := t.diskManager.RegisterPage(t.fileID, local); err != nil {
			return fmt.Errorf("reopen: %w", err)
		}
	}

	m, err := t.readMeta()
	if err != nil {
		return fmt.Errorf("reopen: %w", err)
	}
	if m.RelationName != relationName || m.AttrByteOffset != attrByteOffset || m.AttrType != AttrInteger {
		return ErrBadIndexInfo
	}
	t.meta = *m
	return nil
}

// bulkLoad drives scanner to completion, inserting every (key, rid) pair
// it yields. Used only when Open just created a fresh index file.
func (t *BPlusTree) bulkLoad(scanner RelationScanner) error {
	for {
		r, err := scanner.ScanNext()
		if errors.Is(err, ErrEndOfFile) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("bulkLoad: %w", err)
		}

		record, err := scanner.GetRecord()
		if err != nil {
			return fmt.Errorf("bulkLoad: %w", err)
		}

		key, err := extractKey(record, t.meta.AttrByteOffset)
		if err != nil {
			return fmt.Errorf("bulkLoad: %w", err)
		}

		if err := t.InsertEntry(key, r); err != nil {
			return fmt.Errorf("bulkLoad: %w", err)
		}
	}
}

// extractKey reads the int32 attribute value at attrByteOffset out of a
// raw record's bytes.
func extractKey(record []byte, attrByteOffset int32) (int32, error) {
	off := int(attrByteOffset)
	if off < 0 || off+4 > len(record) {
		return 0, fmt.Errorf("extractKey: offset %d out of range for a %d-byte record", off, len(record))
	}
	return int32(binary.LittleEndian.Uint32(record[off:])), nil
}

// Close ends any in-progress scan, flushes every dirty page this index's
// file owns, and closes the file. Durability is best-effort: the flush
// happens once, here, with no WAL backing it (§1, §5).
func (t *BPlusTree) Close() error {
	t.mu.Lock()
	t.releaseActiveScanLocked()
	t.mu.Unlock()

	if err := t.bufferPool.FlushFile(t.fileID); err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	t.bufferPool.LogStats()
	return t.diskManager.CloseFile(t.fileID)
}
