package heapfile

import (
	page "bptreeidx/storage_engine/page"
	"encoding/binary"
	"fmt"
)

/*
This file contains standalone functions operating on *page.Page for heap
file operations. All functions take *page.Page as their first argument
since methods cannot be defined on types from an external package.

Heap page binary layout (all values little-endian):

	Offset  Size  Field
	──────────────────────────────────────────────────────
	0       1     PageType        uint8   — stamped by DiskManager on write
	1       4     FileID          uint32
	5       4     PageNo          uint32
	9       2     RecordEndPtr    uint16  — first free byte after last record
	11      2     SlotRegionStart uint16  — first byte of slot directory
	13      2     NumRows         uint16  — live records
	15      2     SlotCount       uint16  — total slot entries
	──────────────────────────────────────────────────────
	17            HeapHeaderSize

Standard slotted-page layout:

	[ header 17B ][ records → ][ free space ][ ← slot dir ]
	0            17            ^             ^             4096
	                           RecordEndPtr  SlotRegionStart

	Records grow FORWARD from HeapHeaderSize.
	Slot directory grows BACKWARD from page.Size.
	Free space is the gap between RecordEndPtr and SlotRegionStart.

A slot entry is 4 bytes: [ Offset uint16 ][ Length uint16 ]. Slot i lives
at page.Size - (i+1)*SlotSize, so slot 0 sits at the highest addresses.

This heap is an append-only relation: rows are inserted once (to seed a
table) and then only ever read back in slot order by a sequential scan,
the relation scanner of §6 used to bulk-load an index. There is no
update/delete path — nothing here needs tombstones or LSN bookkeeping.
*/
const (
	heapOffPageType        = 0  // uint8  (1)
	heapOffFileID          = 1  // uint32 (4)
	heapOffPageNo          = 5  // uint32 (4)
	heapOffRecordEndPtr    = 9  // uint16 (2)
	heapOffSlotRegionStart = 11 // uint16 (2)
	heapOffNumRows         = 13 // uint16 (2)
	heapOffSlotCount       = 15 // uint16 (2)

	// HeapHeaderSize is the fixed header size in bytes.
	HeapHeaderSize = 17

	// SlotSize is the byte size of one slot entry: Offset(2) + Length(2).
	SlotSize = 4
)

// InitHeapPage stamps a fresh heap-page header into pg.Data.
func InitHeapPage(pg *page.Page) {
	for i := 1; i < page.Size; i++ {
		pg.Data[i] = 0
	}

	binary.LittleEndian.PutUint32(pg.Data[heapOffFileID:], pg.FileID)
	binary.LittleEndian.PutUint32(pg.Data[heapOffPageNo:], 0)
	binary.LittleEndian.PutUint16(pg.Data[heapOffRecordEndPtr:], HeapHeaderSize)
	binary.LittleEndian.PutUint16(pg.Data[heapOffSlotRegionStart:], page.Size)
	binary.LittleEndian.PutUint16(pg.Data[heapOffNumRows:], 0)
	binary.LittleEndian.PutUint16(pg.Data[heapOffSlotCount:], 0)

	pg.IsDirty = true
}

// InsertRecord writes data into the page and returns the slot index.
func InsertRecord(pg *page.Page, data []byte) (slotIdx uint16, err error) {
	recordLen := uint16(len(data))
	if recordLen == 0 {
		return 0, fmt.Errorf("InsertRecord: data must not be empty")
	}
	if FreeSpace(pg) < int(recordLen) {
		return 0, fmt.Errorf("InsertRecord: need %d bytes, only %d available",
			recordLen, FreeSpace(pg))
	}

	slotIdx = GetSlotCount(pg)
	recordOffset := GetRecordEndPtr(pg)
	copy(pg.Data[recordOffset:], data)
	setRecordEndPtr(pg, recordOffset+recordLen)

	writeSlot(pg, slotIdx, recordOffset, recordLen)
	setSlotRegionStart(pg, GetSlotRegionStart(pg)-SlotSize)
	setSlotCount(pg, slotIdx+1)
	setNumRows(pg, GetNumRows(pg)+1)

	pg.IsDirty = true
	return slotIdx, nil
}

// GetRecord returns a copy of the record at slotIdx.
func GetRecord(pg *page.Page, slotIdx uint16) ([]byte, error) {
	if slotIdx >= GetSlotCount(pg) {
		return nil, fmt.Errorf("GetRecord: slot %d out of range (count=%d)",
			slotIdx, GetSlotCount(pg))
	}
	offset, length := readSlot(pg, slotIdx)
	out := make([]byte, length)
	copy(out, pg.Data[offset:offset+length])
	return out, nil
}
