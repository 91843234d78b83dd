package heapfile

import (
	"bptreeidx/storage_engine/rid"
	"fmt"
)

// RelationScan sequentially walks every live slot of a HeapFile in page,
// then slot, order. It is the relation-scanner collaborator of §6: a
// bulk index build drives one of these to completion, inserting each
// (key, RecordID) pair it yields.
type RelationScan struct {
	hf         *HeapFile
	totalPages int64
	pageNum    int64
	slotIdx    uint16
	slotCount  uint16
	done       bool
}

// NewScan opens a fresh sequential scan over hf, starting before the first
// page.
func (hf *HeapFile) NewScan() (*RelationScan, error) {
	fd, err := hf.diskManager.GetFileDescriptor(hf.fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan: %w", err)
	}

	return &RelationScan{
		hf:         hf,
		totalPages: fd.NextPageID,
		pageNum:    0,
		slotIdx:    0,
	}, nil
}

// Next advances the scan to the next live row and returns its RecordID.
// ok is false once the relation is exhausted (a nil err then means a clean
// end of scan, not a failure).
func (s *RelationScan) Next() (recordID rid.RecordID, ok bool, err error) {
	if s.done {
		return rid.RecordID{}, false, nil
	}

	for s.pageNum < s.totalPages {
		globalPageID, err := s.hf.diskManager.GetGlobalPageID(s.hf.fileID, s.pageNum)
		if err != nil {
			return rid.RecordID{}, false, fmt.Errorf("scan: failed to resolve page %d: %w", s.pageNum, err)
		}

		pg, err := s.hf.bufferPool.FetchPage(globalPageID)
		if err != nil {
			return rid.RecordID{}, false, fmt.Errorf("scan: failed to fetch page %d: %w", s.pageNum, err)
		}

		pg.RLock()
		slotCount := GetSlotCount(pg)

		for s.slotIdx < slotCount {
			idx := s.slotIdx
			s.slotIdx++
			if IsSlotLive(pg, idx) {
				pg.RUnlock()
				s.hf.bufferPool.UnpinPage(globalPageID, false)
				return rid.RecordID{PageNo: int32(s.pageNum), SlotNo: int32(idx)}, true, nil
			}
		}

		pg.RUnlock()
		s.hf.bufferPool.UnpinPage(globalPageID, false)

		s.pageNum++
		s.slotIdx = 0
	}

	s.done = true
	return rid.RecordID{}, false, nil
}

// GetRecord returns the raw bytes for the row named by r.
func (s *RelationScan) GetRecord(r rid.RecordID) ([]byte, error) {
	return s.hf.getRow(r)
}
