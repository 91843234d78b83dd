package heapfile

import (
	"bptreeidx/storage_engine/bufferpool"
	diskmanager "bptreeidx/storage_engine/disk_manager"
	"bptreeidx/storage_engine/rid"
	"testing"
)

func newTestHeapFileManager(t *testing.T) *HeapFileManager {
	t.Helper()
	dir := t.TempDir()
	dm := diskmanager.NewDiskManager()
	bp := bufferpool.NewBufferPool(32, dm)
	hfm, err := NewHeapFileManager(dir, dm, bp)
	if err != nil {
		t.Fatalf("NewHeapFileManager: %v", err)
	}
	return hfm
}

func TestHeapFileInsertAndReadBack(t *testing.T) {
	hfm := newTestHeapFileManager(t)

	const fileID = 1
	if err := hfm.CreateHeapfile("students", fileID); err != nil {
		t.Fatalf("CreateHeapfile: %v", err)
	}

	rows := []string{"Alice|20", "Bob|21", "Charlie|22", "Diana|19"}
	rids := make([]rid.RecordID, 0, len(rows))

	for _, row := range rows {
		r, err := hfm.InsertRow(fileID, []byte(row))
		if err != nil {
			t.Fatalf("InsertRow(%q): %v", row, err)
		}
		rids = append(rids, r)
	}

	hf, err := hfm.GetHeapFileByID(fileID)
	if err != nil {
		t.Fatalf("GetHeapFileByID: %v", err)
	}

	for i, row := range rows {
		got, err := hf.GetRow(rids[i])
		if err != nil {
			t.Fatalf("GetRow(%v): %v", rids[i], err)
		}
		if string(got) != row {
			t.Errorf("row %d = %q, want %q", i, got, row)
		}
	}
}

func TestHeapFileSequentialScan(t *testing.T) {
	hfm := newTestHeapFileManager(t)

	const fileID = 2
	if err := hfm.CreateHeapfile("orders", fileID); err != nil {
		t.Fatalf("CreateHeapfile: %v", err)
	}

	const n = 50
	for i := 0; i < n; i++ {
		if _, err := hfm.InsertRow(fileID, []byte{byte(i), byte(i >> 8)}); err != nil {
			t.Fatalf("InsertRow %d: %v", i, err)
		}
	}

	hf, err := hfm.GetHeapFileByID(fileID)
	if err != nil {
		t.Fatalf("GetHeapFileByID: %v", err)
	}

	scan, err := hf.NewScan()
	if err != nil {
		t.Fatalf("NewScan: %v", err)
	}

	count := 0
	for {
		r, ok, err := scan.Next()
		if err != nil {
			t.Fatalf("scan.Next: %v", err)
		}
		if !ok {
			break
		}
		data, err := scan.GetRecord(r)
		if err != nil {
			t.Fatalf("GetRecord: %v", err)
		}
		want := byte(count)
		if data[0] != want {
			t.Errorf("row %d first byte = %d, want %d", count, data[0], want)
		}
		count++
	}

	if count != n {
		t.Fatalf("scanned %d rows, want %d", count, n)
	}
}
