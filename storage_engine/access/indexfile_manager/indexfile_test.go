package indexfile

import (
	heapfile "bptreeidx/storage_engine/access/heapfile_manager"
	"bptreeidx/storage_engine/bufferpool"
	diskmanager "bptreeidx/storage_engine/disk_manager"
	"encoding/binary"
	"errors"
	"testing"

	bplus "bptreeidx/storage_engine/access/indexfile_manager/bplustree"
)

// encodeStudent builds a fixed-layout record with an int32 "id" attribute
// at byte offset 0, followed by a short name.
func encodeStudent(id int32, name string) []byte {
	buf := make([]byte, 4+len(name))
	binary.LittleEndian.PutUint32(buf, uint32(id))
	copy(buf[4:], name)
	return buf
}

func TestIndexFileManagerBulkLoadsFromHeapFile(t *testing.T) {
	dir := t.TempDir()
	dm := diskmanager.NewDiskManager()
	bp := bufferpool.NewBufferPool(64, dm)

	hfm, err := heapfile.NewHeapFileManager(dir+"/heap", dm, bp)
	if err != nil {
		t.Fatalf("NewHeapFileManager: %v", err)
	}
	if err := hfm.CreateHeapfile("students", 1); err != nil {
		t.Fatalf("CreateHeapfile: %v", err)
	}

	names := []string{"Alice", "Bob", "Charlie", "Diana", "Eve"}
	for i, name := range names {
		if _, err := hfm.InsertRow(1, encodeStudent(int32(i*10), name)); err != nil {
			t.Fatalf("InsertRow: %v", err)
		}
	}

	hf, err := hfm.GetHeapFileByID(1)
	if err != nil {
		t.Fatalf("GetHeapFileByID: %v", err)
	}

	ifm, err := NewIndexFileManager(dir+"/indexes", dm, bp)
	if err != nil {
		t.Fatalf("NewIndexFileManager: %v", err)
	}

	tree, indexName, err := ifm.Open("students", 0, 2, hf)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if indexName != "students.0" {
		t.Errorf("indexName = %q, want %q", indexName, "students.0")
	}

	if err := tree.StartScan(0, bplus.ScanGTE, 40, bplus.ScanLTE); err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	count := 0
	for {
		r, err := tree.ScanNext()
		if errors.Is(err, bplus.ErrIndexScanCompleted) {
			break
		}
		if err != nil {
			t.Fatalf("ScanNext: %v", err)
		}

		row, err := hf.GetRow(r)
		if err != nil {
			t.Fatalf("GetRow: %v", err)
		}
		wantName := names[count]
		gotName := string(row[4:])
		if gotName != wantName {
			t.Errorf("entry %d: name = %q, want %q", count, gotName, wantName)
		}
		count++
	}
	if err := tree.EndScan(); err != nil {
		t.Fatalf("EndScan: %v", err)
	}

	if count != len(names) {
		t.Fatalf("scanned %d entries, want %d", count, len(names))
	}

	// A second Open for the same relation/offset must return the cached
	// tree rather than re-bulk-loading.
	again, _, err := ifm.Open("students", 0, 2, hf)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	if again != tree {
		t.Error("second Open returned a different *BPlusTree — cache miss")
	}

	if err := ifm.CloseAll(); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
}
