package bplus

import (
	"bptreeidx/storage_engine/bufferpool"
	diskmanager "bptreeidx/storage_engine/disk_manager"
	"bptreeidx/storage_engine/rid"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"
)

// newTestTree builds a fresh, empty BPlusTree backed by a real on-disk
// file in t.TempDir(), with no bulk load (scanner is nil).
func newTestTree(t *testing.T, relationName string, attrByteOffset int32) *BPlusTree {
	t.Helper()
	dir := t.TempDir()
	dm := diskmanager.NewDiskManager()
	bp := bufferpool.NewBufferPool(64, dm)

	tree, _, err := Open(dir, relationName, attrByteOffset, AttrInteger, 1, bp, dm, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := tree.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return tree
}

func mustInsert(t *testing.T, tree *BPlusTree, key int32, r rid.RecordID) {
	t.Helper()
	if err := tree.InsertEntry(key, r); err != nil {
		t.Fatalf("InsertEntry(%d): %v", key, err)
	}
}

// collectFullScan drains a full-range scan and returns every rid found in
// ascending key order. It also exercises EndScan along the way.
func collectFullScan(t *testing.T, tree *BPlusTree) []rid.RecordID {
	t.Helper()
	if err := tree.StartScan(IntMax*-1, ScanGTE, IntMax, ScanLTE); err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	var out []rid.RecordID
	for {
		r, err := tree.ScanNext()
		if errors.Is(err, ErrIndexScanCompleted) {
			break
		}
		if err != nil {
			t.Fatalf("ScanNext: %v", err)
		}
		out = append(out, r)
	}

	if err := tree.EndScan(); err != nil {
		t.Fatalf("EndScan: %v", err)
	}
	return out
}

func TestBasicInsertAndScan(t *testing.T) {
	tree := newTestTree(t, "students", 20)

	mustInsert(t, tree, 10, rid.RecordID{PageNo: 1, SlotNo: 0})
	mustInsert(t, tree, 20, rid.RecordID{PageNo: 1, SlotNo: 1})
	mustInsert(t, tree, 30, rid.RecordID{PageNo: 1, SlotNo: 2})

	got := collectFullScan(t, tree)
	want := []rid.RecordID{{PageNo: 1, SlotNo: 0}, {PageNo: 1, SlotNo: 1}, {PageNo: 1, SlotNo: 2}}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %v, want %v", i, got[i], want[i])
		}
	}

	if tree.meta.Height != 1 {
		t.Errorf("height = %d, want 1 (root still a leaf)", tree.meta.Height)
	}
}

func TestLeafSplitGrowsRoot(t *testing.T) {
	tree := newTestTree(t, "students", 20)

	n := LeafOccupancy + 5
	for i := 0; i < n; i++ {
		mustInsert(t, tree, int32(i), rid.RecordID{PageNo: int32(i), SlotNo: 0})
	}

	if tree.meta.Height < 2 {
		t.Fatalf("height = %d, want >= 2 after overflowing a single leaf", tree.meta.Height)
	}

	got := collectFullScan(t, tree)
	if len(got) != n {
		t.Fatalf("got %d entries after scan, want %d", len(got), n)
	}
	for i, r := range got {
		if r.PageNo != int32(i) {
			t.Errorf("entry %d has PageNo %d, want %d (scan not in ascending key order)", i, r.PageNo, i)
		}
	}
}

func TestAscendingInsertManyLevels(t *testing.T) {
	tree := newTestTree(t, "students", 20)

	const n = 2000
	for i := 0; i < n; i++ {
		mustInsert(t, tree, int32(i), rid.RecordID{PageNo: int32(i), SlotNo: 0})
	}

	got := collectFullScan(t, tree)
	if len(got) != n {
		t.Fatalf("got %d entries, want %d", len(got), n)
	}
	for i, r := range got {
		if r.PageNo != int32(i) {
			t.Fatalf("entry %d out of order: got PageNo %d, want %d", i, r.PageNo, i)
		}
	}
}

func TestDescendingInsertOrder(t *testing.T) {
	tree := newTestTree(t, "students", 20)

	const n = 500
	for i := n; i >= 1; i-- {
		mustInsert(t, tree, int32(i), rid.RecordID{PageNo: int32(i), SlotNo: 0})
	}

	got := collectFullScan(t, tree)
	if len(got) != n {
		t.Fatalf("got %d entries, want %d", len(got), n)
	}
	for i, r := range got {
		want := int32(i + 1)
		if r.PageNo != want {
			t.Fatalf("entry %d = PageNo %d, want %d", i, r.PageNo, want)
		}
	}
}

func TestScanSubRangeOnMultiLevelTree(t *testing.T) {
	tree := newTestTree(t, "students", 20)

	const n = 3000
	for i := int32(0); i < n; i++ {
		mustInsert(t, tree, i, rid.RecordID{PageNo: i, SlotNo: 0})
	}
	if tree.meta.Height < 2 {
		t.Fatalf("height = %d, want >= 2 with %d keys inserted", tree.meta.Height, n)
	}

	if err := tree.StartScan(1000, ScanGTE, 1010, ScanLTE); err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	var got []int32
	for {
		r, err := tree.ScanNext()
		if errors.Is(err, ErrIndexScanCompleted) {
			break
		}
		if err != nil {
			t.Fatalf("ScanNext: %v", err)
		}
		got = append(got, r.PageNo)
	}
	if err := tree.EndScan(); err != nil {
		t.Fatalf("EndScan: %v", err)
	}

	if len(got) != 11 {
		t.Fatalf("got %d entries, want 11: %v", len(got), got)
	}
	for i, v := range got {
		if v != int32(1000+i) {
			t.Fatalf("entry %d = %d, want %d", i, v, 1000+i)
		}
	}
}

func TestRandomPermutationScansAscending(t *testing.T) {
	tree := newTestTree(t, "students", 20)

	const n = 1000
	keys := make([]int32, n)
	for i := range keys {
		keys[i] = int32(i)
	}
	rand.New(rand.NewSource(42)).Shuffle(n, func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	for _, k := range keys {
		mustInsert(t, tree, k, rid.RecordID{PageNo: k, SlotNo: 0})
	}

	got := collectFullScan(t, tree)
	if len(got) != n {
		t.Fatalf("got %d entries, want %d", len(got), n)
	}
	for i, r := range got {
		if r.PageNo != int32(i) {
			t.Fatalf("entry %d out of order: got PageNo %d, want %d", i, r.PageNo, i)
		}
	}
}

func TestScanRangeCombinations(t *testing.T) {
	tree := newTestTree(t, "students", 20)
	for i := int32(1); i <= 100; i++ {
		mustInsert(t, tree, i, rid.RecordID{PageNo: i, SlotNo: 0})
	}

	cases := []struct {
		name           string
		low            int32
		lowOp          ScanOp
		high           int32
		highOp         ScanOp
		wantFirst      int32
		wantLast       int32
		wantCount      int
	}{
		{"GTE_LTE", 50, ScanGTE, 60, ScanLTE, 50, 60, 11},
		{"GT_LT", 50, ScanGT, 60, ScanLT, 51, 59, 9},
		{"GT_LTE", 50, ScanGT, 60, ScanLTE, 51, 60, 10},
		{"GTE_LT", 50, ScanGTE, 60, ScanLT, 50, 59, 10},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := tree.StartScan(c.low, c.lowOp, c.high, c.highOp); err != nil {
				t.Fatalf("StartScan: %v", err)
			}
			var got []int32
			for {
				r, err := tree.ScanNext()
				if errors.Is(err, ErrIndexScanCompleted) {
					break
				}
				if err != nil {
					t.Fatalf("ScanNext: %v", err)
				}
				got = append(got, r.PageNo)
			}
			if err := tree.EndScan(); err != nil {
				t.Fatalf("EndScan: %v", err)
			}

			if len(got) != c.wantCount {
				t.Fatalf("got %d entries, want %d: %v", len(got), c.wantCount, got)
			}
			if got[0] != c.wantFirst || got[len(got)-1] != c.wantLast {
				t.Errorf("range = [%d,%d], want [%d,%d]", got[0], got[len(got)-1], c.wantFirst, c.wantLast)
			}
		})
	}
}

func TestScanEqualBoundary(t *testing.T) {
	tree := newTestTree(t, "students", 20)
	mustInsert(t, tree, 42, rid.RecordID{PageNo: 42, SlotNo: 0})

	if err := tree.StartScan(42, ScanGTE, 42, ScanLTE); err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	r, err := tree.ScanNext()
	if err != nil {
		t.Fatalf("ScanNext: %v", err)
	}
	if r.PageNo != 42 {
		t.Errorf("got %v, want PageNo 42", r)
	}
	if _, err := tree.ScanNext(); !errors.Is(err, ErrIndexScanCompleted) {
		t.Errorf("second ScanNext = %v, want ErrIndexScanCompleted", err)
	}
	if err := tree.EndScan(); err != nil {
		t.Fatalf("EndScan: %v", err)
	}

	if err := tree.StartScan(42, ScanGT, 42, ScanLT); !errors.Is(err, ErrNoSuchKeyFound) {
		t.Errorf("strict equal-bound scan = %v, want ErrNoSuchKeyFound", err)
	}
}

func TestScanErrorConditions(t *testing.T) {
	tree := newTestTree(t, "students", 20)

	if _, err := tree.ScanNext(); !errors.Is(err, ErrScanNotInitialized) {
		t.Errorf("ScanNext before StartScan = %v, want ErrScanNotInitialized", err)
	}
	if err := tree.EndScan(); !errors.Is(err, ErrScanNotInitialized) {
		t.Errorf("EndScan before StartScan = %v, want ErrScanNotInitialized", err)
	}

	if err := tree.StartScan(10, ScanLT, 20, ScanLTE); !errors.Is(err, ErrBadOpcodes) {
		t.Errorf("bad lowOp = %v, want ErrBadOpcodes", err)
	}
	if err := tree.StartScan(10, ScanGTE, 20, ScanGT); !errors.Is(err, ErrBadOpcodes) {
		t.Errorf("bad highOp = %v, want ErrBadOpcodes", err)
	}
	if err := tree.StartScan(10, ScanGTE, 5, ScanLTE); !errors.Is(err, ErrBadScanRange) {
		t.Errorf("inverted range = %v, want ErrBadScanRange", err)
	}

	// Empty tree: no entry can ever satisfy a well-formed range.
	if err := tree.StartScan(0, ScanGTE, 100, ScanLTE); !errors.Is(err, ErrNoSuchKeyFound) {
		t.Errorf("scan over empty tree = %v, want ErrNoSuchKeyFound", err)
	}
}

func TestReopenExistingIndexRecoversRoot(t *testing.T) {
	dir := t.TempDir()
	dm := diskmanager.NewDiskManager()
	bp := bufferpool.NewBufferPool(64, dm)

	tree, name, err := Open(dir, "students", 20, AttrInteger, 1, bp, dm, nil)
	if err != nil {
		t.Fatalf("Open (create): %v", err)
	}
	for i := int32(0); i < 50; i++ {
		mustInsert(t, tree, i, rid.RecordID{PageNo: i, SlotNo: 0})
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dm2 := diskmanager.NewDiskManager()
	bp2 := bufferpool.NewBufferPool(64, dm2)
	reopened, name2, err := Open(dir, "students", 20, AttrInteger, 1, bp2, dm2, nil)
	if err != nil {
		t.Fatalf("Open (reopen): %v", err)
	}
	if name != name2 {
		t.Errorf("index name changed across reopen: %q vs %q", name, name2)
	}

	got := collectFullScan(t, reopened)
	if len(got) != 50 {
		t.Fatalf("got %d entries after reopen, want 50", len(got))
	}
	if err := reopened.Close(); err != nil {
		t.Fatalf("Close (reopen): %v", err)
	}
}

func TestReopenBadIndexInfo(t *testing.T) {
	dir := t.TempDir()
	dm := diskmanager.NewDiskManager()
	bp := bufferpool.NewBufferPool(64, dm)

	path := filepath.Join(dir, "students.20")
	fileID, err := dm.OpenFileWithID(path, 1)
	if err != nil {
		t.Fatalf("OpenFileWithID: %v", err)
	}

	t1 := &BPlusTree{fileID: fileID, bufferPool: bp, diskManager: dm}
	if err := t1.create("students", 20, AttrInteger); err != nil {
		t.Fatalf("create: %v", err)
	}

	t2 := &BPlusTree{fileID: fileID, bufferPool: bp, diskManager: dm}
	if err := t2.reopen("orders", 20); !errors.Is(err, ErrBadIndexInfo) {
		t.Errorf("reopen with mismatched relation = %v, want ErrBadIndexInfo", err)
	}
	if err := t2.reopen("students", 4); !errors.Is(err, ErrBadIndexInfo) {
		t.Errorf("reopen with mismatched offset = %v, want ErrBadIndexInfo", err)
	}
}

func TestOpenRejectsNonIntegerAttrType(t *testing.T) {
	dir := t.TempDir()
	dm := diskmanager.NewDiskManager()
	bp := bufferpool.NewBufferPool(64, dm)

	if _, _, err := Open(dir, "students", 20, AttrType(99), 1, bp, dm, nil); err == nil {
		t.Error("Open with non-integer attrType succeeded, want failure")
	}
}
