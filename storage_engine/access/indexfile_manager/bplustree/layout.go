package bplus

import (
	"bptreeidx/storage_engine/page"
	"bptreeidx/storage_engine/rid"
	"encoding/binary"
	"fmt"
)

/*
On-disk layouts. Byte 0 of every page is reserved for the DiskManager's
page-type stamp (it rewrites pg.Data[0] = byte(pg.PageType) on every
WritePage and restores pg.PageType from it on every ReadPage) so none of
the layouts below ever touch that byte directly.

Leaf page:

	Offset  Size  Field
	───────────────────────────────────
	0       1     (page-type stamp, owned by DiskManager)
	1       1     kind = KindLeaf
	2       6     reserved
	8       4     rightSib   PageID (int32)
	12      ...   LeafOccupancy x [ key int32(4) | RecordID{PageNo int32(4), SlotNo int32(4)} ]

Internal page:

	Offset  Size  Field
	───────────────────────────────────
	0       1     (page-type stamp, owned by DiskManager)
	1       1     kind = KindInternal
	2       6     reserved
	8       ...   InternalOccupancy x int32 keys
	...     ...   (InternalOccupancy+1) x int32 (PageID) children

Meta page (always local page 0, page.TypeBPlusMeta):

	Offset  Size  Field
	───────────────────────────────────
	0       1     (page-type stamp, owned by DiskManager)
	1       ...   reserved
	8       20    relationName, NUL-padded
	28      4     attrByteOffset int32
	32      4     rootPageID     int32
	36      4     height         int32
	40      4     attrType       int32
*/

const (
	kindOffset     = 1
	leafRightSib   = 8
	leafSlotsStart = leafHeaderSize

	internalKeysStart = internalHeaderSize
	internalChildren  = internalHeaderSize + InternalOccupancy*internalSlotSize

	metaNameOffset   = 8
	metaNameLen      = 20
	metaAttrOffset   = metaNameOffset + metaNameLen // 28
	metaRootOffset   = metaAttrOffset + 4           // 32
	metaHeightOffset = metaRootOffset + 4           // 36
	metaTypeOffset   = metaHeightOffset + 4         // 40
)

// serializeLeaf writes n (a leaf node) into data, a page.Size buffer.
func serializeLeaf(n *Node, data []byte) error {
	if len(data) != page.Size {
		return fmt.Errorf("serializeLeaf: buffer must be %d bytes", page.Size)
	}
	data[kindOffset] = byte(KindLeaf)
	binary.LittleEndian.PutUint32(data[leafRightSib:], uint32(n.rightSib))

	for i := 0; i < LeafOccupancy; i++ {
		off := leafSlotsStart + i*leafSlotSize
		key := IntMax
		var r rid.RecordID
		if i < len(n.keys) {
			key = n.keys[i]
		}
		if i < len(n.rids) {
			r = n.rids[i]
		}
		binary.LittleEndian.PutUint32(data[off:], uint32(key))
		binary.LittleEndian.PutUint32(data[off+4:], uint32(r.PageNo))
		binary.LittleEndian.PutUint32(data[off+8:], uint32(r.SlotNo))
	}
	return nil
}

// deserializeLeaf reads a leaf node out of data.
func deserializeLeaf(pageID PageID, data []byte) (*Node, error) {
	if len(data) != page.Size {
		return nil, fmt.Errorf("deserializeLeaf: buffer must be %d bytes", page.Size)
	}

	n := &Node{
		pageID:   pageID,
		kind:     KindLeaf,
		rightSib: PageID(int32(binary.LittleEndian.Uint32(data[leafRightSib:]))),
		keys:     make([]int32, LeafOccupancy),
		rids:     make([]rid.RecordID, LeafOccupancy),
	}

	for i := 0; i < LeafOccupancy; i++ {
		off := leafSlotsStart + i*leafSlotSize
		n.keys[i] = int32(binary.LittleEndian.Uint32(data[off:]))
		n.rids[i] = rid.RecordID{
			PageNo: int32(binary.LittleEndian.Uint32(data[off+4:])),
			SlotNo: int32(binary.LittleEndian.Uint32(data[off+8:])),
		}
	}

	return n, nil
}

// serializeInternal writes n (an internal node) into data.
func serializeInternal(n *Node, data []byte) error {
	if len(data) != page.Size {
		return fmt.Errorf("serializeInternal: buffer must be %d bytes", page.Size)
	}
	data[kindOffset] = byte(KindInternal)

	for i := 0; i < InternalOccupancy; i++ {
		key := IntMax
		if i < len(n.keys) {
			key = n.keys[i]
		}
		binary.LittleEndian.PutUint32(data[internalKeysStart+i*internalSlotSize:], uint32(key))
	}

	for i := 0; i < InternalOccupancy+1; i++ {
		child := InvalidPageID
		if i < len(n.children) {
			child = n.children[i]
		}
		binary.LittleEndian.PutUint32(data[internalChildren+i*internalSlotSize:], uint32(int32(child)))
	}

	return nil
}

// deserializeInternal reads an internal node out of data.
func deserializeInternal(pageID PageID, data []byte) (*Node, error) {
	if len(data) != page.Size {
		return nil, fmt.Errorf("deserializeInternal: buffer must be %d bytes", page.Size)
	}

	n := &Node{
		pageID:   pageID,
		kind:     KindInternal,
		keys:     make([]int32, InternalOccupancy),
		children: make([]PageID, InternalOccupancy+1),
	}

	for i := 0; i < InternalOccupancy; i++ {
		n.keys[i] = int32(binary.LittleEndian.Uint32(data[internalKeysStart+i*internalSlotSize:]))
	}
	for i := 0; i < InternalOccupancy+1; i++ {
		n.children[i] = PageID(int32(binary.LittleEndian.Uint32(data[internalChildren+i*internalSlotSize:])))
	}

	return n, nil
}

// deserializeNode dispatches on the kind byte written at kindOffset.
func deserializeNode(pageID PageID, data []byte) (*Node, error) {
	switch NodeKind(data[kindOffset]) {
	case KindLeaf:
		return deserializeLeaf(pageID, data)
	case KindInternal:
		return deserializeInternal(pageID, data)
	default:
		return nil, fmt.Errorf("deserializeNode: unrecognized kind byte %d at page %d", data[kindOffset], pageID)
	}
}

// serializeNode dispatches on n.kind.
func serializeNode(n *Node, data []byte) error {
	switch n.kind {
	case KindLeaf:
		return serializeLeaf(n, data)
	case KindInternal:
		return serializeInternal(n, data)
	default:
		return fmt.Errorf("serializeNode: node %d has no kind set", n.pageID)
	}
}

// serializeMeta writes m into data.
func serializeMeta(m *MetaPage, data []byte) error {
	if len(data) != page.Size {
		return fmt.Errorf("serializeMeta: buffer must be %d bytes", page.Size)
	}
	var nameBuf [metaNameLen]byte
	copy(nameBuf[:], m.RelationName)
	copy(data[metaNameOffset:metaNameOffset+metaNameLen], nameBuf[:])

	binary.LittleEndian.PutUint32(data[metaAttrOffset:], uint32(m.AttrByteOffset))
	binary.LittleEndian.PutUint32(data[metaRootOffset:], uint32(int32(m.RootPageID)))
	binary.LittleEndian.PutUint32(data[metaHeightOffset:], uint32(m.Height))
	binary.LittleEndian.PutUint32(data[metaTypeOffset:], uint32(int32(m.AttrType)))
	return nil
}

// deserializeMeta reads a MetaPage out of data.
func deserializeMeta(data []byte) (*MetaPage, error) {
	if len(data) != page.Size {
		return nil, fmt.Errorf("deserializeMeta: buffer must be %d bytes", page.Size)
	}

	nameBuf := data[metaNameOffset : metaNameOffset+metaNameLen]
	end := len(nameBuf)
	for i, b := range nameBuf {
		if b == 0 {
			end = i
			break
		}
	}

	return &MetaPage{
		RelationName:   string(nameBuf[:end]),
		AttrByteOffset: int32(binary.LittleEndian.Uint32(data[metaAttrOffset:])),
		RootPageID:     PageID(int32(binary.LittleEndian.Uint32(data[metaRootOffset:]))),
		Height:         int32(binary.LittleEndian.Uint32(data[metaHeightOffset:])),
		AttrType:       AttrType(int32(binary.LittleEndian.Uint32(data[metaTypeOffset:]))),
	}, nil
}
