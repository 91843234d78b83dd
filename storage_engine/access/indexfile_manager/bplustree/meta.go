package bplus

import (
	"bptreeidx/storage_engine/page"
	"fmt"
)

// readMeta fetches and decodes the index's meta page (always local page 0).
func (t *BPlusTree) readMeta() (*MetaPage, error) {
	globalID, err := t.diskManager.GetGlobalPageID(t.fileID, int64(MetaPageID))
	if err != nil {
		return nil, fmt.Errorf("readMeta: %w", err)
	}

	pg, err := t.bufferPool.FetchPage(globalID)
	if err != nil {
		return nil, fmt.Errorf("readMeta: %w", err)
	}
	defer t.bufferPool.UnpinPage(pg.ID, false)

	pg.RLock()
	defer pg.RUnlock()
	return deserializeMeta(pg.Data)
}

// writeMeta persists t.meta to the index's meta page.
func (t *BPlusTree) writeMeta() error {
	globalID, err := t.diskManager.GetGlobalPageID(t.fileID, int64(MetaPageID))
	if err != nil {
		return fmt.Errorf("writeMeta: %w", err)
	}

	pg, err := t.bufferPool.FetchPage(globalID)
	if err != nil {
		return fmt.Errorf("writeMeta: %w", err)
	}
	defer t.bufferPool.UnpinPage(pg.ID, true)

	pg.Lock()
	defer pg.Unlock()
	if err := serializeMeta(&t.meta, pg.Data); err != nil {
		return fmt.Errorf("writeMeta: %w", err)
	}
	pg.IsDirty = true
	return nil
}

// allocMetaPage is called once, when a brand new index file is created: it
// reserves local page 0 for the meta page (never handed out to a node) and
// writes m into it.
func (t *BPlusTree) allocMetaPage(m MetaPage) error {
	pg, err := t.bufferPool.NewPage(t.fileID, page.TypeBPlusMeta)
	if err != nil {
		return fmt.Errorf("allocMetaPage: %w", err)
	}
	if PageID(t.diskManager.GetLocalPageID(pg.ID)) != MetaPageID {
		t.bufferPool.UnpinPage(pg.ID, false)
		return fmt.Errorf("allocMetaPage: expected meta page to be local page %d, got %d",
			MetaPageID, t.diskManager.GetLocalPageID(pg.ID))
	}

	t.meta = m
	if err := serializeMeta(&t.meta, pg.Data); err != nil {
		t.bufferPool.UnpinPage(pg.ID, false)
		return fmt.Errorf("allocMetaPage: %w", err)
	}
	pg.IsDirty = true
	t.bufferPool.UnpinPage(pg.ID, true)
	return nil
}
