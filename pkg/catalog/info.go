package catalog

import "context"

// info is the bookkeeping shared by every catalog object: the owning
// catalog, whether the remote document has been loaded, and the fields
// changed locally since.
type info struct {
	catalog *Catalog
	fetched bool
	dirty   map[string]any
}

func newInfo(c *Catalog) info {
	return info{catalog: c, dirty: make(map[string]any)}
}

func (i *info) set(field string, v any) {
	if i.dirty == nil {
		i.dirty = make(map[string]any)
	}
	i.dirty[field] = v
}

func (i *info) dirtyValue(field string) (any, bool) {
	v, ok := i.dirty[field]
	return v, ok
}

// Dirty reports whether any field was changed since the last fetch or save.
func (i *info) Dirty() bool {
	return len(i.dirty) > 0
}

// Fetched reports whether the remote document has been loaded.
func (i *info) Fetched() bool {
	return i.fetched
}

// fetchInto decodes href into doc and marks the object loaded.
func (i *info) fetchInto(ctx context.Context, href string, doc any) error {
	if err := i.catalog.getXML(ctx, href, doc); err != nil {
		return err
	}
	i.fetched = true
	return nil
}

func (i *info) resetDirty() {
	i.dirty = make(map[string]any)
}

func dirtyString(i *info, field, fallback string) string {
	if v, ok := i.dirtyValue(field); ok {
		return v.(string)
	}
	return fallback
}

func dirtyBool(i *info, field string, fallback bool) bool {
	if v, ok := i.dirtyValue(field); ok {
		return v.(bool)
	}
	return fallback
}

func dirtyStrings(i *info, field string, fallback []string) []string {
	if v, ok := i.dirtyValue(field); ok {
		return append([]string(nil), v.([]string)...)
	}
	return fallback
}

func dirtyBBox(i *info, field string, fallback *BoundingBox) *BoundingBox {
	if v, ok := i.dirtyValue(field); ok {
		box := v.(BoundingBox)
		return &box
	}
	return fallback
}
