package svm

// PageSize is the system-wide page size. The design only requires all pages
// of a deployment to share one size (spec §3); this module pins it at 4096
// bytes, as the original implementation does.
const PageSize = 4096

// PageIndex is a 16-bit ordinal identifying a page within a contract's
// storage, in [0, page_count).
type PageIndex uint16

// Layout describes a byte range strictly within a single page: the sub-page
// slice addressed by the sandbox-facing read/write operations (spec §4.4,
// §6). Slices never span pages; callers must split at page boundaries.
type Layout struct {
	PageIndex PageIndex
	Offset    uint32
	Length    uint32
}

// End returns the exclusive end offset of the slice within its page.
func (l Layout) End() uint32 {
	return l.Offset + l.Length
}
