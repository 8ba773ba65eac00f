package alloc

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// Stats is a snapshot of an allocator's region and diagnostics.
type Stats struct {
	Kind     string `json:"kind"`
	Tracking string `json:"tracking,omitempty"`

	PageSize       uintptr `json:"page_size"`
	ReservedPages  int     `json:"reserved_pages"`
	CommittedPages int     `json:"committed_pages"`
	Granularity    int     `json:"granularity"`

	// Cursor is the bump offset: allocIndex for FixedBlock, Len for Arena.
	Cursor uintptr `json:"cursor"`
	Peak   uintptr `json:"peak,omitempty"`

	BlockSize  uintptr `json:"block_size,omitempty"`
	Stride     uintptr `json:"stride,omitempty"`
	LiveBlocks int     `json:"live_blocks"`
	FreeBlocks int     `json:"free_blocks"`

	AllocationDifference int64  `json:"allocation_difference"`
	MultipleDeleteCount  uint64 `json:"multiple_delete_count"`
	DoubleDeleteCount    uint64 `json:"double_delete_count"`
}

// Stats returns a snapshot of the allocator.
func (f *FixedBlock[T]) Stats() Stats {
	s := Stats{
		Kind:       "fixed",
		Tracking:   "none",
		PageSize:   pageSize(),
		Cursor:     f.allocIndex,
		BlockSize:  f.blockSize,
		Stride:     f.stride,
		LiveBlocks: f.live,
		FreeBlocks: f.freeLen,
	}
	f.r.fill(&s)

	switch t := any(f.tracker).(type) {
	case *CountTracking:
		s.Tracking = "count"
		s.AllocationDifference = t.AllocationDifference()
	case *DoubleFreeTracking:
		s.Tracking = "double-free"
		s.MultipleDeleteCount = t.MultipleDeleteCount()
		s.DoubleDeleteCount = t.DoubleDeleteCount()
	}
	return s
}

// PrintDetailedMap writes the allocator's stats as a JSON object.
func (f *FixedBlock[T]) PrintDetailedMap(json *jwriter.Writer) {
	f.Stats().PrintDetailedMap(json)
}

// PrintDetailedMap writes s as a JSON object.
func (s Stats) PrintDetailedMap(json *jwriter.Writer) {
	obj := json.Object()
	defer obj.End()

	obj.Name("Kind").String(s.Kind)
	obj.Maybe("Tracking", s.Tracking != "").String(s.Tracking)
	obj.Name("PageSize").Int(int(s.PageSize))
	obj.Name("ReservedPages").Int(s.ReservedPages)
	obj.Name("CommittedPages").Int(s.CommittedPages)
	obj.Name("Granularity").Int(s.Granularity)
	obj.Name("Cursor").Int(int(s.Cursor))
	obj.Maybe("Peak", s.Peak != 0).Int(int(s.Peak))

	if s.BlockSize != 0 {
		obj.Name("BlockSize").Int(int(s.BlockSize))
		obj.Name("Stride").Int(int(s.Stride))
		obj.Name("LiveBlocks").Int(s.LiveBlocks)
		obj.Name("FreeBlocks").Int(s.FreeBlocks)
	}

	switch s.Tracking {
	case "count":
		obj.Name("AllocationDifference").Int(int(s.AllocationDifference))
	case "double-free":
		obj.Name("MultipleDeleteCount").Int(int(s.MultipleDeleteCount))
		obj.Name("DoubleDeleteCount").Int(int(s.DoubleDeleteCount))
	}
}

func (r *region) fill(s *Stats) {
	s.Granularity = r.granularity
	s.CommittedPages = r.committed
	if r.vm != nil {
		s.ReservedPages = r.reservedPages()
	}
}
