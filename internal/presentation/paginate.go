// Package presentation splits the board into pages that fit the display and
// rotates through them.
package presentation

// ComputePageSize is how many rows fit in the viewport, never less than one.
func ComputePageSize(viewportHeight, rowHeight int) int {
	if rowHeight <= 0 {
		return 1
	}
	return max(1, viewportHeight/rowHeight)
}

// TotalPages is ceil(count/size), with at least one page.
func TotalPages(count, size int) int {
	if size <= 0 {
		size = 1
	}
	if count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// Slice returns the rows of a page. The page index wraps around the page
// count, so it stays valid when the data shrinks.
func Slice[T any](items []T, pageIndex, size int) []T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = 1
	}
	total := TotalPages(len(items), size)
	idx := ((pageIndex % total) + total) % total
	start := idx * size
	end := min(start+size, len(items))
	return items[start:end]
}

// PageState is the current page, the page size and the page count.
type PageState struct {
	Current int
	Size    int
	Total   int
}

// Paginator keeps PageState consistent as the viewport, row height and row
// count change.
type Paginator struct {
	viewport  int
	rowHeight int
	count     int
	state     PageState
}

func NewPaginator(viewportHeight, rowHeight int) *Paginator {
	p := &Paginator{viewport: viewportHeight, rowHeight: rowHeight}
	p.recompute()
	return p
}

func (p *Paginator) State() PageState { return p.state }

// Resize applies a new viewport height.
func (p *Paginator) Resize(viewportHeight int) {
	p.viewport = viewportHeight
	p.recompute()
}

// SetRowHeight applies a new row height.
func (p *Paginator) SetRowHeight(rowHeight int) {
	p.rowHeight = rowHeight
	p.recompute()
}

// SetCount applies a new row count.
func (p *Paginator) SetCount(count int) {
	p.count = count
	p.recompute()
}

// Advance moves to the next page, wrapping to the first. It reports false
// and does nothing when there is a single page.
func (p *Paginator) Advance() bool {
	if p.state.Total <= 1 {
		return false
	}
	p.state.Current = (p.state.Current + 1) % p.state.Total
	return true
}

// Back moves to the previous page, wrapping to the last.
func (p *Paginator) Back() bool {
	if p.state.Total <= 1 {
		return false
	}
	p.state.Current = (p.state.Current - 1 + p.state.Total) % p.state.Total
	return true
}

func (p *Paginator) recompute() {
	p.state.Size = ComputePageSize(p.viewport, p.rowHeight)
	p.state.Total = TotalPages(p.count, p.state.Size)
	if p.state.Current >= p.state.Total {
		p.state.Current %= p.state.Total
	}
	if p.state.Current < 0 {
		p.state.Current = 0
	}
}

// Page returns the rows of the current page.
func Page[T any](p *Paginator, items []T) []T {
	return Slice(items, p.state.Current, p.state.Size)
}
