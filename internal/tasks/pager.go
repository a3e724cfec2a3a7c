package tasks

// Pager is a page cursor clamped to [1, max(total, 1)].
//
// The zero value is not ready; use [NewPager].
type Pager struct {
	page  int
	total int
}

func NewPager() *Pager { return &Pager{page: 1, total: 1} }

func (p *Pager) Page() int  { return p.page }
func (p *Pager) Total() int { return p.total }

// SetTotal records the server reported page count and re-clamps the cursor.
// A total below 1 is treated as 1.
func (p *Pager) SetTotal(total int) {
	p.total = max(total, 1)
	p.page = min(max(p.page, 1), p.total)
}

// Next advances one page. No-op on the last page; reports whether the cursor moved.
func (p *Pager) Next() bool {
	if p.page >= p.total {
		return false
	}
	p.page++
	return true
}

// Prev goes back one page. No-op on page 1; reports whether the cursor moved.
func (p *Pager) Prev() bool {
	if p.page <= 1 {
		return false
	}
	p.page--
	return true
}

// Reset returns to page 1.
func (p *Pager) Reset() { p.page = 1 }

// Set jumps to page, clamped.
func (p *Pager) Set(page int) { p.page = min(max(page, 1), p.total) }
