package bar

// PageCount returns the number of pages for n visible items at page size p.
// p == 0 means unpaged: every visible item on one page.
func PageCount(n, p int) int {
	if n <= 0 {
		return 0
	}
	if p <= 0 {
		return 1
	}
	return (n + p - 1) / p
}

// PageBounds returns the [start, end) item range of a 1-based page. A short
// final page is filled backwards so the bar keeps a constant width.
func PageBounds(n, p, page int) (int, int) {
	count := PageCount(n, p)
	if count == 0 {
		return 0, 0
	}
	if p <= 0 || p >= n {
		return 0, n
	}
	page = Wrap(page, count)
	end := page * p
	if end > n {
		end = n
	}
	start := end - p
	if start < 0 {
		start = 0
	}
	return start, end
}

// Wrap folds page into [1, count]: 0 becomes count and count+1 becomes 1.
func Wrap(page, count int) int {
	if count <= 0 {
		return 0
	}
	page = (page - 1) % count
	if page < 0 {
		page += count
	}
	return page + 1
}
