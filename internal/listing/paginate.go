package listing

// DefaultPageSize is the number of rows shown per page unless changed.
const DefaultPageSize = 10

// PageSizes are the page sizes offered in permit tables.
var PageSizes = []int{5, 10, 25, 50}

// PageCount returns ceil(n / size). An empty list has zero pages.
func PageCount(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Paginate returns the 1-based page of items. Pages outside
// [1, PageCount] are empty.
func Paginate[T any](items []T, size, page int) []T {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// ClampPage keeps page within [1, PageCount(n, size)], returning 1 for an
// empty list.
func ClampPage(page, n, size int) int {
	last := PageCount(n, size)
	if last == 0 || page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}
