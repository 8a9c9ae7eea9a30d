// Package pagepkg provides offset pagination over materialized listings.
package pagepkg

// Window returns the bounds of the zero-based page of the given size over total items.
//
// Pages past the end yield an empty window (start == end == total).
func Window(total, page, size int) (start, end int) {
	if page < 0 || size <= 0 {
		return 0, 0
	}

	if page > total/size {
		return total, total
	}

	start = page * size
	if start > total {
		start = total
	}

	end = total
	if size < total-start {
		end = start + size
	}

	return start, end
}

// TotalPages returns the number of pages of the given size needed to hold total items.
func TotalPages(total, size int) int {
	if size <= 0 {
		return 0
	}

	pages := total / size
	if total%size != 0 {
		pages++
	}

	return pages
}
