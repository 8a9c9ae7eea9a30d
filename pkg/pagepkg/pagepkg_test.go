package pagepkg

import (
	"math"
	"testing"
)

func TestWindow(t *testing.T) {
	testCases := []struct {
		name      string
		total     int
		page      int
		size      int
		wantStart int
		wantEnd   int
	}{
		{name: "FirstPage", total: 3, page: 0, size: 2, wantStart: 0, wantEnd: 2},
		{name: "LastPartialPage", total: 3, page: 1, size: 2, wantStart: 2, wantEnd: 3},
		{name: "PastEnd", total: 3, page: 2, size: 2, wantStart: 3, wantEnd: 3},
		{name: "FarPastEnd", total: 3, page: 1 << 40, size: 1 << 30, wantStart: 3, wantEnd: 3},
		{name: "Empty", total: 0, page: 0, size: 10, wantStart: 0, wantEnd: 0},
		{name: "ExactFit", total: 4, page: 1, size: 2, wantStart: 2, wantEnd: 4},
		{name: "NegativePage", total: 4, page: -1, size: 2, wantStart: 0, wantEnd: 0},
		{name: "ZeroSize", total: 4, page: 0, size: 0, wantStart: 0, wantEnd: 0},
		{name: "MaxSize", total: 3, page: 0, size: math.MaxInt, wantStart: 0, wantEnd: 3},
		{name: "MaxSizeMaxTotal", total: math.MaxInt, page: 1, size: math.MaxInt, wantStart: math.MaxInt, wantEnd: math.MaxInt},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			start, end := Window(tc.total, tc.page, tc.size)
			if start != tc.wantStart || end != tc.wantEnd {
				t.Errorf("Window(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tc.total, tc.page, tc.size, start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	testCases := []struct {
		total, size, want int
	}{
		{total: 0, size: 2, want: 0},
		{total: 3, size: 2, want: 2},
		{total: 4, size: 2, want: 2},
		{total: 4, size: 0, want: 0},
		{total: 3, size: math.MaxInt, want: 1},
		{total: 0, size: math.MaxInt, want: 0},
		{total: math.MaxInt, size: 2, want: math.MaxInt/2 + 1},
	}

	for _, tc := range testCases {
		if got := TotalPages(tc.total, tc.size); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.size, got, tc.want)
		}
	}
}
