package ui

import "testing"

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"  Shakshuka ", 20, "Shakshuka"},
		{"Kimchi Fried Rice", 10, "Kimchi ..."},
		{"Ramen", 3, "Ram"},
		{"Pho", 0, "Pho"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestCompactCount(t *testing.T) {
	cases := map[int]string{
		-1:        "0",
		7:         "7",
		999:       "999",
		1000:      "1k",
		1200:      "1.2k",
		2_500_000: "2.5M",
	}
	for in, want := range cases {
		if got := compactCount(in); got != want {
			t.Fatalf("compactCount(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestVisibleWindow(t *testing.T) {
	cases := []struct {
		sel, n, height int
		start, end     int
	}{
		{0, 5, 10, 0, 5},
		{0, 50, 10, 0, 10},
		{25, 50, 10, 20, 30},
		{49, 50, 10, 40, 50},
	}
	for _, tc := range cases {
		start, end := visibleWindow(tc.sel, tc.n, tc.height)
		if start != tc.start || end != tc.end {
			t.Fatalf("visibleWindow(%d, %d, %d) = %d, %d; want %d, %d",
				tc.sel, tc.n, tc.height, start, end, tc.start, tc.end)
		}
	}
}

func TestClamp(t *testing.T) {
	if clamp(5, 3) != 2 || clamp(-1, 3) != 0 || clamp(2, 0) != 0 {
		t.Fatalf("clamp out of range")
	}
}
