package memory

import (
	"strings"
	"testing"
)

func TestParseHugepageSize(t *testing.T) {
	const meminfo = "MemTotal:       16384000 kB\nHugepages_Total:     0\nHugepagesize:       2048 kB\nDirectMap4k:     123456 kB\n"

	sz, ok := parseHugepageSize(strings.NewReader(meminfo))
	if !ok {
		t.Fatal("expected to parse Hugepagesize")
	}

	if want := uintptr(2048 * 1024); sz != want {
		t.Errorf("got %d, want %d", sz, want)
	}
}

func TestParseHugepageSizeMissing(t *testing.T) {
	if _, ok := parseHugepageSize(strings.NewReader("MemTotal: 100 kB\n")); ok {
		t.Error("expected no match without a Hugepagesize line")
	}
}

func TestAlignUpDown(t *testing.T) {
	const pageSize = 4096

	cases := []struct{ size, want uintptr }{
		{0, 0},
		{1, pageSize},
		{pageSize, pageSize},
		{pageSize + 1, 2 * pageSize},
	}

	for _, c := range cases {
		if got := alignUp(c.size, pageSize); got != c.want {
			t.Errorf("alignUp(%d) = %d, want %d", c.size, got, c.want)
		}
	}

	if got := alignDown(pageSize+100, pageSize); got != pageSize {
		t.Errorf("alignDown = %d, want %d", got, pageSize)
	}
}

func TestAllocateRejectsZeroSize(t *testing.T) {
	if _, err := Allocate(0, AllocOptions{}); err == nil {
		t.Error("expected error for zero size allocation")
	}
}

func TestAllocateContiguousOversizeFails(t *testing.T) {
	huge := HugepageSize()

	if _, err := Allocate(huge+1, AllocOptions{Huge: true, Contiguous: true}); err == nil {
		t.Error("expected failure for a contiguous region larger than one huge page")
	}
}
