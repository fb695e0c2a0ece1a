package model

import (
	"reflect"
	"testing"
)

// TestCrawlState tests the checked/included set operations.
func TestCrawlState(t *testing.T) {
	t.Parallel()

	t.Run("new state is empty", func(t *testing.T) {
		t.Parallel()

		s := NewCrawlState()
		checked, included := s.Len()
		if checked != 0 || included != 0 {
			t.Errorf("expected empty state, got checked=%d included=%d", checked, included)
		}
	})

	t.Run("marking twice changes nothing the second time", func(t *testing.T) {
		t.Parallel()

		s := NewCrawlState()
		s.MarkChecked("a")
		s.MarkIncluded("b")

		before := snapshot(s)
		s.MarkChecked("a")
		s.MarkIncluded("b")
		after := snapshot(s)

		if !reflect.DeepEqual(before, after) {
			t.Errorf("state changed on repeated marks: before=%v after=%v", before, after)
		}
	})

	t.Run("included implies checked", func(t *testing.T) {
		t.Parallel()

		s := NewCrawlState()
		s.MarkIncluded("x")

		if !s.IsChecked("x") {
			t.Error("expected included id to be checked")
		}
		if !s.IsIncluded("x") {
			t.Error("expected id to be included")
		}
	})

	t.Run("checked does not imply included", func(t *testing.T) {
		t.Parallel()

		s := NewCrawlState()
		s.MarkChecked("y")

		if s.IsIncluded("y") {
			t.Error("checked id must not be included")
		}
	})
}

// TestIDSetSorted tests that ids are returned in stable order.
func TestIDSetSorted(t *testing.T) {
	t.Parallel()

	s := NewIDSet("c", "a", "b", "a")
	got := s.Sorted()
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func snapshot(s *CrawlState) [2][]string {
	return [2][]string{s.Checked.Sorted(), s.Included.Sorted()}
}
