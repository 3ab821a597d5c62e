package app

import (
	"reflect"
	"sync"
	"testing"
)

func TestNormalizeTagNames(t *testing.T) {
	got := NormalizeTagNames([]string{"  sunset ", "", "  ", "Beach", "beach"})
	want := []string{"sunset", "Beach", "beach"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeTagNames() = %v, want %v", got, want)
	}
}

func TestSplitTagList(t *testing.T) {
	got := SplitTagList("sunset, beach ,, travel ")
	want := []string{"sunset", "beach", "travel"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitTagList() = %v, want %v", got, want)
	}
	if got := SplitTagList("   "); got != nil {
		t.Fatalf("SplitTagList(blank) = %v, want nil", got)
	}
}

func TestResolveTagsIdempotent(t *testing.T) {
	a, _, _ := newTestApp(t, Config{})

	first, err := a.ResolveTags([]string{"sunset", "beach"})
	if err != nil {
		t.Fatalf("ResolveTags() error: %v", err)
	}
	second, err := a.ResolveTags([]string{" sunset", "beach "})
	if err != nil {
		t.Fatalf("ResolveTags() error: %v", err)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("got %d and %d tags, want 2 and 2", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("tag %q resolved to ids %d and %d", first[i].Name, first[i].ID, second[i].ID)
		}
	}
}

func TestResolveTagsCaseSensitive(t *testing.T) {
	a, _, _ := newTestApp(t, Config{})

	tags, err := a.ResolveTags([]string{"Beach", "beach"})
	if err != nil {
		t.Fatalf("ResolveTags() error: %v", err)
	}
	if len(tags) != 2 || tags[0].ID == tags[1].ID {
		t.Fatalf("ResolveTags() = %v, want two distinct tags", tags)
	}
}

func TestResolveTagsConcurrent(t *testing.T) {
	a, _, _ := newTestApp(t, Config{})

	const workers = 16
	ids := make([]uint, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tags, err := a.ResolveTags([]string{"holiday"})
			if err != nil || len(tags) != 1 {
				return
			}
			ids[i] = tags[0].ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("concurrent ResolveTags produced ids %d and %d", ids[0], ids[i])
		}
	}

	all, err := a.ListTags()
	if err != nil {
		t.Fatalf("ListTags() error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("ListTags() returned %d tags, want 1", len(all))
	}
}
