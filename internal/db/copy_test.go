package db

import "testing"

type pair struct {
	a string
	b int
}

func (p pair) CopyValues() []any { return []any{p.a, p.b} }

func TestRecordSource(t *testing.T) {
	src := NewRecordSource([]pair{{"x", 1}, {"y", 2}})
	var got [][]any
	for src.Next() {
		v, err := src.Values()
		if err != nil {
			t.Fatalf("Values: %v", err)
		}
		got = append(got, v)
	}
	if len(got) != 2 || got[1][0] != "y" || got[1][1] != 2 {
		t.Errorf("rows = %v", got)
	}
	if src.Next() {
		t.Error("Next after end must stay false")
	}
	if src.Err() != nil {
		t.Errorf("Err = %v", src.Err())
	}
}

func TestRecordSource_Empty(t *testing.T) {
	if NewRecordSource([]pair(nil)).Next() {
		t.Error("empty source yielded a row")
	}
}
