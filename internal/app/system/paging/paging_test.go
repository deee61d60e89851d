package paging

import (
	"net/http/httptest"
	"testing"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type row struct {
	key string
	id  primitive.ObjectID
}

func rows(keys ...string) []row {
	out := make([]row, 0, len(keys))
	for _, k := range keys {
		out = append(out, row{key: k, id: primitive.NewObjectID()})
	}
	return out
}

func keyOf(r row) string            { return r.key }
func idOf(r row) primitive.ObjectID { return r.id }

func keysOf(rs []row) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.key)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestKeysetFrom(t *testing.T) {
	cur := wafflemongo.EncodeCursor("beta", primitive.NewObjectID())

	k := KeysetFrom(httptest.NewRequest("GET", "/institutions?after="+cur+"&start=51", nil))
	if k.backward() || k.cursor == nil || k.Start != 51 {
		t.Errorf("forward keyset = %+v", k)
	}

	k = KeysetFrom(httptest.NewRequest("GET", "/institutions?before="+cur+"&after=ignored", nil))
	if !k.backward() || k.cursor == nil || k.cursor.CI != "beta" {
		t.Errorf("backward keyset = %+v", k)
	}

	k = KeysetFrom(httptest.NewRequest("GET", "/institutions?after=garbage&start=-4", nil))
	if k.cursor != nil {
		t.Error("undecodable cursor should be dropped")
	}
	if k.Start != 1 {
		t.Errorf("start = %d, want 1", k.Start)
	}
}

func TestKeyset_Find(t *testing.T) {
	opts := Keyset{size: 10}.Find("name_ci")
	if opts.Limit == nil || *opts.Limit != 11 {
		t.Errorf("limit = %v, want 11", opts.Limit)
	}
	sort, ok := opts.Sort.(bson.D)
	if !ok || len(sort) != 2 || sort[0].Key != "name_ci" || sort[0].Value != 1 || sort[1].Key != "_id" {
		t.Errorf("forward sort = %v", opts.Sort)
	}

	sort = Keyset{Before: "x", size: 10}.Find("name_ci").Sort.(bson.D)
	if sort[0].Value != -1 || sort[1].Value != -1 {
		t.Errorf("backward sort = %v", sort)
	}
}

func TestKeyset_Where(t *testing.T) {
	base := bson.M{"name_ci": bson.M{"$gte": "a"}}

	if got := (Keyset{}).Where(base, "name_ci"); len(got) != 1 || got["name_ci"] == nil {
		t.Errorf("no cursor should return base, got %v", got)
	}

	c := wafflemongo.Cursor{CI: "m", ID: primitive.NewObjectID()}
	k := Keyset{After: "x", cursor: &c}

	got := k.Where(base, "name_ci")
	and, ok := got["$and"].([]bson.M)
	if !ok || len(and) != 2 {
		t.Fatalf("cursor with base should combine with $and, got %v", got)
	}

	if got := k.Where(nil, "name_ci"); got["$and"] != nil || len(got) == 0 {
		t.Errorf("cursor without base should be the bare window, got %v", got)
	}
}

func TestWindow_Forward(t *testing.T) {
	k := Keyset{Start: 1, size: 3}

	page, nav := Window(k, rows("a", "b", "c", "d"), keyOf, idOf)
	if !equal(keysOf(page), []string{"a", "b", "c"}) {
		t.Errorf("rows = %v", keysOf(page))
	}
	if nav.HasPrev || !nav.HasNext {
		t.Errorf("nav = %+v", nav)
	}
	if nav.RangeStart != 1 || nav.RangeEnd != 3 || nav.NextStart != 4 || nav.PrevStart != 1 {
		t.Errorf("range = %+v", nav)
	}
	c, ok := wafflemongo.DecodeCursor(nav.NextCursor)
	if !ok || c.CI != "c" {
		t.Errorf("next cursor should point at the last row, got %+v", c)
	}
}

func TestWindow_ForwardLastPage(t *testing.T) {
	k := Keyset{After: "x", Start: 7, size: 3}

	page, nav := Window(k, rows("g", "h"), keyOf, idOf)
	if len(page) != 2 || !nav.HasPrev || nav.HasNext {
		t.Errorf("rows = %v, nav = %+v", keysOf(page), nav)
	}
	if nav.RangeStart != 7 || nav.RangeEnd != 8 || nav.PrevStart != 4 {
		t.Errorf("range = %+v", nav)
	}
}

func TestWindow_Backward(t *testing.T) {
	k := Keyset{Before: "x", Start: 4, size: 3}

	// Fetched in descending order with one look-ahead row.
	page, nav := Window(k, rows("c", "b", "a", "0"), keyOf, idOf)
	if !equal(keysOf(page), []string{"a", "b", "c"}) {
		t.Errorf("rows = %v", keysOf(page))
	}
	if !nav.HasPrev || !nav.HasNext {
		t.Errorf("nav = %+v", nav)
	}
	c, ok := wafflemongo.DecodeCursor(nav.PrevCursor)
	if !ok || c.CI != "a" {
		t.Errorf("prev cursor should point at the first row, got %+v", c)
	}
}

func TestWindow_BackwardToTop(t *testing.T) {
	page, nav := Window(Keyset{Before: "x", Start: 1, size: 3}, rows("b", "a"), keyOf, idOf)
	if !equal(keysOf(page), []string{"a", "b"}) || nav.HasPrev || !nav.HasNext {
		t.Errorf("rows = %v, nav = %+v", keysOf(page), nav)
	}
}

func TestWindow_Empty(t *testing.T) {
	page, nav := Window(Keyset{Start: 1, size: 3}, nil, keyOf, idOf)
	if len(page) != 0 || nav.RangeStart != 0 || nav.RangeEnd != 0 || nav.NextCursor != "" {
		t.Errorf("nav = %+v", nav)
	}
	if nav.PrevStart != 1 || nav.NextStart != 1 {
		t.Errorf("empty page starts = %d/%d, want 1/1", nav.PrevStart, nav.NextStart)
	}
}

func TestPageFrom(t *testing.T) {
	tests := map[string]int{
		"/audit":         1,
		"/audit?page=3":  3,
		"/audit?page=0":  1,
		"/audit?page=-2": 1,
		"/audit?page=x":  1,
	}
	for url, want := range tests {
		if got := PageFrom(httptest.NewRequest("GET", url, nil)); got != want {
			t.Errorf("PageFrom(%q) = %d, want %d", url, got, want)
		}
	}
}

func TestSkip(t *testing.T) {
	if Skip(1) != 0 || Skip(0) != 0 || Skip(3) != 2*PageSize {
		t.Errorf("Skip: %d %d %d", Skip(1), Skip(0), Skip(3))
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		page      int
		total     int64
		wantPages int
		wantPrev  bool
		wantNext  bool
	}{
		{1, 0, 1, false, false},
		{1, PageSize, 1, false, false},
		{1, PageSize + 1, 2, false, true},
		{2, PageSize + 1, 2, true, false},
		{3, 5 * PageSize, 5, true, true},
	}
	for _, tt := range tests {
		p := Count(tt.page, tt.total)
		if p.TotalPages != tt.wantPages || p.HasPrev != tt.wantPrev || p.HasNext != tt.wantNext {
			t.Errorf("Count(%d, %d) = %+v", tt.page, tt.total, p)
		}
		if p.PrevPage != tt.page-1 || p.NextPage != tt.page+1 || p.Total != tt.total {
			t.Errorf("Count(%d, %d) links = %+v", tt.page, tt.total, p)
		}
	}
}
