// Package paging splits long lists into pages.
//
// Keyset pages walk a list sorted by (folded key, _id) with opaque cursors
// and suit browse lists such as institutions. Numbered pages use skip and
// limit and suit filtered logs, where jumping to page N matters more than
// the cost of the skip.
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the row count of every paged list.
const PageSize = 50

/*─────────────────────────────────────────────────────────────────────────────*
| Keyset                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Keyset is one request's position in a keyset-paged list.
type Keyset struct {
	Before string
	After  string
	// Start is the 1-based index of the first row, carried in the URL so
	// the page can show "51-100 of 240".
	Start int

	size   int
	cursor *wafflemongo.Cursor
}

// KeysetFrom reads ?before=, ?after= and ?start=. A cursor that does not
// decode is ignored and the list starts from the top.
func KeysetFrom(r *http.Request) Keyset {
	k := Keyset{
		Before: query.Get(r, "before"),
		After:  query.Get(r, "after"),
		Start:  positive(query.Get(r, "start")),
		size:   PageSize,
	}
	raw := k.After
	if k.backward() {
		raw = k.Before
	}
	if raw != "" {
		if c, ok := wafflemongo.DecodeCursor(raw); ok {
			k.cursor = &c
		}
	}
	return k
}

func (k Keyset) backward() bool { return k.Before != "" }

func (k Keyset) order() int {
	if k.backward() {
		return -1
	}
	return 1
}

// Find sorts by sortField then _id in the paging direction and fetches one
// row past the page to learn whether another page exists.
func (k Keyset) Find(sortField string) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: sortField, Value: k.order()}, {Key: "_id", Value: k.order()}}).
		SetLimit(int64(k.size + 1))
}

// Where combines base with the cursor window on sortField. base is
// returned unchanged when there is no cursor.
func (k Keyset) Where(base bson.M, sortField string) bson.M {
	if k.cursor == nil {
		return base
	}
	dir := "gt"
	if k.backward() {
		dir = "lt"
	}
	window := wafflemongo.KeysetWindow(sortField, dir, k.cursor.CI, k.cursor.ID)
	if len(base) == 0 {
		return window
	}
	return bson.M{"$and": []bson.M{base, window}}
}

// Nav is what a keyset-paged template needs for its footer.
type Nav struct {
	HasPrev    bool
	HasNext    bool
	PrevCursor string
	NextCursor string
	RangeStart int // 0 when the page is empty
	RangeEnd   int
	PrevStart  int
	NextStart  int
}

// Window puts rows fetched with Find into display order, drops the
// look-ahead row and builds the footer. key and id return the sort key and
// _id of a row.
func Window[T any](k Keyset, rows []T, key func(T) string, id func(T) primitive.ObjectID) ([]T, Nav) {
	var nav Nav
	if k.backward() {
		reverse(rows)
		if len(rows) > k.size {
			rows = rows[1:]
			nav.HasPrev = true
		}
		nav.HasNext = true
	} else {
		if len(rows) > k.size {
			rows = rows[:k.size]
			nav.HasNext = true
		}
		nav.HasPrev = k.After != ""
	}

	nav.PrevStart, nav.NextStart = 1, 1
	if len(rows) == 0 {
		return rows, nav
	}
	nav.RangeStart = k.Start
	nav.RangeEnd = k.Start + len(rows) - 1
	nav.NextStart = k.Start + len(rows)
	if p := k.Start - k.size; p > 1 {
		nav.PrevStart = p
	}
	first, last := rows[0], rows[len(rows)-1]
	nav.PrevCursor = wafflemongo.EncodeCursor(key(first), id(first))
	nav.NextCursor = wafflemongo.EncodeCursor(key(last), id(last))
	return rows, nav
}

func reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Numbered                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Pages is the footer of a numbered list.
type Pages struct {
	Page       int
	TotalPages int
	Total      int64
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

// PageFrom reads ?page=, defaulting to 1.
func PageFrom(r *http.Request) int {
	return positive(r.URL.Query().Get("page"))
}

// Skip is the offset of page (1-based).
func Skip(page int) int64 {
	if page < 1 {
		page = 1
	}
	return int64((page - 1) * PageSize)
}

// Count builds the footer for page given the filtered total.
func Count(page int, total int64) Pages {
	p := Pages{Page: page, Total: total}
	p.TotalPages = int((total + PageSize - 1) / PageSize)
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
	p.HasPrev = page > 1
	p.HasNext = page < p.TotalPages
	p.PrevPage = page - 1
	p.NextPage = page + 1
	return p
}

func positive(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
