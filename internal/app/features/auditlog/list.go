// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	"github.com/dalemusser/traineehub/internal/app/system/idset"
	"github.com/dalemusser/traineehub/internal/app/system/paging"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = paging.PageSize

// filterFromQuery reads ?category=, ?event_type=, ?start_date=, ?end_date=,
// ?failed=1 and ?page=. Unknown categories and bad dates are ignored.
func filterFromQuery(r *http.Request) (audit.QueryFilter, listData) {
	q := r.URL.Query()
	data := listData{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
		Failures:  q.Get("failed") == "1",
		Pages:     paging.Pages{Page: paging.PageFrom(r)},
	}
	if !isKnownCategory(data.Category) {
		data.Category = ""
	}

	f := audit.QueryFilter{
		Category:   data.Category,
		EventType:  data.EventType,
		FailedOnly: data.Failures,
		Limit:      pageSize,
		Offset:     paging.Skip(data.Page),
	}
	if t, err := time.Parse("2006-01-02", data.StartDate); err == nil {
		f.StartTime = &t
	} else {
		data.StartDate = ""
	}
	if t, err := time.Parse("2006-01-02", data.EndDate); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &end
	} else {
		data.EndDate = ""
	}
	return f, data
}

// ServeList handles GET /audit.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	filter, data := filterFromQuery(r)
	data.BaseVM = viewdata.NewBaseVM(r, "Audit log", "/dashboard")
	data.Categories = allCategories()
	data.EventTypes = eventTypesForCategory(data.Category)

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "Unable to load the audit log.", "/dashboard")
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "Unable to load the audit log.", "/dashboard")
		return
	}

	data.Items = h.items(ctx, events)
	data.Pages = paging.Count(data.Page, total)

	templates.Render(w, r, "audit_list", data)
}

// items resolves actor and subject ids to user names. An id whose user is
// gone (or whose lookup failed) is shown as hex; repair events often name
// trainee ids, which are never users.
func (h *Handler) items(ctx context.Context, events []audit.Event) []listItem {
	var ids []primitive.ObjectID
	for _, e := range events {
		if e.ActorID != nil {
			ids = append(ids, *e.ActorID)
		}
		if e.UserID != nil {
			ids = append(ids, *e.UserID)
		}
	}
	ids = idset.Unique(ids)

	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) > 0 {
		users, err := h.Users.GetByIDs(ctx, ids)
		if err != nil {
			h.Log.Warn("resolve audit user names failed", zap.Error(err))
		}
		for _, u := range users {
			names[u.ID] = u.FullName
		}
	}
	nameOf := func(id *primitive.ObjectID) string {
		if id == nil {
			return ""
		}
		if n, ok := names[*id]; ok && n != "" {
			return n
		}
		return id.Hex()
	}

	out := make([]listItem, 0, len(events))
	for _, e := range events {
		out = append(out, listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			ActorName:     nameOf(e.ActorID),
			SubjectName:   nameOf(e.UserID),
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}
	return out
}
