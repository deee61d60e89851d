// internal/app/features/institutions/list.go
package institutions

import (
	"context"
	"net/http"

	"github.com/dalemusser/traineehub/internal/app/system/counts"
	"github.com/dalemusser/traineehub/internal/app/system/paging"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /institutions (with optional ?q= prefix search on
// the English name). Rows carry trainee and supervisor counts.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := query.Search(r, "q")
	keyset := paging.KeysetFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	base := bson.M{}
	if fq := text.Fold(q); fq != "" {
		base["name_ci"] = bson.M{"$gte": fq, "$lt": fq + "￿"}
	}

	coll := h.DB.Collection("institutions")
	total, err := coll.CountDocuments(ctx, base)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count institutions failed", err, "Unable to load institutions.", "/admin")
		return
	}

	const sortField = "name_ci"
	cur, err := coll.Find(ctx, keyset.Where(base, sortField), keyset.Find(sortField))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find institutions failed", err, "Unable to load institutions.", "/admin")
		return
	}
	defer cur.Close(ctx)

	var rows []models.Institution
	if err := cur.All(ctx, &rows); err != nil {
		h.ErrLog.LogServerError(w, r, "decode institutions failed", err, "Unable to load institutions.", "/admin")
		return
	}

	rows, nav := paging.Window(keyset, rows,
		func(i models.Institution) string { return i.NameCI },
		func(i models.Institution) primitive.ObjectID { return i.ID })

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, inst := range rows {
		ids = append(ids, inst.ID)
	}
	match := bson.M{"institution_id": bson.M{"$in": ids}}

	trainees, err := counts.ByField(ctx, h.DB, "trainees", match, "institution_id")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "aggregate trainee counts failed", err, "Unable to load institution data.", "/admin")
		return
	}
	supervisors, err := counts.ByField(ctx, h.DB, "supervisors", match, "institution_id")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "aggregate supervisor counts failed", err, "Unable to load institution data.", "/admin")
		return
	}

	items := make([]listItem, 0, len(rows))
	for _, inst := range rows {
		items = append(items, listItem{
			ID:          inst.ID,
			NameEN:      inst.NameEN,
			NameAR:      inst.NameAR,
			Email:       inst.Email,
			Phone:       inst.Phone,
			Trainees:    trainees[inst.ID],
			Supervisors: supervisors[inst.ID],
		})
	}

	data := listData{
		BaseVM: viewdata.NewBaseVM(r, "Institutions", "/admin"),
		Q:      q,
		Items:  items,

		Shown: len(rows),
		Total: total,
		Nav:   nav,
	}

	templates.Render(w, r, "institutions_list", data)
}
