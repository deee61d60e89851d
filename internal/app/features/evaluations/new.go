// internal/app/features/evaluations/new.go
package evaluations

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	evaluationstore "github.com/dalemusser/traineehub/internal/app/store/evaluations"
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/inputval"
	"github.com/dalemusser/traineehub/internal/app/system/navigation"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type evaluationInput struct {
	TraineeID     string  `validate:"required,objectid" label:"Trainee"`
	Period        string  `validate:"max=100" label:"Period"`
	Technical     float64 `validate:"gte=0,lte=100" label:"Technical score"`
	Communication float64 `validate:"gte=0,lte=100" label:"Communication score"`
	Teamwork      float64 `validate:"gte=0,lte=100" label:"Teamwork score"`
	Punctuality   float64 `validate:"gte=0,lte=100" label:"Punctuality score"`
	Initiative    float64 `validate:"gte=0,lte=100" label:"Initiative score"`
	Overall       float64 `validate:"gte=0,lte=100" label:"Overall score"`
	Comments      string  `validate:"max=5000" label:"Comments"`
}

// parseScore reads a form score. Empty means zero.
func parseScore(label, s string) (float64, string) {
	if s == "" {
		return 0, ""
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, label + " must be a number."
	}
	return v, ""
}

func (d formData) input() (evaluationInput, string) {
	in := evaluationInput{TraineeID: d.TraineeID, Period: d.Period, Comments: d.Comments}
	fields := []struct {
		label string
		raw   string
		dst   *float64
	}{
		{"Technical score", d.Technical, &in.Technical},
		{"Communication score", d.Communication, &in.Communication},
		{"Teamwork score", d.Teamwork, &in.Teamwork},
		{"Punctuality score", d.Punctuality, &in.Punctuality},
		{"Initiative score", d.Initiative, &in.Initiative},
		{"Overall score", d.Overall, &in.Overall},
	}
	for _, f := range fields {
		v, msg := parseScore(f.label, f.raw)
		if msg != "" {
			return in, msg
		}
		*f.dst = v
	}
	return in, ""
}

func (h *Handler) trainees(ctx context.Context, ids []primitive.ObjectID) []traineeoptions.Option {
	opts, err := traineeoptions.Load(ctx, h.DB, ids)
	if err != nil {
		h.Log.Warn("load trainee options failed", zap.Error(err))
	}
	return opts
}

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "Unable to load trainees.", "/evaluations")
		return
	}
	data := formData{
		TraineeID:   r.URL.Query().Get("trainee"),
		EvaluatedOn: time.Now().Format(formutil.DateLayout),
		Trainees:    h.trainees(ctx, scope.Filter()),
	}
	formutil.SetBase(&data.Base, r, "New Evaluation", "/evaluations")
	if scope.Incomplete() {
		data.SetError("Your supervisor profile is incomplete, so you cannot evaluate trainees yet.")
	}
	templates.Render(w, r, "evaluation_form", data)
}

// HandleCreate records a pending evaluation by the signed-in supervisor for
// one of its assigned trainees. An empty overall score is the mean of the
// five sub-scores.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/evaluations")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "Unable to save evaluation.", "/evaluations")
		return
	}

	field := func(name string) string { return strings.TrimSpace(r.FormValue(name)) }
	data := formData{
		TraineeID:     field("trainee_id"),
		Period:        field("period"),
		Technical:     field("technical"),
		Communication: field("communication"),
		Teamwork:      field("teamwork"),
		Punctuality:   field("punctuality"),
		Initiative:    field("initiative"),
		Overall:       field("overall"),
		Comments:      field("comments"),
		EvaluatedOn:   field("evaluated_on"),
	}
	reRender := func(msg string) {
		data.Trainees = h.trainees(ctx, scope.Filter())
		formutil.SetBase(&data.Base, r, "New Evaluation", "/evaluations")
		data.SetError(msg)
		templates.Render(w, r, "evaluation_form", data)
	}

	in, msg := data.input()
	if msg != "" {
		reRender(msg)
		return
	}
	if result := inputval.Validate(in); result.HasErrors() {
		reRender(result.First())
		return
	}
	on, err := formutil.ParseDate(data.EvaluatedOn)
	if err != nil {
		reRender("Evaluation date must be a valid date.")
		return
	}
	supID := scope.SupervisorID()
	if supID.IsZero() {
		reRender("Your supervisor profile is incomplete, so you cannot evaluate trainees yet.")
		return
	}
	traineeID, _ := primitive.ObjectIDFromHex(in.TraineeID)
	if !scope.Allows(traineeID) {
		reRender("Please choose one of your trainees.")
		return
	}

	e := models.Evaluation{
		TraineeID:    traineeID,
		SupervisorID: supID,
		Period:       in.Period,
		Scores: models.EvaluationScores{
			Technical:     in.Technical,
			Communication: in.Communication,
			Teamwork:      in.Teamwork,
			Punctuality:   in.Punctuality,
			Initiative:    in.Initiative,
		},
		OverallScore: in.Overall,
		Comments:     in.Comments,
	}
	if on != nil {
		e.EvaluatedAt = *on
	}
	created, err := evaluationstore.New(h.DB).Create(ctx, e)
	if err != nil {
		h.Log.Error("create evaluation failed", zap.Error(err))
		reRender("Database error while saving the evaluation.")
		return
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventEvaluationCreated, &traineeID, map[string]string{
		"evaluation_id": created.ID.Hex(),
		"overall":       strconv.FormatFloat(created.OverallScore, 'f', 1, 64),
	})

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.EvaluationsBackURL), http.StatusSeeOther)
}
