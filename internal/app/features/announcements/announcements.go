// internal/app/features/announcements/announcements.go
package announcements

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/traineehub/internal/app/system/inputval"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// announcementRow represents an announcement in the list.
type announcementRow struct {
	ID       string
	Title    string
	Type     string
	Pinned   bool
	Active   bool
	Targeted bool
	Created  string
}

// ListVM is the view model for the announcements list.
type ListVM struct {
	viewdata.BaseVM
	Items     []announcementRow // Named Items to avoid conflict with BaseVM.Banners
	CanManage bool
	Success   string
}

// List displays the announcements visible to the caller.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.visible(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list announcements failed", err, "Unable to load announcements.", "/dashboard")
		return
	}

	rows := make([]announcementRow, 0, len(list))
	for _, a := range list {
		rows = append(rows, announcementRow{
			ID:       a.ID.Hex(),
			Title:    a.Title,
			Type:     a.Type,
			Pinned:   a.Pinned,
			Active:   a.Active,
			Targeted: a.Targeted,
			Created:  a.CreatedAt.Format("Jan 2, 2006"),
		})
	}

	vm := ListVM{
		BaseVM:    viewdata.NewBaseVM(r, "Announcements", "/dashboard"),
		Items:     rows,
		CanManage: authz.IsAdmin(r),
	}
	switch r.URL.Query().Get("success") {
	case "created":
		vm.Success = "Announcement created."
	case "updated":
		vm.Success = "Announcement updated."
	case "deleted":
		vm.Success = "Announcement deleted."
	case "flags":
		vm.Success = "Announcement status updated."
	}

	templates.Render(w, r, "announcements_list", vm)
}

// ShowVM is the view model for viewing an announcement.
type ShowVM struct {
	viewdata.BaseVM
	Announcement models.Announcement
	Body         template.HTML
	Recipients   []string
	CanManage    bool
}

// load reads {id}. A missing announcement writes 404.
func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Announcement, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad announcement id", err, "Invalid announcement id.", "/announcements")
		return models.Announcement{}, false
	}
	a, err := h.Store.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "announcement not found", err, "That announcement does not exist.", "/announcements")
		return a, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load announcement failed", err, "Unable to load announcement.", "/announcements")
		return a, false
	}
	return a, true
}

// Show displays a single announcement. Announcements the caller may not
// read are reported as not found.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	ok, err := h.canSee(ctx, r, a)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "announcement access check failed", err, "Unable to load announcement.", "/announcements")
		return
	}
	if !ok {
		h.ErrLog.LogNotFound(w, r, "announcement not visible", nil, "That announcement does not exist.", "/announcements")
		return
	}

	vm := ShowVM{
		BaseVM:       viewdata.NewBaseVM(r, "Announcement", "/announcements"),
		Announcement: a,
		Body:         htmlsanitize.SanitizeToHTML(a.Body),
		CanManage:    authz.IsAdmin(r),
	}
	if vm.CanManage && a.Targeted {
		ids, err := h.Store.Recipients(ctx, a.ID)
		if err != nil {
			h.Log.Warn("load recipients failed", zap.String("announcement_id", a.ID.Hex()), zap.Error(err))
		}
		opts, _ := traineeoptions.Load(ctx, h.DB, ids)
		for _, o := range opts {
			vm.Recipients = append(vm.Recipients, o.Name)
		}
	}
	templates.Render(w, r, "announcement_view", vm)
}

// formVM is the view model for creating and editing an announcement.
type formVM struct {
	formutil.Base
	ID         string
	AnnTitle   string // renamed to avoid conflict with BaseVM.Title
	Body       string
	Type       string
	Pinned     bool
	Active     bool
	Recipients map[string]bool

	Types    []string
	Trainees []traineeoptions.Option
	IsEdit   bool
}

type announcementInput struct {
	Title string `validate:"required,max=200" label:"Title"`
	Body  string `validate:"max=20000" label:"Body"`
	Type  string `validate:"required,oneof=circular workshop general" label:"Type"`
}

func readForm(r *http.Request) (formVM, []primitive.ObjectID) {
	vm := formVM{
		AnnTitle:   strings.TrimSpace(r.FormValue("title")),
		Body:       strings.TrimSpace(r.FormValue("body")),
		Type:       strings.TrimSpace(r.FormValue("type")),
		Pinned:     r.FormValue("pinned") == "on",
		Active:     r.FormValue("active") == "on",
		Recipients: map[string]bool{},
	}
	var ids []primitive.ObjectID
	for _, raw := range r.Form["recipients"] {
		if id, err := primitive.ObjectIDFromHex(raw); err == nil && !vm.Recipients[raw] {
			vm.Recipients[raw] = true
			ids = append(ids, id)
		}
	}
	return vm, ids
}

// cleanBody sanitizes a submitted body. Plain text is turned into a
// paragraph first so line breaks survive.
func cleanBody(s string) string {
	if htmlsanitize.IsPlainText(s) {
		s = htmlsanitize.PlainTextToHTML(s)
	}
	return htmlsanitize.Sanitize(s)
}

func (h *Handler) renderForm(ctx context.Context, w http.ResponseWriter, r *http.Request, vm formVM, msg string) {
	title := "New Announcement"
	if vm.IsEdit {
		title = "Edit Announcement"
	}
	formutil.SetBase(&vm.Base, r, title, "/announcements")
	vm.Types = models.AnnouncementTypes
	opts, err := traineeoptions.Load(ctx, h.DB, nil)
	if err != nil {
		h.Log.Warn("load trainee options failed", zap.Error(err))
	}
	vm.Trainees = opts
	if msg != "" {
		vm.SetError(msg)
	}
	templates.Render(w, r, "announcement_form", vm)
}

// ShowNew displays the new announcement form.
func (h *Handler) ShowNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	h.renderForm(ctx, w, r, formVM{Type: models.AnnouncementGeneral, Active: true, Recipients: map[string]bool{}}, "")
}

// Create creates a new announcement. Selecting recipients targets it at
// those trainees only.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/announcements")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	vm, recipients := readForm(r)
	if result := inputval.Validate(announcementInput{Title: vm.AnnTitle, Body: vm.Body, Type: vm.Type}); result.HasErrors() {
		h.renderForm(ctx, w, r, vm, result.First())
		return
	}

	actor := authz.ActorID(r)
	a, err := h.Store.Create(ctx, models.Announcement{
		Title:     vm.AnnTitle,
		Body:      cleanBody(vm.Body),
		Type:      vm.Type,
		Pinned:    vm.Pinned,
		Active:    vm.Active,
		CreatedBy: actor,
	}, recipients)
	if err != nil {
		h.Log.Error("failed to create announcement", zap.Error(err), zap.String("path", r.URL.Path))
		h.renderForm(ctx, w, r, vm, "Failed to create announcement.")
		return
	}

	h.AuditLog.AdminAction(ctx, r, actor, audit.EventAnnouncementCreated, &a.ID, map[string]string{
		"title":      a.Title,
		"recipients": strconv.Itoa(len(recipients)),
	})
	http.Redirect(w, r, "/announcements?success=created", http.StatusSeeOther)
}

// ShowEdit displays the edit announcement form.
func (h *Handler) ShowEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	vm := formVM{
		ID:         a.ID.Hex(),
		AnnTitle:   a.Title,
		Body:       a.Body,
		Type:       a.Type,
		Pinned:     a.Pinned,
		Active:     a.Active,
		Recipients: map[string]bool{},
		IsEdit:     true,
	}
	ids, err := h.Store.Recipients(ctx, a.ID)
	if err != nil {
		h.Log.Warn("load recipients failed", zap.String("announcement_id", a.ID.Hex()), zap.Error(err))
	}
	for _, id := range ids {
		vm.Recipients[id.Hex()] = true
	}
	h.renderForm(ctx, w, r, vm, "")
}

// Update updates an announcement and replaces its recipients.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/announcements")
		return
	}

	vm, recipients := readForm(r)
	vm.ID = a.ID.Hex()
	vm.IsEdit = true
	if result := inputval.Validate(announcementInput{Title: vm.AnnTitle, Body: vm.Body, Type: vm.Type}); result.HasErrors() {
		h.renderForm(ctx, w, r, vm, result.First())
		return
	}

	a.Title, a.Body, a.Type = vm.AnnTitle, cleanBody(vm.Body), vm.Type
	a.Pinned, a.Active = vm.Pinned, vm.Active
	if err := h.Store.Update(ctx, a); err != nil {
		h.Log.Error("failed to update announcement", zap.Error(err), zap.String("path", r.URL.Path))
		h.renderForm(ctx, w, r, vm, "Failed to update announcement.")
		return
	}
	if err := h.Store.SetRecipients(ctx, a.ID, recipients); err != nil {
		h.Log.Error("failed to set recipients", zap.Error(err), zap.String("announcement_id", a.ID.Hex()))
		h.renderForm(ctx, w, r, vm, "The announcement was saved but its recipients could not be updated.")
		return
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventAnnouncementUpdated, &a.ID, map[string]string{
		"recipients": strconv.Itoa(len(recipients)),
	})
	http.Redirect(w, r, "/announcements?success=updated", http.StatusSeeOther)
}

// SetFlags sets the pinned and active flags from the list page.
func (h *Handler) SetFlags(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/announcements")
		return
	}
	pinned := r.FormValue("pinned") == "on"
	active := r.FormValue("active") == "on"
	if err := h.Store.SetFlags(ctx, a.ID, pinned, active); err != nil {
		h.ErrLog.LogServerError(w, r, "set announcement flags failed", err, "Unable to update announcement.", "/announcements")
		return
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventAnnouncementUpdated, &a.ID, map[string]string{
		"pinned": strconv.FormatBool(pinned),
		"active": strconv.FormatBool(active),
	})
	http.Redirect(w, r, "/announcements?success=flags", http.StatusSeeOther)
}

// Delete removes an announcement and its recipients.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if _, err := h.Store.Delete(ctx, a.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete announcement failed", err, "Unable to delete announcement.", "/announcements")
		return
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventAnnouncementDeleted, &a.ID, map[string]string{"title": a.Title})
	http.Redirect(w, r, "/announcements?success=deleted", http.StatusSeeOther)
}
