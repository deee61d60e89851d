package formutil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/traineehub/internal/app/system/auth"
)

func TestSetBase_SignedIn(t *testing.T) {
	r := httptest.NewRequest("GET", "/tasks/new", nil)
	r = auth.WithTestUser(r, &auth.SessionUser{ID: "507f1f77bcf86cd799439011", Name: "Sara", Role: "Supervisor"})

	var b Base
	SetBase(&b, r, "New Task", "/tasks")

	if b.Title != "New Task" {
		t.Errorf("Title = %q", b.Title)
	}
	if !b.IsLoggedIn || b.Role != "supervisor" || b.UserName != "Sara" {
		t.Errorf("user fields = %+v", b.BaseVM)
	}
	if b.CurrentPath != "/tasks/new" {
		t.Errorf("CurrentPath = %q", b.CurrentPath)
	}
}

func TestSetBase_Visitor(t *testing.T) {
	var b Base
	SetBase(&b, httptest.NewRequest("GET", "/login", nil), "Sign in", "/")
	if b.IsLoggedIn {
		t.Error("visitor should not be logged in")
	}
	if b.UserID != "" {
		t.Errorf("UserID = %q, want empty", b.UserID)
	}
}

func TestSetError_Escapes(t *testing.T) {
	var b Base
	if b.HasError() {
		t.Fatal("zero Base should have no error")
	}
	b.SetError(`<script>alert("x")</script>`)
	if strings.Contains(string(b.Error), "<script>") {
		t.Errorf("error not escaped: %s", b.Error)
	}
	if !b.HasError() {
		t.Error("HasError should be true")
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate(" 2026-03-02 ")
	if err != nil || got == nil || got.Day() != 2 || got.Month() != 3 {
		t.Fatalf("ParseDate = %v, %v", got, err)
	}
	if FormatDate(got) != "2026-03-02" {
		t.Errorf("FormatDate = %q", FormatDate(got))
	}
	if got, err := ParseDate(""); got != nil || err != nil {
		t.Errorf("empty = %v, %v", got, err)
	}
	if _, err := ParseDate("02/03/2026"); err == nil {
		t.Error("expected error for wrong layout")
	}
	if FormatDate(nil) != "" {
		t.Error("nil should format empty")
	}
}
