package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/traineehub/internal/app/system/auth"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)

	role, name, id, ok := authz.UserCtx(req)
	if ok {
		t.Error("expected ok=false without a user")
	}
	if role != "visitor" || name != "" || id != primitive.NilObjectID {
		t.Errorf("unexpected values: %q %q %v", role, name, id)
	}
}

func TestUserCtx_MalformedIDFailsClosed(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-an-objectid", Role: "admin"})

	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected ok=false for malformed id")
	}
	if authz.IsAdmin(req) {
		t.Error("expected IsAdmin=false for malformed id")
	}
}

func TestUserCtx_LowercasesRole(t *testing.T) {
	oid := primitive.NewObjectID()
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: oid.Hex(), Name: "Nour", Role: "Supervisor"})

	role, name, id, ok := authz.UserCtx(req)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if role != "supervisor" {
		t.Errorf("role = %q, want supervisor", role)
	}
	if name != "Nour" || id != oid {
		t.Errorf("unexpected name/id: %q %v", name, id)
	}
}

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		role       string
		admin      bool
		supervisor bool
		trainee    bool
	}{
		{"admin", true, false, false},
		{"supervisor", false, true, false},
		{"trainee", false, false, true},
		{"visitor", false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req = auth.WithTestUser(req, &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: tc.role})

			if got := authz.IsAdmin(req); got != tc.admin {
				t.Errorf("IsAdmin = %v, want %v", got, tc.admin)
			}
			if got := authz.IsSupervisor(req); got != tc.supervisor {
				t.Errorf("IsSupervisor = %v, want %v", got, tc.supervisor)
			}
			if got := authz.IsTrainee(req); got != tc.trainee {
				t.Errorf("IsTrainee = %v, want %v", got, tc.trainee)
			}
		})
	}
}

func TestActorID(t *testing.T) {
	if got := authz.ActorID(httptest.NewRequest("GET", "/test", nil)); got != primitive.NilObjectID {
		t.Errorf("no user: got %v", got)
	}

	oid := primitive.NewObjectID()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/test", nil), &auth.SessionUser{ID: oid.Hex(), Role: "trainee"})
	if got := authz.ActorID(req); got != oid {
		t.Errorf("ActorID = %v, want %v", got, oid)
	}
}
