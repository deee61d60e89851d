// Package authz reads the signed-in principal from the request for
// role checks inside handlers. Route-level gating lives in auth.
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/system/auth"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const visitor = "visitor"

// UserCtx returns the lowercased role, display name and id of the signed-in
// user. Without a user, or with a session id that is not an ObjectID, it
// returns ("visitor", "", NilObjectID, false).
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return visitor, "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return visitor, "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// ActorID is the signed-in user's id, or NilObjectID. Audit events record
// it as the actor.
func ActorID(r *http.Request) primitive.ObjectID {
	_, _, id, _ := UserCtx(r)
	return id
}

func is(r *http.Request, want string) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == want
}

func IsAdmin(r *http.Request) bool      { return is(r, models.RoleAdmin) }
func IsSupervisor(r *http.Request) bool { return is(r, models.RoleSupervisor) }
func IsTrainee(r *http.Request) bool    { return is(r, models.RoleTrainee) }
