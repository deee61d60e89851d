package idset_test

import (
	"testing"

	"github.com/dalemusser/traineehub/internal/app/system/idset"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUnique(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	got := idset.Unique([]primitive.ObjectID{a, b, a, primitive.NilObjectID, b})
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Unique = %v, want [%v %v]", got, a, b)
	}
	if idset.Unique(nil) != nil {
		t.Error("Unique(nil) should be nil")
	}
}

func TestCollect(t *testing.T) {
	type row struct{ ID primitive.ObjectID }
	a := primitive.NewObjectID()

	got := idset.Collect([]row{{a}, {a}}, func(r row) primitive.ObjectID { return r.ID })
	if len(got) != 1 || got[0] != a {
		t.Errorf("Collect = %v", got)
	}
	if !idset.Contains(got, a) || idset.Contains(got, primitive.NewObjectID()) {
		t.Error("Contains mismatch")
	}
}
