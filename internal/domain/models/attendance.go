// internal/domain/models/attendance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceExcused = "excused"
	AttendanceLate    = "late"
	AttendanceHalfDay = "half_day"
)

// AttendanceStatuses lists valid attendance statuses.
var AttendanceStatuses = []string{AttendancePresent, AttendanceAbsent, AttendanceExcused, AttendanceLate, AttendanceHalfDay}

// IsValidAttendanceStatus reports whether s is one of AttendanceStatuses.
func IsValidAttendanceStatus(s string) bool {
	for _, v := range AttendanceStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Attendance is one record per (trainee_id, date). Date is midnight UTC of
// the calendar day the trainee attended.
type Attendance struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	TraineeID primitive.ObjectID `bson:"trainee_id" json:"trainee_id"`
	Date      time.Time          `bson:"date" json:"date"`
	Status    string             `bson:"status" json:"status"`
	CheckIn   string             `bson:"check_in,omitempty" json:"check_in,omitempty"`   // HH:MM
	CheckOut  string             `bson:"check_out,omitempty" json:"check_out,omitempty"` // HH:MM
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Approval  Approval           `bson:"approval" json:"approval"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// DayOf truncates t to midnight UTC of its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}
