// internal/domain/models/authmethods.go
package models

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The human-readable string users type to log in

const (
	AuthPassword = "password"
	AuthGoogle   = "google"
)

// AuthMethod is an authentication method option for the UI.
type AuthMethod struct {
	Value string // stored in credentials.auth_method
	Label string
}

// AllAuthMethods lists every supported method in display order.
var AllAuthMethods = []AuthMethod{
	{Value: AuthPassword, Label: "Password"},
	{Value: AuthGoogle, Label: "Google"},
}

// IsValidAuthMethod checks if a value is a valid auth method.
func IsValidAuthMethod(value string) bool {
	for _, m := range AllAuthMethods {
		if m.Value == value {
			return true
		}
	}
	return false
}
