package inputval

import "testing"

func TestIsValidAuthMethod(t *testing.T) {
	tests := []struct {
		method string
		want   bool
	}{
		{"password", true},
		{"google", true},
		{"PASSWORD", true},
		{"  Google  ", true},
		{"", false},
		{"   ", false},
		{"trust", false},
		{"saml", false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			if got := IsValidAuthMethod(tt.method); got != tt.want {
				t.Errorf("IsValidAuthMethod(%q) = %v, want %v", tt.method, got, tt.want)
			}
		})
	}
}

func TestAllowedAuthMethodsList_IsACopy(t *testing.T) {
	list := AllowedAuthMethodsList()
	if len(list) != 2 || list[0] != "password" || list[1] != "google" {
		t.Fatalf("AllowedAuthMethodsList() = %v", list)
	}
	list[0] = "changed"
	if AllowedAuthMethodsList()[0] != "password" {
		t.Error("mutating the returned slice changed the package list")
	}
}

func TestIsValidHHMM(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"08:30", true},
		{"23:59", true},
		{"00:00", true},
		{"24:00", false},
		{"12:60", false},
		{"8:30", false},
		{"ab:cd", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidHHMM(tt.in); got != tt.want {
			t.Errorf("IsValidHHMM(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
