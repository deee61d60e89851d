package fetch_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/traineehub/internal/app/system/fetch"
)

func TestOf(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		items []int
		err   error
		state fetch.State
		ok    bool
		n     int
	}{
		{"data", []int{1, 2}, nil, fetch.Data, true, 2},
		{"empty nil", nil, nil, fetch.Empty, true, 0},
		{"empty slice", []int{}, nil, fetch.Empty, true, 0},
		{"failed", nil, boom, fetch.Failed, false, 0},
		{"failed with partial items", []int{1}, boom, fetch.Failed, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fetch.Of(tt.items, tt.err)
			if r.State != tt.state {
				t.Errorf("State = %v, want %v", r.State, tt.state)
			}
			if r.Ok() != tt.ok {
				t.Errorf("Ok() = %v, want %v", r.Ok(), tt.ok)
			}
			if len(r.OrEmpty()) != tt.n {
				t.Errorf("len(OrEmpty()) = %d, want %d", len(r.OrEmpty()), tt.n)
			}
			if tt.err != nil && !errors.Is(r.Err, tt.err) {
				t.Errorf("Err = %v, want %v", r.Err, tt.err)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	if fetch.Failed.String() != "failed" || fetch.Data.String() != "data" || fetch.Empty.String() != "empty" {
		t.Error("unexpected State strings")
	}
}
