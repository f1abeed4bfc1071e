package db

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "idx_accounts_username" (SQLSTATE 23505)`), true},
		{"sqlite", errors.New("UNIQUE constraint failed: accounts.username"), true},
		{"wrapped", fmt.Errorf("creating account: %w", errors.New("duplicate key value violates unique constraint")), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
