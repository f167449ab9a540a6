package postgres

import (
	"errors"
	"testing"

	"moviecatalog/internal/domain"

	"github.com/lib/pq"
)

func TestConflictFrom(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		field string
	}{
		{"email", &pq.Error{Code: uniqueViolation, Constraint: "users_email_key"}, "email"},
		{"username", &pq.Error{Code: uniqueViolation, Constraint: "users_username_key"}, "username"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ce *domain.ConflictError
			if err := conflictFrom(tc.err); !errors.As(err, &ce) || ce.Field != tc.field {
				t.Fatalf("expected %s conflict, got %v", tc.field, err)
			}
		})
	}

	other := &pq.Error{Code: "23503"}
	if err := conflictFrom(other); err != other {
		t.Errorf("non-unique errors must pass through, got %v", err)
	}
	plain := errors.New("boom")
	if err := conflictFrom(plain); err != plain {
		t.Errorf("expected passthrough, got %v", err)
	}
}

func TestNullHelpers(t *testing.T) {
	if nullString(nil).Valid || nullInt(nil).Valid {
		t.Error("nil pointers must map to NULL")
	}
	s, n := "x", 1999
	if got := nullString(&s); !got.Valid || got.String != "x" {
		t.Errorf("unexpected %+v", got)
	}
	if got := nullInt(&n); !got.Valid || got.Int64 != 1999 {
		t.Errorf("unexpected %+v", got)
	}
}
