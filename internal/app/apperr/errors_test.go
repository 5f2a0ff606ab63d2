package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/chibo-dx/roster-api/internal/domain"
)

func TestFromValidation_CopiesFieldDetails(t *testing.T) {
	t.Parallel()

	ve := domain.NewValidationError("birthDate", "must be a date in YYYY-MM-DD format")
	err := FromValidation("invalid changes", ve)

	ae, ok := As(err)
	if !ok {
		t.Fatalf("As(%T) ok=false", err)
	}
	if ae.Status != 422 || ae.Code != CodeValidation {
		t.Fatalf("status=%d code=%q, want 422 %q", ae.Status, ae.Code, CodeValidation)
	}
	if ae.Details["birthDate"] != "must be a date in YYYY-MM-DD format" {
		t.Fatalf("details=%v", ae.Details)
	}
	if !errors.Is(err, ve) {
		t.Fatalf("errors.Is(err, ve)=false")
	}
}

func TestFromValidation_PassesOtherErrorsThrough(t *testing.T) {
	t.Parallel()

	cause := errors.New("db down")
	if got := FromValidation("x", cause); got != cause {
		t.Fatalf("FromValidation()=%v, want original error", got)
	}
}

func TestHasCode_SeesWrappedErrors(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("approve: %w", NotFound(CodeEditRequestNotFound, "edit request not found"))
	if !HasCode(err, CodeEditRequestNotFound) {
		t.Fatalf("HasCode()=false, want true")
	}
	if HasCode(err, CodeMemberNotFound) {
		t.Fatalf("HasCode(other code)=true, want false")
	}
}
