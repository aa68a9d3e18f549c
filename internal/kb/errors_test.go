package kb

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("creating: %w", newError(ErrNameConflict, "directory %q already exists", "docs"))

	if !errors.Is(err, ErrNameConflict) {
		t.Error("errors.Is(err, ErrNameConflict) = false")
	}
	if !errors.Is(err, ErrConflict) {
		t.Error("errors.Is(err, ErrConflict) = false")
	}
	if errors.Is(err, ErrMoveCycle) {
		t.Error("errors.Is(err, ErrMoveCycle) = true, codes differ")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = true, kinds differ")
	}
}

func TestKindOfAndCodeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantCode string
	}{
		{"plain error", errors.New("boom"), KindInternal, CodeInternal},
		{"validation", validationError(errors.New("name: required")), KindInvalidInput, CodeValidation},
		{"storage", storageError("writing blob", errors.New("disk full")), KindStorageIO, CodeStorageIO},
		{"corrupt tree", inconsistency("loop at %d", 7), KindInconsistency, CodeTreeCorrupt},
		{"wrapped sentinel", fmt.Errorf("x: %w", ErrPhysicalFileMissing), KindInconsistency, CodePhysicalFileMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v", got, tt.wantKind)
			}
			if got := CodeOf(tt.err); got != tt.wantCode {
				t.Errorf("CodeOf() = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	err := storageError("writing blob", errors.New("disk full"))
	if got := err.Error(); got != "writing blob: disk full" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrStorageIO) {
		t.Error("storage error does not match ErrStorageIO")
	}
}
