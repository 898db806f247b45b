package domain_test

import (
	"encoding/json"
	"testing"

	"go.trai.ch/nixplan/internal/core/domain"
)

func TestInternedString(t *testing.T) {
	is1 := domain.NewInternedString("libc")
	is2 := domain.NewInternedString("libc")

	// Identical strings share a handle.
	if is1.Value() != is2.Value() {
		t.Errorf("expected handles to be equal for identical strings, got %v and %v", is1.Value(), is2.Value())
	}

	if is1.String() != "libc" {
		t.Errorf("expected String() to return %q, got %q", "libc", is1.String())
	}
}

func TestInternedString_Zero(t *testing.T) {
	var is domain.InternedString
	if is.String() != "" {
		t.Errorf("zero value should render empty, got %q", is.String())
	}
}

func TestInternedString_TextRoundTrip(t *testing.T) {
	original := domain.NewInternedString("server")

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if string(data) != `"server"` {
		t.Errorf("expected %q, got %q", `"server"`, string(data))
	}

	var decoded domain.InternedString
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if decoded.Value() != original.Value() {
		t.Error("expected decoded handle to equal the original")
	}
}
