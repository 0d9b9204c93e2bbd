package validate

import (
	"strings"
	"testing"
)

func TestRequired(t *testing.T) {
	if err := Required()(""); err == nil {
		t.Fatal("empty string should fail")
	}
	if err := Required()("x"); err != nil {
		t.Fatalf("non-empty string failed: %v", err)
	}
}

func TestRuneLengthCountsCodePoints(t *testing.T) {
	v := RuneLengthBetween(1, 4)

	if err := v("héllo"); err == nil {
		t.Fatal("5 code points should exceed max 4")
	}
	if err := v("héll"); err != nil {
		t.Fatalf("4 code points rejected: %v", err)
	}
	// 4 code points, more than 4 bytes.
	if err := v("éééé"); err != nil {
		t.Fatalf("multibyte string rejected: %v", err)
	}
}

func TestFieldPrefixesErrors(t *testing.T) {
	err := Field("content", Required())("")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "content") {
		t.Fatalf("error should name the field: %v", err)
	}
}

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"12345", true},
		{"", true}, // Required owns the empty case
		{"-1", false},
		{"12x", false},
		{"1.5", false},
	}

	for _, tt := range tests {
		err := DigitsOnly()(tt.value)
		if tt.valid && err != nil {
			t.Fatalf("%q: unexpected error %v", tt.value, err)
		}
		if !tt.valid && err == nil {
			t.Fatalf("%q: expected error", tt.value)
		}
	}
}
