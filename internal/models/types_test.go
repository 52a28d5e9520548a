package models

import (
	"errors"
	"testing"
)

func TestParseMissingPolicy(t *testing.T) {
	cases := []struct {
		in   string
		want MissingPolicy
	}{
		{"", PolicySkip},
		{"skip", PolicySkip},
		{"abort", PolicyAbort},
		{" Substitute ", PolicySubstitute},
	}
	for _, tc := range cases {
		got, err := ParseMissingPolicy(tc.in)
		if err != nil {
			t.Errorf("ParseMissingPolicy(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMissingPolicy(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseMissingPolicyRejectsUnknown(t *testing.T) {
	for _, in := range []string{"abrot", "all", "none"} {
		if _, err := ParseMissingPolicy(in); !errors.Is(err, ErrUnknownPolicy) {
			t.Errorf("ParseMissingPolicy(%q): expected ErrUnknownPolicy, got %v", in, err)
		}
	}
}
