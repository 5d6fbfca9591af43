package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/doeshing/termflow/internal/domain"
)

func TestConfirmYesNo(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"lowercase y", "y\n", true},
		{"full yes", "yes\n", true},
		{"uppercase", "Y\n", true},
		{"empty defaults to no", "\n", false},
		{"anything else", "sure\n", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tc.input), &out)
			got, err := p.Confirm(domain.ApprovalRequest{Command: "rm -rf build", Risk: domain.RiskHigh})
			if err != nil {
				t.Fatalf("confirm: %v", err)
			}
			if got != tc.want {
				t.Fatalf("confirm(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestCriticalRiskDemandsTypedYes(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("y\n"), &out)
	got, err := p.Confirm(domain.ApprovalRequest{Command: "dd if=/dev/zero of=/dev/sda", Risk: domain.RiskCritical})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got {
		t.Fatal("bare 'y' must not approve a critical command")
	}

	p = NewPrompter(strings.NewReader("yes\n"), &out)
	got, err = p.Confirm(domain.ApprovalRequest{Command: "dd if=/dev/zero of=/dev/sda", Risk: domain.RiskCritical})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !got {
		t.Fatal("typed 'yes' must approve")
	}
}

func TestExplicitReaderForcesInteractive(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	if !p.Enabled() {
		t.Fatal("prompter with explicit reader must be enabled")
	}
}
