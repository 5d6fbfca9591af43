package domain

import "testing"

func TestRiskOrdering(t *testing.T) {
	ordered := []RiskLevel{RiskSafe, RiskLow, RiskMedium, RiskHigh, RiskCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Severity() >= ordered[i].Severity() {
			t.Fatalf("%s must rank below %s", ordered[i-1], ordered[i])
		}
	}
	if MaxRisk(RiskLow, RiskHigh) != RiskHigh {
		t.Fatal("MaxRisk must pick the more severe level")
	}
	if MaxRisk(RiskSafe, RiskSafe) != RiskSafe {
		t.Fatal("MaxRisk of equals is identity")
	}
}

func TestParseRiskLevelFallback(t *testing.T) {
	if got := ParseRiskLevel("HIGH", RiskMedium); got != RiskHigh {
		t.Fatalf("parse HIGH = %s, want high", got)
	}
	if got := ParseRiskLevel("bogus", RiskMedium); got != RiskMedium {
		t.Fatalf("parse bogus = %s, want fallback medium", got)
	}
	if got := ParseRiskLevel("", RiskSafe); got != RiskSafe {
		t.Fatalf("parse empty = %s, want fallback safe", got)
	}
}

func TestOverallRiskAndConfirmation(t *testing.T) {
	commands := []Command{
		{Program: "ls", Risk: RiskSafe},
		{Program: "rm", Risk: RiskHigh},
	}
	if OverallRiskOf(commands) != RiskHigh {
		t.Fatal("overall risk is the max across the sequence")
	}
	if !NeedsConfirmation(commands) {
		t.Fatal("high risk requires confirmation")
	}

	elevated := []Command{{Program: "sudo", Args: []string{"ls"}, Risk: RiskLow, RequiresElevation: true}}
	if !NeedsConfirmation(elevated) {
		t.Fatal("elevation requires confirmation regardless of risk")
	}
	if NeedsConfirmation([]Command{{Program: "ls", Risk: RiskSafe}}) {
		t.Fatal("safe command must not require confirmation")
	}
}
