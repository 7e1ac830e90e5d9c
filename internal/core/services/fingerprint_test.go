package services

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"How much OPC43  stock do we have", "how much opc43 stock do we have"},
		{"  spaced\tout\nquery  ", "spaced out query"},
		{"already normal", "already normal"},
	}
	for _, tt := range tests {
		if got := normalizeText(tt.in); got != tt.want {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFingerprint_Stable(t *testing.T) {
	profile := map[string]string{"expertise": "advanced", "primary_topic": "inventory"}

	a := fingerprint("how much stock", "ident-1", profile)
	b := fingerprint("how much stock", "ident-1", map[string]string{"primary_topic": "inventory", "expertise": "advanced"})
	if a != b {
		t.Error("identical text and context must produce the same fingerprint")
	}
}

func TestFingerprint_SensitiveToInputs(t *testing.T) {
	profile := map[string]string{"expertise": "advanced"}
	base := fingerprint("how much stock", "ident-1", profile)

	if fingerprint("how much cement", "ident-1", profile) == base {
		t.Error("different text must change the fingerprint")
	}
	if fingerprint("how much stock", "ident-2", profile) == base {
		t.Error("different identity must change the fingerprint")
	}
	if fingerprint("how much stock", "ident-1", map[string]string{"expertise": "beginner"}) == base {
		t.Error("different relevant trait must change the fingerprint")
	}
}

func TestFingerprint_IgnoresIrrelevantTraits(t *testing.T) {
	a := fingerprint("query", "ident-1", map[string]string{"expertise": "advanced"})
	b := fingerprint("query", "ident-1", map[string]string{"expertise": "advanced", "data_interest": "high"})
	if a != b {
		t.Error("traits that do not alter generation must not change the fingerprint")
	}
}

func TestExtractSignals(t *testing.T) {
	deltas := extractSignals("What is our OPC43 stock quantity?")
	if deltas["primary_topic"] != "inventory" {
		t.Errorf("expected inventory topic, got %q", deltas["primary_topic"])
	}
	if deltas["expertise"] != "beginner" {
		t.Errorf("expected beginner expertise from phrasing, got %q", deltas["expertise"])
	}

	deltas = extractSignals("Run a demand forecast and optimization for Q3")
	if deltas["expertise"] != "advanced" {
		t.Errorf("expected advanced expertise, got %q", deltas["expertise"])
	}

	deltas = extractSignals("hello there")
	if len(deltas) != 0 {
		t.Errorf("expected no signals for small talk, got %v", deltas)
	}
}
