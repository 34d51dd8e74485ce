package config

import "testing"

func TestDefaultConfigsAreValid(t *testing.T) {
	if err := NewDefaultParserConfig().Validate(); err != nil {
		t.Fatalf("default parser config should validate: %v", err)
	}
	if err := NewDefaultCCITTRunConfig().Validate(); err != nil {
		t.Fatalf("default CCITT run config should validate: %v", err)
	}
}

func TestParserConfigRejectsBadRecoveryMode(t *testing.T) {
	cfg := NewDefaultParserConfig()
	cfg.XrefRecovery = "not-a-mode"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for bad XrefRecovery")
	}
}

func TestCCITTRunConfigRejectsZeroConcurrency(t *testing.T) {
	cfg := NewDefaultCCITTRunConfig()
	cfg.MaxConcurrentDecodes = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for MaxConcurrentDecodes=0")
	}
}
