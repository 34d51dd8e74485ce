// Package config provides validated configuration structs for the
// parser and CCITT decoder entry points, modeled on the pack's
// validator-struct-tag idiom rather than hand-rolled field checks.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// XrefRecoveryMode selects how aggressively ParserConfig tolerates a
// malformed cross-reference chain before giving up.
type XrefRecoveryMode string

const (
	// XrefStrict surfaces MalformedXref immediately, with no linear
	// scan fallback.
	XrefStrict XrefRecoveryMode = "strict"
	// XrefRecoverScan falls back to xref.RebuildByScanning when the
	// chain cannot be walked, per spec §9.
	XrefRecoverScan XrefRecoveryMode = "recover-scan"
)

// ParserConfig configures document parsing.
type ParserConfig struct {
	XrefRecovery     XrefRecoveryMode `validate:"oneof=strict recover-scan"`
	MaxObjectStreams int              `validate:"min=0"`
	ParseTimeout     time.Duration    `validate:"min=0"`
}

// NewDefaultParserConfig returns the configuration used when a caller
// does not supply one: recover from a corrupt xref chain by scanning,
// with no object-stream count cap and no timeout.
func NewDefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		XrefRecovery:     XrefRecoverScan,
		MaxObjectStreams: 0,
		ParseTimeout:     0,
	}
}

// Validate reports whether cfg's fields satisfy their constraints.
func (cfg *ParserConfig) Validate() error {
	return validator.New().Struct(cfg)
}

// CCITTRunConfig configures one CCITT decode run, separate from
// ccitt.Params: Params is the ITU-defined wire format (K, Columns,
// …); CCITTRunConfig is operational (how much error tolerance and
// parallelism the caller wants), validated independently.
type CCITTRunConfig struct {
	DamagedRowsBeforeError int32 `validate:"min=0"`
	MaxConcurrentDecodes   int   `validate:"min=1,max=64"`
}

// NewDefaultCCITTRunConfig returns a conservative, always-valid
// CCITTRunConfig: no damaged-row tolerance, no extra concurrency.
func NewDefaultCCITTRunConfig() *CCITTRunConfig {
	return &CCITTRunConfig{
		DamagedRowsBeforeError: 0,
		MaxConcurrentDecodes:   1,
	}
}

// Validate reports whether cfg's fields satisfy their constraints.
func (cfg *CCITTRunConfig) Validate() error {
	return validator.New().Struct(cfg)
}
