// Package module assembles analyze options from the environment and
// validates them before any input file is opened.
package module

import (
	"time"

	"github.com/go-playground/validator/v10"

	"vaultaudit/internal/platform/config"
	perr "vaultaudit/internal/platform/errors"
)

// Defaults; env vars (VAULT_AUDIT_ prefix) override these, CLI flags
// override env.
const (
	DefaultAbuseThreshold  = 1000
	DefaultGapWindow       = 300 * time.Second
	DefaultEphemeralWindow = 24 * time.Hour
	DefaultTopN            = 50
	DefaultMinOperations   = 10
)

// Options is the configuration surface the analysis core consumes.
// CLI syntax lives in cmd/vault-audit; only values arrive here.
type Options struct {
	// Workers caps the parallel file pool; 0 means NumCPU
	Workers int `validate:"gte=0"`

	// AbuseThreshold flags accessors/entities whose merged Lookup count
	// reaches this value
	AbuseThreshold int `validate:"gt=0"`

	// GapWindow is the silence duration beyond which a gap is reported
	GapWindow time.Duration `validate:"gt=0"`

	// EphemeralWindow bounds the lifespan of an ephemeral entity (inclusive)
	EphemeralWindow time.Duration `validate:"gt=0"`

	// TopN sizes hotspot rankings
	TopN int `validate:"gt=0"`

	// MinOperations filters CSV export rows
	MinOperations int `validate:"gte=0"`

	// KVPrefix restricts kv-analyzer to one mount prefix; empty keeps all
	KVPrefix string

	// ProgressEvery emits a progress log every N lines per file; 0 disables
	ProgressEvery int `validate:"gte=0"`
}

var validate = validator.New()

// FromConfig builds Options from the VAULT_AUDIT_ env namespace
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("VAULT_AUDIT_")
	return Options{
		Workers:         c.MayInt("WORKERS", 0),
		AbuseThreshold:  c.MayInt("ABUSE_THRESHOLD", DefaultAbuseThreshold),
		GapWindow:       c.MayDuration("GAP_WINDOW", DefaultGapWindow),
		EphemeralWindow: c.MayDuration("EPHEMERAL_WINDOW", DefaultEphemeralWindow),
		TopN:            c.MayInt("TOP_N", DefaultTopN),
		MinOperations:   c.MayInt("MIN_OPERATIONS", DefaultMinOperations),
		KVPrefix:        c.MayString("KV_PREFIX", ""),
		ProgressEvery:   c.MayInt("PROGRESS_EVERY", 0),
	}
}

// Validate rejects invalid option combinations before the run starts
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return perr.Wrap(err, perr.ErrorCodeConfig, "invalid analyze options")
	}
	return nil
}
