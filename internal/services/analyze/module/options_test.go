package module

import (
	"testing"
	"time"

	"vaultaudit/internal/platform/config"
	perr "vaultaudit/internal/platform/errors"
	"vaultaudit/internal/platform/testkit"
)

func valid() Options {
	return Options{
		Workers:         4,
		AbuseThreshold:  DefaultAbuseThreshold,
		GapWindow:       DefaultGapWindow,
		EphemeralWindow: DefaultEphemeralWindow,
		TopN:            DefaultTopN,
		MinOperations:   DefaultMinOperations,
	}
}

func TestOptionsValid(t *testing.T) {
	testkit.Must(t, valid().Validate())
}

func TestOptionsRejectedBeforeRun(t *testing.T) {
	cases := map[string]func(*Options){
		"negative workers":       func(o *Options) { o.Workers = -1 },
		"zero abuse threshold":   func(o *Options) { o.AbuseThreshold = 0 },
		"negative gap window":    func(o *Options) { o.GapWindow = -time.Second },
		"zero ephemeral window":  func(o *Options) { o.EphemeralWindow = 0 },
		"zero top n":             func(o *Options) { o.TopN = 0 },
		"negative min ops":       func(o *Options) { o.MinOperations = -5 },
		"negative progress step": func(o *Options) { o.ProgressEvery = -1 },
	}
	for name, mutate := range cases {
		o := valid()
		mutate(&o)
		err := o.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", name)
			continue
		}
		if !perr.IsCode(err, perr.ErrorCodeConfig) {
			t.Errorf("%s: code = %v, want Config", name, perr.CodeOf(err))
		}
	}
}

func TestFromConfigDefaults(t *testing.T) {
	o := FromConfig(config.New())
	if o.AbuseThreshold != DefaultAbuseThreshold || o.GapWindow != DefaultGapWindow {
		t.Fatalf("defaults not applied: %+v", o)
	}
	testkit.Must(t, o.Validate())
}

func TestFromConfigEnvOverride(t *testing.T) {
	t.Setenv("VAULT_AUDIT_ABUSE_THRESHOLD", "42")
	t.Setenv("VAULT_AUDIT_GAP_WINDOW", "10m")
	t.Setenv("VAULT_AUDIT_KV_PREFIX", "appcodes/")

	o := FromConfig(config.New())
	if o.AbuseThreshold != 42 {
		t.Fatalf("abuse threshold = %d", o.AbuseThreshold)
	}
	if o.GapWindow != 10*time.Minute {
		t.Fatalf("gap window = %v", o.GapWindow)
	}
	if o.KVPrefix != "appcodes/" {
		t.Fatalf("kv prefix = %q", o.KVPrefix)
	}
}
