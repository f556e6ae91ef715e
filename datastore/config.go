// Package datastore assembles the engine's subsystems into one runnable
// unit: it opens a KV store, wires the parser/planner/executor pipeline,
// the change feed with its versionstamp oracle, and the live-query poll
// loop, and hands out Sessions that execute query text. It is the
// top-level object an embedding program holds, the way a SQL driver hands
// out connections from one opened database.
package datastore

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// OracleMode selects the versionstamp oracle strategy (spec §4.9
// "Versionstamp oracle").
type OracleMode string

const (
	// OracleSysTime stamps wall-clock seconds plus an in-second counter.
	// Not safe across a restart within the same second; single node only.
	OracleSysTime OracleMode = "systime"
	// OracleEpoch stamps a persisted, restart-incremented epoch plus an
	// in-memory counter. Monotonic across restart; single node only.
	OracleEpoch OracleMode = "epoch"
)

// Config is the datastore's startup configuration, loadable from a
// veloxdb.yaml file.
type Config struct {
	// Oracle selects the versionstamp strategy; defaults to systime.
	Oracle OracleMode `yaml:"oracle"`
	// ChangefeedRetention is the default retention window for tables that
	// enable a change feed without naming their own; zero keeps entries
	// forever.
	ChangefeedRetention time.Duration `yaml:"changefeed_retention"`
	// QueryRecursionLimit bounds statement/expression nesting in the
	// parser (spec §4.5).
	QueryRecursionLimit int `yaml:"query_recursion_limit"`
	// ObjectRecursionLimit bounds literal object/array nesting.
	ObjectRecursionLimit int `yaml:"object_recursion_limit"`
	// LiveNotifyBuffer sizes each live query's notification channel.
	// Bounded with blocking sends: a full channel exerts backpressure on
	// the poll loop rather than dropping notifications.
	LiveNotifyBuffer int `yaml:"live_notify_buffer"`
	// LiveCatchupSize bounds how many changesets one poll tick reads per
	// selector.
	LiveCatchupSize int `yaml:"live_catchup_size"`
	// LivePollInterval is the poll loop's tick period.
	LivePollInterval time.Duration `yaml:"live_poll_interval"`
	// SchemaDir, when set, is a directory of .surql DEFINE files applied
	// at open (and optionally watched for changes).
	SchemaDir string `yaml:"schema_dir"`
}

// DefaultConfig returns the configuration Open uses when none is given.
func DefaultConfig() Config {
	return Config{
		Oracle:               OracleSysTime,
		QueryRecursionLimit:  128,
		ObjectRecursionLimit: 128,
		LiveNotifyBuffer:     64,
		LiveCatchupSize:      256,
		LivePollInterval:     100 * time.Millisecond,
	}
}

// LoadConfig reads a Config from a YAML file, filling unset fields from
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Oracle == "" {
		cfg.Oracle = OracleSysTime
	}
	if cfg.QueryRecursionLimit <= 0 {
		cfg.QueryRecursionLimit = 128
	}
	if cfg.ObjectRecursionLimit <= 0 {
		cfg.ObjectRecursionLimit = 128
	}
	if cfg.LiveCatchupSize <= 0 {
		cfg.LiveCatchupSize = 256
	}
	if cfg.LivePollInterval <= 0 {
		cfg.LivePollInterval = 100 * time.Millisecond
	}
	return cfg, nil
}
