package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/smartcook/syncengine/internal/flagx"
	"github.com/smartcook/syncengine/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "30s" or as integer nanoseconds.
type JsonConfig struct {
	LocalDBPath     string         `json:"local_db_path"`
	RemoteDSN       string         `json:"remote_dsn"`
	OwnerID         string         `json:"owner_id"`
	DrainInterval   timex.Duration `json:"drain_interval"`
	ProbeInterval   timex.Duration `json:"probe_interval"`
	PullInterval    timex.Duration `json:"pull_interval"`
	CatalogPageSize int            `json:"catalog_page_size"`
	MaxSyncAttempts int            `json:"max_sync_attempts"`
	LogFile         string         `json:"log_file"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags; no flag means no overlay. Fields
// absent from the JSON keep their current values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.LocalDBPath != "" {
		cfg.LocalDBPath = jc.LocalDBPath
	}
	if jc.RemoteDSN != "" {
		cfg.RemoteDSN = jc.RemoteDSN
	}
	if jc.OwnerID != "" {
		cfg.OwnerID = jc.OwnerID
	}
	if jc.DrainInterval.Duration > 0 {
		cfg.DrainInterval = time.Duration(jc.DrainInterval.Duration)
	}
	if jc.ProbeInterval.Duration > 0 {
		cfg.ProbeInterval = time.Duration(jc.ProbeInterval.Duration)
	}
	if jc.PullInterval.Duration > 0 {
		cfg.PullInterval = time.Duration(jc.PullInterval.Duration)
	}
	if jc.CatalogPageSize > 0 {
		cfg.CatalogPageSize = jc.CatalogPageSize
	}
	if jc.MaxSyncAttempts > 0 {
		cfg.MaxSyncAttempts = jc.MaxSyncAttempts
	}
	if jc.LogFile != "" {
		cfg.LogFile = jc.LogFile
	}
}
