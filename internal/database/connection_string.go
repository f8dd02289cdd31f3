package database

import (
	"fmt"
	"strconv"
	"strings"
)

// buildConnectionString generates a modernc.org/sqlite DSN from options.
// Pragmas are passed as _pragma parameters so the driver applies them to every new connection.
func (opts *SQLiteOptions) buildConnectionString() string {
	var params []string
	pragma := func(name, value string) {
		params = append(params, fmt.Sprintf("_pragma=%s(%s)", name, value))
	}

	if opts.BusyTimeout > 0 {
		pragma("busy_timeout", strconv.Itoa(opts.BusyTimeout))
	}
	if opts.Journal != "" {
		pragma("journal_mode", string(opts.Journal))
	}
	if opts.ForeignKeys {
		pragma("foreign_keys", "1")
	}
	if opts.Synchronous != "" {
		pragma("synchronous", string(opts.Synchronous))
	}
	if opts.CacheSize != 0 {
		pragma("cache_size", strconv.Itoa(opts.CacheSize))
	}
	if opts.TxLock != "" {
		params = append(params, "_txlock="+string(opts.TxLock))
	}
	if opts.Mode != "" {
		params = append(params, "mode="+opts.Mode)
	}

	// Build the final connection string
	connStr := opts.Path
	if !strings.HasPrefix(connStr, "file:") {
		connStr = "file:" + connStr
	}
	if len(params) > 0 {
		connStr += "?" + strings.Join(params, "&")
	}

	return connStr
}
