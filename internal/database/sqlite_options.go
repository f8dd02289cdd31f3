package database

// SynchronousMode represents the available synchronous settings for SQLite
type SynchronousMode string

const (
	SynchronousOff    SynchronousMode = "OFF"
	SynchronousNormal SynchronousMode = "NORMAL"
	SynchronousFull   SynchronousMode = "FULL"
	SynchronousExtra  SynchronousMode = "EXTRA"
)

// JournalMode represents the available journal modes for SQLite
type JournalMode string

const (
	JournalDelete   JournalMode = "DELETE"
	JournalTruncate JournalMode = "TRUNCATE"
	JournalPersist  JournalMode = "PERSIST"
	JournalMemory   JournalMode = "MEMORY"
	JournalWAL      JournalMode = "WAL"
	JournalOff      JournalMode = "OFF"
)

// TxLock represents the BEGIN statement used by database/sql transactions
type TxLock string

const (
	TxLockDeferred  TxLock = "deferred"
	TxLockImmediate TxLock = "immediate"
	TxLockExclusive TxLock = "exclusive"
)

// SQLiteOptions contains configuration options for SQLite connection
type SQLiteOptions struct {
	// Path to the SQLite database file, or ":memory:"
	Path string

	Mode        string          // ro, rw, rwc, memory
	Journal     JournalMode     // journal_mode pragma
	ForeignKeys bool            // foreign_keys pragma
	BusyTimeout int             // busy_timeout pragma (milliseconds)
	CacheSize   int             // cache_size pragma (pages if positive, KiB if negative)
	Synchronous SynchronousMode // synchronous pragma
	TxLock      TxLock          // _txlock: deferred, immediate, exclusive
}

// NewDefaultOptions creates SQLiteOptions with recommended defaults
func NewDefaultOptions(path string) SQLiteOptions {
	return SQLiteOptions{
		Path:        path,
		Mode:        "rwc",
		Journal:     JournalWAL, // WAL is recommended for better concurrency
		ForeignKeys: true,
		BusyTimeout: 5000,
		CacheSize:   2000,
		Synchronous: SynchronousNormal,
		TxLock:      TxLockImmediate,
	}
}

// NewMemoryOptions creates SQLiteOptions for a private in-memory database
func NewMemoryOptions() SQLiteOptions {
	return SQLiteOptions{
		Path:        ":memory:",
		Journal:     JournalMemory,
		ForeignKeys: true,
		BusyTimeout: 5000,
	}
}
