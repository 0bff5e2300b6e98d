package vm

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// ErrSnapshotNotFound indicates the requested snapshot doesn't exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore keeps serialized VM snapshots in SQLite, keyed by VM
// ID. The CBOR payload is stored as an opaque blob.
type SnapshotStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// NewSnapshotStore opens (and if necessary initializes) a snapshot
// database at dbPath. ":memory:" works for ephemeral stores.
func NewSnapshotStore(dbPath string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		vm_id TEXT PRIMARY KEY,
		data  BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &SnapshotStore{db: db, dbPath: dbPath}, nil
}

// NewSnapshotStoreDefault opens the store at PICORB_SNAPSHOT_DB, or
// under the user's home directory when unset.
func NewSnapshotStoreDefault() (*SnapshotStore, error) {
	dbPath := os.Getenv("PICORB_SNAPSHOT_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home dir: %w", err)
		}
		dbPath = filepath.Join(home, ".picorb", "snapshots.db")
	}
	return NewSnapshotStore(dbPath)
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save persists a snapshot, replacing any previous one for the same VM.
func (s *SnapshotStore) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := MarshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO snapshots (vm_id, data) VALUES (?, ?)",
		snap.VMID, data,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Load retrieves the snapshot stored for vmID.
func (s *SnapshotStore) Load(vmID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow("SELECT data FROM snapshots WHERE vm_id = ?", vmID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	return UnmarshalSnapshot(data)
}

// List returns the IDs of every stored snapshot.
func (s *SnapshotStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT vm_id FROM snapshots ORDER BY vm_id")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
