// Package registry persists registered services as a JSON array in a
// single flat file. Every mutation is a full read followed by a full
// rewrite; there is no locking, so one operator at a time.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"svcman/internal/logger"
	"svcman/internal/services"
)

// Entry is the persisted shape of one service. Field order is the on-disk
// key order.
type Entry struct {
	Tag  string  `json:"tag"`
	Name string  `json:"name"`
	Path *string `json:"path"`
}

// EntryFromRecord converts a domain record to its persisted form.
func EntryFromRecord(r services.Record) Entry {
	e := Entry{Tag: r.Tag(), Name: r.Name}
	if r.Location != "" {
		loc := r.Location
		e.Path = &loc
	}
	return e
}

// Location returns the path or an empty string.
func (e Entry) Location() string {
	if e.Path == nil {
		return ""
	}
	return *e.Path
}

// Record converts e back into a domain record, failing on an unknown tag.
func (e Entry) Record() (services.Record, error) {
	kind, err := services.ParseKind(e.Tag)
	if err != nil {
		return services.Record{}, err
	}
	return services.Record{Kind: kind, Name: e.Name, Location: e.Location()}, nil
}

// Repository stores entries in a JSON file.
type Repository struct {
	path   string
	backup bool
	log    logger.Logger
}

// Option configures a Repository
type Option func(*Repository)

// WithBackup toggles the compressed copy written before each rewrite.
func WithBackup(enabled bool) Option {
	return func(r *Repository) { r.backup = enabled }
}

// NewRepository creates a Repository backed by path. Backups are enabled by
// default.
func NewRepository(path string, log logger.Logger, opts ...Option) *Repository {
	if log == nil {
		log = logger.Nop()
	}
	r := &Repository{path: path, backup: true, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the backing file path.
func (r *Repository) Path() string {
	return r.path
}

// Load returns every persisted entry in file order. A missing file is an
// empty registry. An unparsable file is logged and treated as empty.
func (r *Repository) Load() ([]Entry, error) {
	entries, _, err := r.read()
	return entries, err
}

// read also returns the raw bytes so a rewrite can back them up.
func (r *Repository) read() ([]Entry, []byte, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read registry %s: %w", r.path, err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return []Entry{}, data, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		r.log.Warn("registry file is corrupted, treating it as empty",
			logger.String("path", r.path),
			logger.Error(err),
		)
		return []Entry{}, data, nil
	}
	if entries == nil {
		entries = []Entry{}
	}

	return entries, data, nil
}

// Save appends e and rewrites the file.
func (r *Repository) Save(e Entry) error {
	entries, raw, err := r.read()
	if err != nil {
		return err
	}

	entries = append(entries, e)
	if err := r.write(entries, raw); err != nil {
		return err
	}

	r.log.Debug("service saved",
		logger.String("name", e.Name),
		logger.String("tag", e.Tag),
		logger.Int("total", len(entries)),
	)
	return nil
}

// RemoveByName drops every entry whose trimmed, case-folded name equals
// the trimmed, case-folded input and rewrites the file. It returns how many
// entries were removed.
func (r *Repository) RemoveByName(name string) (int, error) {
	entries, raw, err := r.read()
	if err != nil {
		return 0, err
	}

	target := normalizeName(name)
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if normalizeName(e.Name) == target {
			continue
		}
		kept = append(kept, e)
	}

	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, services.ServiceNotFoundError{Name: strings.TrimSpace(name)}
	}

	if err := r.write(kept, raw); err != nil {
		return 0, err
	}

	r.log.Debug("service removed",
		logger.String("name", name),
		logger.Int("removed", removed),
		logger.Int("total", len(kept)),
	)
	return removed, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Repository) write(entries []Entry, previous []byte) error {
	if r.backup && previous != nil {
		if err := r.writeBackup(previous); err != nil {
			r.log.Warn("failed to write registry backup",
				logger.String("path", r.BackupPath()),
				logger.Error(err),
			)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	data = append(data, '\n')

	return writeFile(r.path, data)
}

// writeFile writes through a temp file in the same directory and renames it
// over path.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write registry: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}

// ErrNoBackup is returned by Restore when no backup exists.
var ErrNoBackup = errors.New("no registry backup found")
