// Package manager orchestrates registration, listing, removal and
// operations over the service registry.
//
// Indices are positions in the list as read at call time. Each call reads
// the registry again, so a concurrent writer can shift them; the tool
// assumes a single operator.
package manager

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"

	"svcman/internal/logger"
	"svcman/internal/registry"
	"svcman/internal/services"
)

// Store is the persistence the Manager needs.
type Store interface {
	Load() ([]registry.Entry, error)
	Save(e registry.Entry) error
	RemoveByName(name string) (int, error)
}

// Factory builds validated services.
type Factory interface {
	Create(tag, name, location string) (*services.Service, error)
	FromRecord(r services.Record) (*services.Service, error)
}

// Manager ties a Factory to a Store.
type Manager struct {
	store    Store
	factory  Factory
	log      logger.Logger
	parallel int
}

// Option configures a Manager
type Option func(*Manager)

// WithParallel bounds how many services ExecuteAll runs at once.
func WithParallel(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.parallel = n
		}
	}
}

// New creates a Manager.
func New(store Store, factory Factory, log logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	m := &Manager{store: store, factory: factory, log: log, parallel: 1}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register validates and persists a new service.
func (m *Manager) Register(tag, name, location string) (services.Record, error) {
	svc, err := m.factory.Create(tag, name, location)
	if err != nil {
		return services.Record{}, err
	}

	rec := svc.ToRecord()
	if err := m.store.Save(registry.EntryFromRecord(rec)); err != nil {
		return services.Record{}, err
	}

	m.log.Info("service registered",
		logger.String("name", rec.Name),
		logger.String("tag", rec.Tag()),
		logger.String("path", rec.Location),
	)
	return rec, nil
}

// List returns the registered services in registration order. Entries that
// can't be turned into a valid record are skipped with a warning.
func (m *Manager) List() ([]services.Record, error) {
	entries, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	records := make([]services.Record, 0, len(entries))
	for i, e := range entries {
		rec, err := m.reconstruct(e)
		if err != nil {
			m.log.Warn("skipping invalid registry entry",
				logger.Int("position", i),
				logger.String("name", e.Name),
				logger.String("tag", e.Tag),
				logger.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func (m *Manager) reconstruct(e registry.Entry) (services.Record, error) {
	rec, err := e.Record()
	if err != nil {
		return services.Record{}, err
	}
	if _, err := m.factory.FromRecord(rec); err != nil {
		return services.Record{}, err
	}
	return rec, nil
}

// Get returns the record at index.
func (m *Manager) Get(index int) (services.Record, error) {
	records, err := m.List()
	if err != nil {
		return services.Record{}, err
	}
	if index < 0 || index >= len(records) {
		return services.Record{}, services.IndexOutOfRangeError{Index: index, Length: len(records)}
	}
	return records[index], nil
}

// RemoveAt removes the service currently at index. Removal goes by name, so
// every entry sharing that name goes with it.
func (m *Manager) RemoveAt(index int) (services.Record, error) {
	rec, err := m.Get(index)
	if err != nil {
		return services.Record{}, err
	}

	if err := m.RemoveByName(rec.Name); err != nil {
		return services.Record{}, err
	}
	return rec, nil
}

// RemoveByName removes services by case-insensitive, trimmed name.
func (m *Manager) RemoveByName(name string) error {
	removed, err := m.store.RemoveByName(name)
	if err != nil {
		return err
	}

	m.log.Info("service removed",
		logger.String("name", strings.TrimSpace(name)),
		logger.Int("count", removed),
	)
	return nil
}

func (m *Manager) serviceAt(index int) (*services.Service, error) {
	rec, err := m.Get(index)
	if err != nil {
		return nil, err
	}
	return m.factory.FromRecord(rec)
}

// CommandAt returns the command an operation on index would run.
func (m *Manager) CommandAt(index int, op services.Operation) (services.Command, error) {
	svc, err := m.serviceAt(index)
	if err != nil {
		return services.Command{}, err
	}
	return svc.Command(op)
}

// ExecuteOperationAt runs op against the service at index.
func (m *Manager) ExecuteOperationAt(ctx context.Context, index int, op services.Operation) error {
	svc, err := m.serviceAt(index)
	if err != nil {
		return err
	}
	return svc.PerformOperation(ctx, op)
}

// Result is the outcome of one service in ExecuteAll.
type Result struct {
	Index  int
	Record services.Record
	Err    error
}

// ExecuteAll runs op against every registered service, at most parallel at a
// time. A failing service does not stop the others. Results are in list
// order; the returned error joins every failure.
func (m *Manager) ExecuteAll(ctx context.Context, op services.Operation) ([]Result, error) {
	records, err := m.List()
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(records))
	var mu sync.Mutex
	var errs []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallel)

	for i, rec := range records {
		results[i] = Result{Index: i, Record: rec}
		g.Go(func() error {
			err := m.executeRecord(gctx, rec, op)
			if err != nil {
				m.log.Error("service operation failed",
					logger.String("name", rec.Name),
					logger.String("operation", op.String()),
					logger.Error(err),
				)
				mu.Lock()
				results[i].Err = err
				errs = append(errs, err)
				mu.Unlock()
			}
			// never cancel the siblings
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

func (m *Manager) executeRecord(ctx context.Context, rec services.Record, op services.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	svc, err := m.factory.FromRecord(rec)
	if err != nil {
		return err
	}
	return svc.PerformOperation(ctx, op)
}

// Match is a fuzzy search hit.
type Match struct {
	Index  int
	Record services.Record
	Score  int
}

type recordSource []services.Record

func (s recordSource) String(i int) string { return s[i].Name }
func (s recordSource) Len() int            { return len(s) }

// Find fuzzy-matches query against service names, best match first.
func (m *Manager) Find(query string) ([]Match, error) {
	records, err := m.List()
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	found := fuzzy.FindFrom(query, recordSource(records))
	matches := make([]Match, 0, len(found))
	for _, f := range found {
		matches = append(matches, Match{Index: f.Index, Record: records[f.Index], Score: f.Score})
	}
	return matches, nil
}
