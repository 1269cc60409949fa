package gridstore

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// MemoryStore is an in-memory grid source and sink. Safe for concurrent use.
type MemoryStore struct {
	mu sync.RWMutex

	grids  map[string]*raster.Grid
	labels map[string]*raster.LabelGrid
	dates  map[string]*raster.DateGrid

	readFailures  map[string]error
	writeFailures map[string]error

	// readHook runs before every read; a non-nil error fails the read
	readHook func(ctx context.Context, identifier string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		grids:         make(map[string]*raster.Grid),
		labels:        make(map[string]*raster.LabelGrid),
		dates:         make(map[string]*raster.DateGrid),
		readFailures:  make(map[string]error),
		writeFailures: make(map[string]error),
	}
}

// PutGrid stores an input grid under identifier
func (s *MemoryStore) PutGrid(identifier string, grid *raster.Grid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grids[identifier] = grid
}

// FailRead makes every read of identifier fail with cause
func (s *MemoryStore) FailRead(identifier string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readFailures[identifier] = cause
}

// FailWrite makes every write to identifier fail with cause
func (s *MemoryStore) FailWrite(identifier string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeFailures[identifier] = cause
}

// SetReadHook installs fn to run before every read
func (s *MemoryStore) SetReadHook(fn func(ctx context.Context, identifier string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readHook = fn
}

func (s *MemoryStore) Read(ctx context.Context, identifier string) (*raster.Grid, error) {
	s.mu.RLock()
	hook := s.readHook
	grid, ok := s.grids[identifier]
	failure := s.readFailures[identifier]
	s.mu.RUnlock()

	if hook != nil {
		if err := hook(ctx, identifier); err != nil {
			return nil, shared.NewReadError(identifier, err)
		}
	}
	if failure != nil {
		return nil, shared.NewReadError(identifier, failure)
	}
	if !ok {
		return nil, shared.NewReadError(identifier, fs.ErrNotExist)
	}
	return grid, nil
}

func (s *MemoryStore) WriteLabels(ctx context.Context, identifier string, labels *raster.LabelGrid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if failure := s.writeFailures[identifier]; failure != nil {
		return shared.NewWriteError(identifier, failure)
	}
	s.labels[identifier] = labels
	return nil
}

func (s *MemoryStore) WriteDates(ctx context.Context, identifier string, dates *raster.DateGrid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if failure := s.writeFailures[identifier]; failure != nil {
		return shared.NewWriteError(identifier, failure)
	}
	s.dates[identifier] = dates
	return nil
}

// Remove deletes any label or date grid written to identifier
func (s *MemoryStore) Remove(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.labels, identifier)
	delete(s.dates, identifier)
	return nil
}

// Labels returns the label grid written to identifier
func (s *MemoryStore) Labels(identifier string) (*raster.LabelGrid, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.labels[identifier]
	return l, ok
}

// Dates returns the burn-date grid written to identifier
func (s *MemoryStore) Dates(identifier string) (*raster.DateGrid, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dates[identifier]
	return d, ok
}

// Written lists the identifiers holding label grids, sorted
func (s *MemoryStore) Written() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.labels))
	for id := range s.labels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *MemoryStore) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("MemoryStore[grids=%d, labels=%d, dates=%d]", len(s.grids), len(s.labels), len(s.dates))
}

var (
	_ batch.GridSource    = (*MemoryStore)(nil)
	_ batch.GridSink      = (*MemoryStore)(nil)
	_ batch.OutputRemover = (*MemoryStore)(nil)
)
