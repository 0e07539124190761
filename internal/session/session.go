package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/couchcryptid/heat-emissions/internal/domain"
)

// DatasetFunc returns the dataset snapshot to evaluate against.
type DatasetFunc func() *domain.Dataset

// Session holds one user's selection and the enrichment values resolved for
// it. Selecting a new country cancels lookups still running for the previous
// one; a lookup result is applied only while its selection is current.
type Session struct {
	data     DatasetFunc
	locator  *Locator
	defaults domain.EmissionDefaults
	logger   *slog.Logger

	mu      sync.Mutex
	sel     Selection
	ambient Ambient
	token   uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	memo *memoized
}

type memoized struct {
	ds      *domain.Dataset
	year    int
	sel     Selection
	ambient Ambient
	result  Result
}

// New creates a Session. locator may be nil to disable lookups.
func New(data DatasetFunc, locator *Locator, d domain.EmissionDefaults, logger *slog.Logger) *Session {
	return &Session{
		data:     data,
		locator:  locator,
		defaults: d,
		logger:   logger,
		sel:      DefaultSelection("", d),
	}
}

// SelectCountry switches the selected country and starts resolving its
// ambient temperature in the background.
func (s *Session) SelectCountry(ctx context.Context, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.token++
	s.sel.Country = code
	s.ambient = Ambient{}

	if s.locator == nil || code == "" {
		return
	}

	country, err := s.data().ResolveCountry(code, s.defaults)
	if err != nil {
		s.logger.Debug("lookup skipped for unknown country", "country", code)
		return
	}

	lookupCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	token := s.token

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		amb := s.locator.Resolve(lookupCtx, country.Code, country.Name)

		s.mu.Lock()
		defer s.mu.Unlock()
		if token != s.token || lookupCtx.Err() != nil {
			s.logger.Debug("discarding stale lookup", "country", country.Code)
			return
		}
		s.ambient = amb
	}()
}

// Update applies fn to the current selection. Changing the country through
// Update does not trigger lookups; use SelectCountry for that.
func (s *Session) Update(fn func(*Selection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.sel)
}

// Selection returns a copy of the current selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Ambient returns the enrichment values resolved for the current selection.
func (s *Session) Ambient() Ambient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ambient
}

// Results evaluates the current selection. The previous result is reused
// when neither the dataset snapshot, the calendar year nor any input has
// changed.
func (s *Session) Results() Result {
	ds := s.data()
	year := domain.CurrentYear()

	s.mu.Lock()
	defer s.mu.Unlock()

	if m := s.memo; m != nil && m.ds == ds && m.year == year && m.sel.equal(s.sel) && m.ambient.equal(s.ambient) {
		return m.result
	}
	res := Evaluate(ds, s.sel, s.ambient, s.defaults)
	sel := s.sel
	sel.Horizons = slices.Clone(sel.Horizons)
	s.memo = &memoized{ds: ds, year: year, sel: sel, ambient: s.ambient, result: res}
	return res
}

// Wait blocks until in-flight lookups have finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight lookups and waits for them to return.
func (s *Session) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.token++
	s.mu.Unlock()
	s.wg.Wait()
}
