// Package listview models the catalog list screen: initial load, infinite
// scroll on narrow viewports and numbered pages on wide ones.
//
// Transition is pure. It returns the next Model and the Command the caller
// should run; the caller feeds the outcome back as PageLoaded or LoadFailed.
package listview

import (
	"fmt"

	"moviecatalog/internal/domain"
)

// State is the machine's current phase.
type State int

const (
	Idle State = iota
	LoadingInitial
	Loaded
	LoadingMore
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingInitial:
		return "loading-initial"
	case Loaded:
		return "loaded"
	case LoadingMore:
		return "loading-more"
	case Error:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Viewport is the layout class. The machine reads it but does not own it.
type Viewport int

const (
	Narrow Viewport = iota
	Wide
)

// Mode says how a fetched page combines with the current list.
type Mode int

const (
	Replace Mode = iota
	Append
)

// Model is the list state.
type Model struct {
	State      State
	Movies     []domain.Movie
	Page       int
	TotalPages int
	Total      int64
	Limit      int
	// pending is the request in flight while loading.
	pending *Command
	Err     error
}

// Command asks the caller to fetch one page.
type Command struct {
	Page  int
	Limit int
	Mode  Mode
}

// Event drives the machine.
type Event interface{ isEvent() }

// Mount starts the first load.
type Mount struct{}

// ScrolledToEnd fires when the sentinel below the list becomes visible.
type ScrolledToEnd struct{ Viewport Viewport }

// PageSelected fires when a page button is clicked.
type PageSelected struct {
	Viewport Viewport
	Page     int
}

// PageLoaded reports a successful fetch.
type PageLoaded struct{ Result domain.MoviePage }

// LoadFailed reports a failed fetch.
type LoadFailed struct{ Err error }

func (Mount) isEvent()         {}
func (ScrolledToEnd) isEvent() {}
func (PageSelected) isEvent()  {}
func (PageLoaded) isEvent()    {}
func (LoadFailed) isEvent()    {}

// New returns an idle model with the given page size.
func New(limit int) Model {
	if limit < 1 {
		limit = 8
	}
	return Model{State: Idle, Limit: limit}
}

// HasMore reports whether pages remain after the last loaded one.
func (m Model) HasMore() bool {
	return m.Page < m.TotalPages
}

// Transition applies ev to m. Events that do not apply in the current state
// leave the model unchanged and return a nil Command.
func Transition(m Model, ev Event) (Model, *Command) {
	switch e := ev.(type) {
	case Mount:
		if m.State != Idle {
			return m, nil
		}
		return m.request(LoadingInitial, Command{Page: 1, Limit: m.Limit, Mode: Replace})

	case ScrolledToEnd:
		if m.State != Loaded || e.Viewport != Narrow || !m.HasMore() {
			return m, nil
		}
		return m.request(LoadingMore, Command{Page: m.Page + 1, Limit: m.Limit, Mode: Append})

	case PageSelected:
		if m.State != Loaded || e.Viewport != Wide || e.Page < 1 || e.Page > m.TotalPages || e.Page == m.Page {
			return m, nil
		}
		return m.request(LoadingMore, Command{Page: e.Page, Limit: m.Limit, Mode: Replace})

	case PageLoaded:
		if m.pending == nil {
			return m, nil
		}
		cmd := *m.pending
		if cmd.Mode == Append {
			m.Movies = append(append([]domain.Movie(nil), m.Movies...), e.Result.Movies...)
		} else {
			m.Movies = append([]domain.Movie(nil), e.Result.Movies...)
		}
		m.Page = e.Result.Pagination.CurrentPage
		m.TotalPages = e.Result.Pagination.TotalPages
		m.Total = e.Result.Pagination.TotalMovies
		m.State = Loaded
		m.pending = nil
		m.Err = nil
		return m, nil

	case LoadFailed:
		if m.pending == nil {
			return m, nil
		}
		m.State = Error
		m.pending = nil
		m.Err = e.Err
		return m, nil
	}
	return m, nil
}

func (m Model) request(next State, cmd Command) (Model, *Command) {
	m.State = next
	m.pending = &cmd
	return m, &cmd
}
