package lookup

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
)

const (
	DefaultDebounce        = 300 * time.Millisecond
	DefaultSuggestionLimit = 10
	DefaultMinQueryLength  = 2
)

// Options tunes a Coordinator. Zero fields take the defaults above.
type Options struct {
	Debounce        time.Duration
	SuggestionLimit int
	MinQueryLength  int
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.SuggestionLimit <= 0 {
		o.SuggestionLimit = DefaultSuggestionLimit
	}
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = DefaultMinQueryLength
	}
	return o
}

// Coordinator owns the state of one lookup screen. It debounces autocomplete
// searches and sequences weather fetches against the two upstream clients.
//
// All state changes happen under mu, which gives the same ordering as a single
// event queue. Each search round and each fetch carries a generation number;
// a result whose generation is no longer current is dropped.
type Coordinator struct {
	client   weather.Client
	searcher weather.Searcher
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	closed  bool
	subs    map[int]chan State
	nextSub int

	searchGen    uint64
	searchTimer  *time.Timer
	searchCancel context.CancelFunc

	fetchGen    uint64
	fetchCancel context.CancelFunc
}

// New creates a Coordinator with an empty state.
func New(client weather.Client, searcher weather.Searcher, opts Options) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		client:   client,
		searcher: searcher,
		opts:     opts.withDefaults(),
		ctx:      ctx,
		cancel:   cancel,
		state:    initialState(),
		subs:     make(map[int]chan State),
	}
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe returns a channel that receives the current state immediately and
// then every later state. The channel holds one value; a slow reader only sees
// the latest state. The returned func unsubscribes and closes the channel.
func (c *Coordinator) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.state.clone()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (c *Coordinator) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// UpdateCityInput records typed text and schedules a debounced suggestion search
// when the text is long enough. Any pending or running search is cancelled.
// Text that differs from the selected suggestion clears the selection.
func (c *Coordinator) UpdateCityInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.state.CityInput = text
	if c.state.SelectedDisplayName != text {
		c.state.SelectedDisplayName = ""
	}
	c.cancelSearchLocked()

	if !common.IsBlank(text) && utf8.RuneCountInString(text) >= c.opts.MinQueryLength {
		// Flag the search right away, before the debounce elapses.
		c.state.IsSearchingSuggestions = true

		gen := c.searchGen
		ctx, cancel := context.WithCancel(c.ctx)
		c.searchCancel = cancel
		c.searchTimer = time.AfterFunc(c.opts.Debounce, func() {
			c.runSearch(ctx, gen, text)
		})
	} else {
		c.state.Suggestions = []string{}
		c.state.HasCompletedSuggestionSearch = false
		c.state.IsSearchingSuggestions = false
	}

	c.publishLocked()
}

// SubmitSearch fetches weather for the trimmed input. Blank input only sets a
// validation message.
func (c *Coordinator) SubmitSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	name := strings.TrimSpace(c.state.CityInput)
	if name == "" {
		c.state.ErrorMessage = weather.MsgEmptyCity
		c.publishLocked()
		return
	}

	c.startFetchLocked(name, c.state.SelectedDisplayName)
}

// SelectSuggestion fills the input with a picked suggestion and fetches its weather.
func (c *Coordinator) SelectSuggestion(displayName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	// A search still pending for the typed prefix must not refill the list.
	c.cancelSearchLocked()

	c.state.CityInput = displayName
	c.state.SelectedDisplayName = displayName
	c.state.Suggestions = []string{}
	c.state.ErrorMessage = ""
	c.state.HasCompletedSuggestionSearch = false
	c.state.IsSearchingSuggestions = false

	c.startFetchLocked(displayName, displayName)
}

// ClearError drops the error message and nothing else.
func (c *Coordinator) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.state.ErrorMessage = ""
	c.publishLocked()
}

// ResetAll cancels outstanding work and returns to the initial state.
func (c *Coordinator) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.cancelSearchLocked()
	c.cancelFetchLocked()
	c.state = initialState()
	c.publishLocked()
}

// Close ends the session: outstanding work is cancelled, subscriber channels
// are closed and later calls are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.closed = true
	c.cancelSearchLocked()
	c.cancelFetchLocked()
	c.cancel()

	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Coordinator) cancelSearchLocked() {
	c.searchGen++
	if c.searchTimer != nil {
		c.searchTimer.Stop()
		c.searchTimer = nil
	}
	if c.searchCancel != nil {
		c.searchCancel()
		c.searchCancel = nil
	}
}

func (c *Coordinator) cancelFetchLocked() {
	c.fetchGen++
	if c.fetchCancel != nil {
		c.fetchCancel()
		c.fetchCancel = nil
	}
}

func (c *Coordinator) runSearch(ctx context.Context, gen uint64, query string) {
	c.mu.Lock()
	current := gen == c.searchGen && !c.closed
	c.mu.Unlock()
	if !current {
		return
	}

	suggestions := c.search(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.searchGen || c.closed {
		return
	}

	c.searchTimer = nil
	if c.searchCancel != nil {
		c.searchCancel()
		c.searchCancel = nil
	}

	c.state.Suggestions = suggestions
	c.state.IsSearchingSuggestions = false
	c.state.HasCompletedSuggestionSearch = true
	c.publishLocked()
}

// search calls the searcher; a panic counts as an empty result.
func (c *Coordinator) search(ctx context.Context, query string) (out []string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: lookup: suggestion search panicked for %q: %v", query, r)
			out = []string{}
		}
	}()

	out = c.searcher.Search(ctx, query, c.opts.SuggestionLimit)
	if out == nil {
		out = []string{}
	}
	return out
}

// startFetchLocked moves to the loading state and fetches in the background.
// override replaces the snapshot's display name on success when non-empty.
func (c *Coordinator) startFetchLocked(name, override string) {
	c.cancelFetchLocked()
	gen := c.fetchGen
	ctx, cancel := context.WithCancel(c.ctx)
	c.fetchCancel = cancel

	c.state.IsFetchingWeather = true
	c.state.ErrorMessage = ""
	c.state.Weather = nil
	c.publishLocked()

	go c.runFetch(ctx, gen, name, override)
}

func (c *Coordinator) runFetch(ctx context.Context, gen uint64, name, override string) {
	outcome := c.fetch(ctx, name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.fetchGen || c.closed {
		return
	}

	if c.fetchCancel != nil {
		c.fetchCancel()
		c.fetchCancel = nil
	}
	c.state.IsFetchingWeather = false

	switch outcome.Status() {
	case weather.StatusSuccess:
		snap, _ := outcome.Value()
		snap = snap.WithDisplayName(override)
		c.state.Weather = &snap
		c.state.ErrorMessage = ""
	case weather.StatusError:
		err := outcome.Err()
		log.Printf("lookup: weather fetch for %q failed: %v", name, err)
		c.state.Weather = nil
		c.state.ErrorMessage = weather.UserMessage(err.Kind)
	default:
		log.Printf("ERROR: lookup: weather fetch for %q ended in %s state", name, outcome.Status())
		c.state.Weather = nil
		c.state.ErrorMessage = weather.MsgGeneric
	}

	c.publishLocked()
}

// fetch calls the weather client; a panic becomes an unknown error.
func (c *Coordinator) fetch(ctx context.Context, name string) (out weather.Outcome[weather.Snapshot]) {
	defer func() {
		if r := recover(); r != nil {
			out = weather.Failure[weather.Snapshot](
				weather.NewError(weather.KindUnknown, fmt.Sprintf("unexpected error: %v", r), nil))
		}
	}()

	return c.client.FetchByName(ctx, name)
}

// publishLocked pushes the current state to every subscriber, replacing any
// value the subscriber has not read yet. mu makes this the only sender.
func (c *Coordinator) publishLocked() {
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c.state.clone()
	}
}
