package lookup

import "github.com/i474232898/weather-lookup/internal/weather"

// State is the UI state of one lookup screen. Empty strings and a nil
// Weather mean "absent".
type State struct {
	CityInput string `json:"cityInput"`
	// SelectedDisplayName is set only by picking a suggestion and overrides the
	// display name of the next successful fetch.
	SelectedDisplayName          string            `json:"selectedDisplayName,omitempty"`
	Suggestions                  []string          `json:"suggestions"`
	IsSearchingSuggestions       bool              `json:"isSearchingSuggestions"`
	HasCompletedSuggestionSearch bool              `json:"hasCompletedSuggestionSearch"`
	IsFetchingWeather            bool              `json:"isFetchingWeather"`
	Weather                      *weather.Snapshot `json:"weather,omitempty"`
	ErrorMessage                 string            `json:"errorMessage,omitempty"`
}

func initialState() State {
	return State{Suggestions: []string{}}
}

func (s State) HasError() bool { return s.ErrorMessage != "" }

func (s State) HasWeather() bool { return s.Weather != nil }

// IsIdle reports no fetch in progress, no weather and no error.
func (s State) IsIdle() bool {
	return !s.IsFetchingWeather && s.Weather == nil && s.ErrorMessage == ""
}

// clone copies the suggestion slice so observers never share backing arrays
// with the coordinator. Weather snapshots are immutable and shared.
func (s State) clone() State {
	out := s
	out.Suggestions = append(make([]string, 0, len(s.Suggestions)), s.Suggestions...)
	return out
}
