package weather

import "context"

// Client abstracts a current-conditions source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
// Implementations translate every transport failure into an *Error outcome and
// never return the Loading variant.
type Client interface {
	Name() string
	FetchByName(ctx context.Context, name string) Outcome[Snapshot]
	FetchByCoordinates(ctx context.Context, lat, lon float64) Outcome[Snapshot]
}

// Searcher returns city display names matching a query, most relevant first.
// Failures degrade to an empty result; a blank query never hits the network.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []string
}
