package weather

import "fmt"

// Condition is the short category string for the current weather, e.g. "Clear".
type Condition string

const (
	ConditionUnknown      Condition = "Unknown"
	ConditionClear        Condition = "Clear"
	ConditionClouds       Condition = "Clouds"
	ConditionRain         Condition = "Rain"
	ConditionDrizzle      Condition = "Drizzle"
	ConditionSnow         Condition = "Snow"
	ConditionThunderstorm Condition = "Thunderstorm"
	ConditionMist         Condition = "Mist"
)

// Icon returns the default day icon code for the condition.
// Providers that report their own icon code do not need this.
func (c Condition) Icon() string {
	switch c {
	case ConditionClear:
		return "01d"
	case ConditionClouds:
		return "03d"
	case ConditionDrizzle:
		return "09d"
	case ConditionRain:
		return "10d"
	case ConditionThunderstorm:
		return "11d"
	case ConditionSnow:
		return "13d"
	case ConditionMist:
		return "50d"
	default:
		return "01d"
	}
}

// Snapshot is a completed current-conditions reading for one city.
// It is never modified after creation; a new fetch replaces it wholesale.
type Snapshot struct {
	DisplayName string    `json:"displayName"` // e.g. "London, GB"
	CityName    string    `json:"cityName"`
	Temperature int       `json:"temperatureC"`
	FeelsLike   int       `json:"feelsLikeC"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description"`
	Humidity    int       `json:"humidityPercent"`
	WindSpeed   float64   `json:"windSpeedMs"`
	IconCode    string    `json:"iconCode"`
}

// WithDisplayName returns a copy of s whose display name is replaced by name.
// An empty name leaves the snapshot unchanged.
func (s Snapshot) WithDisplayName(name string) Snapshot {
	if name != "" {
		s.DisplayName = name
	}
	return s
}

// Place is a single geocoding match.
type Place struct {
	Name      string  `json:"name"`
	State     string  `json:"state,omitempty"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// DisplayName formats the place as "City, State, Country", or "City, Country"
// when no state is known.
func (p Place) DisplayName() string {
	if p.State != "" {
		return fmt.Sprintf("%s, %s, %s", p.Name, p.State, p.Country)
	}
	return fmt.Sprintf("%s, %s", p.Name, p.Country)
}
