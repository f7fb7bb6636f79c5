package weather

// User-facing messages.
const (
	MsgCityNotFound       = "City not found. Please check the city name and try again."
	MsgNetwork            = "Network error. Please check your internet connection."
	MsgInvalidCredentials = "API configuration error. Please contact support."
	MsgTimeout            = "Request timed out. Please try again."
	MsgGeneric            = "Something went wrong. Please try again."
	MsgEmptyCity          = "Please enter a city name"
)

// UserMessage maps an error kind to the fixed text shown to the user.
// This is the only place kinds are turned into text.
func UserMessage(kind ErrorKind) string {
	switch kind {
	case KindCityNotFound:
		return MsgCityNotFound
	case KindNetwork:
		return MsgNetwork
	case KindInvalidCredentials:
		return MsgInvalidCredentials
	case KindTimeout:
		return MsgTimeout
	case KindServerError, KindUnknown:
		return MsgGeneric
	default:
		return MsgGeneric
	}
}
