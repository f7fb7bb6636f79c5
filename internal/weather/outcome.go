package weather

// Status identifies which variant of an Outcome is active.
type Status int

const (
	// StatusNone is the zero value: no result yet. It is not the same as loading.
	StatusNone Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "none"
	}
}

// Outcome is a tagged result of a lookup: loading, a value, or a domain error.
// Exactly one variant is active.
type Outcome[T any] struct {
	status Status
	value  T
	err    *Error
}

// Loading returns the in-progress variant.
func Loading[T any]() Outcome[T] {
	return Outcome[T]{status: StatusLoading}
}

// Success wraps a value.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{status: StatusSuccess, value: v}
}

// Failure wraps a domain error. A nil err is treated as KindUnknown.
func Failure[T any](err *Error) Outcome[T] {
	if err == nil {
		err = NewError(KindUnknown, "unspecified failure", nil)
	}
	return Outcome[T]{status: StatusError, err: err}
}

func (o Outcome[T]) Status() Status { return o.status }

func (o Outcome[T]) IsLoading() bool { return o.status == StatusLoading }

func (o Outcome[T]) IsSuccess() bool { return o.status == StatusSuccess }

func (o Outcome[T]) IsError() bool { return o.status == StatusError }

// Value returns the wrapped value and whether the outcome is a success.
func (o Outcome[T]) Value() (T, bool) {
	return o.value, o.status == StatusSuccess
}

// Err returns the domain error for the error variant, nil otherwise.
func (o Outcome[T]) Err() *Error {
	if o.status != StatusError {
		return nil
	}
	return o.err
}
