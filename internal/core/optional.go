package core

import "github.com/goccy/go-json"

// Optional is the outcome of a best-effort lookup: a value, or its absence
// with a reason. It marshals to the value or null.
type Optional[T any] struct {
	value  *T
	reason string
}

func Present[T any](v *T) Optional[T] {
	if v == nil {
		return Absent[T]("empty response")
	}
	return Optional[T]{value: v}
}

func Absent[T any](reason string) Optional[T] {
	return Optional[T]{reason: reason}
}

// OptionalOf wraps a (value, error) pair.
func OptionalOf[T any](v *T, err error) Optional[T] {
	if err != nil {
		return Absent[T](err.Error())
	}
	return Present(v)
}

func (o Optional[T]) Get() (*T, bool) {
	return o.value, o.value != nil
}

func (o Optional[T]) Ok() bool { return o.value != nil }

// Reason explains an absent value; it is empty when the value is present.
func (o Optional[T]) Reason() string { return o.reason }

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
