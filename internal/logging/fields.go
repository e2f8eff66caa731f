package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Method adds the HTTP method.
func Method(m string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("method", m) }
}

// Path adds the request path.
func Path(p string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("path", p) }
}

// Status adds the HTTP response status.
func Status(code int) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int("status", code) }
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int64("duration_ms", d.Milliseconds()) }
}

// File adds the dataset file name.
func File(name string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("file", name) }
}

// Shape adds dataset rows and columns.
func Shape(rows, cols int) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int("rows", rows).Int("cols", cols) }
}

// ChartType adds the chart type slug.
func ChartType(t string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("chart", t) }
}

// Session adds a session id.
func Session(id string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("session", id) }
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("component", name) }
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str(key, value) }
}
