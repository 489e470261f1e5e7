package logging

import "log/slog"

// Common field names for consistent logging across the relay and CLI.
const (
	FieldService  = "service"
	FieldIP       = "ip"
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
	FieldError    = "error"
	FieldTarget   = "target"
	FieldOrigin   = "origin"
	FieldOutcome  = "outcome"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// IP returns a slog attribute for the IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Target returns a slog attribute for the downstream target URL.
func Target(url string) slog.Attr {
	return slog.String(FieldTarget, url)
}

// Origin returns a slog attribute for the request's Origin header.
func Origin(origin string) slog.Attr {
	return slog.String(FieldOrigin, origin)
}

// Outcome returns a slog attribute for a forward outcome class.
func Outcome(class string) slog.Attr {
	return slog.String(FieldOutcome, class)
}
