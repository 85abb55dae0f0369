package logging

import "log/slog"

// Common field names for consistent logging across the service.
const (
	FieldService       = "service"
	FieldIP            = "ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatus        = "status"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldEventID       = "event_id"
	FieldAccountID     = "account_id"
	FieldDestinationID = "destination_id"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// IP returns a slog attribute for the client IP address.
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

// EventID returns a slog attribute for a caller-supplied event ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// AccountID returns a slog attribute for an account ID.
func AccountID(id string) slog.Attr {
	return slog.String(FieldAccountID, id)
}

// DestinationID returns a slog attribute for a destination ID.
func DestinationID(id string) slog.Attr {
	return slog.String(FieldDestinationID, id)
}
