package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// Component records the originating component under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Email records an email address under the key "email".
func Email(email string) slog.Attr {
	return slog.String("email", email)
}

// Provider records an identity provider name under the key "provider".
func Provider(provider string) slog.Attr {
	return slog.String("provider", provider)
}
