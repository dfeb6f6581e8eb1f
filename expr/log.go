package expr

import "log/slog"

// LogValue renders e only when a log record is actually emitted.
func (e Expr) LogValue() slog.Value {
	return slog.StringValue(e.String())
}

// LogValue renders the target of w if it is still alive.
func (w Weak) LogValue() slog.Value {
	e, ok := w.Lock()
	if !ok {
		return slog.StringValue("<expired>")
	}
	defer e.Release()
	return slog.StringValue(e.String())
}
