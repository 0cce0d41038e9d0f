package logger

import (
	"github.com/teranos/typeahead/sym"
	"go.uber.org/zap"
)

// Symbol-aware logging helpers.
// The symbol goes in a structured field, not in the message, so logs stay
// queryable by trigger:
//
//	logger.AddDBSymbol(d.logger).Infow("Directory refreshed", "users", n)

// WithSymbol returns the global logger with the given symbol as a field.
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}

// AddDBSymbol wraps a logger with the DB symbol (⊔)
func AddDBSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.DB)
}

// AddRefreshSymbol wraps a logger with the Refresh symbol (⟳)
func AddRefreshSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Refresh)
}

// AddTransportSymbol wraps a logger with the Transport symbol (⇄)
func AddTransportSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Transport)
}

// AddTriggerSymbol wraps a logger with the trigger marker of a token kind.
func AddTriggerSymbol(l *zap.SugaredLogger, kind string) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Trigger(kind), FieldKind, kind)
}
