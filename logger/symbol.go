package logger

import (
	"github.com/teranos/epicdash/sym"
	"go.uber.org/zap"
)

// Symbol-aware logging helpers. The symbol travels as a structured field so
// logs stay queryable by subsystem and messages stay clean.
//
//	p.feedLog = logger.AddFeedSymbol(baseLogger)
//	p.feedLog.Infow("Poller started", "interval", interval)

// AddFeedSymbol wraps a logger with the Feed symbol (⇄)
func AddFeedSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Feed)
}

// AddGaugeSymbol wraps a logger with the Gauge symbol (◔)
func AddGaugeSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Gauge)
}

// AddOpenSymbol wraps a logger with the Open symbol (✿)
func AddOpenSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Open)
}

// AddCloseSymbol wraps a logger with the Close symbol (❀)
func AddCloseSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Close)
}

// AddAMSymbol wraps a logger with the AM symbol (≡)
func AddAMSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.AM)
}

// WithSymbol returns the global logger with an arbitrary symbol field.
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}
