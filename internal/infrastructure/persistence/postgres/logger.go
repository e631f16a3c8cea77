package postgres

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GORMLogWriter routes gorm's log output into zap
type GORMLogWriter struct {
	logger *zap.Logger
}

// Printf implements gorm's logger.Writer
func (w *GORMLogWriter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	switch {
	case strings.Contains(msg, "SLOW SQL"):
		w.logger.Warn("GORM slow query", zap.String("message", msg))
	case strings.Contains(msg, "Error"), strings.Contains(msg, "ERROR"):
		w.logger.Error("GORM error", zap.String("message", msg))
	default:
		w.logger.Debug("GORM log", zap.String("message", msg))
	}
}
