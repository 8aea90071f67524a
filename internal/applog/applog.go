// Package applog adapts the Wails logger interface for non-UI packages.
package applog

import (
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

// Default returns the Wails console logger.
func Default() logger.Logger {
	return logger.NewDefaultLogger()
}

// OrNop returns l, or a logger that drops everything when l is nil.
func OrNop(l logger.Logger) logger.Logger {
	if l == nil {
		return nop{}
	}
	return l
}

// Debugf formats and logs at debug level.
func Debugf(l logger.Logger, format string, args ...any) {
	OrNop(l).Debug(fmt.Sprintf(format, args...))
}

// Infof formats and logs at info level.
func Infof(l logger.Logger, format string, args ...any) {
	OrNop(l).Info(fmt.Sprintf(format, args...))
}

// Warningf formats and logs at warning level.
func Warningf(l logger.Logger, format string, args ...any) {
	OrNop(l).Warning(fmt.Sprintf(format, args...))
}

// Errorf formats and logs at error level.
func Errorf(l logger.Logger, format string, args ...any) {
	OrNop(l).Error(fmt.Sprintf(format, args...))
}

type nop struct{}

func (nop) Print(string)   {}
func (nop) Trace(string)   {}
func (nop) Debug(string)   {}
func (nop) Info(string)    {}
func (nop) Warning(string) {}
func (nop) Error(string)   {}
func (nop) Fatal(string)   {}
