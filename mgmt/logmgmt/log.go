// Package logmgmt inspects and changes per-package log levels in the management API.
package logmgmt

import (
	"errors"

	"github.com/usnistgov/tgenctl/core/logging"
)

// LogMgmt serves the Log.* methods.
type LogMgmt struct{}

// LevelInfo describes the log level of a package.
type LevelInfo struct {
	Package string `json:"package"`
	Level   string `json:"level"`
}

func newLevelInfo(pl *logging.PkgLevel) LevelInfo {
	return LevelInfo{
		Package: pl.Package(),
		Level:   string(pl.Level()),
	}
}

// List returns log levels of every package with a logger.
func (LogMgmt) List(args struct{}, reply *[]LevelInfo) error {
	list := []LevelInfo{}
	for _, pl := range logging.ListLevels() {
		list = append(list, newLevelInfo(pl))
	}
	*reply = list
	return nil
}

// Set changes log level of a package.
func (LogMgmt) Set(args LevelInfo, reply *LevelInfo) error {
	pl := logging.FindLevel(args.Package)
	if pl == nil {
		return errors.New("package not found")
	}
	pl.SetLevel(args.Level)
	*reply = newLevelInfo(pl)
	return nil
}
