/*
Copyright © 2013 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package cellset

import (
	"runtime"

	"github.com/sirupsen/logrus"
)

// Env holds the ambient settings for cell set operations: the number of
// goroutines used for per-cell work and where log messages go.
type Env struct {
	// Procs is the number of goroutines for parallel per-cell work.
	// Values < 1 mean runtime.GOMAXPROCS(0).
	Procs int

	// Log receives warnings and status messages. If nil,
	// logrus.StandardLogger() is used.
	Log logrus.FieldLogger
}

// DefaultEnv returns an Env using all available processors and the
// standard logger.
func DefaultEnv() Env {
	return Env{Procs: runtime.GOMAXPROCS(0), Log: logrus.StandardLogger()}
}

// NumProcs returns the number of goroutines to use.
func (e Env) NumProcs() int {
	if e.Procs < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return e.Procs
}

// Logger returns the logger to use.
func (e Env) Logger() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}
