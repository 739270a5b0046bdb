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

package cellsetutil

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// logFile is the open log file, if any.
var logFile io.Closer

// setLogging sets the level and destination of the standard logger. A log
// file opened by an earlier call is closed.
func setLogging(level, file string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("cellset: %v", err)
	}
	log := logrus.StandardLogger()
	log.SetLevel(lvl)
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	log.Out = os.Stderr
	if err := closeLog(); err != nil {
		return err
	}
	if file == "" {
		return nil
	}
	f, err := os.Create(os.ExpandEnv(file))
	if err != nil {
		return fmt.Errorf("cellset: problem creating log file: %v", err)
	}
	log.Out = io.MultiWriter(os.Stderr, f)
	logFile = f
	return nil
}

// closeLog closes the log file and sends the standard logger back to
// stderr.
func closeLog() error {
	if logFile == nil {
		return nil
	}
	logrus.StandardLogger().Out = os.Stderr
	err := logFile.Close()
	logFile = nil
	if err != nil {
		return fmt.Errorf("cellset: closing log file: %v", err)
	}
	return nil
}
