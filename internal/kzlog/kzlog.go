// Copyright 2026 The Kozos Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kzlog centralizes logger construction for every kozos binary,
// the way runsc's CLI flags settle on one log format and level before
// any subcommand runs.
package kzlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Format selects a logrus formatter.
type Format string

const (
	// FormatText is the default, human-readable formatter.
	FormatText Format = "text"
	// FormatJSON emits one JSON object per line, for log aggregation.
	FormatJSON Format = "json"
)

// Options controls logger construction, mirroring the --log-format and
// --debug flags runsc's CLI exposes.
type Options struct {
	Format Format
	Debug  bool
	Output io.Writer // defaults to os.Stderr
}

// New returns a configured *logrus.Logger. Boot monitor and kernel
// binaries construct exactly one of these at startup and thread it
// through every component that logs.
func New(opts Options) *logrus.Logger {
	log := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)

	switch opts.Format {
	case FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.Debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}
