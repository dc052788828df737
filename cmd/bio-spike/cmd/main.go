// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	golog "log"
	"sync"

	"github.com/grailbio/base/log"
	"v.io/x/lib/cmdline"
)

var logFlags sync.Once

// addLogFlags registers grailbio/base/log's -log flag on the global flag set.
func addLogFlags() {
	logFlags.Do(log.AddFlags)
}

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-spike",
		Short:    "Classify SARS-CoV-2 spike mutations in Sanger reads",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdRun(),
			newCmdClassify(),
			newCmdPileup(),
		},
	}
}

// Run runs the bio-spike command line.  The -log flag (off, error, info or
// debug) sets the log level.
func Run() {
	addLogFlags()
	golog.SetFlags(golog.Ldate | golog.Ltime | golog.Lmicroseconds | golog.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}
