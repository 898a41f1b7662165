// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/go-logging"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
)

var log *logging.Logger

var logFormat = logging.MustStringFormatter(`%{time:15:04:05.000} [%{level:.4s}] %{message}`)

var logFile *os.File

func init() {
	backend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), logFormat)
	logging.SetBackend(backend)
	log = logging.MustGetLogger("diamer")
}

// setLogLevel hides information on stderr in quiet mode.
// Logs are also written to the file given by --log.
func setLogLevel(quiet bool) {
	stderr := logging.AddModuleLevel(
		logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), logFormat))
	if quiet {
		stderr.SetLevel(logging.WARNING, "")
	} else {
		stderr.SetLevel(logging.INFO, "")
	}
	if logFile == nil {
		logging.SetBackend(stderr)
		return
	}

	toFile := logging.AddModuleLevel(
		logging.NewBackendFormatter(logging.NewLogBackend(logFile, "", 0), logFormat))
	toFile.SetLevel(logging.INFO, "")
	logging.SetBackend(stderr, toFile)
}

func openLogFile(file string) {
	if file == "" {
		return
	}
	var err error
	logFile, err = os.Create(file)
	checkError(errors.Wrap(err, "creating log file"))
}

func checkError(err error) {
	if err != nil {
		log.Error(err)
		if logFile != nil {
			logFile.Close()
		}
		os.Exit(-1)
	}
}

// Options contains the global flags.
type Options struct {
	NumCPUs     int
	Verbose     bool
	ProgressBar bool
}

func getOptions(cmd *cobra.Command) *Options {
	threads := getFlagPositiveInt(cmd, "threads")
	runtime.GOMAXPROCS(threads)

	quiet := getFlagBool(cmd, "quiet")
	return &Options{
		NumCPUs:     threads,
		Verbose:     !quiet,
		ProgressBar: !quiet && !getFlagBool(cmd, "no-progress"),
	}
}

// signalContext is cancelled on interrupts.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// makeOutDir creates the output directory, which should be empty
// unless force is true.
func makeOutDir(outDir string, force bool) {
	if outDir == "" {
		checkError(fmt.Errorf("flag -o/--out-dir needed"))
	}
	existed, err := pathutil.DirExists(outDir)
	checkError(errors.Wrap(err, outDir))
	if existed {
		empty, err := pathutil.IsEmpty(outDir)
		checkError(errors.Wrap(err, outDir))
		if !empty {
			if !force {
				checkError(fmt.Errorf("output directory not empty: %s, use --force to overwrite", outDir))
			}
			checkError(os.RemoveAll(outDir))
		}
	}
	checkError(os.MkdirAll(outDir, 0755))
}

func getFlagPositiveInt(cmd *cobra.Command, flag string) int {
	value, err := cmd.Flags().GetInt(flag)
	checkError(err)
	if value <= 0 {
		checkError(fmt.Errorf("value of flag --%s should be greater than 0", flag))
	}
	return value
}

func getFlagNonNegativeInt(cmd *cobra.Command, flag string) int {
	value, err := cmd.Flags().GetInt(flag)
	checkError(err)
	if value < 0 {
		checkError(fmt.Errorf("value of flag --%s should be greater than or equal to 0", flag))
	}
	return value
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	value, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return value
}

func getFlagString(cmd *cobra.Command, flag string) string {
	value, err := cmd.Flags().GetString(flag)
	checkError(err)
	return value
}

func getFlagStringSlice(cmd *cobra.Command, flag string) []string {
	value, err := cmd.Flags().GetStringSlice(flag)
	checkError(err)
	return value
}

// formatFlagUsage wraps the usage text of a flag.
func formatFlagUsage(s string) string {
	const width = 80
	words := strings.Fields(s)
	var b strings.Builder
	var n int
	for i, w := range words {
		if i > 0 {
			if n+1+len(w) > width {
				b.WriteString("\n")
				n = 0
			} else {
				b.WriteByte(' ')
				n++
			}
		}
		b.WriteString(w)
		n += len(w)
	}
	return b.String()
}
