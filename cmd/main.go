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
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

// VERSION of diamer
const VERSION = "0.1.0"

var stopProfiling interface{ Stop() }

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "diamer",
	Short: "Taxonomic classification of reads with bucketed k-mer indexes",
	Long: fmt.Sprintf(`diamer -- taxonomic classification of reads with bucketed k-mer indexes

Protein sequences of a reference database and DNA reads are encoded with a
reduced amino acid alphabet and a spaced seed. K-mers are distributed into
buckets, sorted and written to index directories. Reads are assigned to
taxa by merge-joining buckets of the same names.

Steps:
  1. diamer index-db    -o db/    --nodes nodes.dmp --names names.dmp proteins.fasta.gz
  2. diamer index-reads -o reads/ reads_1.fq.gz reads_2.fq.gz
  3. diamer assign      -d db/ -r reads/ -o out/

Database indexes can be inspected with "diamer analyze-db".

Version: v%s

`, VERSION),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		openLogFile(getFlagString(cmd, "log"))
		setLogLevel(getFlagBool(cmd, "quiet"))

		pfCPU := getFlagBool(cmd, "pprof-cpu")
		pfMEM := getFlagBool(cmd, "pprof-mem")
		if pfCPU && pfMEM {
			checkError(fmt.Errorf("do not use flags --pprof-cpu and --pprof-mem at the same time"))
		}
		if pfCPU {
			stopProfiling = profile.Start(profile.CPUProfile, profile.ProfilePath("."))
		} else if pfMEM {
			stopProfiling = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.MemProfileRate(1))
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopProfiling != nil {
			stopProfiling.Stop()
		}
		if logFile != nil {
			logFile.Close()
		}
	},
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultThreads := runtime.NumCPU()

	RootCmd.PersistentFlags().IntP("threads", "j", defaultThreads,
		formatFlagUsage("Number of CPU cores to use. By default, it uses all available cores."))
	RootCmd.PersistentFlags().BoolP("quiet", "q", false,
		formatFlagUsage("Do not print any verbose information. But you can write them to file with --log."))
	RootCmd.PersistentFlags().BoolP("no-progress", "", false,
		formatFlagUsage("Do not show progress bars."))
	RootCmd.PersistentFlags().StringP("log", "", "",
		formatFlagUsage("Log file."))
	RootCmd.PersistentFlags().BoolP("pprof-cpu", "", false,
		formatFlagUsage("Profile CPU usage."))
	RootCmd.PersistentFlags().BoolP("pprof-mem", "", false,
		formatFlagUsage("Profile memory usage."))

	RootCmd.CompletionOptions.DisableDefaultCmd = true
	RootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	RootCmd.SetUsageTemplate(usageTemplate(filepath.Base(os.Args[0])))
}

func usageTemplate(s string) string {
	return fmt.Sprintf(`Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "%s [command] --help" for more information about a command.{{end}}
`, s)
}
