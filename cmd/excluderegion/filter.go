// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"excluderegion-go/pkg/exclude"
)

var filterCmd = &cobra.Command{
	Use:   "filter [file]",
	Short: "Filter a g-code file or stdin through the exclusion engine",
	Long: `Reads g-code from the given file (or stdin when omitted), applies the
exclusion regions from the settings file and writes the filtered stream
to stdout or the --output file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, _, _, err := setup(cmd)
		if err != nil {
			return err
		}

		in := io.Reader(os.Stdin)
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		out := io.Writer(os.Stdout)
		if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		return filterStream(engine, in, out)
	},
}

func init() {
	filterCmd.Flags().StringP("output", "o", "", "Write filtered g-code to this file instead of stdout")
	rootCmd.AddCommand(filterCmd)
}

// filterStream runs one print job: every input line goes through the
// engine and the replacement lines are written in order. Finishing the
// job flushes any span still open at end of input.
func filterStream(engine *exclude.Engine, in io.Reader, out io.Writer) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	engine.StartJob()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		for _, line := range engine.ProcessLine(scanner.Text()) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	for _, line := range engine.FinishJob() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
