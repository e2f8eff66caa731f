package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/insightigraph/internal/logging"
	"github.com/KaramelBytes/insightigraph/internal/utils"
	"github.com/spf13/cobra"
)

var (
	abInput  inputFlags
	abReport reportFlags
	abOutDir string
	abQuiet  bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Profile multiple CSV/TSV/XLSX files, one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		ext, err := abReport.ext()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		used := map[string]int{}
		total := len(files)
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			ds, err := abInput.load(path)
			if err != nil {
				return err
			}
			body, err := renderReport(cmd.Context(), ds, abReport.options(cmd, abInput.separators()), ext)
			if err != nil {
				return err
			}

			if abOutDir == "" {
				if !abQuiet {
					fmt.Fprintln(out, string(body))
				}
				continue
			}
			base := reportBase(path, abInput.sheetName)
			name := utils.UniqueName(base, ext, used)
			for exists(filepath.Join(abOutDir, name)) {
				name = utils.UniqueName(base, ext, used)
			}
			if name != base+ext && !abQuiet {
				fmt.Fprintf(out, "⚠ Report name %s is taken, writing to %s to avoid overwrite.\n", base+ext, name)
			}
			outFile := filepath.Join(abOutDir, name)
			if err := utils.SafeWriteFile(outFile, body); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			logging.Debug().Add(logging.File(path)).Add(logging.Str("report", outFile)).Msg("report written")
			if !abQuiet {
				fmt.Fprintf(out, "✓ Wrote analysis to %s\n", outFile)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abInput.register(analyzeBatchCmd)
	abReport.register(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for the reports (stdout if omitted)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}

// expandInputs resolves globs and literal paths, dropping duplicates. The
// result is sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if exists(arg) {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// reportBase is the report file stem for path, tagged with a slug of the
// sheet name when one was selected.
func reportBase(path, sheet string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if sheet == "" {
		return base
	}
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(sheet)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' {
			b.WriteRune('-')
		}
	}
	ss := strings.Trim(b.String(), "-")
	if ss == "" {
		ss = "sheet"
	}
	return base + "__sheet-" + ss
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
