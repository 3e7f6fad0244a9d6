package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robalobadob/bogglefinder/internal/board"
	"github.com/robalobadob/bogglefinder/internal/coverage"
	"github.com/robalobadob/bogglefinder/internal/words"
)

var (
	solveMaxPath int
	solveDict    string
	solveOrder   string
)

var solveCmd = &cobra.Command{
	Use:   "solve LETTERS",
	Short: "Solve a board and print every word with its path",
	Long: `Solve a board locally. No account or credit is involved.

LETTERS are the 16 cells in row-major order (fewer are padded with blanks).
A Q cell reads as QU.

Examples:
  bogglefinder solve SDLYAIOBOCHNGTES
  bogglefinder solve SDLYAIOBOCHNGTES --order=length
  bogglefinder solve catsdogexxxxxxxx --dict=words.txt --max-path=6`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().IntVar(&solveMaxPath, "max-path", 0, "Longest path to explore (default MAX_PATH_LENGTH)")
	solveCmd.Flags().StringVar(&solveDict, "dict", "", "Word list file, .txt or .json (default DICTIONARY_FILE or the built-in list)")
	solveCmd.Flags().StringVar(&solveOrder, "order", "coverage", "Word order: coverage or length")
}

func runSolve(cmd *cobra.Command, args []string) error {
	var order func([]board.FoundWord) []int
	switch solveOrder {
	case "coverage":
		order = coverage.Order
	case "length":
		order = identity
	default:
		return fmt.Errorf("unknown --order %q (want coverage or length)", solveOrder)
	}

	g, err := board.NewGrid(args[0])
	if err != nil {
		return fmt.Errorf("letters %q: %w", args[0], err)
	}

	path := solveDict
	if path == "" {
		path = cfg.DictionaryFile
	}
	dict, err := words.Load(path)
	if err != nil {
		return err
	}

	maxPath := solveMaxPath
	if maxPath <= 0 {
		maxPath = cfg.MaxPathLength
	}
	found, err := board.Search(g, dict, maxPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printGrid(out, g)
	fmt.Fprintln(out)
	for _, i := range order(found) {
		fmt.Fprintf(out, "%-16s %s\n", found[i].Word, formatPath(found[i].Path))
	}
	fmt.Fprintf(out, "\n%d words\n", len(found))
	return nil
}

func identity(found []board.FoundWord) []int {
	out := make([]int, len(found))
	for i := range out {
		out[i] = i
	}
	return out
}

func printGrid(w io.Writer, g *board.Grid) {
	for _, row := range g.Rows() {
		cells := make([]string, len(row))
		for i, t := range row {
			cells[i] = fmt.Sprintf("%-2s", t)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " "))
	}
}

func formatPath(p board.Path) string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
