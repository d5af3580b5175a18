package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/slotsig/internal/scenario"
	"github.com/Iron-Ham/slotsig/internal/tui/styles"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and local scenarios",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	builtins, err := scenario.Builtins()
	if err != nil {
		return err
	}
	dir := a.cfg.Scenario.ResolveDir()
	local, err := scenario.LoadDir(dir)
	if err != nil {
		return err
	}

	width := styles.TerminalWidth(a.out, 0)
	printScenarioList(a.out, a.styles, "Built-in scenarios", builtins, width)
	if dir != "" {
		fmt.Fprintln(a.out)
		printScenarioList(a.out, a.styles, fmt.Sprintf("Scenarios in %s", dir), local, width)
	}
	return nil
}

// printScenarioList prints one line per scenario. Descriptions are cut to
// fit width columns; a width of zero leaves them whole.
func printScenarioList(w io.Writer, st *styles.Styles, title string, list []*scenario.Scenario, width int) {
	fmt.Fprintln(w, st.Title.Render(title))
	if len(list) == 0 {
		fmt.Fprintln(w, st.Muted.Render("  (none)"))
		return
	}

	nameWidth := 0
	for _, sc := range list {
		nameWidth = max(nameWidth, len(sc.Name))
	}
	for _, sc := range list {
		name := fmt.Sprintf("%-*s", nameWidth, sc.Name)
		desc := strings.Join(strings.Fields(sc.Description), " ")
		if width > 0 {
			desc = styles.Truncate(desc, width-nameWidth-4)
		}
		fmt.Fprintf(w, "  %s  %s\n", st.Handler.Render(name), st.Muted.Render(desc))
	}
}
