package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/slotsig/internal/config"
	"github.com/Iron-Ham/slotsig/internal/errors"
	"github.com/Iron-Ham/slotsig/internal/scenario"
)

var showCmd = &cobra.Command{
	Use:   "show <scenario>",
	Short: "Print a scenario document",
	Long: `Print the YAML document of a scenario, looked up the same way as
'sigtrace run'. Built-in scenarios make good starting points:

  sigtrace show reentrant > my-case.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	data, err := scenarioSource(args[0], cfg.Scenario.ResolveDir())
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// scenarioSource returns the document behind ref, resolved like
// scenario.Resolve.
func scenarioSource(ref, dir string) ([]byte, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return os.ReadFile(ref)
	}
	if dir != "" {
		candidate := filepath.Join(dir, ref+scenario.FileExt)
		if _, err := os.Stat(candidate); err == nil {
			return os.ReadFile(candidate)
		}
	}

	data, err := scenario.BuiltinSource(ref)
	if err != nil {
		var notFound *errors.NotFoundError
		if errors.As(err, &notFound) {
			return nil, errors.NewNotFoundError("scenario", ref)
		}
		return nil, err
	}
	return data, nil
}
