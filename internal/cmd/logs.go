package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/slotsig/internal/filewatch"
	"github.com/Iron-Ham/slotsig/internal/logging"
	"github.com/Iron-Ham/slotsig/internal/tui/styles"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View debug logs",
	Long: `View and filter the debug log written when logging.enabled is set.

Examples:
  # Show the last 50 entries
  sigtrace logs

  # Show every warning and error from one scenario
  sigtrace logs --level warn --scenario reentrant -n 0

  # Follow new entries as scenarios run
  sigtrace logs -f

  # Export the last hour of one run as CSV
  sigtrace logs --run 3f2a --since 1h --export run.csv --format csv`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsTail     int
	logsFollow   bool
	logsLevel    string
	logsSince    string
	logsScenario string
	logsSignal   string
	logsRun      string
	logsGrep     string
	logsExport   string
	logsFormat   string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsScenario, "scenario", "", "Only entries from this scenario")
	logsCmd.Flags().StringVar(&logsSignal, "signal", "", "Only entries about this signal")
	logsCmd.Flags().StringVar(&logsRun, "run", "", "Only entries from this run ID")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Only entries whose message contains this text")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "Write matching entries to this file instead of printing")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "Export format (text/json/csv)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	filter, err := logFilterFromFlags(time.Now())
	if err != nil {
		return err
	}

	logDir := a.cfg.Logging.ResolveDir()
	logPath := filepath.Join(logDir, logging.LogFileName)
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(a.out, "No debug log found.")
		fmt.Fprintln(a.out, a.styles.Muted.Render("Logs are written to "+logPath+" when logging.enabled is true."))
		return nil
	}

	if logsFollow {
		return followLogs(cmd.Context(), a, logPath, filter)
	}

	entries, err := logging.AggregateLogs(logDir)
	if err != nil {
		return err
	}
	entries = tailEntries(logging.FilterLogs(entries, filter), logsTail)

	if logsExport != "" {
		if err := logging.ExportLogEntries(entries, logsExport, logsFormat); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Exported %d entries to %s\n", len(entries), logsExport)
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No matching log entries found.")
		return nil
	}
	for _, entry := range entries {
		fmt.Fprintln(a.out, formatLogEntry(entry, a.styles))
	}
	return nil
}

// logFilterFromFlags builds the filter described by the command's flags.
func logFilterFromFlags(now time.Time) (logging.LogFilter, error) {
	filter := logging.LogFilter{
		Scenario:        logsScenario,
		Signal:          logsSignal,
		RunID:           logsRun,
		MessageContains: logsGrep,
	}
	if logsLevel != "" {
		filter.Level = logging.ParseLevel(logsLevel)
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return filter, fmt.Errorf("invalid duration format: %w", err)
		}
		filter.StartTime = now.Add(-d)
	}
	return filter, nil
}

// tailEntries returns the last n entries, or all of them when n <= 0.
func tailEntries(entries []logging.LogEntry, n int) []logging.LogEntry {
	if n > 0 && len(entries) > n {
		return entries[len(entries)-n:]
	}
	return entries
}

func levelStyle(level string, st *styles.Styles) lipgloss.Style {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return st.Muted
	case logging.LevelInfo:
		return st.Label
	case logging.LevelWarn:
		return st.Warning
	case logging.LevelError:
		return st.ErrorMsg
	default:
		return st.Muted
	}
}

// formatLogEntry renders one entry as a single line. Attribute keys are
// sorted so output is stable.
func formatLogEntry(entry logging.LogEntry, st *styles.Styles) string {
	var sb strings.Builder

	sb.WriteString(st.Muted.Render("[" + entry.Timestamp.Format("15:04:05.000") + "]"))
	sb.WriteString(" ")
	sb.WriteString(levelStyle(entry.Level, st).Render("[" + strings.ToUpper(entry.Level) + "]"))
	sb.WriteString(" ")
	sb.WriteString(entry.Message)

	field := func(key, value string) {
		sb.WriteString(" ")
		sb.WriteString(st.Arg.Render(key + "="))
		sb.WriteString(value)
	}
	if entry.Scenario != "" {
		field("scenario", entry.Scenario)
	}
	if entry.Signal != "" {
		field("signal", entry.Signal)
	}
	if entry.RunID != "" {
		field("run_id", entry.RunID)
	}

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		field(k, fmt.Sprintf("%v", entry.Attrs[k]))
	}

	return sb.String()
}

// followLogs prints entries appended to logPath until ctx is done. The
// file is watched with fsnotify; each change reads from the last offset,
// starting over when the file shrinks after rotation.
func followLogs(ctx context.Context, a *app, logPath string, filter logging.LogFilter) error {
	if ctx == nil {
		ctx = context.Background()
	}

	tailer, err := newLogTailer(logPath)
	if err != nil {
		return err
	}
	defer tailer.Close()

	files, err := filewatch.New(filewatch.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer func() { _ = files.Close() }()
	if err := files.Add(logPath); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes := make(chan struct{}, 1)
	files.Changed.Connect(func(string) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	done := make(chan error, 1)
	go func() { done <- files.Run(ctx) }()

	fmt.Fprintln(a.errOut, a.styles.Muted.Render("Following logs... (Ctrl+C to stop)"))
	for {
		select {
		case <-ctx.Done():
			return <-done
		case err := <-done:
			return err
		case <-changes:
			entries, err := tailer.ReadNew()
			if err != nil {
				return err
			}
			for _, entry := range logging.FilterLogs(entries, filter) {
				fmt.Fprintln(a.out, formatLogEntry(entry, a.styles))
			}
		}
	}
}

// logTailer reads entries appended to a log file since the last read.
type logTailer struct {
	path   string
	file   *os.File
	offset int64
}

// newLogTailer opens path positioned at its current end.
func newLogTailer(path string) (*logTailer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to seek to end: %w", err)
	}
	return &logTailer{path: path, file: file, offset: offset}, nil
}

// ReadNew returns the complete lines written since the previous call.
// A trailing partial line is left for the next call. Lines that are not
// JSON log entries are skipped.
func (t *logTailer) ReadNew() ([]logging.LogEntry, error) {
	info, err := os.Stat(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if info.Size() < t.offset || !os.SameFile(info, t.statOpen()) {
		if err := t.reopen(); err != nil {
			return nil, err
		}
	}

	if _, err := t.file.Seek(t.offset, io.SeekStart); err != nil {
		return nil, err
	}
	reader := bufio.NewReader(t.file)

	var entries []logging.LogEntry
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, err
		}
		t.offset += int64(len(line))

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if entry, err := logging.ParseLogEntry(line); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (t *logTailer) statOpen() os.FileInfo {
	info, err := t.file.Stat()
	if err != nil {
		return nil
	}
	return info
}

func (t *logTailer) reopen() error {
	file, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("failed to reopen log file: %w", err)
	}
	_ = t.file.Close()
	t.file = file
	t.offset = 0
	return nil
}

func (t *logTailer) Close() {
	_ = t.file.Close()
}
