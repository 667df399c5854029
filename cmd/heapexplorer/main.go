// Command heapexplorer is an interactive terminal browser for heap images:
// pick an object, see the edges the scanner reports for it and follow them
// through the graph.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapscan/heap/imagefile"
	"github.com/joshuapare/heapscan/internal/logger"
	"github.com/joshuapare/heapscan/scan"
	"github.com/joshuapare/heapscan/scan/excstack"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is main without the exit, so deferred cleanup (the debug log file)
// happens on every path. It returns the process exit code.
func run(args []string) int {
	// Parse flags first (before positional args)
	debugMode := false
	copyStacks := false

	filteredArgs := make([]string, 0, len(args))
	for _, arg := range args {
		switch arg {
		case "--debug", "-d":
			debugMode = true
		case "--copy-stacks":
			copyStacks = true
		default:
			filteredArgs = append(filteredArgs, arg)
		}
	}

	if debugMode {
		if closer, err := initDebugLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
		} else {
			defer closer.Close()
		}
	}

	if len(filteredArgs) < 1 {
		printUsage()
		return 1
	}

	switch filteredArgs[0] {
	case "--help", "-h":
		printHelp()
		return 0
	case "--version", "-v":
		fmt.Printf("heapexplorer %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		return 0
	}

	path := filteredArgs[0]
	logger.Info("starting heapexplorer", "path", path, "debug", debugMode)

	f, err := imagefile.Open(path)
	if err != nil {
		logger.Error("cannot open image", "path", path, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	s := scan.New(f.Runtime, f.Mem, &scan.Options{
		CopyStacks: f.CopyStacks || copyStacks,
		Upcalls:    excstack.New(f.Mem, f.StackBases),
		Logger:     logger.L,
	})

	p := tea.NewProgram(NewModel(path, f.Snapshot, s, f), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		_ = f.Close()
		return 1
	}

	if model, ok := finalModel.(Model); ok {
		if err := model.Close(); err != nil {
			logger.Warn("error closing image", "error", err)
		}
	}
	logger.Info("heapexplorer exited normally")
	return 0
}

// initDebugLog sends debug logs to ~/.heapscan/logs.
func initDebugLog() (io.Closer, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return logger.InitFile(filepath.Join(home, ".heapscan", "logs"), "heapexplorer-", slog.LevelDebug)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: heapexplorer [options] <image>\n")
	fmt.Fprintf(os.Stderr, "Try 'heapexplorer --help' for more information.\n")
}

func printHelp() {
	fmt.Println("heapexplorer - Interactive TUI for heap images")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  heapexplorer [options] <image>")
	fmt.Println()
	fmt.Println("  Navigation:")
	fmt.Println("    ↑/k, ↓/j    Move up/down")
	fmt.Println("    Tab         Switch between objects and edges")
	fmt.Println("    Enter/l     Follow the selected edge")
	fmt.Println("    ←/h         Go back")
	fmt.Println("    d           Object details and memory dump")
	fmt.Println("    c           Copy address")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -d, --debug        Enable debug logging to ~/.heapscan/logs/")
	fmt.Println("      --copy-stacks  Treat the image as built with copied stacks")
	fmt.Println("  -h, --help         Show this help message")
	fmt.Println("  -v, --version      Show version information")
	fmt.Println()
	fmt.Println("For non-interactive use, see the 'heapscan' command.")
}
