package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/watch"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
	"github.com/custodia-labs/usdinspect/internal/logger"
)

var watchFlag bool

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui [stage]",
	Short: "Browse a stage interactively",
	Long: `Open a stage in the interactive browser.

The browser shows the prim hierarchy, the properties of the selected prim
tagged with their winning layer, the prim's layer stack and the value of
the selected property at the current time code.

Controls:
  ↑/k, ↓/j       - Move
  →/l, ←/h       - Expand / collapse
  Tab, Shift+Tab - Switch pane
  ]/. and [/,    - Step time forward / back
  Home, End      - Jump to start / end of the time range
  r              - Reload the stage from disk
  ?              - Toggle help
  q              - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "reload when layer files change on disk")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panicked: %v", r)
		}
	}()

	return withStage(cmd.Context(), args[0], func(stage driving.StageService) error {
		app, err := tui.NewApp(&tui.Ports{Stage: stage, Settings: settingsService})
		if err != nil {
			return fmt.Errorf("failed to create TUI: %w", err)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		app.WithContext(ctx)

		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

		if watchEnabled(cmd) {
			w := watch.New(stage, watch.WithCallback(func(ev watch.Event) {
				p.Send(messages.StageReloaded{Files: ev.Files, Err: ev.Err})
			}))
			go func() {
				if err := w.Run(ctx); err != nil {
					logger.Error("watcher stopped: %v", err)
				}
			}()
		}

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}

// watchEnabled reports whether the watcher should run: the flag wins when
// given, otherwise the watch.enabled setting applies.
func watchEnabled(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("watch") {
		return watchFlag
	}
	if settingsService == nil {
		return false
	}
	s, err := settingsService.Get()
	if err != nil {
		return false
	}
	return s.Watch.Enabled
}
