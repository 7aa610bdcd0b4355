package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/nhle/greenspace-sync/internal/app"
)

type TasksCmd struct {
	env *Env
}

// NewTasksCmd creates the interactive board command.
func NewTasksCmd(env *Env) *TasksCmd {
	return &TasksCmd{env: env}
}

// Register adds the tasks command to the application
func (cmd *TasksCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:  "tasks",
		Usage: "Open the interactive work board",
		Description: `Shows the work items assigned to you, kept in sync with the server.

Installing can be started from the configured lead time before the
appointment on the appointment day. Run 'greenspace' with no arguments for
the same board.`,
		Action: cmd.Run,
	})
	return root
}

// Run executes the board. Exported for use as the default action.
func (cmd *TasksCmd) Run(ctx context.Context, _ *cli.Command) error {
	svc, err := cmd.env.Services()
	if err != nil {
		return err
	}

	defer svc.Close()

	p := tea.NewProgram(app.New(svc), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run board: %w", err)
	}
	return nil
}
