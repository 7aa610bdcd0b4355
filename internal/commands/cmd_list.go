package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/nhle/greenspace-sync/internal/gate"
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/policy"
	"github.com/nhle/greenspace-sync/internal/store"
	gssync "github.com/nhle/greenspace-sync/internal/sync"
)

type ListCmd struct {
	env *Env
	out io.Writer

	// flags
	jsonOutput bool
	cached     bool
	status     string
}

// NewListCmd creates a new list command
func NewListCmd(env *Env) *ListCmd {
	return &ListCmd{env: env, out: os.Stdout}
}

// Register adds the list command to the application
func (cmd *ListCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List assigned work items",
		UsageText: "greenspace list [--json] [--cached] [--status CODE]",
		Description: `Fetches the work items assigned to you and prints them with their status,
appointment and whether the next action is currently allowed.

--cached prints the last synchronized copy without contacting the server.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "cached",
				Usage:       "read from the local cache only",
				Destination: &cmd.cached,
			},
			&cli.StringFlag{
				Name:        "status",
				Usage:       "only show items with this status code (e.g. Installing)",
				Destination: &cmd.status,
			},
		},
		Action: cmd.run,
	})
	return root
}

// listRow is the JSON shape of one work item.
type listRow struct {
	model.WorkItem
	StatusLabel string `json:"status_label"`
	Action      string `json:"next_action,omitempty"`
	Permitted   bool   `json:"permitted"`
	Hint        string `json:"hint,omitempty"`
}

func (cmd *ListCmd) run(ctx context.Context, _ *cli.Command) error {
	items, err := cmd.load(ctx)
	if err != nil {
		return err
	}

	clock := policy.NewClock(cmd.env.Config.Policy.DebugOffset.Duration())
	g := gate.New(clock, cmd.env.Config.Policy.LeadMinutes)

	rows := make([]listRow, 0, len(items))
	for _, it := range items {
		if cmd.status != "" && !strings.EqualFold(it.Status, cmd.status) {
			continue
		}
		rows = append(rows, describeRow(g, it))
	}

	if cmd.jsonOutput {
		enc := json.NewEncoder(cmd.out)
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
		}
		return nil
	}

	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "No work items found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tORDER\tAPPOINTMENT\tNEXT\tTITLE")
	for _, r := range rows {
		_, order := r.Describe()
		next := "-"
		if r.Action != "" {
			next = r.Action + ": " + r.Hint
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StatusLabel, orDash(order.Label), appointment(r.Appointment), next, r.Title)
	}
	return w.Flush()
}

// load returns items from the server, refreshing the cache, or from the
// cache alone when --cached is set.
func (cmd *ListCmd) load(ctx context.Context) ([]model.WorkItem, error) {
	owner := cmd.env.Config.API.OwnerID
	if owner == "" {
		return nil, fmt.Errorf("api.owner_id is not set; run 'greenspace login' first")
	}

	if cmd.cached {
		items, err := cmd.env.Store.GetWorkItems(ctx, store.WorkItemFilter{OwnerID: owner})
		if err != nil {
			return nil, fmt.Errorf("read cache: %w", err)
		}
		return items, nil
	}

	remote, err := cmd.env.Adapter()
	if err != nil {
		return nil, err
	}
	items, err := remote.FetchCollection(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("fetch work items: %w", err)
	}
	sortByRecency(items)

	if err := cmd.env.Store.ReplaceWorkItems(ctx, owner, items); err != nil {
		log.Warn().Err(err).Msg("updating cache failed")
	}
	return items, nil
}

func describeRow(g *gate.Gate, it model.WorkItem) listRow {
	task, _ := it.Describe()
	row := listRow{WorkItem: it, StatusLabel: task.Label}

	target, targetOrder, ok := gate.Next(it)
	if !ok {
		return row
	}
	res := g.RequestTransition(it, target, targetOrder)
	row.Action = target.String()
	row.Permitted = res.Permitted
	row.Hint = res.Message
	if res.Decision != nil {
		row.Hint = res.Decision.Hint()
	} else if res.Permitted {
		row.Hint = "available now"
	}
	return row
}

func sortByRecency(items []model.WorkItem) {
	slices.SortStableFunc(items, func(a, b model.WorkItem) int {
		switch {
		case gssync.ByRecency(a, b):
			return -1
		case gssync.ByRecency(b, a):
			return 1
		default:
			return 0
		}
	})
}

func appointment(a *model.Appointment) string {
	if a.IsZero() {
		return "-"
	}
	return strings.TrimSpace(a.Date + " " + a.Time)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
