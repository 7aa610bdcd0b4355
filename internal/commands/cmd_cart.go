package commands

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/nhle/greenspace-sync/internal/cart"
	"github.com/nhle/greenspace-sync/internal/model"
)

type CartCmd struct {
	env *Env
	out io.Writer

	// remote is replaced in tests.
	remote func() (cart.Remote, error)
}

// NewCartCmd creates a new cart command
func NewCartCmd(env *Env) *CartCmd {
	cmd := &CartCmd{env: env, out: os.Stdout}
	cmd.remote = func() (cart.Remote, error) { return env.Adapter() }
	return cmd
}

// Register adds the cart command to the application
func (cmd *CartCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:   "cart",
		Usage:  "Show the shopping cart",
		Action: cmd.show,
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Change the quantity of a product in the cart",
				UsageText: "greenspace cart set PRODUCT_ID QUANTITY",
				Description: `Sets the quantity of a product already in the cart. A quantity of 0
removes the line. The cart printed afterwards is the server's copy.`,
				Action: cmd.set,
			},
		},
	})
	return root
}

func (cmd *CartCmd) open(ctx context.Context) (*cart.Cart, error) {
	userID, err := cmd.env.requireUser()
	if err != nil {
		return nil, err
	}
	remote, err := cmd.remote()
	if err != nil {
		return nil, err
	}

	debounce := model.Millis(cmd.env.Config.Cart.DebounceMs, cart.DefaultDebounce)
	c := cart.New(userID, remote, debounce, logger())
	if err := c.Load(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (cmd *CartCmd) show(ctx context.Context, _ *cli.Command) error {
	c, err := cmd.open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return cmd.print(c)
}

func (cmd *CartCmd) set(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("usage: greenspace cart set PRODUCT_ID QUANTITY")
	}
	productID := c.Args().Get(0)
	qty, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("quantity %q: %w", c.Args().Get(1), err)
	}

	ct, err := cmd.open(ctx)
	if err != nil {
		return err
	}
	defer ct.Close()

	if err := ct.SetQuantity(productID, qty); err != nil {
		return err
	}
	if err := ct.Flush(ctx); err != nil {
		return err
	}
	return cmd.print(ct)
}

func (cmd *CartCmd) print(c *cart.Cart) error {
	lines := c.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(cmd.out, "Cart is empty")
		return nil
	}

	w := tabwriter.NewWriter(cmd.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "PRODUCT\tNAME\tQTY\tPRICE\tTOTAL\t")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t\n",
			l.ProductID, l.ProductName, l.Quantity, formatVND(l.UnitPrice), formatVND(l.Total()))
	}
	fmt.Fprintf(w, "\t\t\t\t%s\t\n", formatVND(c.Total()))
	return w.Flush()
}

// formatVND renders an amount in dong with dot thousands separators.
func formatVND(v float64) string {
	return strings.ReplaceAll(humanize.Comma(int64(math.Round(v))), ",", ".") + " ₫"
}
