package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"raffle-bff/clients"
	"raffle-bff/services"
	"raffle-bff/session"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var req clients.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the raffle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Password == "" {
				pw, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.Password = pw
			}
			res, err := a.auth.Login(cmd.Context(), a.kv, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", displayName(res.Session.Identity), res.Session.Identity.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var req clients.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Password == "" {
				pw, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.Password = pw
			}
			res, err := a.auth.Register(cmd.Context(), a.kv, req)
			if err != nil {
				return err
			}
			switch {
			case res.Session != nil:
				fmt.Fprintf(a.out, "Registered and logged in as %s\n", displayName(res.Session.Identity))
			case res.Message != "":
				fmt.Fprintln(a.out, res.Message)
			default:
				fmt.Fprintln(a.out, "Registered. Run `rafflectl login` to sign in.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (read from stdin when empty)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and drop the local cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.auth.Logout(cmd.Context(), a.kv, deviceName); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, owner, err := a.owner(cmd.Context())
			if err != nil {
				return err
			}
			id := owner.Identity
			fmt.Fprintf(a.out, "%s <%s> role=%s\n", displayName(id), id.Email, id.Role)
			return nil
		},
	}
}

func newGiftsCmd(a *app) *cobra.Command {
	var (
		q        services.CatalogQuery
		minPrice string
		maxPrice string
	)
	cmd := &cobra.Command{
		Use:   "gifts",
		Short: "List raffle gifts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if q.Search.MinPrice, err = parsePrice(minPrice); err != nil {
				return fmt.Errorf("--min-price: %w", err)
			}
			if q.Search.MaxPrice, err = parsePrice(maxPrice); err != nil {
				return fmt.Errorf("--max-price: %w", err)
			}

			catalog, err := a.catalog.Browse(cmd.Context(), q)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tDONOR\tDRAWN")
			for _, g := range catalog.Gifts {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n", g.ID, g.Name, g.Category, g.TicketPrice.StringFixed(2), g.DonorName, g.HasWinner)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if len(catalog.Categories) > 0 {
				fmt.Fprintf(a.out, "\nCategories: %s\n", strings.Join(catalog.Categories, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Category, "category", "", "only show this category")
	cmd.Flags().StringVar(&q.SortBy, "sort", services.SortByName, "sort by name, price or category")
	cmd.Flags().BoolVar(&q.Descending, "desc", false, "sort descending")
	cmd.Flags().StringVar(&q.Search.Name, "name", "", "search by gift name")
	cmd.Flags().StringVar(&q.Search.Donor, "donor", "", "search by donor")
	cmd.Flags().StringVar(&minPrice, "min-price", "", "minimum ticket price")
	cmd.Flags().StringVar(&maxPrice, "max-price", "", "maximum ticket price")
	return cmd
}

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the ticket cart",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, owner, err := a.owner(cmd.Context())
			if err != nil {
				return err
			}
			view, err := a.cart.View(ctx, owner)
			if err != nil {
				return err
			}
			return printCart(a.out, view)
		},
	}

	add := &cobra.Command{
		Use:   "add GIFT_ID [QUANTITY]",
		Short: "Add tickets for a gift",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			giftID, err := parseGiftID(args[0])
			if err != nil {
				return err
			}
			quantity := 1.0
			if len(args) == 2 {
				if quantity, err = strconv.ParseFloat(args[1], 64); err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
			}
			ctx, owner, err := a.owner(cmd.Context())
			if err != nil {
				return err
			}
			view, err := a.cart.Add(ctx, owner, giftID, quantity)
			if err != nil {
				return err
			}
			return printCart(a.out, view)
		},
	}

	remove := &cobra.Command{
		Use:   "remove GIFT_ID",
		Short: "Remove a gift from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			giftID, err := parseGiftID(args[0])
			if err != nil {
				return err
			}
			ctx, owner, err := a.owner(cmd.Context())
			if err != nil {
				return err
			}
			view, err := a.cart.Remove(ctx, owner, giftID)
			if err != nil {
				return err
			}
			return printCart(a.out, view)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, owner, err := a.owner(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.cart.Clear(ctx, owner); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Cart cleared")
			return nil
		},
	}

	confirm := &cobra.Command{
		Use:   "confirm",
		Short: "Check out the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, owner, err := a.owner(cmd.Context())
			if err != nil {
				return err
			}
			conf, err := a.cart.Confirm(ctx, owner)
			if err != nil {
				return err
			}
			if conf.OrderID > 0 {
				fmt.Fprintf(a.out, "Order %d confirmed\n", conf.OrderID)
			} else {
				fmt.Fprintln(a.out, "Order confirmed")
			}
			return nil
		},
	}

	cmd.AddCommand(show, add, remove, clearCmd, confirm)
	return cmd
}

func newOrdersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, owner, err := a.owner(cmd.Context())
			if err != nil {
				return err
			}
			orders, err := a.orders.Mine(ctx, owner)
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Fprintln(a.out, "No orders yet")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tITEMS\tTOTAL\tDATE")
			for _, o := range orders {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", o.ID, o.Status, len(o.OrderItems), o.TotalAmount.StringFixed(2), o.OrderDate)
			}
			return tw.Flush()
		},
	}
}

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the display theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{session.ThemeLight, session.ThemeDark},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := a.sessions.SetTheme(cmd.Context(), a.kv, args[0]); err != nil {
					return err
				}
			}
			theme, err := a.sessions.Theme(cmd.Context(), a.kv)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, theme)
			return nil
		},
	}
}

func printCart(w io.Writer, view *services.CartView) error {
	if len(view.Lines) == 0 {
		_, err := fmt.Fprintln(w, "Cart is empty")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GIFT\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range view.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", l.GiftID, l.Name, l.Quantity, l.Price.StringFixed(2), l.Subtotal.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	draft := "none"
	if view.DraftOrderID > 0 {
		draft = strconv.FormatInt(view.DraftOrderID, 10)
	}
	_, err := fmt.Fprintf(w, "\n%d tickets, estimated total %s (draft order: %s)\n",
		view.TicketCount, view.EstimatedTotal.StringFixed(2), draft)
	return err
}

func displayName(id session.Identity) string {
	if id.Name != "" {
		return id.Name
	}
	return id.Email
}

func parseGiftID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid gift id %q", raw)
	}
	return id, nil
}

func parsePrice(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	if v.IsNegative() {
		return nil, errors.New("must not be negative")
	}
	return &v, nil
}

// readLine reads one line, used for passwords piped on stdin.
func readLine(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", errors.New("password is required")
	}
	line := strings.TrimSpace(sc.Text())
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}
