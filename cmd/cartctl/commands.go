package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dwikikusuma/cartstore/internal/cart/domain"
	"github.com/dwikikusuma/cartstore/pkg/shutdown"
)

func newAddCmd(sess *session) *cobra.Command {
	var p domain.Product

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product, or bump its quantity when already in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			if err := sess.store.AddToCart(cmd.Context(), p); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), sess.store.Products(), false)
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.ID, "id", "", "product id (random when omitted)")
	f.StringVar(&p.Title, "title", "", "product title")
	f.StringVar(&p.ImageURL, "image-url", "", "product image URL")
	f.Float64Var(&p.Price, "price", 0, "unit price")
	return cmd
}

func newIncCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "inc <id>",
		Short: "Increase the quantity of a cart line by one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sess.store.Increment(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), sess.store.Products(), false)
		},
	}
}

func newDecCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "dec <id>",
		Short: "Decrease the quantity of a cart line by one, removing it at zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sess.store.Decrement(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), sess.store.Products(), false)
		},
	}
}

func newListCmd(sess *session) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCart(cmd.OutOrStdout(), sess.store.Products(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON form")
	return cmd
}

func newWatchCmd(sess *session) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the cart every time another process changes it (file backend)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sess.backend.file == nil {
				return errors.New("watch needs the file backend")
			}

			ctx, cancel := shutdown.WithSignals(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()
			if err := printCart(out, sess.store.Products(), asJSON); err != nil {
				return err
			}

			sess.log.Info("watching cart", slog.String("path", sess.backend.file.Path(sess.store.Key())))
			return sess.backend.file.Watch(ctx, sess.store.Key(), func(data []byte) {
				var items domain.Items
				if err := json.Unmarshal(data, &items); err != nil {
					sess.log.Warn("ignoring unreadable cart", slog.Any("err", err))
					return
				}
				if err := printCart(out, items, asJSON); err != nil {
					sess.log.Warn("print cart failed", slog.Any("err", err))
				}
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON form")
	return cmd
}

func printCart(w io.Writer, items domain.Items, asJSON bool) error {
	if asJSON {
		if items == nil {
			items = domain.Items{}
		}
		enc := json.NewEncoder(w)
		return enc.Encode(items)
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "cart is empty")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tQTY")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\n", it.ID, it.Title, it.Price, it.Quantity)
	}
	fmt.Fprintf(tw, "\t\t\t%d\n", items.TotalQuantity())
	return tw.Flush()
}
