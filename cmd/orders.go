package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"github.com/nexerp/ops-console/internal/config"
	"github.com/nexerp/ops-console/internal/erp"
)

func runOrdersCommand(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("orders", flag.ExitOnError)
	status := fs.String("status", "", "filter by status (draft, approved, received...)")
	search := fs.String("search", "", "free-text search")
	page := fs.Int("page", 1, "page number")
	_ = fs.Parse(args)

	client, cleanup := buildClient(cfg, false)
	defer cleanup()

	svc := erp.NewService(client)
	result, err := svc.ListPurchaseOrders(context.Background(), erp.ListParams{
		Page:   *page,
		Status: *status,
		Search: *search,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("listing purchase orders")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tVENDOR\tSTATUS\tTOTAL\tCREATED")
	for _, po := range result.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f %s\t%s\n",
			po.Number, po.VendorName, po.Status, po.TotalAmount, po.Currency,
			po.CreatedAt.Local().Format("2006-01-02"))
	}
	w.Flush()
	fmt.Printf("\n%d of %d orders (page %d)\n", len(result.Items), result.Total, result.Page)
}
