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

func runReturnsCommand(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("returns", flag.ExitOnError)
	status := fs.String("status", "", "filter by status (requested, approved, refunded...)")
	page := fs.Int("page", 1, "page number")
	_ = fs.Parse(args)

	client, cleanup := buildClient(cfg, false)
	defer cleanup()

	svc := erp.NewService(client)
	result, err := svc.ListSalesReturns(context.Background(), erp.ListParams{
		Page:   *page,
		Status: *status,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("listing sales returns")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tREASON\tSTATUS\tAMOUNT\tCREATED")
	for _, sr := range result.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n",
			sr.OrderNumber, sr.Reason, sr.Status, sr.Amount,
			sr.CreatedAt.Local().Format("2006-01-02"))
	}
	w.Flush()
	fmt.Printf("\n%d of %d returns (page %d)\n", len(result.Items), result.Total, result.Page)
}
