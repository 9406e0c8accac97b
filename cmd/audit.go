package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"github.com/nexerp/ops-console/internal/audit"
	"github.com/nexerp/ops-console/internal/config"
)

func runAuditCommand(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	limit := fs.Int("n", 20, "number of entries to show")
	_ = fs.Parse(args)

	recorder, err := audit.Open(cfg.Audit.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening audit trail")
	}
	defer recorder.Close()

	entries, err := recorder.Recent(*limit)
	if err != nil {
		log.Fatal().Err(err).Msg("reading audit trail")
	}
	if len(entries) == 0 {
		fmt.Println("No recorded requests yet.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSCOPE\tMETHOD\tPATH\tSTATUS\tMS\tREPLAYED")
	for _, e := range entries {
		replayed := ""
		if e.Replayed {
			replayed = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Scope, e.Method, e.Path, e.Status, e.DurationMS, replayed)
	}
	w.Flush()
}
