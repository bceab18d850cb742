package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"koinonia.church/koinonia/config"
	"koinonia.church/koinonia/station/export"
	"koinonia.church/koinonia/station/store"
)

func main() {
	eventID := flag.String("event", "", "event id whose pending queue to export")
	out := flag.String("out", "pending.xlsx", "output workbook path")
	flag.Parse()

	if *eventID == "" {
		log.Fatal("-event is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	rows, err := st.ListPending(context.Background(), *eventID)
	if err != nil {
		log.Fatal(err)
	}

	if err := export.WritePendingWorkbook(*out, *eventID, rows); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("wrote %d pending check-ins for event %s to %s\n", len(rows), *eventID, *out)
}
