// Command journal dumps the order ledger as newline-delimited JSON, the
// export format kept for compatibility with the old flat-file journal.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/nvrbrth/nvrbrth-backend1/internal/ledger"
)

func main() {
	dbPath := flag.String("db", "nvrbrth.db", "path to the sqlite database")
	flag.Parse()

	repo, err := ledger.NewRepository(*dbPath)
	if err != nil {
		log.Fatalf("failed to open order ledger: %v", err)
	}
	defer repo.Close()

	if err := repo.ExportJournal(context.Background(), os.Stdout); err != nil {
		log.Fatalf("failed to export journal: %v", err)
	}
}
