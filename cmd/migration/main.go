package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/professionals-service/internal/config"
	"gitlab.com/dirk.krummacker/professionals-service/internal/logging"
	"gitlab.com/dirk.krummacker/professionals-service/internal/store"
	"gitlab.com/dirk.krummacker/professionals-service/internal/upsert"
)

// Usage examples on the command line:
// > DBHOST=localhost DBUSER=dirk DBPWD=bullo92 go run main.go
// > DBHOST=localhost DBUSER=dirk DBPWD=bullo92 go run main.go -file=../../scripts/database.sql
// > DB_DRIVER=sqlite DB_DSN=professionals.db go run main.go -seed=../../scripts/seed.yaml
func main() {
	filePtr := flag.String("file", "", "an sql file to execute after the schema has been created")
	seedPtr := flag.String("seed", "", "a yaml file with professionals to create or update")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	dialect := store.Dialect(cfg.DBDriver)
	sqlDB, err := store.Open(dialect, cfg.DSN())
	if err != nil {
		log.Fatal("could not open the database", "error", err)
	}
	if err := store.CreateSchema(ctx, sqlDB, dialect); err != nil {
		log.Fatal("could not create the schema", "error", err)
	}
	log.Info("schema created", "driver", cfg.DBDriver)

	if *filePtr != "" {
		readFile, err := os.Open(*filePtr) // nosemgrep
		if err != nil {
			log.Fatal("could not open the sql file", "file", *filePtr, "error", err)
		}
		statements, err := splitStatements(readFile)
		readFile.Close()
		if err != nil {
			log.Fatal("could not read the sql file", "file", *filePtr, "error", err)
		}
		db := sqlx.NewDb(sqlDB, cfg.DBDriver)
		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				log.Fatal("could not execute statement", "statement", stmt, "error", err)
			}
		}
		log.Info("sql file executed", "file", *filePtr, "statements", len(statements))
	}

	s, err := store.New(sqlDB, dialect)
	if err != nil {
		log.Fatal("could not prepare statements", "error", err)
	}
	defer s.Close()

	if *seedPtr != "" {
		seedFile, err := os.Open(*seedPtr) // nosemgrep
		if err != nil {
			log.Fatal("could not open the seed file", "file", *seedPtr, "error", err)
		}
		items, err := readSeed(seedFile)
		seedFile.Close()
		if err != nil {
			log.Fatal("could not read the seed file", "file", *seedPtr, "error", err)
		}
		outcomes := upsert.NewReconciler(s, log).Reconcile(ctx, items)
		for _, outcome := range outcomes {
			fmt.Println(describe(outcome))
		}
	}
}
