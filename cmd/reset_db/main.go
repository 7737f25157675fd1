package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"bookstore-ledger/config"
	"bookstore-ledger/console"
	"bookstore-ledger/ledger"
	"bookstore-ledger/logging"
)

// reset_db deletes the ledger database and recreates it with the demo seed.
func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Cleaning up existing database files...")
	for _, file := range []string{cfg.DBPath, cfg.DBPath + "-shm", cfg.DBPath + "-wal"} {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
		}
	}
	fmt.Println("Database cleanup complete.")

	log, logCloser, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logs: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	ctx := context.Background()
	manager, err := ledger.NewManager(ctx, ledger.Options{
		Path:   cfg.DBPath,
		Driver: cfg.Driver,
		Seed:   true,
		Logger: log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	members, err := manager.ListMembers(ctx)
	if err != nil {
		fmt.Printf("Error retrieving members: %v\n", err)
		return
	}
	fmt.Printf("\nMembers (%d):\n", len(members))
	fmt.Printf("%-6s %-20s %-14s %s\n", "ID", "Name", "Phone", "Email")
	fmt.Println(strings.Repeat("-", 60))
	for _, m := range members {
		fmt.Println(ledger.PrettyMember(m))
	}

	books, err := manager.ListBooks(ctx)
	if err != nil {
		fmt.Printf("Error retrieving books: %v\n", err)
		return
	}
	fmt.Printf("\nBooks (%d):\n", len(books))
	console.WriteCatalog(os.Stdout, books)

	rows, err := manager.SaleReport(ctx)
	if err != nil {
		fmt.Printf("Error retrieving sales: %v\n", err)
		return
	}
	fmt.Printf("\nReset complete: %d sales seeded.\n", len(rows))
}
