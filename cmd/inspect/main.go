package main

import (
	"chat-desk/repositories"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// Command-line dump of the local message store. Opens the database
// read-only so it can run alongside the console.
func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	// Default to "msg:" to avoid dumping the session record alongside messages
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Missing -db flag")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Conversation", "Role", "Timestamp", "Text"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			err := item.Value(func(v []byte) error {
				var message repositories.DiskMessage
				if err := json.Unmarshal(v, &message); err != nil {
					// Keep scanning instead of aborting the whole dump
					fmt.Printf("Error unmarshaling key %s: %v\n", rawKey, err)
					return nil
				}

				// 8 characters of the conversation id are enough on a terminal
				displayID := message.Conversation.String()
				if len(displayID) > 8 {
					displayID = displayID[:8]
				}

				table.Append([]string{
					rawKey,
					displayID,
					message.Role,
					message.At.Format("15:04:05"),
					message.Text,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func openDB(path string) (*badger.DB, error) {
	// BypassLockGuard allows opening while the console holds the lock
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// A dirty shutdown leaves the value log needing a truncate, which
		// read-only mode refuses. Open once in write mode to repair.
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
