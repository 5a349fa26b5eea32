// ABOUTME: Entry point for the crmbridge sync engine CLI
// ABOUTME: Routes to queue, booking, sync, webhook, and config commands based on arguments
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/crmbridge/cli"
	"github.com/harperreed/crmbridge/config"
	"github.com/harperreed/crmbridge/db"
	"github.com/joho/godotenv"
)

const version = "0.1.0"

func main() {
	// Load .env if present; real environment wins
	_ = godotenv.Load()

	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/crmbridge/crmbridge.db)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("crmbridge version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	finalDBPath := *dbPath
	if finalDBPath == "" {
		finalDBPath = config.DefaultDBPath()
	}

	database, err := db.OpenDatabase(finalDBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := db.SeedDefaultRules(database); err != nil {
		log.Fatalf("Failed to seed field mapping rules: %v", err)
	}

	if *initOnly {
		log.Println("Database initialized successfully")
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "queue":
		runSubcommand(database, "queue", commandArgs, map[string]commandFunc{
			"process": cli.QueueProcessCommand,
			"list":    cli.QueueListCommand,
			"enqueue": cli.QueueEnqueueCommand,
			"retry":   cli.QueueRetryCommand,
		})

	case "booking":
		runSubcommand(database, "booking", commandArgs, map[string]commandFunc{
			"add":        cli.AddBookingCommand,
			"list":       cli.ListBookingsCommand,
			"set-status": cli.SetBookingStatusCommand,
			"delete":     cli.DeleteBookingCommand,
		})

	case "sync":
		runSubcommand(database, "sync", commandArgs, map[string]commandFunc{
			"booking":    cli.SyncBookingCommand,
			"mappings":   cli.MappingsListCommand,
			"log":        cli.LogListCommand,
			"load-rules": cli.RulesLoadCommand,
		})

	case "webhook":
		runSubcommand(database, "webhook", commandArgs, map[string]commandFunc{
			"serve": cli.WebhookServeCommand,
		})

	case "config":
		runSubcommand(database, "config", commandArgs, map[string]commandFunc{
			"init": cli.ConfigInitCommand,
			"show": cli.ConfigShowCommand,
		})

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

type commandFunc func(database *sql.DB, args []string) error

func runSubcommand(database *sql.DB, group string, args []string, commands map[string]commandFunc) {
	if len(args) == 0 {
		fmt.Printf("Error: %s requires a subcommand\n", group)
		printUsage()
		os.Exit(1)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Printf("Unknown %s command: %s\n\n", group, args[0])
		printUsage()
		os.Exit(1)
	}

	if err := cmd(database, args[1:]); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Printf(`crmbridge v%s - Booking-to-CRM synchronization engine

USAGE:
  crmbridge [global flags] <command> <subcommand> [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/crmbridge/crmbridge.db)
  --init                 Initialize database and exit

QUEUE COMMANDS:
  crmbridge queue process   Process due sync queue items (run from cron)
    --limit <n>               Max items per batch (default: 50)

  crmbridge queue list      List queue items
    --status <status>         Filter (pending, processing, completed, failed)
    --limit <n>               Max results (default: 50)

  crmbridge queue enqueue [flags] <booking-id>  Enqueue a sync manually
    --op <operation>          create, update, update_status, delete
    --priority <n>            Lower runs first (default: 10)

  crmbridge queue retry <item-id>   Re-enqueue a failed item

BOOKING COMMANDS:
  crmbridge booking add     Create a booking and queue its first sync
    --name <name>             Customer name (required)
    --email <email>           Customer email
    --phone <phone>           Customer phone
    --service <service>       Service name
    --amount <cents>          Amount in cents
    --notes <notes>           Notes

  crmbridge booking list    List bookings
    --status <status>         Filter by status

  crmbridge booking set-status --status <s> <id>   Change lifecycle status

  crmbridge booking delete <id>   Delete a booking (CRM objects preserved)

SYNC COMMANDS:
  crmbridge sync booking <id>     Push one booking to the CRM immediately
  crmbridge sync mappings         List local-to-remote mappings
  crmbridge sync log              Show the sync audit log
    --booking <id>                  Filter by booking
  crmbridge sync load-rules <file>  Import field mapping rules from YAML

WEBHOOK COMMANDS:
  crmbridge webhook serve   Start the inbound webhook server
    --port <n>                Port (default: 8090)

CONFIG COMMANDS:
  crmbridge config init     Save CRM connection settings
    --api-url <url>           CRM API base URL
    --token-url <url>         OAuth token endpoint
    --client-id <id>          OAuth client ID
    --client-secret <secret>  OAuth client secret
    --webhook-secret <secret> Webhook shared secret
    --objects <list>          Object kinds to sync (default: Contact,Opportunity)

  crmbridge config show     Print effective configuration

EXAMPLES:
  # Create a booking and sync it
  crmbridge booking add --name "Jane Doe" --email "jane@example.com" --service "Haircut"
  crmbridge queue process

  # Mark it completed and push the stage change
  crmbridge booking set-status --status completed <booking-id>
  crmbridge queue process

  # Receive CRM webhooks
  crmbridge webhook serve --port 8090

`, version)
}
