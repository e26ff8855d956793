// Command portal is the administrator console for the permit Record Store.
//
//	portal list <type> [--month M] [--year Y] [--query Q] [--page N] [--page-size N]
//	portal export <type> [--month M] [--year Y] [--out FILE]
//	portal submit <type> --set field=value ...
//	portal edit <type> <id> --set field=value ...
//	portal status <type> <id> <pending|approved|rejected> [--yes]
//	portal pay <type> <id> <paid|not_paid>
//	portal delete <type> <id> [--yes]
//	portal stats
//	portal fires
//	portal fire add --date D --barangay B --purok P [--damage AMOUNT] [--year Y]
//	portal fire update <id> [--date D] [--barangay B] [--purok P] [--damage AMOUNT] [--year Y]
//	portal fire delete <id> [--yes]
//
// <type> is one of building, occupancy, businessfsic.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/norar1/fireportal/internal/client"
	"github.com/norar1/fireportal/internal/config"
	"github.com/norar1/fireportal/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	cfg, err := config.LoadPortal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "production"
	}
	log := logger.NewWithWriter(env, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{
		cfg:   cfg,
		store: client.New(*cfg, log),
		log:   log,
		in:    os.Stdin,
		out:   os.Stdout,
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		return 2
	}
	if err := cmd(ctx, app, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "portal %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: portal <command> [arguments]

commands:
  list <type>                  show a page of permits
  export <type>                write the xlsx report
  submit <type>                file a new application (--set field=value)
  edit <type> <id>             change permit fields (--set field=value)
  status <type> <id> <status>  approve, reject or reset a permit
  pay <type> <id> <payment>    mark a permit paid or not_paid
  delete <type> <id>           delete a permit
  stats                        show the dashboard counts
  fires                        show fire incident analytics
  fire add|update|delete       record, correct or remove a fire incident

types: building, occupancy, businessfsic
`)
}
