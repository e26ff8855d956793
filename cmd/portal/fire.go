package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/analytics"
	"github.com/norar1/fireportal/internal/models"
	"github.com/norar1/fireportal/internal/portal"
	"github.com/spf13/pflag"
)

// incidentFlags are the editable fields of a fire incident.
type incidentFlags struct {
	date     *string
	barangay *string
	purok    *string
	damage   *string
	year     *string
}

func newIncidentFlags(fs *pflag.FlagSet) incidentFlags {
	return incidentFlags{
		date:     fs.String("date", "", "incident date (YYYY-MM-DD)"),
		barangay: fs.String("barangay", "", "barangay name"),
		purok:    fs.String("purok", "", "purok name, e.g. \"Purok 1\""),
		damage:   fs.String("damage", "", "damage cost, e.g. \"1,500,000 PHP\""),
		year:     fs.String("year", "", "four-digit year (defaults to the year of --date)"),
	}
}

// apply copies the flags the administrator set onto f.
func (in incidentFlags) apply(fs *pflag.FlagSet, f *models.FireIncident) error {
	if fs.Changed("date") {
		d, err := models.ParseDate(*in.date)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		f.Date = d
	}
	if fs.Changed("barangay") {
		if !models.IsBarangay(*in.barangay) {
			return fmt.Errorf("unknown barangay %q", *in.barangay)
		}
		f.Barangay = *in.barangay
	}
	if fs.Changed("purok") {
		if !models.IsPurok(*in.purok) {
			return fmt.Errorf("unknown purok %q", *in.purok)
		}
		f.Purok = *in.purok
	}
	if fs.Changed("damage") {
		f.DamageCost = models.ParseAmount(*in.damage)
	}
	if fs.Changed("year") {
		f.Year = *in.year
	}
	return nil
}

// fireCmd manages fire incidents: fire add|update|delete.
func fireCmd(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("expected add, update or delete")
	}
	switch args[0] {
	case "add":
		return fireAddCmd(ctx, a, args[1:])
	case "update":
		return fireUpdateCmd(ctx, a, args[1:])
	case "delete":
		return fireDeleteCmd(ctx, a, args[1:])
	}
	return fmt.Errorf("unknown fire command %q, expected add, update or delete", args[0])
}

func (a *app) fireBoard(confirm portal.Confirmer) *portal.FireBoard {
	return portal.NewFireBoard(a.store, confirm, analytics.NewAnalyzer(a.log), a.log)
}

func fireAddCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("fire add", pflag.ContinueOnError)
	flags := newIncidentFlags(fs)
	if _, err := positional(fs, args, 0, "no arguments besides flags"); err != nil {
		return err
	}
	for _, name := range []string{"date", "barangay", "purok"} {
		if !fs.Changed(name) {
			return fmt.Errorf("--%s is required", name)
		}
	}

	f := models.FireIncident{DamageCost: models.Pesos(0)}
	if err := flags.apply(fs, &f); err != nil {
		return err
	}
	if f.Date.IsZero() {
		return fmt.Errorf("--date is required")
	}
	if f.Year == "" {
		f.Year = strconv.Itoa(f.Date.Year())
	}

	notice, err := a.fireBoard(nil).Save(ctx, &f)
	return a.report(notice, err)
}

func fireUpdateCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("fire update", pflag.ContinueOnError)
	flags := newIncidentFlags(fs)
	rest, err := positional(fs, args, 1, "<id>")
	if err != nil {
		return err
	}
	id, err := uuid.Parse(rest[0])
	if err != nil {
		return fmt.Errorf("invalid incident id %q: %w", rest[0], err)
	}
	if fs.NFlag() == 0 {
		return fmt.Errorf("nothing to change, pass at least one field flag")
	}

	board := a.fireBoard(nil)
	if _, notice := board.Load(ctx); notice != nil {
		return fmt.Errorf("%s: %w", notice.Message, board.LastError())
	}
	f, err := board.Get(id)
	if err != nil {
		return err
	}
	if err := flags.apply(fs, &f); err != nil {
		return err
	}

	notice, err := board.Save(ctx, &f)
	return a.report(notice, err)
}

func fireDeleteCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("fire delete", pflag.ContinueOnError)
	yes := fs.BoolP("yes", "y", false, "skip the confirmation prompt")
	rest, err := positional(fs, args, 1, "<id>")
	if err != nil {
		return err
	}
	id, err := uuid.Parse(rest[0])
	if err != nil {
		return fmt.Errorf("invalid incident id %q: %w", rest[0], err)
	}

	notice, err := a.fireBoard(a.confirmer(*yes)).Delete(ctx, id)
	return a.report(notice, err)
}
