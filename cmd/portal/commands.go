package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/analytics"
	"github.com/norar1/fireportal/internal/client"
	"github.com/norar1/fireportal/internal/config"
	"github.com/norar1/fireportal/internal/export"
	"github.com/norar1/fireportal/internal/listing"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
	"github.com/norar1/fireportal/internal/portal"
	"github.com/spf13/pflag"
)

type app struct {
	cfg   *config.PortalConfig
	store *client.Client
	log   *logger.Logger
	in    io.Reader
	out   io.Writer
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"list":   listCmd,
	"export": exportCmd,
	"submit": submitCmd,
	"edit":   editCmd,
	"status": statusCmd,
	"pay":    payCmd,
	"delete": deleteCmd,
	"stats":  statsCmd,
	"fires":  firesCmd,
	"fire":   fireCmd,
}

// promptConfirmer asks on the terminal and accepts y or yes.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(message string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) confirmer(yes bool) portal.Confirmer {
	if yes {
		return portal.AlwaysConfirm
	}
	return promptConfirmer{in: bufio.NewReader(a.in), out: a.out}
}

func filterFlags(fs *pflag.FlagSet) (*int, *int) {
	month := fs.Int("month", 0, "filter by month received (1-12)")
	year := fs.Int("year", 0, "filter by year received")
	return month, year
}

func criteria(month, year int) (listing.Criteria, error) {
	if month < 0 || month > 12 {
		return listing.Criteria{}, fmt.Errorf("month must be between 1 and 12")
	}
	return listing.Criteria{Month: time.Month(month), Year: year}, nil
}

// positional parses fs and returns exactly n positional arguments.
func positional(fs *pflag.FlagSet, args []string, n int, names string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != n {
		return nil, fmt.Errorf("expected %s", names)
	}
	return fs.Args(), nil
}

func permitTarget(rawType, rawID string) (models.PermitType, uuid.UUID, error) {
	t, err := models.ParsePermitType(rawType)
	if err != nil {
		return "", uuid.Nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("invalid permit id %q: %w", rawID, err)
	}
	return t, id, nil
}

// loaded builds a manager for t and loads it, failing when the load failed.
func (a *app) loaded(ctx context.Context, t models.PermitType, query string) (*portal.Manager, error) {
	m := portal.NewManager(a.store, t, a.log)
	m.Search(ctx, query)
	if err := m.LastError(); err != nil {
		return nil, err
	}
	return m, nil
}

func listCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	month, year := filterFlags(fs)
	query := fs.String("query", "", "server-side search text")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("page-size", a.cfg.PageSize, "rows per page")

	rest, err := positional(fs, args, 1, "<type>")
	if err != nil {
		return err
	}
	t, err := models.ParsePermitType(rest[0])
	if err != nil {
		return err
	}
	c, err := criteria(*month, *year)
	if err != nil {
		return err
	}
	if fs.Changed("page-size") && !slices.Contains(listing.PageSizes, *size) {
		return fmt.Errorf("page size must be one of %v", listing.PageSizes)
	}

	m, err := a.loaded(ctx, t, *query)
	if err != nil {
		return err
	}

	view := portal.NewView(m, *size)
	view.SetFilter(c)
	visible := view.Visible()
	view.Pager().Go(*page, len(visible))

	thisYear := time.Now().Year()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECEIVED\tNAME\tSTATUS\tPAYMENT\tPAID ON\tROW")
	for _, row := range view.Rows(thisYear) {
		p := row.Permit
		paidOn := export.MissingDate
		if p.LastPaymentDate != nil {
			paidOn = p.LastPaymentDate.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.DateReceived, p.Name(), p.Status, p.PaymentStatus.Label(), paidOn, row.Class)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	pages := listing.PageCount(len(visible), view.Pager().Size())
	standing := listing.ClassifyOverdue(visible, thisYear)
	fmt.Fprintf(a.out, "\npage %d of %d, %d permits, %d paid this year, %d overdue\n",
		view.Pager().Page(), max(pages, 1), len(visible), len(standing.PaidThisYear), len(standing.Overdue))
	return nil
}

func exportCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	month, year := filterFlags(fs)
	out := fs.String("out", "", "output file (default {Type}_Permits_Report.xlsx)")

	rest, err := positional(fs, args, 1, "<type>")
	if err != nil {
		return err
	}
	t, err := models.ParsePermitType(rest[0])
	if err != nil {
		return err
	}
	c, err := criteria(*month, *year)
	if err != nil {
		return err
	}

	m, err := a.loaded(ctx, t, "")
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = export.FileName(t)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	view := portal.NewView(m, a.cfg.PageSize)
	view.SetFilter(c)
	rows, err := view.Export(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "wrote %d rows to %s\n", rows, path)
	return nil
}

func submitCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("submit", pflag.ContinueOnError)
	sets := fs.StringArray("set", nil, "field=value to fill in (repeatable)")

	rest, err := positional(fs, args, 1, "<type>")
	if err != nil {
		return err
	}
	t, err := models.ParsePermitType(rest[0])
	if err != nil {
		return err
	}

	p := &models.Permit{Type: t, DateReceived: models.DateOf(time.Now())}
	if err := p.SetDetailsJSON([]byte("{}")); err != nil {
		return err
	}
	if err := setFields(p, *sets); err != nil {
		return err
	}

	m, err := a.loaded(ctx, t, "")
	if err != nil {
		return err
	}
	notice, err := a.controller(m, nil, true).Create(ctx, p)
	if err := a.report(notice, err); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "id: %s\n", p.ID)
	return nil
}

func editCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("edit", pflag.ContinueOnError)
	sets := fs.StringArray("set", nil, "field=value to change (repeatable)")

	rest, err := positional(fs, args, 2, "<type> <id>")
	if err != nil {
		return err
	}
	if len(*sets) == 0 {
		return fmt.Errorf("nothing to change, pass at least one --set field=value")
	}
	t, id, err := permitTarget(rest[0], rest[1])
	if err != nil {
		return err
	}

	m, err := a.loaded(ctx, t, "")
	if err != nil {
		return err
	}
	p, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := setFields(&p, *sets); err != nil {
		return err
	}

	notice, err := a.controller(m, nil, true).Update(ctx, &p)
	return a.report(notice, err)
}

// setFields applies field=value pairs to p. date_received and email are
// top-level fields; every other key must name a field of p's details.
func setFields(p *models.Permit, sets []string) error {
	details, err := p.DetailsJSON()
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(details, &fields); err != nil || fields == nil {
		return fmt.Errorf("%s permit has no details to edit", p.Type)
	}

	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("--set expects field=value, got %q", kv)
		}
		switch key {
		case "date_received":
			d, err := models.ParseDate(value)
			if err != nil {
				return fmt.Errorf("date_received: %w", err)
			}
			p.DateReceived = d
		case "email":
			p.Email = value
		default:
			if _, known := fields[key]; !known {
				return fmt.Errorf("unknown %s field %q", p.Type, key)
			}
			fields[key], _ = json.Marshal(value)
		}
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := p.SetDetailsJSON(merged); err != nil {
		return fmt.Errorf("invalid %s details: %w", p.Type, err)
	}
	return nil
}

// controller builds a Controller over m. With stats set, successful writes
// refresh the dashboard counts.
func (a *app) controller(m *portal.Manager, confirm portal.Confirmer, stats bool) *portal.Controller {
	cfg := portal.ControllerConfig{
		Store:   a.store,
		Manager: m,
		Confirm: confirm,
		Log:     a.log,
	}
	if stats {
		cfg.RefreshStats = portal.NewDashboard(a.store, a.store, a.log).RefreshStats
	}
	return portal.NewController(cfg)
}

func statusCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	yes := fs.BoolP("yes", "y", false, "skip the confirmation prompt")

	rest, err := positional(fs, args, 3, "<type> <id> <status>")
	if err != nil {
		return err
	}
	t, id, err := permitTarget(rest[0], rest[1])
	if err != nil {
		return err
	}

	m, err := a.loaded(ctx, t, "")
	if err != nil {
		return err
	}
	notice, err := a.controller(m, a.confirmer(*yes), true).SetStatus(ctx, id, models.Status(rest[2]))
	return a.report(notice, err)
}

func payCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("pay", pflag.ContinueOnError)
	rest, err := positional(fs, args, 3, "<type> <id> <paid|not_paid>")
	if err != nil {
		return err
	}
	t, id, err := permitTarget(rest[0], rest[1])
	if err != nil {
		return err
	}

	m, err := a.loaded(ctx, t, "")
	if err != nil {
		return err
	}
	notice, err := a.controller(m, nil, false).SetPaymentStatus(ctx, id, models.PaymentStatus(rest[2]))
	return a.report(notice, err)
}

func deleteCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
	yes := fs.BoolP("yes", "y", false, "skip the confirmation prompt")

	rest, err := positional(fs, args, 2, "<type> <id>")
	if err != nil {
		return err
	}
	t, id, err := permitTarget(rest[0], rest[1])
	if err != nil {
		return err
	}

	m, err := a.loaded(ctx, t, "")
	if err != nil {
		return err
	}
	notice, err := a.controller(m, a.confirmer(*yes), true).Delete(ctx, id)
	return a.report(notice, err)
}

// report prints the banner for an action. A declined prompt is not an error.
func (a *app) report(notice portal.Notice, err error) error {
	if errors.Is(err, portal.ErrDeclined) {
		fmt.Fprintln(a.out, "cancelled")
		return nil
	}
	if notice.Message != "" {
		fmt.Fprintln(a.out, notice)
	}
	return err
}

func statsCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("stats", pflag.ContinueOnError)
	if _, err := positional(fs, args, 0, "no arguments"); err != nil {
		return err
	}

	d := portal.NewDashboard(a.store, a.store, a.log)
	if err := d.Refresh(ctx); err != nil {
		return err
	}

	s := d.Summary()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERMITS\tPENDING\tAPPROVED\tREJECTED\tTOTAL")
	for _, c := range s.Cards {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", c.Label, c.Counts.Pending, c.Counts.Approved, c.Counts.Rejected, c.Total())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nfire cases: %d\n", s.FireCases)
	return nil
}

func firesCmd(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("fires", pflag.ContinueOnError)
	if _, err := positional(fs, args, 0, "no arguments"); err != nil {
		return err
	}

	board := portal.NewFireBoard(a.store, nil, analytics.NewAnalyzer(a.log), a.log)
	if _, notice := board.Load(ctx); notice != nil {
		return fmt.Errorf("%s: %w", notice.Message, board.LastError())
	}
	r := board.Report()

	fmt.Fprintf(a.out, "cases: %d  total damage: %d PHP  average: %.2f PHP  this year: %d\n\n",
		r.Overall.TotalCases, r.Overall.TotalDamage, r.Overall.AverageDamage, r.Overall.CurrentYearCases)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "YEAR\tCASES\tDAMAGE\tAVERAGE")
	for _, y := range r.Yearly {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\n", y.Year, y.CaseCount, y.TotalDamage, y.AverageDamage)
	}
	fmt.Fprintln(tw, "\nMONTH\tCASES\tDAMAGE\t")
	for _, m := range r.Monthly {
		fmt.Fprintf(tw, "%s\t%d\t%d\t\n", m.Month, m.CaseCount, m.TotalDamage)
	}
	fmt.Fprintln(tw, "\nBARANGAY\tCASES\tDAMAGE\t")
	for _, b := range r.TopBarangays {
		fmt.Fprintf(tw, "%s\t%d\t%d\t\n", b.Barangay, b.CaseCount, b.TotalDamage)
	}
	fmt.Fprintln(tw, "\nSEASON\tCASES\t\t")
	for _, s := range r.Seasonal {
		fmt.Fprintf(tw, "%s\t%d\t\t\n", s.Season, s.CaseCount)
	}
	return tw.Flush()
}
