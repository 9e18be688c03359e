package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Virain6/money-management/internal/calculator"
	"github.com/Virain6/money-management/internal/config"
	"github.com/Virain6/money-management/internal/metrics"
	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/money"
	"github.com/Virain6/money-management/internal/service"
	"github.com/Virain6/money-management/internal/storage/sqlite"
)

var errUsage = errors.New("usage")

const usage = `usage: moneyctl <command> [arguments]

commands:
  people                         list people, me first
  add-person <name> [email]      add a friend
  delete-person <id>             delete a friend and their ledger rows
  add-expense [flags]            record a shared expense
  settle [flags]                 record a payment between two people
  balances                       show who owes whom
  history <person-id>            show a person's recent expenses
  recent [-limit n]              show recent shared and personal activity
  add-spend [-budget id] <amount> [note]
                                 record personal spending
  spends [YYYYMM]                list personal spending for a month
  add-budget [flags]             create a budget or recurring template
  budgets [YYYYMM]               show budgets and their usage
  ensure-budgets [YYYYMM]        copy recurring templates into a month
  worker [-interval d]           keep the current month's budgets materialized`

type app struct {
	store    *sqlite.SQLiteStore
	people   *service.PeopleService
	ledger   *service.LedgerService
	budgets  *service.BudgetService
	spends   *service.SpendService
	activity *service.ActivityService
	now      func() time.Time
}

func newApp(cfg *config.Config, reg prometheus.Registerer) (*app, error) {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	m := metrics.New(reg)
	return &app{
		store:    store,
		people:   service.NewPeopleService(store, m),
		ledger:   service.NewLedgerService(store, m, cfg.DefaultCurrency),
		budgets:  service.NewBudgetService(store, m),
		spends:   service.NewSpendService(store, m),
		activity: service.NewActivityService(store, m, cfg.RecentLimit),
		now:      time.Now,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w\n%s", errUsage, usage)
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "people":
		return a.listPeople(ctx, out)
	case "add-person":
		return a.addPerson(ctx, rest, out)
	case "delete-person":
		if len(rest) != 1 {
			return usageError("delete-person <id>")
		}
		return a.people.DeletePerson(ctx, rest[0])
	case "add-expense":
		return a.addExpense(ctx, rest, out)
	case "settle":
		return a.settle(ctx, rest, out)
	case "balances":
		return a.showBalances(ctx, out)
	case "history":
		return a.history(ctx, rest, out)
	case "recent":
		return a.recent(ctx, rest, out)
	case "add-spend":
		return a.addSpend(ctx, rest, out)
	case "spends":
		return a.listSpends(ctx, rest, out)
	case "add-budget":
		return a.addBudget(ctx, rest, out)
	case "budgets":
		return a.showBudgets(ctx, rest, out)
	case "ensure-budgets":
		return a.ensureBudgets(ctx, rest, out)
	case "worker":
		return a.worker(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q\n%s", errUsage, cmd, usage)
	}
}

func usageError(form string) error {
	return fmt.Errorf("%w: moneyctl %s", errUsage, form)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func (a *app) listPeople(ctx context.Context, out io.Writer) error {
	people, err := a.people.ListAllPeopleIncludingMe(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	for _, p := range people {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.DisplayName, p.Email)
	}
	return w.Flush()
}

func (a *app) addPerson(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError("add-person <name> [email]")
	}
	var email string
	if len(args) == 2 {
		email = args[1]
	}
	p, err := a.people.AddPerson(ctx, args[0], email)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, p.ID)
	return nil
}

func (a *app) addExpense(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("add-expense")
	amount := fs.String("amount", "", "total amount, e.g. 42.50")
	payer := fs.String("payer", models.MeID, "id of the person who paid")
	with := fs.String("with", "", "comma separated participant ids, in split order")
	split := fs.String("split", "equal", "equal, percent:50,50, shares:1,2 or amounts:10,32.5")
	desc := fs.String("desc", "", "description")
	category := fs.String("category", "", "category")
	currency := fs.String("currency", "", "currency tag")
	date := fs.String("date", "", "date as YYYY-MM-DD (default today)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	total, err := parseAmount(*amount)
	if err != nil {
		return err
	}
	mode, err := parseSplit(*split)
	if err != nil {
		return err
	}
	when, err := parseDate(*date)
	if err != nil {
		return err
	}

	id, err := a.ledger.CreateExpense(ctx, service.ExpenseInput{
		Description:    *desc,
		Category:       *category,
		Amount:         total,
		Currency:       *currency,
		Date:           when,
		PayerID:        *payer,
		ParticipantIDs: splitList(*with),
		Mode:           mode,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, id)
	return nil
}

func (a *app) settle(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("settle")
	from := fs.String("from", "", "id of the person paying")
	to := fs.String("to", models.MeID, "id of the person being paid")
	amount := fs.String("amount", "", "amount paid")
	note := fs.String("note", "", "note")
	date := fs.String("date", "", "date as YYYY-MM-DD (default today)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	value, err := parseAmount(*amount)
	if err != nil {
		return err
	}
	when, err := parseDate(*date)
	if err != nil {
		return err
	}

	id, err := a.ledger.RecordSettlement(ctx, service.SettlementInput{
		PayerID: *from,
		PayeeID: *to,
		Amount:  value,
		Date:    when,
		Note:    *note,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, id)
	return nil
}

func (a *app) showBalances(ctx context.Context, out io.Writer) error {
	balances, err := a.ledger.ListBalances(ctx)
	if err != nil {
		return err
	}
	if len(balances) == 0 {
		fmt.Fprintln(out, "all settled up")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, b := range balances {
		cents := money.ToCents(b.Net)
		switch {
		case cents > 0:
			fmt.Fprintf(w, "%s\towes you\t%s\n", b.Person.DisplayName, money.Format(cents))
		case cents < 0:
			fmt.Fprintf(w, "%s\tyou owe\t%s\n", b.Person.DisplayName, money.Format(-cents))
		default:
			fmt.Fprintf(w, "%s\tsettled\t%s\n", b.Person.DisplayName, money.Format(0))
		}
	}
	return w.Flush()
}

func (a *app) history(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("history")
	limit := fs.Int("limit", 0, "number of expenses")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("history [-limit n] <person-id>")
	}

	expenses, err := a.ledger.ListRecentExpensesForPerson(ctx, fs.Arg(0), *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDESCRIPTION\tTOTAL\tSHARE\tPAID")
	for _, e := range expenses {
		paid := ""
		if e.Expense.PayerID == fs.Arg(0) {
			paid = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Expense.Date.Format(time.DateOnly),
			e.Expense.Description,
			money.Format(money.ToCents(e.Expense.Amount)),
			money.Format(money.ToCents(e.Share)),
			paid)
	}
	return w.Flush()
}

func (a *app) recent(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("recent")
	limit := fs.Int("limit", 0, "number of items")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	items, err := a.activity.ListRecentTransactions(ctx, *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			it.Date.Format(time.DateOnly), it.Kind, it.Title, money.Format(money.ToCents(it.Amount)))
	}
	return w.Flush()
}

func (a *app) addSpend(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("add-spend")
	budget := fs.String("budget", "", "budget id to charge")
	category := fs.String("category", "", "category")
	date := fs.String("date", "", "date as YYYY-MM-DD (default today)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return usageError("add-spend [-budget id] <amount> [note]")
	}

	value, err := parseAmount(fs.Arg(0))
	if err != nil {
		return err
	}
	when, err := parseDate(*date)
	if err != nil {
		return err
	}

	spend, err := a.spends.AddPersonalSpend(ctx, service.SpendInput{
		Amount:   value,
		BudgetID: *budget,
		Category: *category,
		Date:     when,
		Note:     strings.Join(fs.Args()[1:], " "),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, spend.ID)
	return nil
}

func (a *app) listSpends(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("spends")
	budget := fs.String("budget", "", "only spends charged to this budget")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	month, err := a.monthArg(fs.Args())
	if err != nil {
		return err
	}

	spends, err := a.spends.ListPersonalSpendByMonth(ctx, month, *budget)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, s := range spends {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.Date.Format(time.DateOnly), money.Format(money.ToCents(s.Amount)), s.Category, s.Note)
	}
	return w.Flush()
}

func (a *app) addBudget(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("add-budget")
	name := fs.String("name", "", "budget name")
	amount := fs.String("amount", "", "monthly limit")
	month := fs.String("month", "", "month as YYYYMM (default current)")
	recurring := fs.Bool("recurring", false, "create a template copied into every month")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	limit, err := parseAmount(*amount)
	if err != nil {
		return err
	}

	var b *models.Budget
	if *recurring {
		b, err = a.budgets.CreateRecurringBudget(ctx, *name, limit)
	} else {
		var key models.MonthKey
		if key, err = a.parseMonth(*month); err != nil {
			return err
		}
		b, err = a.budgets.CreateBudget(ctx, *name, limit, key)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, b.ID)
	return nil
}

func (a *app) showBudgets(ctx context.Context, args []string, out io.Writer) error {
	month, err := a.monthArg(args)
	if err != nil {
		return err
	}

	budgets, err := a.budgets.ListBudgetsByMonth(ctx, month)
	if err != nil {
		return err
	}
	usages, err := a.budgets.BudgetUsages(ctx, month)
	if err != nil {
		return err
	}
	spent := make(map[string]int64, len(usages))
	for _, u := range usages {
		spent[u.BudgetID] = money.ToCents(u.Total)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSPENT\tLIMIT\tLEFT")
	for _, b := range budgets {
		limit := money.ToCents(b.Amount)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			b.Name, money.Format(spent[b.ID]), money.Format(limit), money.Format(limit-spent[b.ID]))
	}
	if untagged, ok := spent[""]; ok {
		fmt.Fprintf(w, "(no budget)\t%s\t\t\n", money.Format(untagged))
	}
	return w.Flush()
}

func (a *app) ensureBudgets(ctx context.Context, args []string, out io.Writer) error {
	month, err := a.monthArg(args)
	if err != nil {
		return err
	}
	created, err := a.budgets.EnsureRecurringBudgets(ctx, month)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d budgets created for %s\n", created, month)
	return nil
}

// worker materializes the current month's recurring budgets on start and on
// every tick until ctx is cancelled.
func (a *app) worker(ctx context.Context, args []string) error {
	fs := newFlagSet("worker")
	interval := fs.Duration("interval", time.Hour, "time between materialization passes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *interval <= 0 {
		return usageError("worker [-interval d] (interval must be positive)")
	}

	slog.Info("Budget worker starting", "interval", *interval)
	a.materializeCurrent(ctx)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Budget worker stopping")
			return nil
		case <-ticker.C:
			a.materializeCurrent(ctx)
		}
	}
}

func (a *app) materializeCurrent(ctx context.Context) {
	month := models.MonthOf(a.now())
	created, err := a.budgets.EnsureRecurringBudgets(ctx, month)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("Budget materialization failed", "month", month.String(), "error", err)
		}
		return
	}
	slog.Debug("Budget materialization complete", "month", month.String(), "created", created)
}

func (a *app) monthArg(args []string) (models.MonthKey, error) {
	switch len(args) {
	case 0:
		return models.MonthOf(a.now()), nil
	case 1:
		return a.parseMonth(args[0])
	default:
		return 0, fmt.Errorf("%w: expected at most one YYYYMM month", errUsage)
	}
}

// parseMonth reads a YYYYMM key; empty means the current month.
func (a *app) parseMonth(s string) (models.MonthKey, error) {
	if s == "" {
		return models.MonthOf(a.now()), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || len(s) != 6 {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidMonth, s)
	}
	key := models.MonthKey(n)
	if !key.Valid() {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidMonth, s)
	}
	return key, nil
}

func parseAmount(s string) (float64, error) {
	cents, err := money.ParseCents(s)
	if err != nil {
		return 0, fmt.Errorf("%w %q", err, s)
	}
	return money.ToDollars(cents), nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", models.ErrInvalidInput, s)
	}
	return t, nil
}

// parseSplit reads "equal" or "<mode>:<v1>,<v2>,...".
func parseSplit(s string) (calculator.SplitMode, error) {
	name, raw, _ := strings.Cut(strings.TrimSpace(s), ":")
	if name == "" || name == "equal" {
		if raw != "" {
			return nil, models.InvalidSplit("equal split takes no values")
		}
		return calculator.Equal{}, nil
	}

	var values []float64
	for _, part := range splitList(raw) {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, models.InvalidSplit(fmt.Sprintf("bad value %q", part))
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, models.InvalidSplit(name + " split needs values")
	}

	switch name {
	case "percent":
		return calculator.Percent{Percents: values}, nil
	case "shares":
		return calculator.Shares{Weights: values}, nil
	case "amounts":
		return calculator.Amounts{Amounts: values}, nil
	default:
		return nil, models.InvalidSplit(fmt.Sprintf("unknown mode %q", name))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
