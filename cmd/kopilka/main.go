// Command kopilka exercises the reporting pipeline from the command line. It
// plays the role of the external chat caller: it records expenses and renders
// reports, printing the text and writing the chart PNG next to it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"kopilka/internal/amqp"
	"kopilka/internal/charts"
	"kopilka/internal/config"
	"kopilka/internal/core"
	"kopilka/internal/logging"
	"kopilka/internal/report"
	"kopilka/internal/services"
	"kopilka/internal/storage"
	"kopilka/internal/storage/postgres"
	"kopilka/internal/storage/sqlite"
)

func main() {
	var (
		user     = flag.Int64("user", 0, "acting user id")
		group    = flag.Int64("group", 0, "group id")
		kind     = flag.String("report", "", "report to render: list, total or trend")
		all      = flag.Bool("all", false, "include every member's expenses, not only your own")
		order    = flag.String("order", "date", "row ordering: date or category")
		chartOut = flag.String("chart", "chart.png", "where to write the chart, when the report has one")
		add      = flag.String("add", "", "record an expense instead: amount in whole units")
		category = flag.Int64("category", 0, "category id for -add")
		comment  = flag.String("comment", "", "comment for -add")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if *user == 0 || *group == 0 {
		fmt.Fprintln(os.Stderr, "both -user and -group are required")
		flag.Usage()
		os.Exit(2)
	}

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
	}

	svc := services.NewExpenseService(store, events)
	defer svc.Close()

	ctx := context.Background()

	if err := store.RegisterUser(ctx, core.UserID(*user)); err != nil {
		slog.Error("Failed to register user", "error", err)
		os.Exit(1)
	}

	if *add != "" {
		recordExpense(ctx, svc, *add, *category, *user, *group, *comment)
		return
	}

	runReport(ctx, store, cfg, *kind, *order, *user, *group, *all, *chartOut)
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case "postgres":
		return postgres.New(cfg.PostgresDSN)
	default:
		return sqlite.New(cfg.SQLiteDBPath)
	}
}

func recordExpense(ctx context.Context, svc *services.ExpenseService, amount string, category, user, group int64, comment string) {
	m, err := core.ParseAmount(amount)
	if err != nil {
		slog.Error("Invalid amount", "input", amount, "error", err)
		os.Exit(1)
	}

	id, err := svc.RecordExpense(ctx, core.Expense{
		Amount:   m,
		Category: core.Category{ID: core.CategoryID(category)},
		User:     core.UserID(user),
		Group:    core.GroupID(group),
		Comment:  comment,
	})
	if err != nil {
		slog.Error("Failed to record expense", "error", err)
		os.Exit(1)
	}
	fmt.Printf("recorded expense %d\n", id)
}

func runReport(ctx context.Context, store storage.Store, cfg *config.Config, kind, order string, user, group int64, all bool, chartOut string) {
	reportKind, ok := parseKind(kind)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown report %q: want list, total or trend\n", kind)
		os.Exit(2)
	}
	ordering, ok := parseOrdering(order)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown ordering %q: want date or category\n", order)
		os.Exit(2)
	}

	dispatcher, err := report.NewDispatcher(store, charts.New(), cfg.CutoffDay)
	if err != nil {
		slog.Error("Failed to build dispatcher", "error", err)
		os.Exit(1)
	}

	artifact, err := dispatcher.Run(ctx, reportKind, core.ReportRequest{
		User:     core.UserID(user),
		Group:    core.GroupID(group),
		All:      all,
		Ordering: ordering,
	})
	if err != nil {
		slog.Error("Failed to generate report", "error", err, "kind", kind)
		os.Exit(1)
	}

	fmt.Println(artifact.Text)
	if len(artifact.Chart) > 0 {
		if err := os.WriteFile(chartOut, artifact.Chart, 0644); err != nil {
			slog.Error("Failed to write chart", "error", err, "path", chartOut)
			os.Exit(1)
		}
		fmt.Printf("chart written to %s\n", chartOut)
	}
}

func parseKind(s string) (core.ReportKind, bool) {
	switch s {
	case "list":
		return core.ReportList, true
	case "total":
		return core.ReportTotal, true
	case "trend":
		return core.ReportTrend, true
	}
	return 0, false
}

func parseOrdering(s string) (core.Ordering, bool) {
	switch s {
	case "date":
		return core.OrderByDate, true
	case "category":
		return core.OrderByCategory, true
	}
	return 0, false
}
