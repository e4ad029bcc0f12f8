package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"biketour-planner/internal/app"
	"biketour-planner/internal/config"
	"biketour-planner/internal/domain"
	"biketour-planner/internal/services"

	"github.com/joho/godotenv"
)

const usage = `usage: dbtool <command> [flags]

commands:
  init       create cache schemas and the historical query schedule
  backfill   query pending historical schedule entries
  purge      delete old forecast samples
  plan       write a plan as CSV (-day N for a forecast, -historical for all past days)
`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	day := fs.Int("day", 1, "forecast day offset from today")
	historical := fs.Bool("historical", false, "plan every day in the historical cache")
	out := fs.String("out", "", "CSV output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := app.Build(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	p := a.Planner

	switch cmd {
	case "init":
		log.Println("Initializing historical schedule...")
		n, err := p.InitSchedule(ctx)
		if err != nil {
			return fmt.Errorf("init failed: %w", err)
		}
		log.Printf("Schedule ready. entries_created=%d", n)

	case "backfill":
		log.Println("Backfilling historical weather...")
		res, err := p.Backfill(ctx)
		log.Printf("Backfill finished. done=%d remaining=%d", res.Done, res.Remaining)
		if err != nil {
			return fmt.Errorf("backfill stopped: %w", err)
		}

	case "purge":
		n, err := p.PurgeForecast(ctx)
		if err != nil {
			return fmt.Errorf("purge failed: %w", err)
		}
		log.Printf("Forecast purge complete. deleted=%d", n)

	case "plan":
		w := io.Writer(os.Stdout)
		if *out != "" {
			f, err := os.Create(*out)
			if err != nil {
				return fmt.Errorf("plan: %w", err)
			}
			defer f.Close()
			w = f
		}

		if *historical {
			return writeHistorical(ctx, w, p)
		}

		plan, err := p.ForecastPlan(ctx, *day)
		if plan == nil {
			return err
		}
		if err != nil {
			log.Printf("plan incomplete: %v", err)
		}
		return writePlans(w, []*domain.Plan{plan})

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	return nil
}

func writeHistorical(ctx context.Context, w io.Writer, p *services.Planner) error {
	var plans []*domain.Plan
	for plan, err := range p.HistoricalPlans(ctx) {
		if err != nil {
			return fmt.Errorf("historical plans: %w", err)
		}
		plans = append(plans, plan)
	}
	if len(plans) == 0 {
		return errors.New("historical plans: no day could be planned")
	}
	log.Printf("historical plans computed: %d", len(plans))
	return writePlans(w, plans)
}

// writePlans writes the plans one after another with a plan number column in
// front and a single header row.
func writePlans(w io.Writer, plans []*domain.Plan) error {
	cw := csv.NewWriter(w)

	for i, plan := range plans {
		header, rows := plan.Table()
		if i == 0 {
			if err := cw.Write(append([]string{"plan_no", "status"}, header...)); err != nil {
				return err
			}
		}
		for _, row := range rows {
			rec := append([]string{fmt.Sprint(i + 1), string(plan.Status)}, row...)
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
