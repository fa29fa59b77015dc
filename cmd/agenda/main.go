// Команда agenda печатает расписание студии на неделю и, с -follow, перепечатывает его при изменениях
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/client"
	"github.com/m04kA/SMC-DetailingService/pkg/client/feed"
	"github.com/m04kA/SMC-DetailingService/pkg/client/store"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
)

type options struct {
	apiURL   string
	userID   int64
	role     string
	start    string
	days     int
	follow   bool
	interval time.Duration
	logLevel string
}

func main() {
	var opts options
	flag.StringVar(&opts.apiURL, "api", "http://localhost:8080", "базовый URL сервиса")
	flag.Int64Var(&opts.userID, "user-id", 0, "пользователь (X-User-ID), 0 - аноним")
	flag.StringVar(&opts.role, "role", domain.RoleAdmin, "роль (X-User-Role)")
	flag.StringVar(&opts.start, "start", "", "первый день, YYYY-MM-DD (по умолчанию понедельник текущей недели)")
	flag.IntVar(&opts.days, "days", 7, "число дней")
	flag.BoolVar(&opts.follow, "follow", false, "следить за изменениями")
	flag.DurationVar(&opts.interval, "interval", 15*time.Second, "период опроса в режиме -follow")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "уровень логирования")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "agenda: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	log := logger.NewWithWriter(os.Stderr, opts.logLevel)

	start, end, err := weekRange(opts.start, opts.days, time.Now())
	if err != nil {
		return err
	}

	api := client.New(opts.apiURL, client.WithIdentity(opts.userID, opts.role), client.WithLogger(log))
	st := store.New(api, store.AuthState{UserID: opts.userID, Role: opts.role}, log)

	if err := reload(ctx, st, start, end); err != nil {
		return err
	}
	render(out, st.State())

	if !opts.follow {
		return nil
	}

	var bookings feed.BookingSource
	if auth := st.State().Auth; auth.IsAdmin() && auth.UserID > 0 {
		bookings = api
	}
	poller := feed.NewPoller(api, bookings, feed.Config{StartDate: start, EndDate: end, Interval: opts.interval}, log)

	dirty := make(chan struct{}, 1)
	poller.OnChange(nil, func(c feed.Change) {
		log.Info("agenda: %s %s %s", c.Table, c.EventType, c.Key)
		select {
		case dirty <- struct{}{}:
		default:
		}
	})
	poller.Start(ctx)
	defer poller.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-dirty:
			if err := reload(ctx, st, start, end); err != nil {
				log.Error("agenda: reload failed: %v", err)
				continue
			}
			fmt.Fprintf(out, "\n--- обновлено %s ---\n", time.Now().Format("15:04:05"))
			render(out, st.State())
		}
	}
}

func reload(ctx context.Context, st *store.Store, start, end string) error {
	if err := st.LoadSchedule(ctx, start, end); err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	if err := st.LoadBookings(ctx, start, end); err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}
	return nil
}

// weekRange диапазон [start, start+days-1], пустой start - понедельник недели now
func weekRange(raw string, days int, now time.Time) (string, string, error) {
	if days < 1 || days > 62 {
		return "", "", fmt.Errorf("days must be in 1..62, got %d", days)
	}

	var start time.Time
	if raw == "" {
		offset := (int(now.Weekday()) + 6) % 7
		start = time.Date(now.Year(), now.Month(), now.Day()-offset, 0, 0, 0, 0, time.UTC)
	} else {
		var err error
		start, err = time.Parse(domain.DateFormat, raw)
		if err != nil {
			return "", "", fmt.Errorf("invalid start date %q: %w", raw, err)
		}
	}

	end := start.AddDate(0, 0, days-1)
	return start.Format(domain.DateFormat), end.Format(domain.DateFormat), nil
}
