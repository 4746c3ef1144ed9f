package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/isdelr/eventhub-be/internal/apiclient"
	"github.com/isdelr/eventhub-be/internal/logger"
	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/isdelr/eventhub-be/internal/reconciler"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "eventctl",
		Usage: "Browse events, toggle attendance and watch live attendee updates.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:5000", EnvVars: []string{"EVENTHUB_URL"}, Usage: "server base URL"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"EVENTHUB_TOKEN"}, Usage: "session token"},
			&cli.StringFlag{Name: "log-level", Value: "warn", EnvVars: []string{"LOG_LEVEL"}},
		},
		Before: func(c *cli.Context) error {
			logger.Init(c.String("log-level"), true)
			return nil
		},
		Commands: []*cli.Command{
			guestCommand(),
			loginCommand(),
			eventsCommand(),
			toggleCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("eventctl failed")
		os.Exit(1)
	}
}

func newClient(c *cli.Context) *apiclient.Client {
	client := apiclient.New(c.String("server"))
	client.Token = c.String("token")
	return client
}

func requireToken(client *apiclient.Client) error {
	if client.Token == "" {
		return errors.New("no session token: run `eventctl guest` or `eventctl login` and export EVENTHUB_TOKEN")
	}
	return nil
}

func printAuth(res apiclient.AuthResponse) {
	fmt.Printf("Logged in as %s (%s), token valid until %s\n", res.User.Name, res.User.ID, res.ExpiresAt.Local().Format(time.RFC1123))
	fmt.Printf("export EVENTHUB_TOKEN=%s\n", res.Token)
}

func guestCommand() *cli.Command {
	return &cli.Command{
		Name:  "guest",
		Usage: "Create a temporary guest account.",
		Action: func(c *cli.Context) error {
			res, err := newClient(c).GuestLogin(c.Context)
			if err != nil {
				return err
			}
			printAuth(res)
			return nil
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in with email and password.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"EVENTHUB_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			res, err := newClient(c).Login(c.Context, c.String("email"), c.String("password"))
			if err != nil {
				return err
			}
			printAuth(res)
			return nil
		},
	}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "List events.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category"},
			&cli.TimestampFlag{Name: "date", Layout: time.DateOnly, Usage: "only events on this day (YYYY-MM-DD)"},
		},
		Action: func(c *cli.Context) error {
			client := newClient(c)
			if err := requireToken(client); err != nil {
				return err
			}
			filter := models.EventFilter{Category: c.String("category")}
			if day := c.Timestamp("date"); day != nil {
				filter.Day = *day
			}

			events, err := client.ListEvents(c.Context, filter)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No events.")
			}
			for _, e := range events {
				fmt.Printf("%s  %-16s  %-30s  %d attending  (%s)\n",
					e.Date.Local().Format("2006-01-02 15:04"), e.Category, e.Title, len(e.Attendees), e.ID)
			}
			return nil
		},
	}
}

func toggleCommand() *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Usage:     "Join an event, or leave it if already attending.",
		ArgsUsage: "<event-id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("event id is required")
			}
			client := newClient(c)
			if err := requireToken(client); err != nil {
				return err
			}

			me, err := client.Me(c.Context)
			if err != nil {
				return err
			}
			event, err := client.GetEvent(c.Context, id)
			if err != nil {
				return err
			}

			view := reconciler.NewEventView(id)
			view.Load(event)
			self := me.Ref()
			view.Optimistic(self)

			result, err := client.Toggle(c.Context, id)
			if err != nil {
				view.Rollback(self)
				return err
			}
			view.ApplyLocal(self, result)

			fmt.Printf("You %s %q.\n", result.Action, event.Title)
			printAttendees(view.Snapshot().Event)
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Follow live attendee updates for one event.",
		ArgsUsage: "<event-id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("event id is required")
			}
			client := newClient(c)
			if err := requireToken(client); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Subscribe before loading so nothing between the fetch and the
			// first delta is lost; the view queues deltas while loading.
			feed, err := reconciler.Dial(ctx, client.WebsocketURL(), client.Token)
			if err != nil {
				return fmt.Errorf("failed to connect to websocket: %w", err)
			}
			defer feed.Close()

			view := reconciler.NewEventView(id)
			feed.Subscribe(view)
			if err := feed.JoinRoom(id); err != nil {
				return err
			}

			done := make(chan error, 1)
			go func() { done <- feed.Run(ctx) }()

			event, err := client.GetEvent(ctx, id)
			if err != nil {
				return err
			}
			view.Load(event)

			stream := view.Observe()
			for {
				snap := stream.Value().(reconciler.Snapshot)
				if snap.State == reconciler.StateLoaded {
					if snap.Deleted {
						fmt.Println("The event was deleted.")
						return nil
					}
					printAttendees(snap.Event)
				}

				select {
				case <-stream.Changes():
					stream.Next()
				case err := <-done:
					if err != nil {
						return fmt.Errorf("feed closed: %w", err)
					}
					return nil
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
}

func printAttendees(e models.Event) {
	names := make([]string, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		names = append(names, a.Name)
	}
	fmt.Printf("[%s] %s: %d attending", time.Now().Format("15:04:05"), e.Title, len(names))
	if len(names) > 0 {
		fmt.Printf(" (%s)", strings.Join(names, ", "))
	}
	fmt.Println()
}
