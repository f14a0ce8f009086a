// Command ojtctl runs maintenance tasks against the tracker database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/ojtetr/tracker/internal/app/migrations"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/repositories"
	"github.com/ojtetr/tracker/internal/config"
	"github.com/ojtetr/tracker/internal/db"
	"github.com/ojtetr/tracker/internal/pkg/logger"
	"github.com/ojtetr/tracker/internal/seed"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ojtctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ojtctl",
		Usage: "administer the OJT tracker database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				EnvVars: []string{"CONFIG_PATH"},
				Usage:   "configuration file",
			},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log at debug level"},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seedStaffCommand(),
			listUsersCommand(),
			clearCommentsCommand(),
			resetDBCommand(),
		},
	}
}

// env is what every command works with
type env struct {
	cfg      *config.Config
	database *db.PostgresDB
	repos    *repositories.Repositories
	log      zerolog.Logger
}

// withDB loads configuration, connects once without retrying and closes the pool afterwards
func withDB(run func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.LoadConfig(c.String("config"))
		if err != nil {
			return err
		}

		level := "info"
		if c.Bool("verbose") {
			level = "debug"
		}
		lgr := logger.Configure(logger.Config{Level: level, Pretty: true, Output: os.Stderr})

		database, err := db.NewPostgresDB(c.Context, cfg, db.RetryPolicy{MaxAttempts: 1})
		if err != nil {
			return err
		}
		defer database.Close()

		return run(c, &env{cfg: cfg, database: database, repos: repositories.NewRepositories(database.Pool), log: lgr})
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the SQL files in the migrations directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "list", Usage: "only print the files that would be considered"},
		},
		Action: withDB(func(c *cli.Context, e *env) error {
			dir := e.cfg.Database.MigrationsDir
			if c.Bool("list") {
				files, err := migrations.PendingFiles(dir)
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintf(c.App.Writer, "%s\t%s\n", migrations.MigrationVersion(f), f)
				}
				return nil
			}
			return migrations.NewMigrator(e.database.Pool).MigrateFromDirectory(c.Context, dir)
		}),
	}
}

func seedStaffCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed-staff",
		Usage: "create the configured coordinator and director accounts when missing",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "create this account instead of the configured ones"},
			&cli.StringFlag{Name: "password"},
			&cli.StringFlag{Name: "name"},
			&cli.StringFlag{Name: "role", Value: string(models.RoleCoordinator), Usage: "coordinator or director"},
		},
		Action: withDB(func(c *cli.Context, e *env) error {
			accounts := seed.StaffFromConfig(e.cfg)
			if email := c.String("email"); email != "" {
				if c.String("password") == "" {
					return errors.New("--password is required with --email")
				}
				accounts = []seed.Account{{
					Email:    email,
					Password: c.String("password"),
					Name:     c.String("name"),
					Role:     models.Role(strings.ToLower(c.String("role"))),
				}}
			}
			if len(accounts) == 0 {
				return errors.New("no staff accounts configured; set the seed section or pass --email")
			}

			created, err := seed.EnsureStaff(c.Context, e.repos.UserRepository, accounts, e.log)
			fmt.Fprintf(c.App.Writer, "%d staff account(s) created\n", created)
			return err
		}),
	}
}

func listUsersCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-users",
		Usage: "print accounts by role and status",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "role", Value: string(models.RoleStudent)},
			&cli.StringFlag{Name: "status", Value: string(models.AccountPending)},
		},
		Action: withDB(func(c *cli.Context, e *env) error {
			role := models.Role(c.String("role"))
			if !role.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}
			status := models.AccountStatus(c.String("status"))

			users, err := e.repos.UserRepository.ListUsers(c.Context, role, status)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tNAME\tREGISTERED")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		}),
	}
}

func clearCommentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear-comments",
		Usage: "empty every document comment thread",
		Action: withDB(func(c *cli.Context, e *env) error {
			n, err := e.repos.ProfileRepository.ClearAllComments(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "comments cleared on %d profile(s)\n", n)
			return nil
		}),
	}
}

func resetDBCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-db",
		Usage: "delete all students, their profiles and all announcements; staff accounts stay",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "confirm the deletion"},
		},
		Action: withDB(func(c *cli.Context, e *env) error {
			if !c.Bool("yes") {
				return errors.New("refusing to delete data without --yes")
			}

			announcements, err := e.repos.AnnouncementRepository.DeleteAll(c.Context)
			if err != nil {
				return err
			}
			students, err := e.repos.UserRepository.DeleteStudents(c.Context)
			if err != nil {
				return err
			}

			// Uploaded files are not tracked outside the profiles and stay in the blob store
			fmt.Fprintf(c.App.Writer, "deleted %d student(s) and %d announcement(s)\n", students, announcements)
			return nil
		}),
	}
}
