package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/hisabapp/hisab/internal/config"
	"github.com/hisabapp/hisab/internal/cqrs"
	"github.com/hisabapp/hisab/internal/database"
	"github.com/hisabapp/hisab/internal/events"
	identitycmd "github.com/hisabapp/hisab/internal/identity/command"
	identityrepo "github.com/hisabapp/hisab/internal/identity/repository"
	"github.com/hisabapp/hisab/internal/logger"
	redisClient "github.com/hisabapp/hisab/internal/redis"
)

type createUserCmd struct {
	email    string
	password string
	name     string
	mobile   string
}

func (*createUserCmd) Name() string     { return "createuser" }
func (*createUserCmd) Synopsis() string { return "create a user from the command line" }
func (*createUserCmd) Usage() string {
	return `hisab createuser -email <email> -password <password> [-name <full name>] [-mobile <mobile>]

  Registers a user with the same rules as the register endpoint. When both
  -name and -mobile are given the profile is completed as well.
`
}

func (c *createUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Email address (required).")
	f.StringVar(&c.password, "password", "", "Password, at least 8 characters (required).")
	f.StringVar(&c.name, "name", "", "Full name.")
	f.StringVar(&c.mobile, "mobile", "", "Mobile number.")
}

func (c *createUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "-email and -password are required")
		return subcommands.ExitUsageError
	}
	if len(c.password) < identitycmd.MinPasswordLength {
		fmt.Fprintf(os.Stderr, "-password must be at least %d characters\n", identitycmd.MinPasswordLength)
		return subcommands.ExitUsageError
	}

	cfg := config.MustLoad()
	logger.SetGlobal(logger.New(cfg.LogLevel, cfg.LogFormat))

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	redis, err := redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to Redis: %v\n", err)
		return subcommands.ExitFailure
	}
	defer redis.Close()

	svc := identitycmd.NewUserCommandService(
		identityrepo.NewUserWriteRepository(db),
		identityrepo.NewUserReadRepository(db, redis.Client),
		identityrepo.NewTokenDenylist(redis.Client),
		events.NewPublisher(redis.Client),
	)

	user, err := svc.Register(ctx, cqrs.RegisterUserCommand{Email: c.email, Password: c.password})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.name != "" || c.mobile != "" {
		view, err := svc.UpdateProfile(ctx, cqrs.UpdateProfileCommand{UserID: user.ID, FullName: c.name, Mobile: c.mobile})
		if err != nil {
			fmt.Fprintf(os.Stderr, "User %s created, but the profile was rejected: %v\n", user.ID, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Created %s (%s), profile complete: %t\n", view.Email, view.ID, view.ProfileComplete)
		return subcommands.ExitSuccess
	}

	fmt.Printf("Created %s (%s)\n", user.Email, user.ID)
	return subcommands.ExitSuccess
}
