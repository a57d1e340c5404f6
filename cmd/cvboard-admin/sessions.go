package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	redisstore "github.com/cvboard/admin/internal/adapters/redis"
	"github.com/cvboard/admin/internal/bootstrap"
)

var errMemoryStore = errors.New("session store is in-memory; nothing to inspect from the CLI")

type sessionOptions struct {
	SessionID string
	Yes       bool
}

func parseSessionFlags(name string, args []string, withConfirm bool) (sessionOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sessionOptions
	fs.StringVar(&opts.SessionID, "session-id", "", "Session ID from the session_id cookie (required)")
	if withConfirm {
		fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation")
	}

	if err := fs.Parse(args); err != nil {
		return sessionOptions{}, err
	}

	opts.SessionID = strings.TrimSpace(opts.SessionID)
	if opts.SessionID == "" {
		return sessionOptions{}, errors.New("--session-id is required")
	}
	if _, err := uuid.Parse(opts.SessionID); err != nil {
		return sessionOptions{}, fmt.Errorf("--session-id must be a UUID: %w", err)
	}
	return opts, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectRedis(ctx *commandContext) (redis.UniversalClient, error) {
	if !ctx.Config.UsesRedis() {
		return nil, errMemoryStore
	}
	return bootstrap.ConnectRedis(ctx.Ctx, bootstrap.RedisConnConfig{Redis: ctx.Config.Redis, Logger: ctx.Logger})
}

func closeRedis(ctx *commandContext, client redis.UniversalClient) {
	if err := client.Close(); err != nil {
		ctx.Logger.Error("close redis failed", "error", err)
	}
}

func runRedisPing(ctx *commandContext, _ []string) error {
	client, err := connectRedis(ctx)
	if err != nil {
		return err
	}
	defer closeRedis(ctx, client)
	return writef(ctx.Out, "redis ok\n")
}

func runSessionShow(ctx *commandContext, args []string) error {
	opts, err := parseSessionFlags("session-show", args, false)
	if err != nil {
		return err
	}
	client, err := connectRedis(ctx)
	if err != nil {
		return err
	}
	defer closeRedis(ctx, client)

	store := redisstore.NewSessionStoreWithPrefix(client, ctx.Config.Redis.KeyPrefix)
	user, err := store.User(ctx.Ctx, opts.SessionID)
	if errors.Is(err, redisstore.ErrNotFound) {
		return writef(ctx.Out, "session %s has no cached profile\n", opts.SessionID)
	}
	if err != nil {
		return fmt.Errorf("load session profile: %w", err)
	}
	return writef(ctx.Out, "session %s\n  user id: %s\n  email:   %s\n", opts.SessionID, user.ID, user.Email)
}

func runSessionReset(ctx *commandContext, args []string) error {
	opts, err := parseSessionFlags("session-reset", args, true)
	if err != nil {
		return err
	}
	if !opts.Yes {
		return errors.New("refusing to reset session without --yes")
	}
	client, err := connectRedis(ctx)
	if err != nil {
		return err
	}
	defer closeRedis(ctx, client)

	store := redisstore.NewSessionStoreWithPrefix(client, ctx.Config.Redis.KeyPrefix)
	var errs []error
	if err := store.ClearUser(ctx.Ctx, opts.SessionID); err != nil {
		errs = append(errs, fmt.Errorf("clear profile: %w", err))
	}
	if err := store.ResetUnauthorized(ctx.Ctx, opts.SessionID); err != nil {
		errs = append(errs, fmt.Errorf("reset unauthorized flag: %w", err))
	}
	dropped, err := store.Drain(ctx.Ctx, opts.SessionID)
	if err != nil {
		errs = append(errs, fmt.Errorf("drain notifications: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return writef(ctx.Out, "session %s reset (%d pending notifications dropped)\n", opts.SessionID, len(dropped))
}
