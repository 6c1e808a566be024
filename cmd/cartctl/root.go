package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dwikikusuma/cartstore/internal/cart/app"
	"github.com/dwikikusuma/cartstore/pkg/config"
	"github.com/dwikikusuma/cartstore/pkg/logger"
	"github.com/dwikikusuma/cartstore/pkg/tracing"
)

// session is everything a subcommand needs once the root has prepared it.
type session struct {
	cfg     config.Config
	log     *slog.Logger
	backend backend
	store   *app.Store

	stopTracing func(context.Context) error
}

func (s *session) close(ctx context.Context) error {
	var errs []error
	if s.backend.close != nil {
		errs = append(errs, s.backend.close())
	}
	if s.stopTracing != nil {
		errs = append(errs, s.stopTracing(ctx))
	}
	return errors.Join(errs...)
}

type rootFlags struct {
	configPath string
	backend    string
	key        string
	dir        string
	sqlitePath string
	redisAddr  string
	logLevel   string
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	var (
		flags rootFlags
		sess  = &session{}
	)

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Inspect and edit the local shopping cart",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(flags.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, flags)

			sess.cfg = cfg
			sess.log = logger.New(logger.Options{
				Service: "cartctl",
				Env:     cfg.AppEnv,
				Level:   cfg.LogLevel,
				Output:  logOut,
				File:    cfg.LogFile,
			})

			ctx := cmd.Context()
			sess.stopTracing, err = tracing.Init(ctx, "cartctl", cfg.OTLPEndpoint)
			if err != nil {
				return err
			}

			sess.backend, err = openBackend(ctx, cfg, sess.log)
			if err != nil {
				_ = sess.close(ctx)
				return err
			}

			opts := []app.Option{app.WithKey(cfg.Cart.Key), app.WithLogger(sess.log)}
			if cfg.Cart.RejectUntilReady {
				opts = append(opts, app.WithRejectUntilReady())
			}
			sess.store = app.NewStore(sess.backend.kv, opts...)
			if err := sess.store.Hydrate(ctx); err != nil {
				_ = sess.close(ctx)
				return err
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return sess.close(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML config file")
	pf.StringVar(&flags.backend, "backend", "", "storage backend: memory, file, sqlite, redis")
	pf.StringVar(&flags.key, "key", "", "storage key holding the cart (default "+app.DefaultKey+")")
	pf.StringVar(&flags.dir, "dir", "", "directory for the file backend")
	pf.StringVar(&flags.sqlitePath, "sqlite-path", "", "database file for the sqlite backend")
	pf.StringVar(&flags.redisAddr, "redis-addr", "", "address or redis:// URL for the redis backend")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newAddCmd(sess),
		newIncCmd(sess),
		newDecCmd(sess),
		newListCmd(sess),
		newWatchCmd(sess),
	)
	return root
}

// applyFlags lets explicitly set flags win over env and file config.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f rootFlags) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("backend", &cfg.Cart.Backend, f.backend)
	set("key", &cfg.Cart.Key, f.key)
	set("dir", &cfg.Cart.Dir, f.dir)
	set("sqlite-path", &cfg.Cart.SQLitePath, f.sqlitePath)
	set("redis-addr", &cfg.Redis.Addr, f.redisAddr)
	set("log-level", &cfg.LogLevel, f.logLevel)
}

func execute(ctx context.Context, args []string, out, logOut io.Writer) error {
	root := newRootCmd(logOut)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(logOut)
	return root.ExecuteContext(ctx)
}
