package main

/*
* CLI to inspect and edit a naming store
 */

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/andreyvit/naming"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "nsctl"
	app.Usage = "inspect and edit a persistent naming store"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "dir, d",
			Usage:  "store directory (one file per context)",
			EnvVar: "NSCTL_DIR",
		},
		cli.StringFlag{
			Name:   "bolt, b",
			Usage:  "Bolt database file, instead of --dir",
			EnvVar: "NSCTL_BOLT",
		},
		cli.StringFlag{
			Name:   "prefix",
			Value:  naming.DefaultPrefix,
			Usage:  "object key prefix",
			EnvVar: "NSCTL_PREFIX",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "log every store operation",
		},
	}
	app.Commands = []cli.Command{
		cli.Command{
			Name:   "init",
			Usage:  "Create the store and its root context",
			Action: initCommand,
		},
		cli.Command{
			Name:   "newkey",
			Usage:  "Allocate and print a new object key",
			Action: newKeyCommand,
		},
		cli.Command{
			Name:      "mkctx",
			Usage:     "Create a new context and bind it at PATH",
			ArgsUsage: "PATH",
			Action:    mkctxCommand,
		},
		cli.Command{
			Name:      "bind",
			Usage:     "Bind an object reference at PATH",
			ArgsUsage: "PATH REF",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "force, f",
					Usage: "Replace an existing binding",
				},
			},
			Action: bindCommand,
		},
		cli.Command{
			Name:      "unbind",
			Usage:     "Remove the binding at PATH",
			ArgsUsage: "PATH",
			Action:    unbindCommand,
		},
		cli.Command{
			Name:      "resolve",
			Usage:     "Print what PATH is bound to",
			ArgsUsage: "PATH",
			Action:    resolveCommand,
		},
		cli.Command{
			Name:      "ls",
			Usage:     "List the bindings of the context at PATH",
			ArgsUsage: "[PATH]",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "batch, n",
					Value: 100,
					Usage: "Bindings fetched per enumerator call",
				},
			},
			Action: lsCommand,
		},
		cli.Command{
			Name:   "keys",
			Usage:  "Print all stored context keys",
			Action: keysCommand,
		},
	}
	return app
}

func openManager(c *cli.Context, create bool) (*naming.Manager, error) {
	level := slog.LevelWarn
	if c.GlobalBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var store naming.Store
	var err error
	switch dir, bolt := c.GlobalString("dir"), c.GlobalString("bolt"); {
	case dir != "" && bolt != "":
		return nil, errors.New("--dir and --bolt are mutually exclusive")
	case bolt != "":
		store, err = naming.OpenBoltStore(bolt, naming.BoltStoreOptions{
			Logger:  logger,
			Verbose: c.GlobalBool("verbose"),
		})
	case dir != "":
		store, err = naming.OpenFileStore(dir, naming.FileStoreOptions{
			Create:  create,
			Logger:  logger,
			Verbose: c.GlobalBool("verbose"),
		})
	default:
		return nil, errors.New("either --dir or --bolt is required")
	}
	if err != nil {
		return nil, err
	}

	m, err := naming.Open(store, naming.Options{
		Prefix:     c.GlobalString("prefix"),
		Logger:     logger,
		Verbose:    c.GlobalBool("verbose"),
		CreateRoot: create,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return m, nil
}

func withManager(c *cli.Context, create bool, f func(m *naming.Manager) error) error {
	m, err := openManager(c, create)
	if err != nil {
		return fail(err)
	}
	defer m.Close()
	return fail(f(m))
}

func fail(err error) error {
	if err == nil {
		return nil
	}
	PrintErr(os.Stderr, Red("nsctl: "+err.Error()))
	return cli.NewExitError("", 1)
}
