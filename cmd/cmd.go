// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

const envPassword = "MTX_PASSWORD"

func setupCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and local database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the latest migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles account and session management
func authCommand(r *Runner) *cli.Command {
	credentials := func(confirm bool) []cli.Flag {
		flags := []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Account name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Account password",
				Sources:  cli.EnvVars(envPassword),
				Required: true,
			},
		}
		if confirm {
			flags = append(flags, &cli.StringFlag{
				Name:  "confirm",
				Usage: "Password confirmation (defaults to --password)",
			})
		}
		return flags
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in to the tracker backend",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in and remember the session",
				Flags:  credentials(false),
				Action: r.AuthLogin,
			},
			{
				Name:   "register",
				Usage:  "Create an account and sign in",
				Flags:  credentials(true),
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "End the session",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the signed in user",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// browseCommand pages through catalog listings
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Show trending, popular or top rated titles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "category",
				Aliases: []string{"c"},
				Usage:   "trending, popular or toprated",
				Value:   "trending",
			},
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "movie or tv",
				Value:   "movie",
			},
			&cli.StringFlag{
				Name:    "window",
				Aliases: []string{"w"},
				Usage:   "Trending window: day or week",
				Value:   "week",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page number",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Browse,
	}
}

// searchCommand searches the catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search movies and TV shows",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "all, movies or tv",
				Value:   "all",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page number",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// listsCommand manages the watchlist, favourites and watched lists
func listsCommand(r *Runner) *cli.Command {
	listArg := []cli.Argument{
		&cli.StringArg{
			Name:      "list",
			UsageText: "watchlist, favourites or watched",
		},
	}
	mutationFlags := []cli.Flag{
		&cli.IntFlag{
			Name:     "id",
			Usage:    "TMDB id",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "kind",
			Aliases: []string{"k"},
			Usage:   "movie or tv",
			Value:   "movie",
		},
	}

	return &cli.Command{
		Name:  "lists",
		Usage: "Show and edit your lists",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print a list",
				Arguments: listArg,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "all, movies or tv",
						Value:   "all",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "table, json, csv, markdown or txt",
						Value: "table",
					},
				},
				Action: r.ListsShow,
			},
			{
				Name:      "add",
				Usage:     "Add a catalog title to a list",
				Arguments: listArg,
				Flags:     mutationFlags,
				Action:    r.ListsAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a title from a list",
				Arguments: listArg,
				Flags:     mutationFlags,
				Action:    r.ListsRemove,
			},
			{
				Name:  "export",
				Usage: "Write every list to disk",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "json, csv, markdown, txt or table",
						Value: "json",
					},
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: mtx_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent file writers",
						Value: 3,
					},
					&cli.StringSliceFlag{
						Name:  "list",
						Usage: "Only export these lists (repeatable)",
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only export movie or tv",
					},
				},
				Action: r.ListsExport,
			},
		},
	}
}

// mirrorCommand works with the backend's copy of the catalog
func mirrorCommand(r *Runner) *cli.Command {
	kindFlag := &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "movie or tv",
		Value:   "movie",
	}
	return &cli.Command{
		Name:  "mirror",
		Usage: "Search or extend the backend's catalog copy",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Find mirrored titles",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "title",
					},
				},
				Flags: []cli.Flag{
					kindFlag,
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.MirrorSearch,
			},
			{
				Name:  "add",
				Usage: "Copy a catalog title into the mirror",
				Flags: []cli.Flag{
					kindFlag,
					&cli.IntFlag{
						Name:     "id",
						Usage:    "TMDB id",
						Required: true,
					},
				},
				Action: r.MirrorAdd,
			},
		},
	}
}

// apiCommand sends raw requests to the backend with the stored session
func apiCommand(r *Runner) *cli.Command {
	pathArg := []cli.Argument{
		&cli.StringArg{
			Name:      "path",
			UsageText: "e.g. /api/user/me",
		},
	}
	return &cli.Command{
		Name:  "api",
		Usage: "Raw backend requests",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a backend path and print the body",
				Arguments: pathArg,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Compact JSON instead of indented",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST a JSON body to a backend path",
				Arguments: pathArg,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Print the signed in identity and every list",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "save",
						Usage: "Also write the dump to this file",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// historyCommand shows the local record of list changes
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded list changes",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of records",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "Only this user's changes",
			},
			&cli.StringFlag{
				Name:  "list",
				Usage: "Only changes to this list",
			},
			&cli.BoolFlag{
				Name:  "failed",
				Usage: "Only failed changes",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:  "prune",
				Usage: "Delete old records",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age cutoff, e.g. 720h",
						Value: 30 * 24 * time.Hour,
					},
				},
				Action: r.HistoryPrune,
			},
		},
	}
}

// tuiCommand launches the interactive interface
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive terminal interface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "start",
				Usage: "Initial view: /, /search, /watchlist, /favourites, /watched or /login",
				Value: "/",
			},
		},
		Action: r.TUI,
	}
}
