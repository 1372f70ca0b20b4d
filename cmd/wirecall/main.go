package main

import (
	"fmt"
	"os"

	"github.com/danmuck/wirecall/internal/observability"
	"github.com/urfave/cli"
)

func main() {
	observability.InitLogger("wirecall")

	app := cli.NewApp()
	app.Name = "wirecall"
	app.Usage = "Call functions on a peer over a line-oriented text protocol"
	app.Version = "0.1.0"
	app.ErrWriter = os.Stderr
	app.Commands = []cli.Command{
		cli.Command{
			Name:   "serve",
			Usage:  "Serve the demo registry over stdio or TCP",
			Action: serveCommand,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "config, c",
					Usage: "server config file (toml)",
				},
				cli.StringFlag{
					Name:  "transport",
					Usage: "override transport: stdio or tcp",
				},
				cli.StringFlag{
					Name:  "addr",
					Usage: "override tcp listen address",
				},
				cli.StringFlag{
					Name:  "admin-addr",
					Usage: "override admin http address; empty disables it",
				},
			},
		},
		cli.Command{
			Name:   "demo",
			Usage:  "Run the demonstration call sequence against a peer",
			Action: demoCommand,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "config, c",
					Usage: "client config file (toml)",
				},
				cli.StringFlag{
					Name:  "transport",
					Usage: "override transport: process, tcp, ssh, http, ws or loopback",
				},
				cli.IntFlag{
					Name:  "exit-code",
					Usage: "code passed to the peer's exit function",
					Value: -1,
				},
			},
		},
		cli.Command{
			Name:   "stress",
			Usage:  "Drive concurrent add calls through a connection pool",
			Action: stressCommand,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "config, c",
					Usage: "client config file (toml)",
				},
				cli.StringFlag{
					Name:  "transport",
					Usage: "tcp, ws or loopback",
				},
				cli.StringFlag{
					Name:  "addr",
					Usage: "override tcp peer address",
				},
				cli.StringFlag{
					Name:  "ws-url",
					Usage: "override websocket endpoint",
				},
				cli.IntFlag{
					Name:  "calls",
					Usage: "number of add calls",
					Value: 1000,
				},
				cli.IntFlag{
					Name:  "conns",
					Usage: "maximum pooled connections",
					Value: 4,
				},
				cli.IntFlag{
					Name:  "workers",
					Usage: "concurrent callers; 0 means twice conns",
				},
			},
		},
		cli.Command{
			Name:   "functions",
			Usage:  "Print the registry in wire order",
			Action: functionsCommand,
		},
		cli.Command{
			Name:  "config",
			Usage: "Manage config files",
			Subcommands: []cli.Command{
				cli.Command{
					Name:   "init",
					Usage:  "Write a config template",
					Action: configInitCommand,
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "kind",
							Usage: "server or client",
							Value: "server",
						},
						cli.StringFlag{
							Name:  "out, o",
							Usage: "output path",
							Value: "wirecall.toml",
						},
						cli.BoolFlag{
							Name:  "force",
							Usage: "overwrite an existing file",
						},
					},
				},
				cli.Command{
					Name:   "validate",
					Usage:  "Validate a server or client config",
					Action: configValidateCommand,
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "kind",
							Usage: "server or client",
							Value: "server",
						},
						cli.StringFlag{
							Name:  "config, c",
							Usage: "config path",
							Value: "wirecall.toml",
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "wirecall: %v\n", err)
		os.Exit(1)
	}
}
