// Command rcsend produces control events from the terminal or from a Lua
// script and sends them to a remotecontrol server over its /ws endpoint.
//
//	rcsend [flags] console
//	rcsend [flags] script FILE
//	rcsend [flags] -e 'tap("Enter")' script
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/pion/logging"

	"remotecontrol/internal/console"
	rclog "remotecontrol/internal/logging"
	"remotecontrol/internal/navigation"
	"remotecontrol/internal/platform"
	"remotecontrol/internal/script"
)

var (
	flagURL      = flag.String("url", "ws://127.0.0.1:8080/ws", "WebSocket endpoint of the server")
	flagToken    = flag.String("token", os.Getenv("RC_TOKEN"), "Bearer token (default $RC_TOKEN)")
	flagInsecure = flag.Bool("insecure", false, "Skip TLS verification (self-signed servers)")
	flagDryRun   = flag.Bool("dry-run", false, "Print events as JSON lines instead of sending them")
	flagScaleX   = flag.Float64("scale-x", 8, "Pointer units per terminal column")
	flagScaleY   = flag.Float64("scale-y", 16, "Pointer units per terminal row")
	flagExpr     = flag.String("e", "", "Lua source to run instead of a script file")
	flagLogLevel = flag.String("log-level", "warn", "Log level: error, warn, info, debug, trace")
)

type sender interface {
	Send(s *navigation.Structure) error
	Close() error
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] console | script [FILE]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	level, err := rclog.ParseLevel(*flagLogLevel)
	if err != nil {
		log.Fatal(err)
	}
	lf := rclog.NewFactory(level, os.Stderr)

	var out sender
	if *flagDryRun {
		out = &printSender{w: os.Stdout}
	} else {
		ws, err := dial(*flagURL, *flagToken, *flagInsecure)
		if err != nil {
			log.Fatal(err)
		}
		out = ws
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch flag.Arg(0) {
	case "console":
		err = runConsole(ctx, out, lf.NewLogger("console"))
	case "script":
		err = runScript(ctx, out, lf.NewLogger(rclog.ScopeScript))
	default:
		usage()
		os.Exit(2)
	}
	if err != nil && ctx.Err() == nil {
		out.Close()
		log.Fatal(err)
	}
}

func runConsole(ctx context.Context, out sender, logger logging.LeveledLogger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	platform.SaveTermState()
	defer platform.RestoreTermState()

	c := console.New(screen, out.Send, logger)
	c.ScaleX, c.ScaleY = *flagScaleX, *flagScaleY
	return c.Run(ctx)
}

func runScript(ctx context.Context, out sender, logger logging.LeveledLogger) error {
	r := script.New(ctx, out.Send, logger)
	defer r.Close()

	if *flagExpr != "" {
		return r.RunString(*flagExpr)
	}
	if flag.NArg() < 2 {
		return fmt.Errorf("script: need a FILE or -e")
	}
	return r.RunFile(flag.Arg(1))
}
