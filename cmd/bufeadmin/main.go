package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/bufeadmin/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional, defaults to ~/.config/bufeadmin/config.toml)")
	prefsPath := flag.String("prefs", "", "override preferences path (optional)")
	screen := flag.String("screen", "orders", "initial screen: orders, menu, hours or log")
	headless := flag.Bool("headless", false, "mirror orders and log changes without the terminal UI")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Screen:     *screen,
		Headless:   *headless,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "bufeadmin: %v\n", err)
		return 1
	}
	return 0
}
