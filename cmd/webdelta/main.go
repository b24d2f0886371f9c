package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"webdelta/internal/app"
)

func main() {
	var (
		cfgPath string
		once    bool
		all     bool
	)
	flag.StringVar(&cfgPath, "config", "./webdelta.yaml", "path to config (yaml or json)")
	flag.BoolVar(&once, "once", false, "run a single pass and exit")
	flag.BoolVar(&all, "all", false, "emit every result, not only changes")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	if once {
		if err := a.RunOnce(ctx, all); err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		return
	}

	if err := a.Run(ctx, all); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}
