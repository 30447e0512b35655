package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mmynk/tipsplit/internal/cli"
)

func main() {
	cfg, err := cli.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "tipsplit: %v\n", err)
		os.Exit(2)
	}
	if err := cli.Run(cfg, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "tipsplit: %v\n", err)
		os.Exit(1)
	}
}
