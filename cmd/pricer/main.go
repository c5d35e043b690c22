// Command pricer values European and American options from the command line.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cobra.CheckErr(newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx))
}
