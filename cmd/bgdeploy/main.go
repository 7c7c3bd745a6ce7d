package main

import (
	"errors"
	"fmt"
	"os"

	fluxerr "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/errors"
)

func main() {
	rootCmd := newRoot().Command()
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		var (
			usage usageError
			help  *fluxerr.Error
		)
		switch {
		case errors.As(err, &usage):
			fmt.Fprintln(os.Stderr, "Error:", err)
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, cmd.UsageString())
		case errors.As(err, &help):
			fmt.Fprintln(os.Stderr, "Error:", err)
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprint(os.Stderr, help.Help)
		default:
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
