// Command poreport builds Policy Optimizer ticket reports from a
// FireMon appliance: CSV for spreadsheets, interactive HTML for
// browsers, optional email delivery of both.
package main

import (
	"fmt"
	"os"

	"github.com/poreport/poreport/pkg/config"
)

func main() {
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(run(cfg))
}
