package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. The root command itself runs a
// crawl; init and version are subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mailcrawl <seed-url>",
		Short: "Crawl a site and collect email addresses",
		Long: `mailcrawl crawls every page of one site, starting from the seed URL, and
prints each email-like string it finds together with the page it was on.

The crawl never leaves the seed's origin (scheme, host and port). Besides
ordinary links it activates client-side route triggers (by default
elements whose ng-click calls changeRoute), so single-page applications
are covered too. Use --renderer browser to execute them in headless
Chrome instead of resolving them from the markup.

Examples:
  # Crawl a site with the default settings
  mailcrawl http://example.com/

  # Drive headless Chrome, log every link decision
  mailcrawl --renderer browser -t https://example.com/app/

  # Four workers, depth limit 10, JSON report to a file
  mailcrawl -j 4 -d 10 --format json -o out/report.json http://example.com/`,
		Version:       getVersion(),
		Args:          cobra.ExactArgs(1),
		RunE:          runCrawlCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addCrawlFlags(cmd)

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mailcrawl:", err)
		return 1
	}
	return 0
}
