// revrank 对商品表执行级联模型下的收益最大化排序。
//
//	revrank rank --input products.csv --attention uniform:1:4 --capacity 10
//	revrank rank --input shop.db --table products --group-by query
//	revrank revenue --input ranked.csv --attention geometric:0.3
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "revrank",
		Short: "Revenue-maximizing product ranking under the cascade model",
		Long: `revrank ranks products to maximize expected revenue when customers scan
the list top-down, may buy each product with a known probability, and stop
after a random number of positions (the attention span).`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "YAML config file (env REVRANK_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: json or console")

	rootCmd.AddCommand(
		newRankCmd(),
		newRevenueCmd(),
		newPipelineCmd(),
		newVersionCmd(),
	)
	return rootCmd
}
