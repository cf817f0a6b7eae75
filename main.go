// Command tefnut inspects entity column mappings in Go source trees and
// verifies them against live database schemas.
package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stokaro/tefnut/cmd/inspect"
	"github.com/stokaro/tefnut/cmd/verify"
)

var rootCmd = &cobra.Command{
	Use:   "tefnut",
	Short: "Null-aware embeddable mapping inspector and verifier",
	Long: `Tefnut maps Go entity structs with embedded value objects onto flattened
database columns and checks that the NULL contract of those mappings holds:
a nil value object stores NULL in every member column and hydrates back from
an all-NULL column group.

Flags can also be supplied through TEFNUT_* environment variables, e.g.
TEFNUT_DB_URL for --db-url.`,
	SilenceUsage: true,
}

func main() {
	viper.SetEnvPrefix("TEFNUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(inspect.NewInspectCommand())
	rootCmd.AddCommand(verify.NewVerifyCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
