package main

import (
	_ "embed"
	"fmt"
	"os"

	"videoadguard/app/cmd"
	"videoadguard/app/util"
	"videoadguard/app/util/mylog"

	"github.com/spf13/cobra"
	"go.szostok.io/version/extension"
)

func main() {
	mylog.Preinit()

	fmt.Fprintln(os.Stderr, util.Banner)

	rootCmd := &cobra.Command{Use: "videoadguard"} //nolint:exhaustruct
	rootCmd.AddCommand(cmd.Server)
	rootCmd.AddCommand(extension.NewVersionCobraCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
		return
	}
}
