package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "gatingctl",
		Short:         "Manage human-in-the-loop approval requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("state-dir", "", "override the state directory")
	root.PersistentFlags().String("chat", "", "acting chat id")
	root.PersistentFlags().String("user", "", "acting user id")
	root.PersistentFlags().String("username", "", "acting username")
	root.PersistentFlags().Bool("trace", false, "emit spans to stdout")
	_ = viper.BindPFlags(root.PersistentFlags())
	viper.SetEnvPrefix("GATING")
	viper.AutomaticEnv()

	root.AddCommand(newRequestCommand())
	root.AddCommand(newCallbackCommand())
	root.AddCommand(newListCommand())
	root.AddCommand(newExpireCommand())
	return root
}
