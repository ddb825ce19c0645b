// Postomat CLI — инструмент командной строки для управления
// пользователями, каналами и постами через admin API.
//
// Использование:
//
//	postomat [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	user     Управление пользователями
//	channel  Реестр каналов и сообществ
//	post     Отложенные посты
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Postomat/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "postomat",
		Short:         "Postomat CLI — scheduled post management",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewUserCmd(clientFn, outputFn),
		cli.NewChannelCmd(clientFn, outputFn),
		cli.NewPostCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
