// dagrun CLI — инструмент командной строки для регистрации,
// запуска и просмотра workflow через HTTP API.
//
// Использование:
//
//	dagrun [--api-url URL] [--json] workflow <subcommand> [flags]
//
// Команды:
//
//	workflow submit    Зарегистрировать определение (JSON или YAML)
//	workflow trigger   Запустить execution
//	workflow status    Статус workflow и узлов
//	workflow results   Выходы узлов
//	workflow wait      Дождаться завершения
//	workflow validate  Проверить определение локально
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/dagrun/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "dagrun",
		Short:         "dagrun CLI — distributed DAG workflow runner",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := "http://localhost:8080"
	if v := os.Getenv("DAGRUN_API_URL"); v != "" {
		defaultURL = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput, os.Stdout, os.Stderr) }

	rootCmd.AddCommand(
		cli.NewWorkflowCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
