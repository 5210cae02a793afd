package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/dagrun/internal/domain"
	"github.com/shaiso/dagrun/internal/engine"
)

// ErrWorkflowFailed — ожидаемый workflow завершился с ошибкой.
var ErrWorkflowFailed = errors.New("workflow failed")

// NewWorkflowCmd создаёт группу команд для управления workflow.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflow",
		Aliases: []string{"wf"},
		Short:   "Submit and inspect workflow executions",
	}

	cmd.AddCommand(
		newWorkflowSubmitCmd(clientFn, outputFn),
		newWorkflowTriggerCmd(clientFn, outputFn),
		newWorkflowStatusCmd(clientFn, outputFn),
		newWorkflowResultsCmd(clientFn, outputFn),
		newWorkflowWaitCmd(clientFn, outputFn),
		newWorkflowValidateCmd(outputFn),
	)

	return cmd
}

func newWorkflowSubmitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "submit -f FILE",
		Short: "Submit a workflow definition (JSON or YAML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			def, err := readDefinition(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			resp, err := clientFn().SubmitWorkflow(def)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow submitted: %s", resp.ExecutionID))
			return out.Print(
				[]string{"EXECUTION_ID", "STATUS"},
				[][]string{{resp.ExecutionID, resp.Status}},
				resp,
			)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Definition file, - for stdin")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newWorkflowTriggerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var params []string
	var paramsJSON string

	cmd := &cobra.Command{
		Use:   "trigger EXECUTION_ID",
		Short: "Start an execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			p, err := parseParams(params, paramsJSON)
			if err != nil {
				return err
			}

			resp, err := clientFn().TriggerWorkflow(args[0], p)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow triggered: %s", resp.ExecutionID))
			if out.jsonMode {
				return out.JSON(resp)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&params, "param", nil, "Parameter as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&paramsJSON, "params-json", "", "Parameters as a JSON object")

	return cmd
}

func newWorkflowStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status EXECUTION_ID",
		Short: "Show workflow and node statuses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := clientFn().GetStatus(args[0])
			if err != nil {
				return err
			}

			return outputFn().Status(status)
		},
	}
}

func newWorkflowResultsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "results EXECUTION_ID",
		Short: "Show node outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := clientFn().GetResults(args[0])
			if err != nil {
				return err
			}

			return outputFn().Results(results)
		},
	}
}

func newWorkflowWaitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var interval time.Duration
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait EXECUTION_ID",
		Short: "Poll until the workflow reaches COMPLETED or FAILED",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			status, err := waitTerminal(client, args[0], interval, timeout)
			if err != nil {
				return err
			}

			if err := out.Status(status); err != nil {
				return err
			}

			if status.Status == domain.WorkflowStatusFailed {
				results, err := client.GetResults(args[0])
				if err != nil {
					return err
				}
				return fmt.Errorf("%w: %s", ErrWorkflowFailed, results.Error)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Polling interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Give up after this long")

	return cmd
}

func newWorkflowValidateCmd(outputFn func() *Output) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate -f FILE",
		Short: "Validate a definition locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			def, err := readDefinition(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			graph, err := engine.ValidateWorkflow(def)
			if err != nil {
				return err
			}

			order := graph.TopologicalOrder()
			out.Success(fmt.Sprintf("Definition is valid: %d nodes", graph.Size()))
			return out.Print(
				[]string{"NAME", "NODES", "ROOTS", "ORDER"},
				[][]string{{
					def.Name,
					fmt.Sprint(graph.Size()),
					strings.Join(graph.Roots(), ","),
					strings.Join(order, ","),
				}},
				map[string]any{"name": def.Name, "roots": graph.Roots(), "order": order},
			)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Definition file, - for stdin")
	cmd.MarkFlagRequired("file")

	return cmd
}

// waitTerminal опрашивает статус, пока workflow не завершится.
func waitTerminal(client *Client, id string, interval, timeout time.Duration) (*domain.ExecutionStatus, error) {
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		status, err := client.GetStatus(id)
		if err != nil {
			return nil, err
		}
		if status.Status.IsTerminal() {
			return status, nil
		}
		if timeout > 0 && time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out after %s, workflow is %s", timeout, status.Status)
		}
		time.Sleep(interval)
	}
}

// readDefinition читает определение из файла или stdin ("-").
func readDefinition(file string, stdin io.Reader) (*domain.WorkflowDefinition, error) {
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}

	return engine.ParseDefinition(data)
}

// parseParams собирает params из --params-json и --param KEY=VALUE.
//
// Значение --param разбирается как JSON, если это возможно
// (числа, true/false, объекты), иначе остаётся строкой.
func parseParams(pairs []string, rawJSON string) (map[string]any, error) {
	params := make(map[string]any)

	if rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), &params); err != nil {
			return nil, fmt.Errorf("invalid --params-json: %w", err)
		}
	}

	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param format %q, expected KEY=VALUE", kv)
		}

		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			params[key] = parsed
		} else {
			params[key] = value
		}
	}

	return params, nil
}
