package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/shaiso/dagrun/internal/domain"
)

// maxOutputWidth — предел ширины колонки OUTPUT в табличном режиме.
const maxOutputWidth = 80

// Output форматирует вывод команд: таблицы или JSON в w,
// сообщения о ходе выполнения в errW.
type Output struct {
	jsonMode bool
	w        io.Writer
	errW     io.Writer
}

// NewOutput создаёт Output поверх переданных потоков.
func NewOutput(jsonMode bool, w, errW io.Writer) *Output {
	return &Output{jsonMode: jsonMode, w: w, errW: errW}
}

// Print выводит строки таблицы или jsonData целиком.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) error {
	if o.jsonMode {
		return o.JSON(jsonData)
	}
	return o.Table(headers, rows)
}

// Table выводит выровненную таблицу с заголовком.
func (o *Output) Table(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

// JSON выводит v с отступами.
func (o *Output) JSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// Success пишет сообщение в errW.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error пишет сообщение об ошибке в errW.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

// Status выводит статус workflow и его узлов.
// Узлы сортируются: сначала FAILED, затем RUNNING, PENDING, COMPLETED.
func (o *Output) Status(status *domain.ExecutionStatus) error {
	o.Success(fmt.Sprintf("Workflow %s: %s", status.ExecutionID, status.Status))

	nodes := make([]string, 0, len(status.NodeStatuses))
	for id := range status.NodeStatuses {
		nodes = append(nodes, id)
	}
	sort.Slice(nodes, func(i, j int) bool {
		ri := statusRank(status.NodeStatuses[nodes[i]])
		rj := statusRank(status.NodeStatuses[nodes[j]])
		if ri != rj {
			return ri < rj
		}
		return nodes[i] < nodes[j]
	})

	rows := make([][]string, len(nodes))
	for i, id := range nodes {
		rows[i] = []string{id, string(status.NodeStatuses[id])}
	}

	return o.Print([]string{"NODE", "STATUS"}, rows, status)
}

// Results выводит выходы завершённых узлов и ошибку workflow.
func (o *Output) Results(results *domain.ExecutionResults) error {
	if results.Error != "" {
		o.Error(results.Error)
	}

	nodes := make([]string, 0, len(results.Results))
	for id := range results.Results {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	rows := make([][]string, len(nodes))
	for i, id := range nodes {
		data, err := json.Marshal(results.Results[id])
		if err != nil {
			return fmt.Errorf("encode output of %s: %w", id, err)
		}
		rows[i] = []string{id, truncate(string(data), maxOutputWidth)}
	}

	return o.Print([]string{"NODE", "OUTPUT"}, rows, results)
}

func statusRank(s domain.NodeStatus) int {
	switch s {
	case domain.NodeStatusFailed:
		return 0
	case domain.NodeStatusRunning:
		return 1
	case domain.NodeStatusPending:
		return 2
	default:
		return 3
	}
}

// truncate обрезает s до n рун, добавляя "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
