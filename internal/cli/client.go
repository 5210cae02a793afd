package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shaiso/dagrun/internal/domain"
)

// --- Response types ---

// SubmitResponse — ответ на регистрацию workflow.
type SubmitResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

// TriggerResponse — ответ на запуск execution.
type TriggerResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

// --- Request types ---

// TriggerRequest — запуск execution.
type TriggerRequest struct {
	Params map[string]any `json:"params"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для dagrun API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Workflows ---

// SubmitWorkflow регистрирует определение и возвращает execution.
func (c *Client) SubmitWorkflow(def *domain.WorkflowDefinition) (*SubmitResponse, error) {
	var resp SubmitResponse
	err := c.post("/api/v1/workflows", def, &resp)
	return &resp, err
}

// TriggerWorkflow запускает execution с параметрами.
func (c *Client) TriggerWorkflow(id string, params map[string]any) (*TriggerResponse, error) {
	if params == nil {
		params = map[string]any{}
	}
	var resp TriggerResponse
	err := c.post("/api/v1/workflows/"+url.PathEscape(id)+"/trigger", TriggerRequest{Params: params}, &resp)
	return &resp, err
}

// GetStatus возвращает статус workflow и узлов.
func (c *Client) GetStatus(id string) (*domain.ExecutionStatus, error) {
	var status domain.ExecutionStatus
	err := c.get("/api/v1/workflows/"+url.PathEscape(id), &status)
	return &status, err
}

// GetResults возвращает выходы узлов.
func (c *Client) GetResults(id string) (*domain.ExecutionResults, error) {
	var results domain.ExecutionResults
	err := c.get("/api/v1/workflows/"+url.PathEscape(id)+"/results", &results)
	return &results, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
