package judge0

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"proctorx_backend/internals/configs"
)

// Well-known Judge0 CE language ids.
var LanguageIDs = map[string]int{
	"javascript": 63,
	"python":     71,
	"java":       62,
	"cpp":        54,
	"c":          50,
	"csharp":     51,
	"go":         60,
	"rust":       73,
	"typescript": 74,
}

// Status ids 1 (In Queue) and 2 (Processing) are still running.
const lastPendingStatus = 2

type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type Request struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin,omitempty"`
}

type Result struct {
	Stdout        string  `json:"stdout"`
	Stderr        string  `json:"stderr"`
	CompileOutput string  `json:"compile_output"`
	Message       string  `json:"message,omitempty"`
	Status        *Status `json:"status,omitempty"`
	Time          string  `json:"time,omitempty"`
	Memory        int     `json:"memory,omitempty"`
}

// ErrorOutput is stderr, or the compiler output when stderr is empty.
func (r *Result) ErrorOutput() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.CompileOutput
}

func (r *Result) StatusDescription() string {
	if r.Status == nil {
		return ""
	}
	return r.Status.Description
}

type Language struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Client struct {
	BaseURL      string
	APIKey       string
	Host         string
	PollInterval time.Duration
	MaxPolls     int
	HTTPClient   *http.Client
}

func NewClientFromEnv() *Client {
	c := &Client{
		BaseURL:      strings.TrimRight(configs.GetEnv("JUDGE0_URL", "https://judge0-ce.p.rapidapi.com"), "/"),
		APIKey:       configs.GetEnv("JUDGE0_API_KEY"),
		Host:         configs.GetEnv("JUDGE0_HOST", "judge0-ce.p.rapidapi.com"),
		PollInterval: time.Duration(configs.GetEnvInt("JUDGE0_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		MaxPolls:     configs.GetEnvInt("JUDGE0_MAX_POLLS", 20),
		HTTPClient:   &http.Client{Timeout: 15 * time.Second},
	}
	if c.APIKey == "" {
		log.Println("[WARN] JUDGE0_API_KEY not set, requests go unauthenticated")
	}
	return c
}

// RunBudget is the longest one Execute call can take: the submit request
// plus every poll.
func (c *Client) RunBudget() time.Duration {
	d := time.Duration(c.MaxPolls+1) * c.PollInterval
	if c.HTTPClient != nil {
		d += c.HTTPClient.Timeout
	}
	return d
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.APIKey)
	}
	if c.Host != "" {
		req.Header.Set("X-RapidAPI-Host", c.Host)
	}
}

func (c *Client) do(req *http.Request, out any) error {
	c.setHeaders(req)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return newStatusError(resp.StatusCode, string(body))
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Execute submits source code and polls until the run leaves the queue.
func (c *Client) Execute(ctx context.Context, in Request) (*Result, error) {
	payload := Request{
		SourceCode: base64.StdEncoding.EncodeToString([]byte(in.SourceCode)),
		LanguageID: in.LanguageID,
	}
	if in.Stdin != "" {
		payload.Stdin = base64.StdEncoding.EncodeToString([]byte(in.Stdin))
	}
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/submissions?base64_encoded=true&wait=false", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	var created struct {
		Token string `json:"token"`
	}
	if err := c.do(req, &created); err != nil {
		return nil, err
	}
	if created.Token == "" {
		return nil, &ClientError{Message: "submission returned no token"}
	}

	maxPolls := c.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 20
	}

	var result Result
	for i := 0; i < maxPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, &ClientError{Type: ErrorTypeTimeout, Message: ctx.Err().Error()}
		case <-time.After(c.PollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.BaseURL+"/submissions/"+created.Token+"?base64_encoded=true", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		result = Result{}
		if err := c.do(req, &result); err != nil {
			return nil, err
		}
		if result.Status == nil || result.Status.ID > lastPendingStatus {
			break
		}
	}

	result.Stdout = decodeField(result.Stdout)
	result.Stderr = decodeField(result.Stderr)
	result.CompileOutput = decodeField(result.CompileOutput)
	result.Message = decodeField(result.Message)
	return &result, nil
}

// Languages lists the execution API's languages; failures yield an empty list.
func (c *Client) Languages(ctx context.Context) []Language {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/languages", nil)
	if err != nil {
		return []Language{}
	}
	var langs []Language
	if err := c.do(req, &langs); err != nil {
		log.Printf("[WARN] judge0 languages: %v", err)
		return []Language{}
	}
	return langs
}

func decodeField(s string) string {
	if s == "" {
		return s
	}
	clean := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
	out, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return s
	}
	return string(out)
}
