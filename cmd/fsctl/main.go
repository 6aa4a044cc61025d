// fsctl is a thin CLI over the filesched HTTP API.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bytedance/sonic"
)

type client struct {
	base  string
	token string
	http  *http.Client
}

func main() {
	var (
		server = flag.String("server", "http://127.0.0.1:8080", "filesched API base URL")
		token  = flag.String("token", os.Getenv("FILESCHED_API_TOKEN"), "API bearer token")
	)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	c := &client{
		base:  *server,
		token: *token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}

	var err error
	switch args[0] {
	case "schedule":
		err = cmdSchedule(c, args[1:])
	case "remove":
		err = cmdRemove(c, args[1:])
	case "list":
		err = cmdList(c)
	case "logs":
		err = cmdLogs(c, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: fsctl [-server URL] [-token T] <command> [flags]

Commands:
  schedule  -interval N -unit U -dir D -type T [type flags]   schedule a new task
  remove    <task_name>                                       remove a scheduled task
  list                                                        list scheduled tasks
  logs      [-limit N]                                        show execution history
`)
}

type schedulePayload struct {
	Interval          int    `json:"interval"`
	Unit              string `json:"unit"`
	Directory         string `json:"directory"`
	TaskType          string `json:"task_type"`
	CompressionFormat string `json:"compression_format,omitempty"`
	InputFormat       string `json:"input_format,omitempty"`
	OutputFormat      string `json:"output_format,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}

type taskListBody struct {
	Message string   `json:"message"`
	Tasks   []string `json:"tasks"`
}

type logEntry struct {
	TaskName  string    `json:"task_name"`
	Directory string    `json:"directory,omitempty"`
	Output    string    `json:"output,omitempty"`
	Status    string    `json:"status"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

func cmdSchedule(c *client, args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	var (
		interval  = fs.Int("interval", 0, "task interval (positive integer)")
		unit      = fs.String("unit", "", "interval unit: seconds|minutes|hours|days")
		dir       = fs.String("dir", "", "directory to operate on")
		taskType  = fs.String("type", "", "task type: compression|conversion|other")
		compFmt   = fs.String("compression-format", "", "compression format: zip|tar")
		inputFmt  = fs.String("input-format", "", "input file extension (e.g. txt)")
		outputFmt = fs.String("output-format", "", "output file extension (e.g. csv)")
	)
	_ = fs.Parse(args)

	payload := schedulePayload{
		Interval:          *interval,
		Unit:              *unit,
		Directory:         *dir,
		TaskType:          *taskType,
		CompressionFormat: *compFmt,
		InputFormat:       *inputFmt,
		OutputFormat:      *outputFmt,
	}

	var out messageBody
	if err := c.do(http.MethodPost, "/tasks", payload, &out); err != nil {
		return err
	}
	fmt.Println(out.Message)
	return nil
}

func cmdRemove(c *client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: fsctl remove <task_name>")
	}
	var out messageBody
	if err := c.do(http.MethodDelete, "/tasks/"+args[0], nil, &out); err != nil {
		return err
	}
	fmt.Println(out.Message)
	return nil
}

func cmdList(c *client) error {
	var out taskListBody
	if err := c.do(http.MethodGet, "/tasks", nil, &out); err != nil {
		return err
	}
	if len(out.Tasks) == 0 {
		fmt.Println(out.Message)
		return nil
	}
	fmt.Println("Scheduled Tasks:")
	for _, t := range out.Tasks {
		fmt.Println(" -", t)
	}
	return nil
}

func cmdLogs(c *client, args []string) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	limit := fs.Int("limit", 0, "max records to fetch (0 = server default)")
	_ = fs.Parse(args)

	path := "/logs"
	if *limit > 0 {
		path = fmt.Sprintf("/logs?limit=%d", *limit)
	}
	var logs []logEntry
	if err := c.do(http.MethodGet, path, nil, &logs); err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Println("No logs found.")
		return nil
	}
	for _, l := range logs {
		fmt.Printf("[%s] %s: %s - Task: %s, Dir: %s, Output: %s\n",
			l.Timestamp.Format(time.RFC3339), l.Level, l.Status,
			orNA(l.TaskName), orNA(l.Directory), orNA(l.Output))
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func (c *client) do(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := sonic.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var msg messageBody
		if sonic.Unmarshal(raw, &msg) == nil && msg.Message != "" {
			return fmt.Errorf("%s (%s)", msg.Message, resp.Status)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return sonic.Unmarshal(raw, out)
}
