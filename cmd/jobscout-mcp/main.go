package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// apiError mirrors the error detail of every jobscout API response.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// uploadResponse mirrors the jobscout upload response.
type uploadResponse struct {
	Success            bool      `json:"success"`
	JobID              string    `json:"job_id"`
	URL                string    `json:"url"`
	Title              string    `json:"title"`
	Company            string    `json:"company"`
	DescriptionPreview string    `json:"description_preview"`
	PostDate           string    `json:"post_date"`
	DuplicateOf        string    `json:"duplicate_of"`
	Attempts           int       `json:"attempts"`
	CacheStatus        string    `json:"cache_status"`
	Error              *apiError `json:"error"`
}

// jobResponse mirrors a stored posting.
type jobResponse struct {
	JobID       string            `json:"job_id"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Company     string            `json:"company"`
	Location    string            `json:"location"`
	Description string            `json:"description"`
	Markdown    string            `json:"description_markdown"`
	PostDate    string            `json:"post_date"`
	Attributes  map[string]string `json:"attributes"`
	DuplicateOf string            `json:"duplicate_of"`
	Error       *apiError         `json:"error"`
}

type jobSummary struct {
	JobID    string `json:"job_id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	URL      string `json:"url"`
	PostDate string `json:"post_date"`
}

type listResponse struct {
	Jobs  []jobSummary `json:"jobs"`
	Total int          `json:"total"`
	Error *apiError    `json:"error"`
}

type searchResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Job   jobSummary `json:"job"`
		Score float64    `json:"score"`
	} `json:"results"`
	Total int       `json:"total"`
	Error *apiError `json:"error"`
}

func main() {
	apiURL := os.Getenv("JOBSCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}
	apiURL = strings.TrimRight(apiURL, "/")
	// Empty is fine against a server running with open access.
	apiKey := os.Getenv("JOBSCOUT_API_KEY")

	s := server.NewMCPServer(
		"jobscout",
		"0.3.0",
		server.WithToolCapabilities(false),
	)

	scrapeJobTool := mcp.NewTool("scrape_job",
		mcp.WithDescription("Scrape a LinkedIn job posting with a headless browser and store it. Returns the title, company and a description preview. Scrapes are paced and retried, so a call can take up to a minute."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("LinkedIn job posting URL, e.g. https://www.linkedin.com/jobs/view/4107690676/"),
		),
	)
	s.AddTool(scrapeJobTool, handleScrapeJob(apiURL, apiKey))

	getJobTool := mcp.NewTool("get_job",
		mcp.WithDescription("Return a stored job posting with its full description."),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Stored job id, e.g. linkedin_4107690676"),
		),
	)
	s.AddTool(getJobTool, handleGetJob(apiURL, apiKey))

	listJobsTool := mcp.NewTool("list_jobs",
		mcp.WithDescription("List every stored job posting, most recently scraped first."),
	)
	s.AddTool(listJobsTool, handleListJobs(apiURL, apiKey))

	searchJobsTool := mcp.NewTool("search_jobs",
		mcp.WithDescription("Search stored job postings by keywords matched against title, company and description."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Keywords to search for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 5, max: 20)"),
		),
	)
	s.AddTool(searchJobsTool, handleSearchJobs(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a request to the jobscout API and returns the response body.
// payload is JSON-encoded when non-nil.
func apiDo(ctx context.Context, client *http.Client, method, apiURL, apiKey, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func errorText(e *apiError, fallback string) string {
	if e == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func handleScrapeJob(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/jobs/upload", map[string]string{"url": url})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}

		var up uploadResponse
		if err := json.Unmarshal(respBody, &up); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !up.Success {
			return mcp.NewToolResultError(errorText(up.Error, "scrape failed")), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Job ID: %s\nTitle: %s\nCompany: %s\n", up.JobID, up.Title, up.Company)
		if up.PostDate != "" {
			fmt.Fprintf(&sb, "Posted: %s\n", up.PostDate)
		}
		if up.DuplicateOf != "" {
			fmt.Fprintf(&sb, "Duplicate of: %s\n", up.DuplicateOf)
		}
		fmt.Fprintf(&sb, "Source: %s\n\n%s\n", up.URL, up.DescriptionPreview)
		if up.CacheStatus == "hit" {
			sb.WriteString("\n---\nServed from cache")
		} else {
			fmt.Fprintf(&sb, "\n---\nScraped in %d attempt(s)", up.Attempts)
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleGetJob(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("job_id")
		if err != nil {
			return mcp.NewToolResultError("job_id is required"), nil
		}

		respBody, err := apiDo(ctx, client, http.MethodGet, apiURL, apiKey, "/api/v1/jobs/"+neturl.PathEscape(id), nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get request failed: %v", err)), nil
		}

		var job jobResponse
		if err := json.Unmarshal(respBody, &job); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if job.Error != nil {
			return mcp.NewToolResultError(errorText(job.Error, "")), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Title: %s\nCompany: %s\n", job.Title, job.Company)
		if job.Location != "" {
			fmt.Fprintf(&sb, "Location: %s\n", job.Location)
		}
		if job.PostDate != "" {
			fmt.Fprintf(&sb, "Posted: %s\n", job.PostDate)
		}
		for k, v := range job.Attributes {
			fmt.Fprintf(&sb, "%s: %s\n", k, v)
		}
		fmt.Fprintf(&sb, "Source: %s\n\n", job.URL)
		if job.Markdown != "" {
			sb.WriteString(job.Markdown)
		} else {
			sb.WriteString(job.Description)
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleListJobs(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		respBody, err := apiDo(ctx, client, http.MethodGet, apiURL, apiKey, "/api/v1/jobs", nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list request failed: %v", err)), nil
		}

		var list listResponse
		if err := json.Unmarshal(respBody, &list); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if list.Error != nil {
			return mcp.NewToolResultError(errorText(list.Error, "")), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%d stored job(s):\n\n", list.Total)
		for _, j := range list.Jobs {
			fmt.Fprintf(&sb, "- %s: %s at %s\n", j.JobID, j.Title, j.Company)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleSearchJobs(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		payload := map[string]any{"query": query}
		if limit, ok := request.GetArguments()["limit"]; ok {
			payload["limit"] = limit
		}

		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/jobs/search", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search request failed: %v", err)), nil
		}

		var res searchResponse
		if err := json.Unmarshal(respBody, &res); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if res.Error != nil {
			return mcp.NewToolResultError(errorText(res.Error, "")), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%d result(s) for %q:\n\n", res.Total, res.Query)
		for _, hit := range res.Results {
			fmt.Fprintf(&sb, "- [%.2f] %s: %s at %s\n", hit.Score, hit.Job.JobID, hit.Job.Title, hit.Job.Company)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
