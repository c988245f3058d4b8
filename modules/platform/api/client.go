package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client talks to the runlab REST API. It covers the auth endpoint, the
// folder/move calls the reorder engine commits through, and the analysis
// lifecycle operations. All state-changing responses are confirmed by the
// event stream; the client never mutates local stores itself.
type Client struct {
	httpClient *http.Client
	baseURL    string
	session    *Session
}

// NewClient creates a new API client
func NewClient(baseURL string, session *Session, timeout time.Duration, insecureTLS bool) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	transport := http.DefaultTransport
	if insecureTLS {
		transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		session:    session,
	}
}

// Session returns the session this client authenticates with
func (c *Client) Session() *Session {
	return c.session
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login authenticates and stores the issued session token
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("login failed: server returned no token")
	}
	return c.session.Store(resp.Token)
}

// Logout invalidates the session server-side and clears the local token
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.session.Clear()
	return err
}

type createFolderRequest struct {
	Name           string `json:"name"`
	ParentFolderID string `json:"parentFolderId,omitempty"`
}

type createFolderResponse struct {
	ID string `json:"id"`
}

// CreateFolder creates a folder in a team's tree and returns the
// server-assigned id. The reorder engine substitutes this id for the
// temporary one recorded at staging time.
func (c *Client) CreateFolder(ctx context.Context, teamID, name, parentFolderID string) (string, error) {
	var resp createFolderResponse
	path := fmt.Sprintf("/teams/%s/folders", teamID)
	err := c.doJSON(ctx, http.MethodPost, path, createFolderRequest{Name: name, ParentFolderID: parentFolderID}, &resp)
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create folder %q: server returned no id", name)
	}
	return resp.ID, nil
}

type moveItemRequest struct {
	TargetParentID string `json:"targetParentId,omitempty"` // empty = root
	TargetIndex    int    `json:"targetIndex"`
}

// MoveItem relocates a node within a team's tree. An empty targetParentID
// moves the node to the root.
func (c *Client) MoveItem(ctx context.Context, teamID, itemID, targetParentID string, targetIndex int) error {
	path := fmt.Sprintf("/teams/%s/tree/%s/move", teamID, itemID)
	err := c.doJSON(ctx, http.MethodPut, path, moveItemRequest{TargetParentID: targetParentID, TargetIndex: targetIndex}, nil)
	if err != nil {
		return fmt.Errorf("move %s: %w", itemID, err)
	}
	return nil
}

// RenameFolder renames a folder
func (c *Client) RenameFolder(ctx context.Context, teamID, folderID, name string) error {
	path := fmt.Sprintf("/teams/%s/folders/%s", teamID, folderID)
	err := c.doJSON(ctx, http.MethodPut, path, map[string]string{"name": name}, nil)
	if err != nil {
		return fmt.Errorf("rename folder %s: %w", folderID, err)
	}
	return nil
}

// DeleteFolder deletes a folder; its children are promoted to the root
func (c *Client) DeleteFolder(ctx context.Context, teamID, folderID string) error {
	path := fmt.Sprintf("/teams/%s/folders/%s", teamID, folderID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete folder %s: %w", folderID, err)
	}
	return nil
}

// Provenance records where an uploaded script came from
type Provenance struct {
	Branch string `json:"branch,omitempty"`
	Commit string `json:"commit,omitempty"`
	Dirty  bool   `json:"dirty,omitempty"`
	Remote string `json:"remote,omitempty"`
}

// UploadAnalysis uploads a script file as a new (or replacement) analysis
func (c *Client) UploadAnalysis(ctx context.Context, teamID, name, scriptPath string, prov *Provenance) error {
	file, err := os.Open(scriptPath)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("name", name); err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if prov != nil {
		provJSON, err := json.Marshal(prov)
		if err != nil {
			return fmt.Errorf("encode provenance: %w", err)
		}
		if err := writer.WriteField("provenance", string(provJSON)); err != nil {
			return fmt.Errorf("build upload form: %w", err)
		}
	}

	part, err := writer.CreateFormFile("script", filepath.Base(scriptPath))
	if err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}

	path := fmt.Sprintf("/teams/%s/analyses", teamID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload analysis: %w", err)
	}
	defer resp.Body.Close()

	return c.checkStatus(resp)
}

// RunAnalysis starts an analysis
func (c *Client) RunAnalysis(ctx context.Context, analysisID string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/analyses/"+analysisID+"/run", nil, nil); err != nil {
		return fmt.Errorf("run analysis %s: %w", analysisID, err)
	}
	return nil
}

// StopAnalysis stops a running analysis
func (c *Client) StopAnalysis(ctx context.Context, analysisID string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/analyses/"+analysisID+"/stop", nil, nil); err != nil {
		return fmt.Errorf("stop analysis %s: %w", analysisID, err)
	}
	return nil
}

// DeleteAnalysis removes an analysis and its stored script
func (c *Client) DeleteAnalysis(ctx context.Context, analysisID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/analyses/"+analysisID, nil, nil); err != nil {
		return fmt.Errorf("delete analysis %s: %w", analysisID, err)
	}
	return nil
}

// TeamSummary is the list form of a team, used by one-shot CLI commands
// that query the REST API instead of holding an event stream open.
type TeamSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	AnalysisCount int    `json:"analysisCount"`
}

// AnalysisSummary is the list form of an analysis
type AnalysisSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TeamID   string `json:"teamId"`
	FileName string `json:"fileName"`
	Status   string `json:"status"`
}

// LogEntry is one line of stored analysis output
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// ServerStatus describes the backend, as reported by its status endpoint
type ServerStatus struct {
	Version       string  `json:"version"`
	UptimeSeconds int64   `json:"uptimeSeconds"`
	RunningCount  int     `json:"runningCount"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemPercent    float64 `json:"memPercent"`
}

// ListTeams fetches the teams visible to the current user
func (c *Client) ListTeams(ctx context.Context) ([]TeamSummary, error) {
	var out []TeamSummary
	if err := c.doJSON(ctx, http.MethodGet, "/teams", nil, &out); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return out, nil
}

// ListAnalyses fetches analyses, optionally restricted to one team
func (c *Client) ListAnalyses(ctx context.Context, teamID string) ([]AnalysisSummary, error) {
	path := "/analyses"
	if teamID != "" {
		path += "?team=" + teamID
	}
	var out []AnalysisSummary
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return out, nil
}

// AnalysisLogs fetches the stored output tail for an analysis
func (c *Client) AnalysisLogs(ctx context.Context, analysisID string, lines int) ([]LogEntry, error) {
	path := fmt.Sprintf("/analyses/%s/logs?lines=%d", analysisID, lines)
	var out []LogEntry
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch logs for %s: %w", analysisID, err)
	}
	return out, nil
}

// ServerInfo fetches the backend status endpoint
func (c *Client) ServerInfo(ctx context.Context) (*ServerStatus, error) {
	var out ServerStatus
	if err := c.doJSON(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return nil, fmt.Errorf("server status: %w", err)
	}
	return &out, nil
}

// doJSON performs a JSON request/response round trip
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.session != nil {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var errResp errorResponse
	if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
