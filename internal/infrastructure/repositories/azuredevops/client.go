package azuredevops

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

const (
	apiVersion     = "7.0"
	requestTimeout = 30 * time.Second
	zeroObjectID   = "0000000000000000000000000000000000000000"
)

// client speaks the Azure DevOps REST API of one organization with a PAT.
type client struct {
	baseURL    string
	searchURL  string
	token      string
	httpClient *http.Client
}

func newClient(organization, token string) *client {
	baseURL := strings.TrimSuffix(organization, "/")
	if baseURL != "" && !strings.HasPrefix(baseURL, "https://") && !strings.HasPrefix(baseURL, "http://") {
		baseURL = "https://dev.azure.com/" + baseURL
	}

	return &client{
		baseURL:    baseURL,
		searchURL:  searchBaseURL(baseURL),
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// searchBaseURL points code search at almsearch for the cloud service;
// on-premises servers serve it from the collection URL itself.
func searchBaseURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host != "dev.azure.com" {
		return baseURL
	}
	u.Host = "almsearch.dev.azure.com"
	return u.String()
}

// organization returns the last path segment of the organization URL.
func (c *client) organization() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	return parts[len(parts)-1]
}

// endpoint joins escaped path segments and the query onto the API root.
func endpoint(query url.Values, segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", apiVersion)
	return "/" + strings.Join(escaped, "/") + "?" + query.Encode()
}

func (c *client) get(ctx context.Context, op, path string, out any) (http.Header, error) {
	return c.do(ctx, op, http.MethodGet, c.baseURL+path, nil, out)
}

func (c *client) post(ctx context.Context, op, path string, body, out any) error {
	_, err := c.do(ctx, op, http.MethodPost, c.baseURL+path, body, out)
	return err
}

func (c *client) do(ctx context.Context, op, method, target string, body, out any) (http.Header, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Basic auth with an empty user and the PAT as password
	auth := base64.StdEncoding.EncodeToString([]byte(":" + c.token))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapError(op, resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err = json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("failed to parse %s response: %w", op, err)
		}
	}
	return resp.Header, nil
}

type apiError struct {
	Message string `json:"message"`
	TypeKey string `json:"typeKey"`
}

// mapError translates an Azure DevOps failure into the domain sentinels while
// keeping the status and message verbatim.
func mapError(op string, status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var payload apiError
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		message = payload.Message
	}

	return &entities.HostAPIError{
		Op:      "failed to " + op,
		Status:  status,
		Message: message,
		Err:     classify(status, payload.TypeKey, strings.ToLower(message)),
	}
}

func classify(status int, typeKey, message string) error {
	cause := fmt.Errorf("azure devops returned status %d", status)
	switch {
	case status == http.StatusNotFound:
		return errors.Join(entities.ErrNotFound, cause)
	// TF401179: an active pull request for the source and target branch already exists
	case strings.Contains(message, "tf401179"),
		typeKey == "GitPullRequestExistsException":
		return errors.Join(entities.ErrAlreadyExists, cause)
	// TF401028: the reference has already been updated by another client
	case strings.Contains(message, "tf401028"),
		typeKey == "GitReferenceStaleException",
		status == http.StatusConflict:
		return errors.Join(entities.ErrConflict, cause)
	default:
		return cause
	}
}
