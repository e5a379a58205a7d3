package spark

import (
	"context"
	"crypto/tls"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sparkmcp/spark-history-mcp/internal/config"
	"github.com/sparkmcp/spark-history-mcp/internal/errors"
	"github.com/sparkmcp/spark-history-mcp/internal/tracing"
)

// DefaultQuantiles is the quantile set requested for task summaries when the
// caller does not specify one, matching the history server UI defaults.
const DefaultQuantiles = "0.05,0.25,0.5,0.75,0.95"

// RequestRecorder receives per-request outcomes, typically a metrics tracker.
type RequestRecorder interface {
	RecordRequest(server string, success bool, latency time.Duration, statusCode int)
	RecordRetry()
}

// Client is a read-only HTTP client for one Spark History Server instance.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	serverName  string
	auth        config.AuthConfig
	cfg         *config.Config
	logger      *zap.Logger
	rateLimiter *rate.Limiter
	version     string
	recorder    RequestRecorder
}

// SetRecorder attaches a request recorder. Must be called before the client
// is shared across goroutines.
func (c *Client) SetRecorder(r RequestRecorder) { c.recorder = r }

// NewClient creates a client for the named server entry.
func NewClient(cfg *config.Config, name string, sc config.ServerConfig, logger *zap.Logger, version string) (*Client, error) {
	if sc.URL == "" {
		return nil, fmt.Errorf("server %q has no URL", name)
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if !sc.VerifyTLS() {
		tlsConfig.InsecureSkipVerify = true
		logger.Warn("TLS certificate verification is DISABLED - this is insecure and should only be used for testing",
			zap.String("server", name),
			zap.String("url", sc.URL),
		)
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     tlsConfig,
	}

	var rateLimiter *rate.Limiter
	if cfg.EnableRateLimit {
		rateLimiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)
	}

	if version == "" {
		version = "dev"
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL:     strings.TrimRight(sc.URL, "/") + "/api/v1",
		serverName:  name,
		auth:        sc.Auth,
		cfg:         cfg,
		logger:      logger,
		rateLimiter: rateLimiter,
		version:     version,
	}, nil
}

// Name returns the configured server name this client talks to.
func (c *Client) Name() string { return c.serverName }

// get fetches an endpoint with retries and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, err := c.getRaw(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewMalformedRecord("response", path, err.Error())
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff, capped shift to avoid overflow
			shift := attempt - 1
			if shift > 30 {
				shift = 30
			}
			waitTime := c.cfg.RetryWaitMin * time.Duration(1<<shift)
			if waitTime > c.cfg.RetryWaitMax {
				waitTime = c.cfg.RetryWaitMax
			}

			c.logger.Debug("Retrying request",
				zap.Int("attempt", attempt),
				zap.Duration("wait", waitTime),
			)
			if c.recorder != nil {
				c.recorder.RecordRetry()
			}

			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		status, body, err := c.doRequest(ctx, path, query)
		if err != nil {
			lastErr = err
			if isRetryable(err) {
				continue
			}
			return nil, errors.NewUnavailable(err.Error())
		}

		if status == http.StatusOK {
			return body, nil
		}
		if shouldRetry(status) {
			lastErr = fmt.Errorf("HTTP %d: %s", status, string(body))
			continue
		}
		return nil, errors.FromHTTPStatus(status, string(body))
	}

	return nil, errors.NewUnavailable(fmt.Sprintf("max retries exceeded: %v", lastErr))
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	ctx, span := tracing.APISpan(ctx, c.serverName, path)
	defer span.End()

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL = requestURL + "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", fmt.Sprintf("spark-history-mcp/%s", c.version))

	switch {
	case c.auth.Token != "":
		httpReq.Header.Set("Authorization", "Bearer "+c.auth.Token)
	case c.auth.Username != "":
		httpReq.SetBasicAuth(c.auth.Username, c.auth.Password)
	}

	c.logger.Debug("Executing HTTP request",
		zap.String("server", c.serverName),
		zap.String("url", requestURL),
	)

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)

	if err != nil {
		if c.recorder != nil {
			c.recorder.RecordRequest(c.serverName, false, duration, 0)
		}
		tracing.RecordError(span, err)
		c.logger.Error("HTTP request failed",
			zap.Error(err),
			zap.String("url", requestURL),
			zap.Duration("duration", duration),
		)
		return 0, nil, err
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.recorder != nil {
		c.recorder.RecordRequest(c.serverName, httpResp.StatusCode == http.StatusOK, duration, httpResp.StatusCode)
	}

	c.logger.Debug("HTTP request completed",
		zap.String("url", requestURL),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", duration),
		zap.Int("response_size", len(body)),
	)

	return httpResp.StatusCode, body, nil
}

// GetVersion returns the history server's Spark version.
func (c *Client) GetVersion(ctx context.Context) (*VersionInfo, error) {
	var v VersionInfo
	if err := c.get(ctx, "/version", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListApplicationsParams filters the application listing.
type ListApplicationsParams struct {
	Status  []string // COMPLETED, RUNNING
	MinDate string
	MaxDate string
	Limit   int
}

// ListApplications lists applications known to the history server.
func (c *Client) ListApplications(ctx context.Context, params ListApplicationsParams) ([]ApplicationInfo, error) {
	query := url.Values{}
	for _, s := range params.Status {
		query.Add("status", s)
	}
	if params.MinDate != "" {
		query.Set("minDate", params.MinDate)
	}
	if params.MaxDate != "" {
		query.Set("maxDate", params.MaxDate)
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}

	var apps []ApplicationInfo
	if err := c.get(ctx, "/applications", query, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// GetApplication fetches a single application with its attempts.
func (c *Client) GetApplication(ctx context.Context, appID string) (*ApplicationInfo, error) {
	var app ApplicationInfo
	if err := c.get(ctx, "/applications/"+url.PathEscape(appID), nil, &app); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("application", appID)
		}
		return nil, err
	}
	return &app, nil
}

// ListJobs lists jobs for an application, optionally filtered by status.
func (c *Client) ListJobs(ctx context.Context, appID string, statuses []string) ([]JobData, error) {
	query := url.Values{}
	for _, s := range statuses {
		query.Add("status", s)
	}

	var jobs []JobData
	if err := c.get(ctx, "/applications/"+url.PathEscape(appID)+"/jobs", query, &jobs); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("application", appID)
		}
		return nil, err
	}
	return jobs, nil
}

// ListStagesParams tunes the stage listing.
type ListStagesParams struct {
	Statuses      []string
	WithSummaries bool
	Quantiles     string
}

// ListStages lists stage attempts for an application.
func (c *Client) ListStages(ctx context.Context, appID string, params ListStagesParams) ([]StageData, error) {
	query := url.Values{}
	query.Set("withSummaries", strconv.FormatBool(params.WithSummaries))
	if params.Quantiles != "" {
		query.Set("quantiles", params.Quantiles)
	}
	for _, s := range params.Statuses {
		query.Add("status", s)
	}

	var stages []StageData
	if err := c.get(ctx, "/applications/"+url.PathEscape(appID)+"/stages", query, &stages); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("application", appID)
		}
		return nil, err
	}
	return stages, nil
}

// ListStageAttempts fetches all attempts of one stage.
func (c *Client) ListStageAttempts(ctx context.Context, appID string, stageID int, withSummaries bool) ([]StageData, error) {
	query := url.Values{}
	query.Set("withSummaries", strconv.FormatBool(withSummaries))

	path := fmt.Sprintf("/applications/%s/stages/%d", url.PathEscape(appID), stageID)
	var stages []StageData
	if err := c.get(ctx, path, query, &stages); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("stage", fmt.Sprintf("%s/%d", appID, stageID))
		}
		return nil, err
	}
	return stages, nil
}

// GetStageAttempt fetches one stage attempt.
func (c *Client) GetStageAttempt(ctx context.Context, appID string, stageID, attemptID int, withSummaries bool) (*StageData, error) {
	query := url.Values{}
	query.Set("withSummaries", strconv.FormatBool(withSummaries))

	path := fmt.Sprintf("/applications/%s/stages/%d/%d", url.PathEscape(appID), stageID, attemptID)
	var stage StageData
	if err := c.get(ctx, path, query, &stage); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("stage attempt", fmt.Sprintf("%s/%d/%d", appID, stageID, attemptID))
		}
		return nil, err
	}
	return &stage, nil
}

// GetStageTaskSummary fetches task metric distributions for a stage attempt.
func (c *Client) GetStageTaskSummary(ctx context.Context, appID string, stageID, attemptID int, quantiles string) (*TaskMetricDistributions, error) {
	if quantiles == "" {
		quantiles = DefaultQuantiles
	}
	query := url.Values{}
	query.Set("quantiles", quantiles)

	path := fmt.Sprintf("/applications/%s/stages/%d/%d/taskSummary", url.PathEscape(appID), stageID, attemptID)
	var dist TaskMetricDistributions
	if err := c.get(ctx, path, query, &dist); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("stage attempt", fmt.Sprintf("%s/%d/%d", appID, stageID, attemptID))
		}
		return nil, err
	}
	return &dist, nil
}

// ListStageTasks pages through tasks of a stage attempt.
func (c *Client) ListStageTasks(ctx context.Context, appID string, stageID, attemptID, offset, length int) ([]TaskData, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("length", strconv.Itoa(length))

	path := fmt.Sprintf("/applications/%s/stages/%d/%d/taskList", url.PathEscape(appID), stageID, attemptID)
	var tasks []TaskData
	if err := c.get(ctx, path, query, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListExecutors lists executors; includeInactive selects the /allexecutors
// endpoint which also returns removed executors.
func (c *Client) ListExecutors(ctx context.Context, appID string, includeInactive bool) ([]ExecutorSummary, error) {
	endpoint := "/executors"
	if includeInactive {
		endpoint = "/allexecutors"
	}

	var executors []ExecutorSummary
	if err := c.get(ctx, "/applications/"+url.PathEscape(appID)+endpoint, nil, &executors); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("application", appID)
		}
		return nil, err
	}
	return executors, nil
}

// GetEnvironment fetches the environment snapshot for an application.
func (c *Client) GetEnvironment(ctx context.Context, appID string) (*ApplicationEnvironmentInfo, error) {
	var env ApplicationEnvironmentInfo
	if err := c.get(ctx, "/applications/"+url.PathEscape(appID)+"/environment", nil, &env); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("application", appID)
		}
		return nil, err
	}
	return &env, nil
}

// ListSQLExecutionsParams tunes the SQL execution listing.
type ListSQLExecutionsParams struct {
	AttemptID       string
	Details         bool
	PlanDescription bool
	Offset          int
	Length          int
}

// ListSQLExecutions fetches one page of SQL executions.
func (c *Client) ListSQLExecutions(ctx context.Context, appID string, params ListSQLExecutionsParams) ([]ExecutionData, error) {
	query := url.Values{}
	query.Set("details", strconv.FormatBool(params.Details))
	query.Set("planDescription", strconv.FormatBool(params.PlanDescription))
	query.Set("offset", strconv.Itoa(params.Offset))
	length := params.Length
	if length <= 0 {
		length = 20
	}
	query.Set("length", strconv.Itoa(length))

	path := "/applications/" + url.PathEscape(appID)
	if params.AttemptID != "" {
		path += "/" + url.PathEscape(params.AttemptID)
	}
	path += "/sql"

	var executions []ExecutionData
	if err := c.get(ctx, path, query, &executions); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("application", appID)
		}
		return nil, err
	}
	return executions, nil
}

// ListAllSQLExecutions pages through every SQL execution of an application.
func (c *Client) ListAllSQLExecutions(ctx context.Context, appID, attemptID string, planDescription bool, pageSize int) ([]ExecutionData, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	var all []ExecutionData
	offset := 0
	for {
		page, err := c.ListSQLExecutions(ctx, appID, ListSQLExecutionsParams{
			AttemptID:       attemptID,
			Details:         true,
			PlanDescription: planDescription,
			Offset:          offset,
			Length:          pageSize,
		})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		offset += pageSize
		if len(page) < pageSize {
			break
		}
	}
	return all, nil
}

// GetSQLExecution fetches one SQL execution with its plan.
func (c *Client) GetSQLExecution(ctx context.Context, appID string, executionID int, planDescription bool) (*ExecutionData, error) {
	query := url.Values{}
	query.Set("details", "true")
	query.Set("planDescription", strconv.FormatBool(planDescription))

	path := fmt.Sprintf("/applications/%s/sql/%d", url.PathEscape(appID), executionID)
	var exec ExecutionData
	if err := c.get(ctx, path, query, &exec); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("sql execution", fmt.Sprintf("%s/%d", appID, executionID))
		}
		return nil, err
	}
	return &exec, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// isRetryable determines if an error is a transient network failure.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		if stderrors.Is(opErr.Err, syscall.ECONNREFUSED) ||
			stderrors.Is(opErr.Err, syscall.ECONNRESET) ||
			stderrors.Is(opErr.Err, syscall.ENETUNREACH) ||
			stderrors.Is(opErr.Err, syscall.EHOSTUNREACH) ||
			stderrors.Is(opErr.Err, syscall.ETIMEDOUT) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return dnsErr.Temporary()
	}

	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset",
		"connection refused",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"tls handshake timeout",
		"eof",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// shouldRetry determines if an HTTP status code should trigger a retry.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
