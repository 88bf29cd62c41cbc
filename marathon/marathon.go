package marathon

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/certra/Certra/gologger"
	"github.com/certra/Certra/internal"
	"github.com/certra/Certra/tracing"
	"github.com/certra/Certra/utils"
)

// SSLCertEnvVar is the load balancer env var holding the deployed cert+key PEM.
const SSLCertEnvVar = "HAPROXY_SSL_CERT"

var (
	logger = gologger.NewLogger()

	// ErrMissingDeploymentID means the platform accepted an update but returned
	// no deployment id, leaving no way to track completion.
	ErrMissingDeploymentID = errors.New("platform did not return a deployment id")
)

// StatusError is a non-success platform response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

type (
	// App is the subset of the platform's application definition this system
	// reads and conditionally rewrites. Secrets are kept opaque, updates that
	// omit them are rejected by the platform as incomplete.
	App struct {
		ID      string                     `json:"id"`
		Labels  map[string]string          `json:"labels"`
		Env     map[string]string          `json:"env"`
		Secrets map[string]json.RawMessage `json:"secrets"`
	}

	appResponse struct {
		App App `json:"app"`
	}

	appUpdate struct {
		ID      string                     `json:"id"`
		Env     map[string]string          `json:"env"`
		Secrets map[string]json.RawMessage `json:"secrets"`
	}

	deploymentResponse struct {
		DeploymentID string `json:"deploymentId"`
	}

	Deployment struct {
		ID string `json:"id"`
	}
)

// Client talks to the orchestration platform's REST API. The zero credential
// case is an explicit unauthenticated client, not a nil sentinel.
type Client struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
	// Clock drives the deployment waiter, nil means wall time.
	Clock utils.Clock
}

func NewClient() *Client {
	if Env_ServiceAccountCredential == "" {
		logger.Info().Msg("No service account provided. Not using authorization")
	}
	return &Client{
		BaseURL:   Env_MarathonURL,
		AuthToken: Env_ServiceAccountCredential,
		Clock:     utils.NewClock(),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: !Env_TLSVerify},
			},
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := strings.TrimSuffix(c.BaseURL, "/") + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "token="+c.AuthToken)
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}
	defer res.Body.Close()
	resBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, StatusCode: res.StatusCode, Body: string(resBytes)}
	}
	return resBytes, nil
}

// GetApp fetches an application definition.
func (c *Client) GetApp(ctx context.Context, appID string) (*App, error) {
	resBytes, err := c.do(ctx, http.MethodGet, "/v2/apps/"+appID, nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching app %s: %w", appID, err)
	}

	var resBody appResponse
	if err := json.Unmarshal(resBytes, &resBody); err != nil {
		return nil, fmt.Errorf("error in json.Unmarshal: %w", err)
	}
	return &resBody.App, nil
}

// UpdateApp submits a new env and secrets mapping for the app and returns the
// deployment id tracking the rollout.
func (c *Client) UpdateApp(ctx context.Context, appID string, env map[string]string, secrets map[string]json.RawMessage) (string, error) {
	body, err := json.Marshal(appUpdate{ID: appID, Env: env, Secrets: secrets})
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}

	resBytes, err := c.do(ctx, http.MethodPatch, "/v2/apps/"+appID, body)
	if err != nil {
		return "", fmt.Errorf("error updating app %s: %w", appID, err)
	}

	var resBody deploymentResponse
	if err := json.Unmarshal(resBytes, &resBody); err != nil {
		return "", fmt.Errorf("error in json.Unmarshal: %w", err)
	}
	if resBody.DeploymentID == "" {
		logger.Error().Str("response", string(resBytes)).Msg("update accepted without a deployment id")
		return "", ErrMissingDeploymentID
	}
	return resBody.DeploymentID, nil
}

// Deployments returns the ids of all in-flight deployments.
func (c *Client) Deployments(ctx context.Context) ([]Deployment, error) {
	resBytes, err := c.do(ctx, http.MethodGet, "/v2/deployments", nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching deployments: %w", err)
	}

	var deployments []Deployment
	if err := json.Unmarshal(resBytes, &deployments); err != nil {
		return nil, fmt.Errorf("error in json.Unmarshal: %w", err)
	}
	return deployments, nil
}

// PublishCert pushes certificate material into the load balancer's app
// definition. Identical bytes mean no update is submitted, renewal checks run
// far more often than certificates actually change.
func (c *Client) PublishCert(ctx context.Context, lbAppID string, certPEM []byte) error {
	ctx, span := tracing.CertraTracer.Start(ctx, "publishCert")
	defer span.End()

	app, err := c.GetApp(ctx, lbAppID)
	if err != nil {
		return fmt.Errorf("error in GetApp: %w", err)
	}

	if app.Env[SSLCertEnvVar] == string(certPEM) {
		logger.Info().Msg("Certificate not changed. Not doing anything")
		internal.Metric_PublishSkipped.Inc()
		return nil
	}

	logger.Info().Msg("Certificate changed. Updating certificate")
	env := app.Env
	if env == nil {
		env = make(map[string]string)
	}
	env[SSLCertEnvVar] = string(certPEM)

	secrets := app.Secrets
	if secrets == nil {
		// The platform rejects updates whose secrets are null rather than an
		// empty mapping, so an app without secrets still gets {} on the wire.
		secrets = make(map[string]json.RawMessage)
	}

	deploymentID, err := c.UpdateApp(ctx, lbAppID, env, secrets)
	if err != nil {
		return fmt.Errorf("error in UpdateApp: %w", err)
	}
	internal.Metric_PublishSubmitted.Inc()

	clock := c.Clock
	if clock == nil {
		clock = utils.NewClock()
	}
	return NewDeploymentWaiter(c, clock).Wait(ctx, deploymentID)
}
