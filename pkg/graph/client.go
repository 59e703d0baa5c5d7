package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"igpublisher/pkg/errors"
	"igpublisher/pkg/logger"
	"igpublisher/pkg/ratelimit"
)

// Client is an Instagram Graph API client scoped to one access token.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiVersion  string
	accessToken string
	limiter     ratelimit.Limiter
	logger      logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLimiter attaches a rate limiter consulted before every API call.
func WithLimiter(limiter ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithBaseURL overrides the Graph API host, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAPIVersion overrides the Graph API version.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Graph API client
func NewClient(accessToken string, timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	// Use default logger if none provided
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     DefaultBaseURL,
		apiVersion:  DefaultAPIVersion,
		accessToken: accessToken,
		logger:      log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doRequest performs an HTTP request, honoring the rate limiter
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		c.limiter.Wait()
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    sanitizeURL(req.URL.String()),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      sanitizeURL(req.URL.String()),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      sanitizeURL(req.URL.String()),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// decodeResponse reads a response body into target and reports parse failures.
// The body is decoded regardless of HTTP status: the platform signals failure
// through an error object, not the status line.
func (c *Client) decodeResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// postForm performs a form-encoded POST with the access token attached
func (c *Client) postForm(endpoint string, params url.Values, target interface{}) error {
	params.Set("access_token", c.accessToken)

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}

	return c.decodeResponse(resp, target)
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(rawURL string, target interface{}) error {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}

	return c.decodeResponse(resp, target)
}

// apiError converts a platform error object into a typed error.
func apiError(e *APIError) *errors.Error {
	if e.Type == "OAuthException" {
		return errors.NewInvalidCredential(e.Message)
	}
	return errors.NewRemoteAPI(e.Message, e.Code)
}

// CreateImageContainer creates a media container for a single image. When
// carouselItem is true the container is marked as a carousel child and the
// caption must be empty; the platform only honors captions on the parent.
func (c *Client) CreateImageContainer(accountID, imageURL, caption string, carouselItem bool) (string, error) {
	params := url.Values{}
	params.Set("image_url", imageURL)
	if carouselItem {
		params.Set("is_carousel_item", "true")
	}
	if caption != "" {
		params.Set("caption", caption)
	}

	c.logger.DebugWithFields("creating media container", map[string]interface{}{
		"account_id":    accountID,
		"carousel_item": carouselItem,
	})

	var response ContainerResponse
	if err := c.postForm(MediaURL(c.baseURL, c.apiVersion, accountID), params, &response); err != nil {
		return "", err
	}
	if response.Error != nil {
		c.logger.ErrorWithFields("container creation rejected", map[string]interface{}{
			"account_id": accountID,
			"message":    response.Error.Message,
			"code":       response.Error.Code,
		})
		return "", apiError(response.Error)
	}

	c.logger.DebugWithFields("media container created", map[string]interface{}{
		"container_id": response.ID,
	})

	return response.ID, nil
}

// CreateCarouselContainer creates the carousel parent container referencing
// the ordered child containers. Child order determines slide order.
func (c *Client) CreateCarouselContainer(accountID string, children []string, caption string) (string, error) {
	params := url.Values{}
	params.Set("media_type", "CAROUSEL")
	params.Set("children", strings.Join(children, ","))
	if caption != "" {
		params.Set("caption", caption)
	}

	c.logger.DebugWithFields("creating carousel container", map[string]interface{}{
		"account_id": accountID,
		"children":   len(children),
	})

	var response ContainerResponse
	if err := c.postForm(MediaURL(c.baseURL, c.apiVersion, accountID), params, &response); err != nil {
		return "", err
	}
	if response.Error != nil {
		c.logger.ErrorWithFields("carousel creation rejected", map[string]interface{}{
			"account_id": accountID,
			"message":    response.Error.Message,
			"code":       response.Error.Code,
		})
		return "", apiError(response.Error)
	}

	return response.ID, nil
}

// ContainerStatus queries the processing status of a container.
func (c *Client) ContainerStatus(containerID string) (*ContainerStatusResponse, error) {
	var response ContainerStatusResponse
	if err := c.getJSON(StatusURL(c.baseURL, c.apiVersion, containerID, c.accessToken), &response); err != nil {
		return nil, err
	}
	if response.Error != nil {
		return nil, apiError(response.Error)
	}

	c.logger.DebugWithFields("container status", map[string]interface{}{
		"container_id": containerID,
		"status_code":  response.StatusCode,
	})

	return &response, nil
}

// PublishContainer publishes a finished container and returns the live post id.
func (c *Client) PublishContainer(accountID, creationID string) (string, error) {
	params := url.Values{}
	params.Set("creation_id", creationID)

	c.logger.InfoWithFields("publishing container", map[string]interface{}{
		"account_id":  accountID,
		"creation_id": creationID,
	})

	var response PublishResponse
	if err := c.postForm(PublishURL(c.baseURL, c.apiVersion, accountID), params, &response); err != nil {
		return "", err
	}
	if response.Error != nil {
		c.logger.ErrorWithFields("publish rejected", map[string]interface{}{
			"account_id": accountID,
			"message":    response.Error.Message,
			"code":       response.Error.Code,
		})
		return "", apiError(response.Error)
	}

	return response.ID, nil
}

// Me fetches the identity linked to the access token.
func (c *Client) Me() (*Identity, error) {
	var identity Identity
	if err := c.getJSON(MeURL(c.baseURL, c.apiVersion, c.accessToken), &identity); err != nil {
		return nil, err
	}
	if identity.Error != nil {
		return nil, apiError(identity.Error)
	}

	return &identity, nil
}

// sanitizeURL strips the access token from a URL before it is logged.
func sanitizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
