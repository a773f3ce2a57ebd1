package taxsvc

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"

	ierr "github.com/taxbridge/taxbridge/internal/errors"
	"github.com/taxbridge/taxbridge/internal/httpclient"
	"github.com/taxbridge/taxbridge/internal/logger"
	"github.com/taxbridge/taxbridge/internal/types"
)

// Client posts calculation, finalize and cancel requests to the tax
// service. A nil response with a non-nil error means the call failed at
// the transport level; callers treat that as "no response" rather than
// aborting the transaction.
type Client interface {
	Post(ctx context.Context, baseURL string, req *Request) (*Response, error)
	Finalize(ctx context.Context, baseURL string, req *Request) (*Response, error)
	Cancel(ctx context.Context, baseURL string, req *CancelRequest) (*Response, error)
}

type client struct {
	http   httpclient.Client
	logger *logger.Logger
}

// NewClient creates a tax service client over the given HTTP client.
func NewClient(http httpclient.Client, log *logger.Logger) Client {
	return &client{
		http:   http,
		logger: log,
	}
}

func (c *client) Post(ctx context.Context, baseURL string, req *Request) (*Response, error) {
	return c.call(ctx, baseURL, types.MethodPostRequest, req, req.ClientTracking)
}

func (c *client) Finalize(ctx context.Context, baseURL string, req *Request) (*Response, error) {
	return c.call(ctx, baseURL, types.MethodFinalizePostRequest, req, req.ClientTracking)
}

func (c *client) Cancel(ctx context.Context, baseURL string, req *CancelRequest) (*Response, error) {
	return c.call(ctx, baseURL, types.MethodCancelPostRequest, req, req.ClientTracking)
}

func (c *client) call(ctx context.Context, baseURL string, method types.CallMethod, payload any, tracking string) (*Response, error) {
	if !strings.Contains(strings.ToLower(baseURL), "https") {
		return nil, ierr.NewError("insecure url").
			WithHint("The tax service URL must use HTTPS").
			WithReportableDetails(map[string]any{
				"url": baseURL,
			}).
			Mark(ierr.ErrValidation)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode the tax service request").
			Mark(ierr.ErrValidation)
	}

	headers := map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	}
	// Integrator identity travels in headers parsed out of ClientTracking.
	parts := strings.Split(tracking, ";")
	if len(parts) > 7 {
		headers["X-WK-ERP-Name"] = parts[1] + " " + parts[7]
		headers["X-WK-ERP-Version"] = parts[2]
		headers["X-WK-Integration-Version"] = parts[3]
	}

	resp, err := c.http.Send(ctx, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     strings.TrimSuffix(baseURL, "/") + "/" + string(method),
		Headers: headers,
		Body:    []byte(method.FormParam() + "=" + url.QueryEscape(string(body))),
	})
	if err != nil {
		c.logger.Errorw("tax service call failed", "method", method, "error", err)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK || len(resp.Body) == 0 {
		c.logger.Errorw("tax service call failed",
			"method", method,
			"status_code", resp.StatusCode,
			"body", string(resp.Body))
		return nil, ierr.NewError("unexpected tax service response").
			WithHintf("Tax service %s returned status %d", method, resp.StatusCode).
			Mark(ierr.ErrHTTPClient)
	}

	return decodeResponse(resp.Body)
}

// decodeResponse unwraps the XML envelope holding a single string node of
// JSON and decodes the inner document.
func decodeResponse(body []byte) (*Response, error) {
	var wrapper struct {
		XMLName xml.Name
		Value   string `xml:",chardata"`
	}
	if err := xml.Unmarshal(body, &wrapper); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Tax service response was not valid XML").
			Mark(ierr.ErrHTTPClient)
	}

	var response Response
	if err := json.Unmarshal([]byte(wrapper.Value), &response); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Tax service response JSON could not be decoded").
			Mark(ierr.ErrHTTPClient)
	}
	return &response, nil
}
