// Package customvision is a client for the Custom Vision training REST API.
package customvision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrMissingTrainingKey = errors.New("training key is required")

const (
	apiPath        = "/customvision/v2.2/Training"
	trainingKeyHdr = "Training-Key"
	requestTimeout = 5 * time.Minute
)

type Client struct {
	client *resty.Client
}

// NewClient does not contact the service, so it is safe to call before any
// other setup.
func NewClient(endpoint, trainingKey string) (*Client, error) {
	if strings.TrimSpace(trainingKey) == "" {
		return nil, ErrMissingTrainingKey
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")+apiPath).
		SetHeader(trainingKeyHdr, trainingKey).
		SetHeader("Accept", "application/json").
		SetTimeout(requestTimeout)

	return &Client{client: client}, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.client.R().SetContext(ctx).SetError(&APIError{})
}

func (c *Client) execute(req *resty.Request, method, path string) error {
	res, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("error calling training api %s %s: %w", method, path, err)
	}

	if res.IsError() {
		apiErr, ok := res.Error().(*APIError)
		if !ok || apiErr == nil {
			apiErr = &APIError{}
		}
		apiErr.StatusCode = res.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = res.String()
		}
		slog.Error("training api returned error", "method", method, "path", path, "status_code", res.StatusCode(), "code", apiErr.Code)
		return apiErr
	}

	return nil
}

func (c *Client) GetDomains(ctx context.Context) ([]Domain, error) {
	var domains []Domain
	if err := c.execute(c.request(ctx).SetResult(&domains), resty.MethodGet, "/domains"); err != nil {
		return nil, fmt.Errorf("error listing domains: %w", err)
	}
	return domains, nil
}

func (c *Client) GetProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.execute(c.request(ctx).SetResult(&projects), resty.MethodGet, "/projects"); err != nil {
		return nil, fmt.Errorf("error listing projects: %w", err)
	}
	return projects, nil
}

func (c *Client) CreateProject(ctx context.Context, name, description, domainId string) (*Project, error) {
	var project Project
	req := c.request(ctx).
		SetQueryParam("name", name).
		SetQueryParam("description", description).
		SetQueryParam("domainId", domainId).
		SetResult(&project)

	if err := c.execute(req, resty.MethodPost, "/projects"); err != nil {
		return nil, fmt.Errorf("error creating project %q: %w", name, err)
	}
	return &project, nil
}

func (c *Client) GetTags(ctx context.Context, projectId string) ([]Tag, error) {
	var tags []Tag
	req := c.request(ctx).SetPathParam("projectId", projectId).SetResult(&tags)

	if err := c.execute(req, resty.MethodGet, "/projects/{projectId}/tags"); err != nil {
		return nil, fmt.Errorf("error listing tags for project %s: %w", projectId, err)
	}
	return tags, nil
}

func (c *Client) CreateTag(ctx context.Context, projectId, name string) (*Tag, error) {
	var tag Tag
	req := c.request(ctx).
		SetPathParam("projectId", projectId).
		SetQueryParam("name", name).
		SetResult(&tag)

	if err := c.execute(req, resty.MethodPost, "/projects/{projectId}/tags"); err != nil {
		return nil, fmt.Errorf("error creating tag %q in project %s: %w", name, projectId, err)
	}
	return &tag, nil
}

// CreateImagesFromData uploads a single image as a multipart body bound to
// the given tags.
func (c *Client) CreateImagesFromData(ctx context.Context, projectId, filename string, data io.Reader, tagIds []string) (*ImageCreateSummary, error) {
	var summary ImageCreateSummary
	req := c.request(ctx).
		SetPathParam("projectId", projectId).
		SetFileReader("imageData", filename, data).
		SetResult(&summary)
	if len(tagIds) > 0 {
		req.SetQueryParam("tagIds", strings.Join(tagIds, ","))
	}

	if err := c.execute(req, resty.MethodPost, "/projects/{projectId}/images"); err != nil {
		return nil, fmt.Errorf("error uploading image %s to project %s: %w", filename, projectId, err)
	}
	return &summary, nil
}

func (c *Client) TrainProject(ctx context.Context, projectId string) (*Iteration, error) {
	var iteration Iteration
	req := c.request(ctx).SetPathParam("projectId", projectId).SetResult(&iteration)

	if err := c.execute(req, resty.MethodPost, "/projects/{projectId}/train"); err != nil {
		return nil, fmt.Errorf("error starting training for project %s: %w", projectId, err)
	}
	return &iteration, nil
}

func (c *Client) GetIteration(ctx context.Context, projectId, iterationId string) (*Iteration, error) {
	var iteration Iteration
	req := c.request(ctx).
		SetPathParam("projectId", projectId).
		SetPathParam("iterationId", iterationId).
		SetResult(&iteration)

	if err := c.execute(req, resty.MethodGet, "/projects/{projectId}/iterations/{iterationId}"); err != nil {
		return nil, fmt.Errorf("error getting iteration %s: %w", iterationId, err)
	}
	return &iteration, nil
}

func (c *Client) UpdateIteration(ctx context.Context, projectId, iterationId string, isDefault bool) (*Iteration, error) {
	var iteration Iteration
	req := c.request(ctx).
		SetPathParam("projectId", projectId).
		SetPathParam("iterationId", iterationId).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"isDefault": isDefault}).
		SetResult(&iteration)

	if err := c.execute(req, resty.MethodPatch, "/projects/{projectId}/iterations/{iterationId}"); err != nil {
		return nil, fmt.Errorf("error updating iteration %s: %w", iterationId, err)
	}
	return &iteration, nil
}
