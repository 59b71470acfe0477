package xds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/platform/extapi"
)

const serviceName = "xds"

// Client reads course experiences from XDS.
type Client interface {
	CourseTitle(ctx context.Context, reference string) (string, error)
}

type client struct {
	api *extapi.Client
}

func New(log *logger.Logger, cfg extapi.Config, httpClient *http.Client) (Client, error) {
	api, err := extapi.New(log, serviceName, cfg, httpClient)
	if err != nil {
		return nil, err
	}
	return &client{api: api}, nil
}

type experience struct {
	Core *struct {
		Title *string `json:"Title"`
	} `json:"p2881-core"`
}

func (c *client) CourseTitle(ctx context.Context, reference string) (string, error) {
	const op = "get_experience"
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", extapi.NewError(extapi.KindNotFound, serviceName, op, 0, "empty reference", nil)
	}
	resp, err := c.api.Do(ctx, op, http.MethodGet, "experiences/"+url.PathEscape(reference), nil, nil)
	if err != nil {
		return "", err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", extapi.NewError(extapi.KindNotFound, serviceName, op, resp.StatusCode,
			fmt.Sprintf("no experience for %q", reference), nil)
	default:
		return "", c.api.Unexpected(op, resp)
	}

	var exp experience
	if err := resp.JSON(&exp); err != nil {
		return "", extapi.NewError(extapi.KindMalformedResponse, serviceName, op, resp.StatusCode, "decode experience", err)
	}
	if exp.Core == nil || exp.Core.Title == nil {
		return "", extapi.NewError(extapi.KindMalformedResponse, serviceName, op, resp.StatusCode, "experience has no p2881-core title", nil)
	}
	return *exp.Core.Title, nil
}
