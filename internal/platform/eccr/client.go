package eccr

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/platform/extapi"
)

const serviceName = "eccr"

// Client reads competency and KSA records from the ECCR data API.
type Client interface {
	// ItemName returns the display name of the record at reference
	// ("<frameworkId>/<itemId>").
	ItemName(ctx context.Context, reference string) (string, error)
	// DataURL is the absolute URL of reference, used as an identifier in ELRR.
	DataURL(reference string) string
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

type item struct {
	Name *struct {
		Value *string `json:"@value"`
	} `json:"name"`
}

func (c *client) DataURL(reference string) string {
	return c.api.URL("data/" + strings.TrimLeft(reference, "/"))
}

func (c *client) ItemName(ctx context.Context, reference string) (string, error) {
	const op = "get_item"
	reference = strings.Trim(strings.TrimSpace(reference), "/")
	if reference == "" {
		return "", extapi.NewError(extapi.KindNotFound, serviceName, op, 0, "empty reference", nil)
	}
	resp, err := c.api.Do(ctx, op, http.MethodGet, "data/"+reference, nil, nil)
	if err != nil {
		return "", err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", extapi.NewError(extapi.KindNotFound, serviceName, op, resp.StatusCode,
			fmt.Sprintf("no record for %q", reference), nil)
	default:
		return "", c.api.Unexpected(op, resp)
	}

	var it item
	if err := resp.JSON(&it); err != nil {
		return "", extapi.NewError(extapi.KindMalformedResponse, serviceName, op, resp.StatusCode, "decode item", err)
	}
	if it.Name == nil || it.Name.Value == nil || strings.TrimSpace(*it.Name.Value) == "" {
		return "", extapi.NewError(extapi.KindMalformedResponse, serviceName, op, resp.StatusCode, "item has no name", nil)
	}
	return *it.Name.Value, nil
}
