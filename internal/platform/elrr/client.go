package elrr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/platform/extapi"
)

const serviceName = "elrr"

// Client talks to the ELRR learning record service.
type Client interface {
	// FindPersonByEmail returns nil, nil when no person has the address.
	FindPersonByEmail(ctx context.Context, email string) (*Person, error)
	CreatePerson(ctx context.Context, p NewPerson) (*Person, error)

	CreateGoal(ctx context.Context, p GoalPayload) (*Goal, error)
	GetGoal(ctx context.Context, id uuid.UUID) (*Goal, error)
	// UpdateGoal replaces the whole document at g.ID().
	UpdateGoal(ctx context.Context, g *Goal) (*Goal, error)
	DeleteGoal(ctx context.Context, id uuid.UUID) error

	GetOrCreateCompetency(ctx context.Context, ref CompetencyRef) (uuid.UUID, error)
	GetOrCreateLearningResource(ctx context.Context, iri, title string) (uuid.UUID, error)
}

type client struct {
	log *logger.Logger
	api *extapi.Client
}

func New(log *logger.Logger, cfg extapi.Config, httpClient *http.Client) (Client, error) {
	api, err := extapi.New(log, serviceName, cfg, httpClient)
	if err != nil {
		return nil, err
	}
	return &client{log: log.With("client", "ELRRClient"), api: api}, nil
}

func fail(kind extapi.Kind, op string, status int, msg string, cause error) error {
	return extapi.NewError(kind, serviceName, op, status, msg, cause)
}

func (c *client) FindPersonByEmail(ctx context.Context, email string) (*Person, error) {
	const op = "find_person"
	q := url.Values{"emailAddress": {strings.TrimSpace(email)}}
	resp, err := c.api.Do(ctx, op, http.MethodGet, "person", q, nil)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, c.api.Unexpected(op, resp)
	}
	var people []Person
	if err := resp.JSON(&people); err != nil {
		return nil, fail(extapi.KindInvalidRemoteResponse, op, resp.StatusCode, "decode person list", err)
	}
	if len(people) == 0 {
		return nil, nil
	}
	if people[0].PersonID() == uuid.Nil {
		return nil, fail(extapi.KindInvalidRemoteResponse, op, resp.StatusCode, "person record missing id or name", nil)
	}
	return &people[0], nil
}

func (c *client) CreatePerson(ctx context.Context, p NewPerson) (*Person, error) {
	const op = "create_person"
	resp, err := c.api.Do(ctx, op, http.MethodPost, "person", nil, p)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.log.Error("person create rejected", "status", resp.StatusCode, "body", resp.Snippet())
		return nil, fail(extapi.KindRemoteRejected, op, resp.StatusCode, "person create rejected", nil)
	}
	var out Person
	if err := resp.JSON(&out); err != nil {
		return nil, fail(extapi.KindInvalidRemoteResponse, op, resp.StatusCode, "decode person", err)
	}
	if out.PersonID() == uuid.Nil {
		return nil, fail(extapi.KindInvalidRemoteResponse, op, resp.StatusCode, "person record missing id or name", nil)
	}
	return &out, nil
}

func (c *client) CreateGoal(ctx context.Context, p GoalPayload) (*Goal, error) {
	const op = "create_goal"
	resp, err := c.api.Do(ctx, op, http.MethodPost, "goal", nil, p)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.log.Error("goal create rejected", "status", resp.StatusCode, "goal_key", p.GoalID, "body", resp.Snippet())
		return nil, fail(extapi.KindRemoteRejected, op, resp.StatusCode, "goal create rejected", nil)
	}
	return decodeGoal(op, resp)
}

func (c *client) GetGoal(ctx context.Context, id uuid.UUID) (*Goal, error) {
	const op = "get_goal"
	resp, err := c.api.Do(ctx, op, http.MethodGet, "goal/"+id.String(), nil, nil)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return decodeGoal(op, resp)
	case http.StatusNotFound:
		return nil, fail(extapi.KindRemoteNotFound, op, resp.StatusCode, fmt.Sprintf("goal %s", id), nil)
	default:
		return nil, c.api.Unexpected(op, resp)
	}
}

func (c *client) UpdateGoal(ctx context.Context, g *Goal) (*Goal, error) {
	const op = "update_goal"
	if g == nil || g.ID() == uuid.Nil {
		return nil, fail(extapi.KindPreconditionFailed, op, 0, "goal document has no id", nil)
	}
	resp, err := c.api.Do(ctx, op, http.MethodPut, "goal/"+g.ID().String(), nil, g)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return decodeGoal(op, resp)
	case http.StatusNotFound:
		return nil, fail(extapi.KindRemoteNotFound, op, resp.StatusCode, fmt.Sprintf("goal %s", g.ID()), nil)
	default:
		return nil, c.api.Unexpected(op, resp)
	}
}

func (c *client) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	const op = "delete_goal"
	resp, err := c.api.Do(ctx, op, http.MethodDelete, "goal/"+id.String(), nil, nil)
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fail(extapi.KindRemoteNotFound, op, resp.StatusCode, fmt.Sprintf("goal %s", id), nil)
	default:
		return c.api.Unexpected(op, resp)
	}
}

func (c *client) GetOrCreateCompetency(ctx context.Context, ref CompetencyRef) (uuid.UUID, error) {
	id, err := c.findRecord(ctx, "find_competency", "competency", url.Values{"identifier": {ref.Identifier}})
	if err != nil || id != uuid.Nil {
		return id, err
	}
	return c.createRecord(ctx, "create_competency", "competency", newCompetency{
		Type:           "COMPETENCY",
		Identifier:     ref.Identifier,
		IdentifierURL:  ref.IdentifierURL,
		FrameworkTitle: "ECCR",
		Statement:      ref.Statement,
	})
}

func (c *client) GetOrCreateLearningResource(ctx context.Context, iri, title string) (uuid.UUID, error) {
	id, err := c.findRecord(ctx, "find_learning_resource", "learningresource", url.Values{"iri": {iri}})
	if err != nil || id != uuid.Nil {
		return id, err
	}
	return c.createRecord(ctx, "create_learning_resource", "learningresource", newLearningResource{IRI: iri, Title: title})
}

// findRecord returns uuid.Nil when the filtered list is empty or 404s.
func (c *client) findRecord(ctx context.Context, op, path string, q url.Values) (uuid.UUID, error) {
	resp, err := c.api.Do(ctx, op, http.MethodGet, path, q, nil)
	if err != nil {
		return uuid.Nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return uuid.Nil, nil
	default:
		return uuid.Nil, c.api.Unexpected(op, resp)
	}
	var recs []record
	if err := resp.JSON(&recs); err != nil {
		return uuid.Nil, fail(extapi.KindInvalidRemoteResponse, op, resp.StatusCode, "decode "+path+" list", err)
	}
	if len(recs) == 0 {
		return uuid.Nil, nil
	}
	return parseRecordID(op, resp.StatusCode, recs[0].ID)
}

func (c *client) createRecord(ctx context.Context, op, path string, body any) (uuid.UUID, error) {
	resp, err := c.api.Do(ctx, op, http.MethodPost, path, nil, body)
	if err != nil {
		return uuid.Nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.log.Error(path+" create rejected", "status", resp.StatusCode, "body", resp.Snippet())
		return uuid.Nil, fail(extapi.KindRemoteRejected, op, resp.StatusCode, path+" create rejected", nil)
	}
	var rec record
	if err := resp.JSON(&rec); err != nil {
		return uuid.Nil, fail(extapi.KindInvalidRemoteResponse, op, resp.StatusCode, "decode "+path, err)
	}
	return parseRecordID(op, resp.StatusCode, rec.ID)
}

func parseRecordID(op string, status int, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fail(extapi.KindInvalidRemoteResponse, op, status, "record id is not a uuid", err)
	}
	return id, nil
}

func decodeGoal(op string, resp *extapi.Response) (*Goal, error) {
	var g Goal
	if err := resp.JSON(&g); err != nil {
		return nil, fail(extapi.KindInvalidRemoteResponse, op, resp.StatusCode, "decode goal", err)
	}
	if g.ID() == uuid.Nil {
		return nil, fail(extapi.KindInvalidRemoteResponse, op, resp.StatusCode, "goal document has no id", nil)
	}
	return &g, nil
}
