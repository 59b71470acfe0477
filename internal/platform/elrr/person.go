package elrr

import (
	"strings"

	"github.com/google/uuid"
)

type EmailAddress struct {
	EmailAddress string `json:"emailAddress"`
}

// Person is an ELRR person record.
type Person struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"firstName,omitempty"`
	LastName       string         `json:"lastName,omitempty"`
	Name           string         `json:"name,omitempty"`
	EmailAddresses []EmailAddress `json:"emailAddresses,omitempty"`
}

// PersonID returns the parsed id, uuid.Nil when the record is unusable.
// A usable record has an id and either first and last name or a full name.
func (p *Person) PersonID() uuid.UUID {
	if p == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(strings.TrimSpace(p.ID))
	if err != nil {
		return uuid.Nil
	}
	hasParts := strings.TrimSpace(p.FirstName) != "" && strings.TrimSpace(p.LastName) != ""
	if !hasParts && strings.TrimSpace(p.Name) == "" {
		return uuid.Nil
	}
	return id
}

// NewPerson is the body of a person create.
type NewPerson struct {
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Name           string         `json:"name"`
	EmailAddresses []EmailAddress `json:"emailAddresses"`
}

func NewPersonFor(firstName, lastName, email string) NewPerson {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	return NewPerson{
		FirstName:      firstName,
		LastName:       lastName,
		Name:           strings.TrimSpace(firstName + " " + lastName),
		EmailAddresses: []EmailAddress{{EmailAddress: strings.TrimSpace(email)}},
	}
}

// CompetencyRef identifies an ECCR competency or KSA for ELRR.
type CompetencyRef struct {
	Identifier    string
	IdentifierURL string
	Statement     string
}

type newCompetency struct {
	Type           string `json:"type"`
	Identifier     string `json:"identifier"`
	IdentifierURL  string `json:"identifierUrl"`
	FrameworkTitle string `json:"frameworkTitle"`
	Statement      string `json:"statement"`
}

type newLearningResource struct {
	IRI   string `json:"iri"`
	Title string `json:"title"`
}

// record is the common shape of competency and learning resource responses.
type record struct {
	ID string `json:"id"`
}
