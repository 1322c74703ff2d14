package orgtree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/orgchart/pkg/errors"
)

// Entity is one organization unit as supplied by the data source.
type Entity struct {
	ID               string    `json:"id" bson:"id"`
	DisplayName      string    `json:"displayName" bson:"displayName"`
	Annex            *Annex    `json:"annex,omitempty" bson:"annex,omitempty"`
	OwnershipPercent string    `json:"percent,omitempty" bson:"percent,omitempty"`
	Children         []*Entity `json:"children,omitempty" bson:"children,omitempty"`
	// Parents is only read on the focus root. Each ancestor lists its own
	// ancestors in Children, so the upward chain has the same shape as the
	// downward tree.
	Parents []*Entity `json:"parents,omitempty" bson:"parents,omitempty"`
}

// Annex is an auxiliary entity drawn beside its owner, e.g. a secretary.
type Annex struct {
	Name string `json:"name" bson:"name"`
}

// entityJSON accepts the field aliases seen in real payloads.
type entityJSON struct {
	ID          flexString `json:"id"`
	DisplayName string     `json:"displayName"`
	Name        string     `json:"name"`
	FullName    string     `json:"fullName"`
	Annex       *Annex     `json:"annex"`
	Secretary   *Annex     `json:"secretary"`
	Percent     flexString `json:"percent"`
	Children    []*Entity  `json:"children"`
	Parents     []*Entity  `json:"parents"`
}

// UnmarshalJSON decodes displayName|name|fullName and annex|secretary.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw entityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entity{
		ID:               string(raw.ID),
		DisplayName:      firstNonEmpty(raw.DisplayName, raw.Name, raw.FullName),
		Annex:            raw.Annex,
		OwnershipPercent: string(raw.Percent),
		Children:         raw.Children,
		Parents:          raw.Parents,
	}
	if e.Annex == nil {
		e.Annex = raw.Secretary
	}
	if e.Annex != nil && strings.TrimSpace(e.Annex.Name) == "" {
		e.Annex = nil
	}
	return nil
}

// flexString decodes either a JSON string or a JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Label returns the display name, falling back to the id.
func (e *Entity) Label() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.ID
}

// Count returns the number of entities in the downward tree rooted at e.
func (e *Entity) Count() int {
	n := 1
	for _, c := range e.Children {
		n += c.Count()
	}
	return n
}

// ReadEntity decodes an entity tree from JSON.
func ReadEntity(r io.Reader) (*Entity, error) {
	var e Entity
	dec := json.NewDecoder(r)
	if err := dec.Decode(&e); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "decode entity tree")
	}
	return &e, nil
}

// ReadEntityFile decodes an entity tree from a JSON file.
func ReadEntityFile(path string) (*Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return ReadEntity(f)
}

// WriteEntity encodes an entity tree as indented JSON.
func WriteEntity(e *Entity, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
