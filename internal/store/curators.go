package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"github.com/ppiankov/biomap/internal/model"
)

// ErrMissingCurator is returned when the current user has no curators entry
var ErrMissingCurator = errors.New("current user is not a registered curator")

// Curator is one row of the curators table
type Curator struct {
	User  string `json:"user" yaml:"user"`
	ORCID string `json:"orcid" yaml:"orcid"`
	Name  string `json:"name" yaml:"name"`
}

// Reference returns the curator as an orcid reference carrying their name
func (c Curator) Reference() model.Reference {
	return model.Reference{Prefix: model.AuthorPrefix, Identifier: c.ORCID, Name: c.Name}
}

// LoadCurators reads a user/orcid/name TSV; a missing file has no curators
func LoadCurators(path string) ([]Curator, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open curators: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.Comment = '#'
	r.FieldsPerRecord = -1

	var out []Curator
	for line := 1; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read curators: %w", err)
		}
		if line == 1 && record[0] == "user" {
			continue
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("curators line %d: expected user and orcid", line)
		}
		c := Curator{User: strings.TrimSpace(record[0]), ORCID: strings.TrimSpace(record[1])}
		if len(record) > 2 {
			c.Name = strings.TrimSpace(record[2])
		}
		out = append(out, c)
	}
	return out, nil
}

// FindCurator looks a curator up by login
func FindCurator(curators []Curator, login string) (Curator, bool) {
	for _, c := range curators {
		if c.User == login {
			return c, true
		}
	}
	return Curator{}, false
}

// CurrentCurator resolves the curator for override, or the OS login when
// override is empty
func CurrentCurator(path, override string) (model.Reference, error) {
	login := override
	if login == "" {
		u, err := user.Current()
		if err != nil {
			return model.Reference{}, fmt.Errorf("lookup current user: %w", err)
		}
		login = u.Username
	}

	curators, err := LoadCurators(path)
	if err != nil {
		return model.Reference{}, err
	}
	c, ok := FindCurator(curators, login)
	if !ok {
		return model.Reference{}, fmt.Errorf("%w: %q (add a row to %s)", ErrMissingCurator, login, path)
	}
	return c.Reference(), nil
}
