package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Queries are declared in a YAML/JSON file so operators can change the
// tracked keywords without a rebuild.

const (
	SortByDate      = "date"
	SortByRelevance = "sim"

	defaultMaxResults = 20
)

// Query describes one search the collector runs per pass.
type Query struct {
	Keyword    string `json:"keyword" yaml:"keyword"`
	Region     string `json:"region" yaml:"region"`
	MaxResults int    `json:"max_results" yaml:"max_results"`
	Sort       string `json:"sort" yaml:"sort"`
}

type queriesFile struct {
	Queries []Query `json:"queries" yaml:"queries"`
}

// LoadQueries loads the query set from a YAML or JSON file.
func LoadQueries(path string) ([]Query, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("queries file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read queries file: %w", err)
	}

	parsed, err := parseQueriesFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Queries) == 0 {
		return nil, errors.New("queries file contains no queries entries")
	}

	seen := make(map[string]struct{}, len(parsed.Queries))
	out := make([]Query, 0, len(parsed.Queries))
	for i := range parsed.Queries {
		q := sanitizeQuery(parsed.Queries[i])
		if err := validateQuery(q); err != nil {
			return nil, fmt.Errorf("query[%d]: %w", i, err)
		}
		if _, dup := seen[q.Keyword]; dup {
			return nil, fmt.Errorf("duplicate query keyword %q", q.Keyword)
		}
		seen[q.Keyword] = struct{}{}
		out = append(out, q)
	}

	return out, nil
}

func parseQueriesFile(data []byte, ext string) (queriesFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var parsed queriesFile
		if err := d.fn(data, &parsed); err == nil {
			return parsed, nil
		}
	}

	return queriesFile{}, errors.New("queries file format not recognized (expected YAML or JSON)")
}

func sanitizeQuery(q Query) Query {
	q.Keyword = strings.TrimSpace(q.Keyword)
	q.Region = strings.TrimSpace(q.Region)
	q.Sort = strings.ToLower(strings.TrimSpace(q.Sort))
	if q.Sort == "" {
		q.Sort = SortByDate
	}
	if q.MaxResults <= 0 {
		q.MaxResults = defaultMaxResults
	}
	return q
}

func validateQuery(q Query) error {
	if q.Keyword == "" {
		return errors.New("keyword is required")
	}
	if q.Sort != SortByDate && q.Sort != SortByRelevance {
		return fmt.Errorf("sort must be %q or %q, got %q", SortByDate, SortByRelevance, q.Sort)
	}
	return nil
}

// Term is the full search term sent to the API, keyword plus optional region.
func (q Query) Term() string {
	if q.Region == "" {
		return q.Keyword
	}
	return q.Region + " " + q.Keyword
}
