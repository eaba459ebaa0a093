package github

import (
	"fmt"
	"strings"
)

// repoIdentifier holds the parsed components of an "owner/name" repository reference.
type repoIdentifier struct {
	Owner string
	Name  string
}

// parseRepo splits "owner/name" (optionally a github.com URL) into its parts.
func parseRepo(full string) (*repoIdentifier, error) {
	s := strings.TrimSpace(full)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "github.com/")
	s = strings.TrimSuffix(s, ".git")
	s = strings.Trim(s, "/")

	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid repository %q: expected owner/name", full)
	}
	return &repoIdentifier{Owner: parts[0], Name: parts[1]}, nil
}
