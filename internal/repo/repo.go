package repo

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

// getRemoteURL gets the origin remote URL for a directory.
func getRemoteURL(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "remote", "get-url", "origin")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git remote get-url origin: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// normalizeGitURL normalizes a git URL for comparison.
// Strips .git suffix, scheme and credentials, leaving host/path.
func normalizeGitURL(u string) string {
	u = strings.TrimSpace(u)
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, ".git")

	// Handle SSH URLs: git@host:owner/repo → host/owner/repo
	if strings.HasPrefix(u, "git@") {
		u = strings.TrimPrefix(u, "git@")
		u = strings.Replace(u, ":", "/", 1)
	}

	// Handle HTTPS URLs: https://[user@]host/owner/repo → host/owner/repo
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	if at := strings.Index(u, "@"); at >= 0 {
		if slash := strings.Index(u, "/"); slash < 0 || at < slash {
			u = u[at+1:]
		}
	}

	return strings.ToLower(strings.TrimSuffix(u, "/"))
}

// redactURL hides the credentials of an https remote so it can be logged.
func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.User == nil {
		return raw
	}
	parsed.User = url.User("redacted")
	return parsed.String()
}
