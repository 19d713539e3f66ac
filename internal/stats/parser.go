// Package stats reads and validates the stats cache file written by Claude Code.
package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/j-veylop/claude-token-tray/internal/models"
)

const (
	// FileName is the name of the stats cache file inside the Claude directory.
	FileName = "stats-cache.json"
	// DirName is the Claude directory under the user's home.
	DirName = ".claude"
)

var (
	requiredTopLevel = []string{
		"version",
		"lastComputedDate",
		"dailyActivity",
		"dailyModelTokens",
		"modelUsage",
		"totalSessions",
		"totalMessages",
	}
	requiredDailyActivity  = []string{"date", "messageCount", "sessionCount", "toolCallCount"}
	requiredDailyTokens    = []string{"date", "tokensByModel"}
	requiredModelUsage     = []string{"inputTokens", "outputTokens", "cacheReadInputTokens", "cacheCreationInputTokens", "webSearchRequests"}
	requiredLongestSession = []string{"sessionId", "duration", "messageCount", "timestamp"}

	topLevelKeys   = slices.Concat(requiredTopLevel, []string{"longestSession", "firstSessionDate", "hourCounts"})
	modelUsageKeys = slices.Concat(requiredModelUsage, []string{"costUsd"})
)

// DefaultPath returns <home>/.claude/stats-cache.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", &IoError{Err: fmt.Errorf("could not find home directory: %w", err)}
	}
	if home == "" {
		return "", &IoError{Err: fmt.Errorf("could not find home directory")}
	}
	return filepath.Join(home, DirName, FileName), nil
}

// Read loads the stats file from its default location.
func Read() (*models.StatsCache, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return ReadFromPath(path)
}

// ReadFromPath reads the whole file at path and parses it.
func ReadFromPath(path string) (*models.StatsCache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IoError{Path: path, Err: err}
	}

	cache, err := Parse(data)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return cache, nil
}

// Parse decodes raw JSON into a StatsCache. Every required field must be
// present and non-null; optional fields may be absent or null. Keys that
// differ from a known field only by case are ignored.
func Parse(raw []byte) (*models.StatsCache, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &ParseError{Err: err}
	}
	if fields == nil {
		return nil, &ParseError{Err: fmt.Errorf("expected a JSON object")}
	}
	dropFoldedKeys(fields, topLevelKeys)
	if err := requireFields("", fields, requiredTopLevel); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := validateNested(fields); err != nil {
		return nil, &ParseError{Err: err}
	}

	// The typed decode only ever sees exact key names.
	canonical, err := json.Marshal(fields)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	var cache models.StatsCache
	if err := json.Unmarshal(canonical, &cache); err != nil {
		return nil, &ParseError{Err: err}
	}

	return &cache, nil
}

// validateNested checks every nested record and writes the cleaned records
// back into fields.
func validateNested(fields map[string]json.RawMessage) error {
	if _, err := cleanRecords(fields, "dailyActivity", requiredDailyActivity); err != nil {
		return err
	}

	tokens, err := cleanRecords(fields, "dailyModelTokens", requiredDailyTokens)
	if err != nil {
		return err
	}
	for i, entry := range tokens {
		if err := rejectNullValues(fmt.Sprintf("dailyModelTokens[%d].tokensByModel", i), entry["tokensByModel"]); err != nil {
			return err
		}
	}

	var usage map[string]map[string]json.RawMessage
	if err := json.Unmarshal(fields["modelUsage"], &usage); err != nil {
		return fmt.Errorf("modelUsage: %w", err)
	}
	for _, name := range slices.Sorted(maps.Keys(usage)) {
		prefix := fmt.Sprintf("modelUsage[%q].", name)
		entry := usage[name]
		if entry != nil {
			dropFoldedKeys(entry, modelUsageKeys)
		}
		if err := requireFields(prefix, entry, requiredModelUsage); err != nil {
			return err
		}
		if raw, ok := entry["costUsd"]; ok && isNull(raw) {
			return fmt.Errorf("field `%scostUsd` is null", prefix)
		}
	}
	if err := rewrite(fields, "modelUsage", usage); err != nil {
		return err
	}

	if raw, ok := fields["longestSession"]; ok && !isNull(raw) {
		var session map[string]json.RawMessage
		if err := json.Unmarshal(raw, &session); err != nil {
			return fmt.Errorf("longestSession: %w", err)
		}
		dropFoldedKeys(session, requiredLongestSession)
		if err := requireFields("longestSession.", session, requiredLongestSession); err != nil {
			return err
		}
		if err := rewrite(fields, "longestSession", session); err != nil {
			return err
		}
	}

	if raw, ok := fields["hourCounts"]; ok && !isNull(raw) {
		if err := rejectNullValues("hourCounts", raw); err != nil {
			return err
		}
	}

	return nil
}

// cleanRecords decodes the array of objects stored under key, drops
// case-folded duplicates of the required names and checks each record.
func cleanRecords(fields map[string]json.RawMessage, key string, required []string) ([]map[string]json.RawMessage, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(fields[key], &records); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	for i, entry := range records {
		if entry != nil {
			dropFoldedKeys(entry, required)
		}
		if err := requireFields(fmt.Sprintf("%s[%d].", key, i), entry, required); err != nil {
			return nil, err
		}
	}
	if err := rewrite(fields, key, records); err != nil {
		return nil, err
	}
	return records, nil
}

func rewrite(fields map[string]json.RawMessage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	fields[key] = data
	return nil
}

// rejectNullValues requires raw to be an object none of whose values is null.
func rejectNullValues(name string, raw json.RawMessage) error {
	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if isNull(values[key]) {
			return fmt.Errorf("field `%s[%q]` is null", name, key)
		}
	}
	return nil
}

// dropFoldedKeys deletes keys that match a known name only case-insensitively.
// encoding/json would otherwise decode them into that field.
func dropFoldedKeys(fields map[string]json.RawMessage, known []string) {
	for key := range fields {
		if slices.Contains(known, key) {
			continue
		}
		if slices.ContainsFunc(known, func(name string) bool { return strings.EqualFold(key, name) }) {
			delete(fields, key)
		}
	}
}

func requireFields(prefix string, fields map[string]json.RawMessage, names []string) error {
	if fields == nil {
		return fmt.Errorf("%srecord is null", prefix)
	}
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			return fmt.Errorf("missing field `%s%s`", prefix, name)
		}
		if isNull(raw) {
			return fmt.Errorf("field `%s%s` is null", prefix, name)
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
