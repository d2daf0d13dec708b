package inventory

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAll reads all entries from a JSONL file. A missing file yields no entries.
func ReadAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening entries file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading entries file: %w", err)
	}

	return entries, nil
}

// Append adds an entry to the end of a JSONL file.
func Append(path string, e Entry) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening entries file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	return nil
}

// WriteAll writes all entries to a JSONL file, replacing existing content.
func WriteAll(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating entries file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding entry %d: %w", i, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	return w.Flush()
}

// FindByUniqueName searches for an entry by unique name.
func FindByUniqueName(entries []Entry, name string) (int, bool) {
	for i, e := range entries {
		if e.UniqueName == name {
			return i, true
		}
	}
	return -1, false
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and collapses everything that is not a letter or digit
// into single underscores.
func Slug(s string) string {
	s = slugPattern.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(s, "_")
}

// GenerateUniqueName returns "<type>_<slug>" that does not collide with an
// existing entry. Collisions get _2, _3, ... appended.
func GenerateUniqueName(entries []Entry, entryType, name string) string {
	base := Slug(entryType + " " + name)
	if _, found := FindByUniqueName(entries, base); !found {
		return base
	}

	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if _, found := FindByUniqueName(entries, candidate); !found {
			return candidate
		}
	}
}
