package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Entry is one parsed line of the console's own log file.
type Entry struct {
	Raw      string
	Time     time.Time
	Level    slog.Level
	HasLevel bool
	Message  string
	// Attrs holds the remaining key/value pairs in file order.
	Attrs []Attr
}

// Attr is a single key/value pair from a log line.
type Attr struct {
	Key   string
	Value string
}

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines reads the whole file. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Tail reads the last maxLines lines and keeps those at or above min. Lines
// without a recognizable level are always kept.
func Tail(path string, maxLines int, min slog.Level) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		e := Parse(line)
		if e.HasLevel && e.Level < min {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Parse understands both slog handler formats: JSON objects and key=value
// text. Anything else is returned with only Raw and Message set.
func Parse(line string) Entry {
	e := Entry{Raw: line}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return e
	}
	var pairs []Attr
	if strings.HasPrefix(trimmed, "{") {
		pairs = parseJSON(trimmed)
	} else {
		pairs = parseText(trimmed)
	}
	if len(pairs) == 0 {
		e.Message = trimmed
		return e
	}

	for _, p := range pairs {
		switch p.Key {
		case slog.TimeKey:
			if t, err := time.Parse(time.RFC3339Nano, p.Value); err == nil {
				e.Time = t
			}
		case slog.LevelKey:
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(p.Value)); err == nil {
				e.Level = lvl
				e.HasLevel = true
			}
		case slog.MessageKey:
			e.Message = p.Value
		default:
			e.Attrs = append(e.Attrs, p)
		}
	}
	if !e.HasLevel && e.Message == "" {
		e.Message = trimmed
		e.Attrs = nil
	}
	return e
}

func parseJSON(line string) []Attr {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil
	}
	// Map iteration order is random; keep the standard keys first and the
	// rest sorted so rendering is stable.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sortKeys(keys)

	pairs := make([]Attr, 0, len(keys))
	for _, k := range keys {
		var s string
		if err := json.Unmarshal(raw[k], &s); err != nil {
			s = string(raw[k])
		}
		pairs = append(pairs, Attr{Key: k, Value: s})
	}
	return pairs
}

func parseText(line string) []Attr {
	var pairs []Attr
	rest := line
	for rest != "" {
		rest = strings.TrimLeft(rest, " ")
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 || strings.ContainsAny(rest[:eq], " \"") {
			return pairs
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			end := closingQuote(rest)
			if end < 0 {
				return pairs
			}
			unquoted, err := strconv.Unquote(rest[:end+1])
			if err != nil {
				return pairs
			}
			value = unquoted
			rest = rest[end+1:]
		} else {
			sp := strings.IndexByte(rest, ' ')
			if sp < 0 {
				value, rest = rest, ""
			} else {
				value, rest = rest[:sp], rest[sp:]
			}
		}
		pairs = append(pairs, Attr{Key: key, Value: value})
	}
	return pairs
}

// closingQuote returns the index of the quote ending the string that starts
// at s[0], honoring backslash escapes.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

var keyRank = map[string]int{slog.TimeKey: 0, slog.LevelKey: 1, slog.MessageKey: 2}

func sortKeys(keys []string) {
	rank := func(k string) int {
		if r, ok := keyRank[k]; ok {
			return r
		}
		return len(keyRank)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
}
