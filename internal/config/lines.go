package config

import (
	"bufio"
	"os"
	"strings"
)

// maxLineLength mirrors the original loader's 256-byte line buffer: any
// logical line longer than this is truncated, and the rest of it is
// silently discarded rather than parsed.
const maxLineLength = 255

type configLine struct {
	num  int
	text string
}

// readConfigLines opens filename and returns its non-comment,
// non-blank lines, left-trimmed and capped at maxLineLength, tagged with
// their 1-based line number for diagnostics.
func readConfigLines(filename string) ([]configLine, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, &ConfigError{File: filename, Msg: "missing configuration file"}
	}
	defer f.Close()

	var lines []configLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	n := 0
	for scanner.Scan() {
		n++
		raw := scanner.Text()
		if len(raw) < 3 || raw[0] == '#' || strings.HasPrefix(raw, "//") {
			continue
		}
		if len(raw) > maxLineLength {
			raw = raw[:maxLineLength]
		}
		lines = append(lines, configLine{num: n, text: strings.TrimLeft(raw, " \t")})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ConfigError{File: filename, Msg: err.Error()}
	}
	return lines, nil
}

// field splits a config line's value after a known key prefix has been
// consumed, trimming leading whitespace.
func field(line, key string) (string, bool) {
	if !strings.HasPrefix(line, key) {
		return "", false
	}
	return strings.TrimLeft(line[len(key):], " \t"), true
}
