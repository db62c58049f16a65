package config

import "fmt"

// ConfigError reports a fatal problem with a configuration file: missing
// file, an empty upstream list, or an unusable dns64-prefix line. It is
// always fatal at startup, never recovered mid-run.
type ConfigError struct {
	File string
	Line int // 0 when not tied to a specific line
	Msg  string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("config: %s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("config: %s: %s", e.File, e.Msg)
}
