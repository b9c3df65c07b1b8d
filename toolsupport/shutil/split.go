// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shutil

import (
	"fmt"
	"strings"
)

// Split splits a command line as found in compile_commands.json.
// It handles single quote, double quote and backslash escape.
// It returns error for a command line that needs a shell to run,
// e.g. pipe line, redirect, variable expansion.
func Split(cmdline string) ([]string, error) {
	var args []string
	var sb strings.Builder
	inArg := false
	quote := rune(0)
	escaped := false
	for _, ch := range cmdline {
		switch {
		case escaped:
			// in double quote, backslash escapes only a few chars.
			if quote == '"' && !strings.ContainsRune(`"\$`+"`", ch) {
				sb.WriteByte('\\')
			}
			sb.WriteRune(ch)
			escaped = false
			continue
		case quote == '\'':
			if ch == '\'' {
				quote = 0
				continue
			}
			sb.WriteRune(ch)
			continue
		case quote == '"':
			switch ch {
			case '"':
				quote = 0
			case '\\':
				escaped = true
			case '$', '`':
				return nil, fmt.Errorf("failed to split: cmdline contains shell metachar %c in quote", ch)
			default:
				sb.WriteRune(ch)
			}
			continue
		}
		switch ch {
		case '\\':
			inArg = true
			escaped = true
		case '"', '\'':
			inArg = true
			quote = ch
		case ' ', '\t', '\n':
			if inArg {
				args = append(args, sb.String())
				sb.Reset()
				inArg = false
			}
		case ';', '&', '|', '<', '>', '$', '#', '`', '(', ')':
			return nil, fmt.Errorf("failed to split: cmdline contains shell metachar %c", ch)
		default:
			inArg = true
			sb.WriteRune(ch)
		}
	}
	if escaped {
		return nil, fmt.Errorf("failed to split: trailing backslash")
	}
	if quote != 0 {
		return nil, fmt.Errorf("failed to split: unterminated quote %c", quote)
	}
	if inArg {
		args = append(args, sb.String())
	}
	if len(args) >= 1 && strings.Contains(args[0], "=") {
		// env var assignment needs shell to run.
		return nil, fmt.Errorf("argv[0] is env set %q", args[0])
	}
	return args, nil
}
