package uevent

import (
	"errors"
	"fmt"
	"strings"
)

// 構文エラーを表すエラー
var ErrParse = errors.New("uevent: parse error")

// 構文エラーの詳細
type ParseError struct {
	Line   int // 1 から数えた行番号
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("uevent: line %d (%q): %s", e.Line, e.Text, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// 行の区切り文字（改行またはNUL）かどうかを確認
func isSeparator(r rune) bool {
	return r == '\n' || r == 0
}

// 生の uevent 文字列を解析して out に属性を設定
// attributesOnly の場合はヘッダー行を期待せず、すべての行を属性として扱う
func ParseFromString(raw string, out *Record, attributesOnly, trace bool) error {
	lines := strings.FieldsFunc(raw, isSeparator)

	if !attributesOnly && len(lines) == 0 {
		return &ParseError{Line: 1, Reason: "missing header line"}
	}

	var headerAction, headerDevpath string

	for i, line := range lines {
		lineNumber := i + 1

		if trace {
			out.log.V(1).Info("Parsing uevent line", "line", lineNumber, "text", line)
		}

		// 先頭行はヘッダー
		if i == 0 && !attributesOnly {
			action, devpath, err := parseHeader(line)
			if err != nil {
				return &ParseError{Line: lineNumber, Text: line, Reason: err.Error()}
			}

			headerAction, headerDevpath = action, devpath
			out.SetAttribute(ATTR_ACTION, action)
			out.SetAttribute(ATTR_DEVPATH, devpath)
			continue
		}

		name, value, err := parseAttribute(line)
		if err != nil {
			return &ParseError{Line: lineNumber, Text: line, Reason: err.Error()}
		}

		// ヘッダーと属性の値の一致を確認
		if !attributesOnly {
			if (name == ATTR_ACTION && value != headerAction) || (name == ATTR_DEVPATH && value != headerDevpath) {
				return &ParseError{Line: lineNumber, Text: line, Reason: "attribute value does not match header"}
			}
		}

		out.SetAttribute(name, value)
	}

	return nil
}

// "ACTION@DEVPATH" 形式のヘッダー行を解析
func parseHeader(line string) (string, string, error) {
	action, devpath, found := strings.Cut(line, "@")
	if !found {
		return "", "", errors.New("header line has no '@'")
	}

	if action == "" {
		return "", "", errors.New("empty action in header line")
	}

	for _, c := range action {
		if c < 'a' || c > 'z' {
			return "", "", fmt.Errorf("invalid character %q in header action", c)
		}
	}

	if !strings.HasPrefix(devpath, "/") {
		return "", "", errors.New("header devpath must start with '/'")
	}

	return action, devpath, nil
}

// "NAME=VALUE" 形式の属性行を解析
func parseAttribute(line string) (string, string, error) {
	name, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", errors.New("attribute line has no '='")
	}

	if name == "" {
		return "", "", errors.New("empty attribute name")
	}

	for _, c := range name {
		if !isNameChar(c) {
			return "", "", fmt.Errorf("invalid character %q in attribute name", c)
		}
	}

	return name, value, nil
}

// 属性名に使用できる文字かどうかを確認
func isNameChar(c rune) bool {
	return c == '_' ||
		(c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9')
}
