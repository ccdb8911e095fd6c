package marc

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Mnemonic lines look like
//
//	=LDR  00000nam  2200000 a 4500
//	=008  850101s1985\\\\nyu\\\\\\\\\\\000\0\eng\d
//	=245  10$aTitle /$cAuthor.
//
// The leading "=" is optional so loosely formatted records such as
// "245 10 $a Title" are accepted too.
var mnemonicLine = regexp.MustCompile(`^=?(LDR|\d{3})(?:\s(.*))?$`)

// ParseMnemonic reads MARC mnemonic (.mrk) text. Records are separated by
// one or more blank lines.
func ParseMnemonic(r io.Reader) ([]*Record, error) {
	var records []*Record
	var current *Record

	scanner := bufio.NewScanner(r)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			if current != nil {
				records = append(records, current)
				current = nil
			}
			continue
		}

		if current == nil {
			current = NewRecord("")
		}
		if err := parseMnemonicLine(current, line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading mnemonic records: %w", err)
	}
	if current != nil {
		records = append(records, current)
	}

	return records, nil
}

// ParseMnemonicRecord parses a single record in mnemonic form
func ParseMnemonicRecord(text string) (*Record, error) {
	records, err := ParseMnemonic(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no MARC record found")
	}
	return records[0], nil
}

func parseMnemonicLine(rec *Record, line string) error {
	matches := mnemonicLine.FindStringSubmatch(line)
	if matches == nil {
		return fmt.Errorf("unrecognized mnemonic line %q", line)
	}
	tag, rest := matches[1], matches[2]
	// MarcEdit separates the tag from the data with two spaces
	rest = strings.TrimPrefix(rest, " ")

	switch {
	case tag == "LDR":
		rec.leader = backslashToBlank(rest)
	case IsControlTag(tag):
		rec.AddControlField(tag, backslashToBlank(rest))
	default:
		rec.AddField(parseMnemonicData(tag, rest))
	}
	return nil
}

func parseMnemonicData(tag, rest string) Field {
	indicators := rest
	data := ""
	if i := strings.Index(rest, "$"); i >= 0 {
		indicators, data = rest[:i], rest[i+1:]
	}
	indicators = backslashToBlank(strings.TrimRight(indicators, " "))
	field := NewField(tag, indicators)

	if data == "" {
		return field
	}
	for _, chunk := range strings.Split(data, "$") {
		if chunk == "" {
			continue
		}
		field.Subfields = append(field.Subfields, Subfield{
			Code:  chunk[:1],
			Value: strings.TrimSpace(strings.ReplaceAll(chunk[1:], "{dollar}", "$")),
		})
	}
	return field
}

func backslashToBlank(s string) string {
	return strings.ReplaceAll(s, `\`, " ")
}
