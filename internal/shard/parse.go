package shard

import (
	"errors"
	"iter"
	"strings"
)

// Line parse errors. They never leave the package through Fetch.
var (
	ErrMissingSeparator = errors.New("missing '|' separator")
	ErrEmptyName        = errors.New("empty server label")
)

// DefaultAliases rewrites feed labels to the short names the portal displays.
func DefaultAliases() map[string]string {
	return map[string]string{atsLabel: atsName}
}

// Parser turns status feed text into records.
type Parser struct {
	// Aliases maps the first token of a server label to its display name.
	Aliases map[string]string
}

// NewParser creates a parser with DefaultAliases.
func NewParser() *Parser {
	return &Parser{Aliases: DefaultAliases()}
}

// ParseLine parses "label|code|...". Only the first two fields are used.
func (p *Parser) ParseLine(line string) (Record, error) {
	fields := strings.Split(line, "|")
	if len(fields) < 2 {
		return Record{}, ErrMissingSeparator
	}

	tokens := strings.Fields(fields[0])
	if len(tokens) == 0 {
		return Record{}, ErrEmptyName
	}

	name := tokens[0]
	if alias, ok := p.Aliases[name]; ok {
		name = alias
	}

	return Record{
		Name:  name,
		State: StateFromCode(strings.TrimSpace(fields[1])),
	}, nil
}

// Records lazily yields a parse result per non-blank line of body.
func (p *Parser) Records(body string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSuffix(line, "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !yield(p.ParseLine(line)) {
				return
			}
		}
	}
}

// Parse builds a report from the first Slots parseable lines of body.
func (p *Parser) Parse(body string) Report {
	report, _ := collect(p.Records(body))
	return report
}

// collect keeps successful records until the report is full and pads the
// rest with sentinels. It returns the number of lines it skipped.
func collect(seq iter.Seq2[Record, error]) (Report, int) {
	report := NewReport()
	n, skipped := 0, 0
	for rec, err := range seq {
		if err != nil {
			skipped++
			continue
		}
		report[n] = rec
		n++
		if n == Slots {
			break
		}
	}
	return report, skipped
}

// Parse parses body with the default aliases.
func Parse(body string) Report {
	return NewParser().Parse(body)
}
