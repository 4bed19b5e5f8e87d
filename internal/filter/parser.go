package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// queryToken matches `key:value` and `key:"quoted value"` terms.
var queryToken = regexp.MustCompile(`(?i)\b(tipo|type|local|location|data|date):("([^"]*)"|\S+)`)

// ParseQuery parses a one-line query into Criteria.
//
// Supported terms (Portuguese or English keys):
//   - "tipo:Teatro" or "type:Teatro"
//   - `local:"Centro Cultural"` or "location:Centro"
//   - "data:12/01/2025" or `date:"Domingo, 12 de Jan"`
//
// Everything else becomes the free-text search. A key given twice is an error.
func ParseQuery(input string) (Criteria, error) {
	var c Criteria

	matches := queryToken.FindAllStringSubmatchIndex(input, -1)
	var rest strings.Builder
	last := 0
	for _, m := range matches {
		rest.WriteString(input[last:m[0]])
		last = m[1]

		key := strings.ToLower(input[m[2]:m[3]])
		value := input[m[4]:m[5]]
		if m[6] >= 0 {
			value = input[m[6]:m[7]]
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return Criteria{}, fmt.Errorf("empty value for %s", key)
		}

		var field *string
		switch key {
		case "tipo", "type":
			field = &c.Type
		case "local", "location":
			field = &c.Location
		case "data", "date":
			field = &c.Date
		}
		if *field != "" {
			return Criteria{}, fmt.Errorf("%s given more than once", key)
		}
		*field = value
	}
	rest.WriteString(input[last:])

	c.Search = strings.Join(strings.Fields(rest.String()), " ")
	return c, nil
}
