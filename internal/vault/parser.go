package vault

import "strings"

// Candidate is one parsed import record. Only Login and Password are
// required; Extra collects trailing fields and is destined for the
// account note.
type Candidate struct {
	Login              string
	Password           string
	AuthenticatorToken string
	AppPassword        string
	AuthenticatorURL   string
	MessagesURL        string
	Extra              string
}

// Field order for both the semicolon and the vertical paste shapes.
const candidateFields = 6

// ParseRecords turns raw pasted text into candidate records plus a count
// of malformed (skipped) records. Two shapes are supported:
//
//   - one semicolon-delimited line per account, fields in the fixed order
//     login;password;authenticatorToken;appPassword;authenticatorUrl;messagesUrl
//     with any trailing fields concatenated into Extra
//   - a vertical paste where each field occupies its own line, optionally
//     semicolon-terminated; a blank line or the sixth field ends a record
//
// A record missing its password is counted as skipped, never fatal.
func ParseRecords(raw string) ([]Candidate, int) {
	var (
		candidates []Candidate
		skipped    int
		buffer     []string
	)

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		if c, ok := candidateFromFields(buffer); ok {
			candidates = append(candidates, c)
		} else {
			skipped++
		}
		buffer = buffer[:0]
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}

		// A trailing semicolon is a terminator, not a field separator.
		line = strings.TrimRight(line, ";")
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}

		if strings.Contains(line, ";") {
			flush()
			fields := strings.Split(line, ";")
			for i := range fields {
				fields[i] = strings.TrimSpace(fields[i])
			}
			if c, ok := candidateFromFields(fields); ok {
				candidates = append(candidates, c)
			} else {
				skipped++
			}
			continue
		}

		buffer = append(buffer, line)
		if len(buffer) == candidateFields {
			flush()
		}
	}
	flush()

	return candidates, skipped
}

func candidateFromFields(fields []string) (Candidate, bool) {
	var c Candidate
	if len(fields) > 0 {
		c.Login = strings.TrimSpace(fields[0])
	}
	if len(fields) > 1 {
		c.Password = strings.TrimSpace(fields[1])
	}
	if c.Login == "" || c.Password == "" {
		return Candidate{}, false
	}
	if len(fields) > 2 {
		c.AuthenticatorToken = strings.TrimSpace(fields[2])
	}
	if len(fields) > 3 {
		c.AppPassword = strings.TrimSpace(fields[3])
	}
	if len(fields) > 4 {
		c.AuthenticatorURL = strings.TrimSpace(fields[4])
	}
	if len(fields) > 5 {
		c.MessagesURL = strings.TrimSpace(fields[5])
	}
	if len(fields) > candidateFields {
		extras := make([]string, 0, len(fields)-candidateFields)
		for _, f := range fields[candidateFields:] {
			if f = strings.TrimSpace(f); f != "" {
				extras = append(extras, f)
			}
		}
		c.Extra = strings.Join(extras, "\n")
	}
	return c, true
}
