package git

import (
	"bufio"
	"os"
	"strings"
)

// Mailmap resolves commit identities to canonical ones, following the
// .mailmap forms documented in gitmailmap(5):
//
//	Proper Name <commit@email>
//	<proper@email> <commit@email>
//	Proper Name <proper@email> <commit@email>
//	Proper Name <proper@email> Commit Name <commit@email>
type Mailmap struct {
	byEmail     map[string]mailmapEntry
	byNameEmail map[string]mailmapEntry
}

type mailmapEntry struct {
	name  string
	email string
}

// LoadMailmap reads a .mailmap file. A missing or unreadable file yields an
// empty mailmap that resolves every identity to itself.
func LoadMailmap(path string) *Mailmap {
	f, err := os.Open(path)
	if err != nil {
		return &Mailmap{}
	}
	defer f.Close()

	m := &Mailmap{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m.addLine(scanner.Text())
	}
	return m
}

// ParseMailmap builds a mailmap from file contents
func ParseMailmap(content string) *Mailmap {
	m := &Mailmap{}
	for _, line := range strings.Split(content, "\n") {
		m.addLine(line)
	}
	return m
}

// Len returns the number of mapping lines
func (m *Mailmap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.byEmail) + len(m.byNameEmail)
}

func (m *Mailmap) addLine(line string) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	var names, emails []string
	rest := line
	for {
		open := strings.IndexByte(rest, '<')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(rest[open:], '>')
		if closing < 0 {
			return
		}
		names = append(names, strings.TrimSpace(rest[:open]))
		emails = append(emails, strings.TrimSpace(rest[open+1:open+closing]))
		rest = rest[open+closing+1:]
	}

	switch len(emails) {
	case 1:
		// Proper Name <commit@email>
		if names[0] == "" {
			return
		}
		m.set(m.emailIndex(), key("", emails[0]), mailmapEntry{name: names[0]})
	case 2:
		entry := mailmapEntry{name: names[0], email: emails[0]}
		if names[1] != "" {
			m.set(m.nameEmailIndex(), key(names[1], emails[1]), entry)
		} else {
			m.set(m.emailIndex(), key("", emails[1]), entry)
		}
	}
}

func (m *Mailmap) emailIndex() map[string]mailmapEntry {
	if m.byEmail == nil {
		m.byEmail = make(map[string]mailmapEntry)
	}
	return m.byEmail
}

func (m *Mailmap) nameEmailIndex() map[string]mailmapEntry {
	if m.byNameEmail == nil {
		m.byNameEmail = make(map[string]mailmapEntry)
	}
	return m.byNameEmail
}

// set merges entry into idx; later lines fill in fields earlier ones left empty
func (m *Mailmap) set(idx map[string]mailmapEntry, k string, entry mailmapEntry) {
	prev := idx[k]
	if entry.name == "" {
		entry.name = prev.name
	}
	if entry.email == "" {
		entry.email = prev.email
	}
	idx[k] = entry
}

func key(name, email string) string {
	return strings.ToLower(name) + "\x00" + strings.ToLower(email)
}

// Resolve returns the canonical name and email for a commit identity
func (m *Mailmap) Resolve(name, email string) (string, string) {
	if m.Len() == 0 {
		return name, email
	}

	entry, ok := m.byNameEmail[key(name, email)]
	if !ok {
		entry, ok = m.byEmail[key("", email)]
	}
	if !ok {
		return name, email
	}

	if entry.name != "" {
		name = entry.name
	}
	if entry.email != "" {
		email = entry.email
	}
	return name, email
}
