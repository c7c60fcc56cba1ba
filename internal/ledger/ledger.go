package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one ledger line.
type Entry struct {
	Filename   string
	Reason     string
	RecordedAt time.Time
}

// Ledger is the in-memory view of the ledger file.
type Ledger struct {
	path    string
	entries map[string]Entry
	order   []string
	now     func() time.Time
}

var fieldCleaner = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

func clean(value string) string {
	return strings.TrimSpace(fieldCleaner.Replace(value))
}

// Open loads the ledger at path. A missing file is an empty ledger.
func Open(path string) (*Ledger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ledger path not configured")
	}
	l := &Ledger{path: path, entries: make(map[string]Entry), now: time.Now}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry := parseLine(line)
		if entry.Filename == "" {
			continue
		}
		l.remember(entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return l, nil
}

func parseLine(line string) Entry {
	fields := strings.Split(line, "\t")
	entry := Entry{Filename: strings.TrimSpace(fields[0])}
	if len(fields) > 1 {
		entry.Reason = strings.TrimSpace(fields[1])
	}
	if len(fields) > 2 {
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[2])); err == nil {
			entry.RecordedAt = ts
		}
	}
	return entry
}

func (l *Ledger) remember(entry Entry) {
	if _, exists := l.entries[entry.Filename]; !exists {
		l.order = append(l.order, entry.Filename)
	}
	l.entries[entry.Filename] = entry
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// Contains reports whether filename is recorded.
func (l *Ledger) Contains(filename string) (Entry, bool) {
	entry, ok := l.entries[clean(filename)]
	return entry, ok
}

// Entries returns every entry in file order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.entries[name])
	}
	return out
}

// Len returns the number of recorded files.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Append records filename with reason. Recording a known file is a no-op.
func (l *Ledger) Append(filename, reason string) error {
	filename = clean(filename)
	if filename == "" {
		return errors.New("ledger: empty filename")
	}
	if _, exists := l.entries[filename]; exists {
		return nil
	}
	entry := Entry{Filename: filename, Reason: clean(reason), RecordedAt: l.now().UTC().Truncate(time.Second)}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}
	if _, err := file.WriteString(formatLine(entry)); err != nil {
		_ = file.Close()
		return fmt.Errorf("append ledger entry: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	l.remember(entry)
	return nil
}

// Forget removes filename from the ledger file. It reports whether an entry
// was removed.
func (l *Ledger) Forget(filename string) (bool, error) {
	filename = clean(filename)
	if _, exists := l.entries[filename]; !exists {
		return false, nil
	}

	remaining := make([]string, 0, len(l.order))
	var builder strings.Builder
	builder.WriteString("# mediasort failure ledger: filename<TAB>reason<TAB>recorded_at\n")
	for _, name := range l.order {
		if name == filename {
			continue
		}
		remaining = append(remaining, name)
		builder.WriteString(formatLine(l.entries[name]))
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(builder.String()), 0o644); err != nil {
		return false, fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("replace ledger: %w", err)
	}
	delete(l.entries, filename)
	l.order = remaining
	return true, nil
}

func formatLine(entry Entry) string {
	ts := ""
	if !entry.RecordedAt.IsZero() {
		ts = entry.RecordedAt.UTC().Format(time.RFC3339)
	}
	return entry.Filename + "\t" + entry.Reason + "\t" + ts + "\n"
}
