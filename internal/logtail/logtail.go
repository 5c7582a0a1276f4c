package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Level is the severity of a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps a level name to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "INFO":
		return LevelInfo, nil
	case "DEBUG":
		return LevelDebug, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

var (
	timestampPattern = regexp.MustCompile(`^(?:\w+ )?\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?\s*`)
	failurePattern   = regexp.MustCompile(`(?i)\b(fail(ed|ure)?|error|panic)\b`)
)

// LevelOf classifies a line. An explicit level word right after the
// timestamp wins; otherwise lines mentioning a failure are errors.
func LevelOf(line string) Level {
	rest := timestampPattern.ReplaceAllString(line, "")
	word, _, _ := strings.Cut(rest, " ")
	switch word {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	}
	if failurePattern.MatchString(rest) {
		return LevelError
	}
	return LevelInfo
}

// Filter keeps lines at or above min.
func Filter(lines []string, min Level) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if LevelOf(line) >= min {
			out = append(out, line)
		}
	}
	return out
}

var (
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	levelStyles    = map[Level]lipgloss.Style{
		LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		LevelInfo:  lipgloss.NewStyle(),
		LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")),
		LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
)

// Colorize renders a line for the terminal: a dim timestamp and a message
// coloured by level. Without a colour-capable terminal the line is returned
// unchanged.
func Colorize(line string) string {
	if strings.TrimSpace(line) == "" {
		return line
	}
	ts := timestampPattern.FindString(line)
	msg := line[len(ts):]
	var b strings.Builder
	if ts != "" {
		b.WriteString(timestampStyle.Render(strings.TrimRight(ts, " \t")))
		b.WriteString(ts[len(strings.TrimRight(ts, " \t")):])
	}
	b.WriteString(levelStyles[LevelOf(line)].Render(msg))
	return b.String()
}
