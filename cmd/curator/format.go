package main

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

var (
	titleCaser = cases.Title(language.Und)
	numbers    = message.NewPrinter(language.English)
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// statusLabel title-cases a status and colours it on terminals.
func statusLabel(status string, colorize bool) string {
	label := titleCaser.String(strings.ReplaceAll(status, "_", " "))
	if !colorize {
		return label
	}
	switch strings.ToLower(status) {
	case "failed", "disabled":
		return ansiRed + label + ansiReset
	case "uploaded", "submitted", "complete", "approved":
		return ansiGreen + label + ansiReset
	case "uploading", "pending", "incomplete":
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

// formatCount renders n with thousands separators.
func formatCount(n int64) string {
	return numbers.Sprintf("%d", n)
}

func formatBytes(n int64) string {
	if n < 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatUnix(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return formatTime(time.Unix(ts, 0))
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func optionalString(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
