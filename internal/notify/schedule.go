// Package notify builds and sends the per-subscriber schedule emails for a meet.
package notify

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
	"github.com/Lllllllleong/heatsheetflow/internal/roster"
)

// DefaultMeetName is used when the upload had no usable file name.
const DefaultMeetName = "Swim Meet"

const missingCell = "—"

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// Recipient is one email address and the swimmers it subscribed to, in
// subscription order.
type Recipient struct {
	Email    string
	Swimmers []string
}

// GroupByEmail folds subscriptions into one Recipient per address. Addresses
// compare case-insensitively and keep their first-seen spelling; blank
// addresses and swimmer names are ignored.
func GroupByEmail(subs []models.Subscriber) []Recipient {
	index := make(map[string]int)
	var out []Recipient
	for _, s := range subs {
		email := strings.TrimSpace(s.Email)
		name := strings.TrimSpace(s.SwimmerName)
		if email == "" || name == "" {
			continue
		}
		key := strings.ToLower(email)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Recipient{Email: email})
		}
		out[i].Swimmers = append(out[i].Swimmers, name)
	}
	return out
}

// MeetName derives a display name from the uploaded file name.
func MeetName(filename string) string {
	name := strings.TrimSpace(filename)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name = name[:len(name)-len(".pdf")]
	}
	if strings.TrimSpace(name) == "" {
		return DefaultMeetName
	}
	return name
}

// Schedule is a composed email.
type Schedule struct {
	Subject string
	HTML    string
	// Matched counts swimmers with at least one event.
	Matched int
}

// ComposeSchedule renders one email listing each swimmer's events. Swimmers
// with no matching entries get a note instead of a table.
func ComposeSchedule(meetName string, swimmers []string, events []models.EventRecord) (Schedule, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\nHere's the schedule for your swimmer(s):\n\n", escapeInline(meetName))

	matched := 0
	for _, swimmer := range swimmers {
		fmt.Fprintf(&md, "## %s\n\n", escapeInline(swimmer))
		entries := roster.Appearances(events, swimmer)
		if len(entries) == 0 {
			md.WriteString("No matching events found for this swimmer. The name may not exactly match the meet sheet.\n\n")
			continue
		}
		matched++
		md.WriteString("| Event | Heat | Lane | Seed Time |\n|---|:-:|:-:|:-:|\n")
		for _, e := range entries {
			fmt.Fprintf(&md, "| %s | %s | %s | %s |\n",
				escapeCell(e.Label()),
				intCell(e.Athlete.Heat),
				intCell(e.Athlete.Lane),
				textCell(e.Athlete.SeedTime))
		}
		md.WriteString("\n")
	}
	md.WriteString("---\n\nSent by heatsheetflow\n")

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md.String()), &buf); err != nil {
		return Schedule{}, fmt.Errorf("failed to render schedule: %w", err)
	}
	return Schedule{
		Subject: meetName + ": Swim Schedule",
		HTML:    buf.String(),
		Matched: matched,
	}, nil
}

func intCell(v *int) string {
	if v == nil {
		return missingCell
	}
	return strconv.Itoa(*v)
}

func textCell(s string) string {
	if strings.TrimSpace(s) == "" {
		return missingCell
	}
	return escapeCell(s)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(escapeInline(s), "|", `\|`)
}

// escapeInline keeps free text from being read as markdown structure.
func escapeInline(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;")
	return r.Replace(strings.TrimSpace(s))
}
