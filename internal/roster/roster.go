// Package roster narrows a meet's merged events down to the entries a
// downstream consumer cares about: a team's swimmers in chosen lanes, or a
// single subscriber's swims.
package roster

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Lllllllleong/heatsheetflow/internal/identity"
	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

// Entry is one athlete row together with the event it belongs to.
type Entry struct {
	EventNumber *int                `json:"eventNumber"`
	EventName   string              `json:"eventName"`
	Athlete     models.AthleteEntry `json:"athlete"`
}

// Label renders the entry's event as shown to users.
func (e Entry) Label() string { return EventLabel(e.EventNumber, e.EventName) }

// EventLabel renders "#N Name", or just the name for unnumbered events.
func EventLabel(number *int, name string) string {
	if number == nil {
		return name
	}
	return fmt.Sprintf("#%d %s", *number, name)
}

// Select returns, in event order, every athlete whose team equals team
// (ignoring case and surrounding space) and whose lane is in lanes.
// Athletes without a team or a lane never match.
func Select(events []models.EventRecord, team string, lanes []int) []Entry {
	team = strings.TrimSpace(team)
	if team == "" || len(lanes) == 0 {
		return nil
	}
	var out []Entry
	for _, ev := range events {
		for _, a := range ev.Athletes {
			if a.Lane == nil || !slices.Contains(lanes, *a.Lane) {
				continue
			}
			if !strings.EqualFold(strings.TrimSpace(a.Team), team) {
				continue
			}
			out = append(out, Entry{EventNumber: ev.EventNumber, EventName: ev.EventName, Athlete: a})
		}
	}
	return out
}

// TeamLanes lists, ascending and without repeats, the lanes the team's
// athletes swim in.
func TeamLanes(events []models.EventRecord, team string) []int {
	team = strings.TrimSpace(team)
	seen := make(map[int]bool)
	var lanes []int
	for _, ev := range events {
		for _, a := range ev.Athletes {
			if a.Lane == nil || seen[*a.Lane] || !strings.EqualFold(strings.TrimSpace(a.Team), team) {
				continue
			}
			seen[*a.Lane] = true
			lanes = append(lanes, *a.Lane)
		}
	}
	slices.Sort(lanes)
	return lanes
}

// Appearances returns the first athlete in each event whose name matches
// swimmer under identity.Matches.
func Appearances(events []models.EventRecord, swimmer string) []Entry {
	var out []Entry
	for _, ev := range events {
		for _, a := range ev.Athletes {
			if identity.Matches(swimmer, a.Name) {
				out = append(out, Entry{EventNumber: ev.EventNumber, EventName: ev.EventName, Athlete: a})
				break
			}
		}
	}
	return out
}

// NoMatchMessage explains an empty selection. available lists the lanes the
// team swims in anywhere in the meet; when it is empty the team is absent.
func NoMatchMessage(team string, lanes, available []int) string {
	if len(available) == 0 {
		return fmt.Sprintf("No athletes found for team %q in this meet.", team)
	}
	return fmt.Sprintf("No %s athletes found in lane(s) %s. %s athletes are in lane(s): %s",
		team, joinInts(lanes), team, joinInts(available))
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
