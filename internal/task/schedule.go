package task

import (
	"fmt"
	"strings"
)

// Schedule is an ordered list of tasks executed one after the other with
// the configured interval in between.
type Schedule []Task

// ParseSchedule parses a comma-separated task list, e.g. "default, full".
func ParseSchedule(s string) (Schedule, error) {
	parts := strings.Split(s, ",")
	schedule := make(Schedule, 0, len(parts))

	for _, part := range parts {
		t, err := Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid schedule: %w", err)
		}
		schedule = append(schedule, t)
	}

	return schedule, nil
}

func (s Schedule) String() string {
	if len(s) == 0 {
		return "No tasks"
	}

	names := make([]string, len(s))
	for i, t := range s {
		names[i] = t.String()
	}

	return strings.Join(names, ", ")
}
