package policydiff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders the diff result as human-readable text.
func FormatText(r *DiffResult) string {
	if !r.HasChanges {
		return fmt.Sprintf("Policy diff: %s → %s\n\nNo changes detected.\n", r.OldPath, r.NewPath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Policy diff: %s → %s\n", r.OldPath, r.NewPath)

	mandates := filterChanges(r.Changes, "mandates.")
	judge := filterChanges(r.Changes, "judge")
	var rest []Change
	for _, c := range r.Changes {
		if !strings.HasPrefix(c.Field, "mandates.") && !strings.HasPrefix(c.Field, "judge") {
			rest = append(rest, c)
		}
	}

	if len(rest) > 0 {
		b.WriteString("\n")
		writeChanges(&b, "  ", rest, "")
	}
	if len(judge) > 0 {
		b.WriteString("\n  Judge:\n")
		writeChanges(&b, "    ", judge, "judge.")
	}
	if len(mandates) > 0 {
		b.WriteString("\n  Mandates:\n")
		writeChanges(&b, "    ", mandates, "mandates.")
	}

	if len(r.TermChanges) > 0 {
		b.WriteString("\n  Forbidden terms:\n")
		for _, tc := range r.TermChanges {
			switch tc.Type {
			case "added":
				fmt.Fprintf(&b, "    + %s\n", tc.Term)
			case "removed":
				fmt.Fprintf(&b, "    - %s\n", tc.Term)
			case "changed":
				fmt.Fprintf(&b, "    ~ %s\n", tc.Term)
			}
		}
	}

	return b.String()
}

// Summary renders a single line for logs.
func Summary(r *DiffResult) string {
	if !r.HasChanges {
		return "no changes"
	}
	var added, removed, changed int
	for _, tc := range r.TermChanges {
		switch tc.Type {
		case "added":
			added++
		case "removed":
			removed++
		case "changed":
			changed++
		}
	}
	return fmt.Sprintf("%d field change(s), terms +%d -%d ~%d", len(r.Changes), added, removed, changed)
}

// FormatJSON renders the diff result as JSON.
func FormatJSON(r *DiffResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diff result: %w", err)
	}
	return string(data), nil
}

func writeChanges(b *strings.Builder, indent string, changes []Change, trim string) {
	for _, c := range changes {
		name := strings.TrimPrefix(c.Field, trim)
		fmt.Fprintf(b, "%s%-18s %s → %s", indent, name+":", c.Old, c.New)
		if c.Comment != "" {
			fmt.Fprintf(b, "  (%s)", c.Comment)
		}
		b.WriteString("\n")
	}
}

func filterChanges(changes []Change, prefixes ...string) []Change {
	var out []Change
	for _, c := range changes {
		for _, p := range prefixes {
			if strings.HasPrefix(c.Field, p) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
