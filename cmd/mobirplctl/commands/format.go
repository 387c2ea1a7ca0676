package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

func formatNode(n *nodeView, format string) (string, error) {
	switch format {
	case formatJSON:
		return marshalIndent(n)
	case formatTable:
		return formatNodeTable(n), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatParents(parents []parentView, format string) (string, error) {
	switch format {
	case formatJSON:
		return marshalIndent(parents)
	case formatTable:
		return formatParentsTable(parents), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatDAG(d *dagView, format string) (string, error) {
	switch format {
	case formatJSON:
		return marshalIndent(d)
	case formatTable:
		return formatDAGTable(d), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func marshalIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal to JSON: %w", err)
	}
	return string(data) + "\n", nil
}

func formatNodeTable(n *nodeView) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Is Root:\t%t\n", n.IsRoot)
	fmt.Fprintf(w, "Mobility:\t%s\n", n.Mobility)
	fmt.Fprintf(w, "PP Change Flag:\t%s\n", n.PPChangeFlag)
	fmt.Fprintf(w, "Timeout Period (intcurr):\t%d\n", n.TimeoutPeriodIntCurr)
	fmt.Fprintf(w, "Timeout Period (current):\t%d\n", n.TimeoutPeriodCurrent)
	fmt.Fprintf(w, "Probe Interval:\t%d\n", n.ProbeInterval)
	fmt.Fprintf(w, "EWMA Average:\t%d\n", n.EWMAAverage)
	fmt.Fprintf(w, "EWMA Metric:\t%d\n", n.EWMAMetric)
	fmt.Fprintf(w, "EWMA Window:\t%d\n", n.EWMAWindow)

	w.Flush()
	return buf.String()
}

func formatParentsTable(parents []parentView) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ADDR\tRANK\tRSSI\tZONE\tLINK-LOSS\tLIFETIME\tPREFERRED")

	for _, p := range parents {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\t%d\t%t\n",
			p.Addr, p.Rank, p.RSSI, p.Zone, p.LinkLossCount, p.Lifetime, p.Preferred)
	}

	w.Flush()
	return buf.String()
}

func formatDAGTable(d *dagView) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Grounded:\t%t\n", d.Grounded)
	fmt.Fprintf(w, "Preference:\t%d\n", d.Preference)
	fmt.Fprintf(w, "Rank:\t%d\n", d.Rank)
	preferred := d.PreferredParent
	if preferred == "" {
		preferred = "(none)"
	}
	fmt.Fprintf(w, "Preferred Parent:\t%s\n", preferred)
	fmt.Fprintf(w, "Parent Count:\t%d\n", d.ParentCount)

	w.Flush()
	return buf.String()
}
