package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/busview/internal/msglist"
)

func newListCmd(a *app) *cobra.Command {
	var (
		sf      sessionFlags
		at      float64
		filters []string
		limit   int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print the message list at a playback position",
		Long: `Replay a capture up to a playback position and print the message list.

Filters take the form column=text and may be repeated; all must match.
Columns: name, bus, id, node, freq, count, bytes.`,
		Example: `  busview list --at 12.5 --filter id=0x100-0x1ff --sort freq --desc
  busview list --demux 4 --filter name=speed --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := sf.listOptions(cmd, a)
			if err != nil {
				return err
			}
			filterMap, err := parseFilterFlags(filters)
			if err != nil {
				return err
			}

			s, err := a.openSession(cmd.Context(), &sf)
			if err != nil {
				return err
			}

			sec := s.stream.Duration()
			if cmd.Flags().Changed("at") {
				if at < 0 {
					return fmt.Errorf("--at must not be negative")
				}
				sec = min(at, sec)
			}

			model := msglist.New(s.stream, s.database(), opts)
			updated, hasNew := s.stream.Seek(sec)
			model.MsgsReceived(updated, hasNew)
			model.SetFilterStrings(filterMap)

			result := buildListResult(model, s.capture.Name, sec, limit)
			if a.jsonOutput {
				return WriteOutput(cmd.OutOrStdout(), result)
			}
			return writeListResult(cmd.OutOrStdout(), result)
		},
	}

	sf.register(cmd)
	cmd.Flags().Float64Var(&at, "at", 0, "playback position in seconds (default: end of capture)")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as column=text (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of rows (0 for all)")
	return cmd
}

func parseFilterFlags(values []string) (map[msglist.Column]string, error) {
	out := make(map[msglist.Column]string, len(values))
	for _, value := range values {
		col, text, err := msglist.ParseFilter(value)
		if err != nil {
			return nil, err
		}
		if prev, ok := out[col]; ok && prev != text {
			return nil, fmt.Errorf("column %s is filtered twice", col)
		}
		out[col] = text
	}
	return out, nil
}

// ListRow is one row of `busview list` output.
type ListRow struct {
	Name    string `json:"name"`
	Bus     string `json:"bus"`
	ID      string `json:"id"`
	Node    string `json:"node,omitempty"`
	Freq    string `json:"freq"`
	Count   string `json:"count"`
	Data    string `json:"data"`
	Active  bool   `json:"active"`
	Comment string `json:"comment,omitempty"`
}

// ListResult is the payload of `busview list`.
type ListResult struct {
	Capture   string    `json:"capture"`
	At        float64   `json:"at"`
	Title     string    `json:"title"`
	Total     int       `json:"total"`
	Truncated bool      `json:"truncated,omitempty"`
	Rows      []ListRow `json:"rows"`
}

func buildListResult(model *msglist.Model, captureName string, sec float64, limit int) *ListResult {
	result := &ListResult{
		Capture: captureName,
		At:      sec,
		Title:   model.Title(),
		Total:   model.RowCount(),
		Rows:    []ListRow{},
	}
	for i, item := range model.Items() {
		if limit > 0 && i >= limit {
			result.Truncated = true
			break
		}
		data := model.DisplayText(item, msglist.ColumnData)
		if payload := model.Bytes(item); len(payload) > 0 {
			data = fmt.Sprintf("% X", payload)
		}
		comment := ""
		if _, rest, ok := strings.Cut(model.Tooltip(item), "\n"); ok {
			comment = rest
		}
		result.Rows = append(result.Rows, ListRow{
			Name:    model.DisplayText(item, msglist.ColumnName),
			Bus:     model.DisplayText(item, msglist.ColumnSource),
			ID:      model.DisplayText(item, msglist.ColumnAddress),
			Node:    model.DisplayText(item, msglist.ColumnNode),
			Freq:    model.DisplayText(item, msglist.ColumnFreq),
			Count:   model.DisplayText(item, msglist.ColumnCount),
			Data:    data,
			Active:  model.IsActive(item),
			Comment: comment,
		})
	}
	return result
}

func writeListResult(out io.Writer, result *ListResult) error {
	fmt.Fprintf(out, "%s @ %.3fs: %s\n", result.Capture, result.At, result.Title)

	headers := make([]string, 0, msglist.NumColumns)
	for c := 0; c < msglist.NumColumns; c++ {
		headers = append(headers, strings.ToUpper(msglist.HeaderLabel(msglist.Column(c))))
	}
	t := newTable(headers...).alignRight(1, 4, 5)
	for _, row := range result.Rows {
		t.add(row.Name, row.Bus, row.ID, row.Node, row.Freq, row.Count, row.Data)
	}
	if err := t.write(out); err != nil {
		return err
	}
	if result.Truncated {
		fmt.Fprintf(out, "... %d more rows (use --limit 0 for all)\n", result.Total-len(result.Rows))
	}
	return nil
}
