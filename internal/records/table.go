package records

import "github.com/noah-isme/office-admin/internal/models"

// Action is a per-row affordance.
type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// LoadingPlaceholder is shown instead of rows while a collection loads.
const LoadingPlaceholder = "در حال بارگذاری..."

// Column describes one table column. Render, when set, receives the raw field
// value, which may be nil, and must return display text.
type Column[T models.Record] struct {
	Field  string
	Label  string
	Render func(value interface{}, row T) string
}

// Table maps records to rows through its columns.
type Table[T models.Record] struct {
	Columns []Column[T]
	Actions []Action
}

// Row is one rendered record.
type Row struct {
	ID      int64    `json:"id"`
	Cells   []string `json:"cells"`
	Actions []Action `json:"actions,omitempty"`
}

// View is a rendered table.
type View struct {
	Headers     []string `json:"headers"`
	Rows        []Row    `json:"rows"`
	HasActions  bool     `json:"has_actions"`
	Loading     bool     `json:"loading"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// Build renders one row per record in input order and one cell per column.
// While loading no rows are rendered regardless of rows.
func (t Table[T]) Build(rows []T, loading bool) View {
	view := View{
		Headers:    make([]string, len(t.Columns)),
		Rows:       []Row{},
		HasActions: len(t.Actions) > 0,
		Loading:    loading,
	}
	for i, col := range t.Columns {
		view.Headers[i] = col.Label
	}
	if loading {
		view.Placeholder = LoadingPlaceholder
		return view
	}

	for _, record := range rows {
		fields := Fields(record)
		row := Row{ID: record.RecordID(), Cells: make([]string, len(t.Columns))}
		for i, col := range t.Columns {
			value := fields[col.Field]
			if col.Render != nil {
				row.Cells[i] = col.Render(value, record)
				continue
			}
			row.Cells[i] = Text(value)
		}
		if view.HasActions {
			row.Actions = t.Actions
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// Plain returns the headers and cell text of view, for exports.
func (v View) Plain() ([]string, [][]string) {
	cells := make([][]string, len(v.Rows))
	for i, row := range v.Rows {
		cells[i] = row.Cells
	}
	return v.Headers, cells
}
