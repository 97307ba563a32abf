package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/office-admin/internal/models"
)

func staffColumns() []Column[models.Staff] {
	return []Column[models.Staff]{
		{Field: "staff_id", Label: "Staff ID"},
		{Field: "name", Label: "Name"},
		{Field: "leave_date", Label: "Leave Date"},
		{Field: "start_date", Label: "Start Date", Render: func(value interface{}, _ models.Staff) string {
			if Text(value) == "" {
				return ""
			}
			return "since " + Text(value)
		}},
	}
}

func TestTableBuildKeepsOrderAndShape(t *testing.T) {
	table := Table[models.Staff]{Columns: staffColumns()}
	rows := []models.Staff{
		{ID: 9, StaffID: 300, Name: "Sara", StartDate: "2023-01-01"},
		{ID: 1, StaffID: 100, Name: "Ali"},
		{ID: 5, StaffID: 0, Name: "Reza", LeaveDate: "2024-02-02"},
	}

	view := table.Build(rows, false)

	assert.Equal(t, []string{"Staff ID", "Name", "Leave Date", "Start Date"}, view.Headers)
	require.Len(t, view.Rows, 3)
	assert.Equal(t, []int64{9, 1, 5}, []int64{view.Rows[0].ID, view.Rows[1].ID, view.Rows[2].ID})
	for _, row := range view.Rows {
		assert.Len(t, row.Cells, 4)
		assert.Empty(t, row.Actions)
	}
	assert.Equal(t, []string{"300", "Sara", "", "since 2023-01-01"}, view.Rows[0].Cells)
	assert.Equal(t, "", view.Rows[1].Cells[3])
	assert.Equal(t, "0", view.Rows[2].Cells[0])
	assert.Equal(t, "2024-02-02", view.Rows[2].Cells[2])
	assert.False(t, view.HasActions)
}

func TestTableRendererReceivesNilForOmittedField(t *testing.T) {
	var got []interface{}
	table := Table[models.Staff]{Columns: []Column[models.Staff]{{
		Field: "leave_date",
		Label: "Leave Date",
		Render: func(value interface{}, _ models.Staff) string {
			got = append(got, value)
			return Text(value)
		},
	}}}
	view := table.Build([]models.Staff{{ID: 1}}, false)

	require.Len(t, got, 1)
	assert.Nil(t, got[0])
	assert.Equal(t, []string{""}, view.Rows[0].Cells)
}

func TestTableBuildAddsActions(t *testing.T) {
	table := Table[models.Staff]{Columns: staffColumns(), Actions: []Action{ActionView, ActionEdit, ActionDelete}}
	view := table.Build([]models.Staff{{ID: 1}}, false)

	assert.True(t, view.HasActions)
	assert.Equal(t, []Action{ActionView, ActionEdit, ActionDelete}, view.Rows[0].Actions)
}

func TestTableBuildLoadingIgnoresData(t *testing.T) {
	table := Table[models.Staff]{Columns: staffColumns()}
	view := table.Build([]models.Staff{{ID: 1}, {ID: 2}}, true)

	assert.Empty(t, view.Rows)
	assert.True(t, view.Loading)
	assert.Equal(t, LoadingPlaceholder, view.Placeholder)
	assert.Len(t, view.Headers, 4)
}

func TestTableBuildEmptyCollection(t *testing.T) {
	view := Table[models.Staff]{Columns: staffColumns()}.Build(nil, false)
	assert.NotNil(t, view.Rows)
	assert.Empty(t, view.Rows)
	assert.Empty(t, view.Placeholder)
}

func TestViewPlain(t *testing.T) {
	view := Table[models.Staff]{Columns: staffColumns()[:2]}.Build([]models.Staff{{ID: 1, StaffID: 7, Name: "Ali"}}, false)
	headers, cells := view.Plain()
	assert.Equal(t, []string{"Staff ID", "Name"}, headers)
	assert.Equal(t, [][]string{{"7", "Ali"}}, cells)
}

func TestText(t *testing.T) {
	var missing *string
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "", Text(missing))
	assert.Equal(t, "0", Text(int64(0)))
	assert.Equal(t, "true", Text(true))
	assert.Equal(t, "2.5", Text(2.5))
	assert.Equal(t, "", Text(json.RawMessage("null")))
	assert.Equal(t, `[1,2]`, Text(json.RawMessage(`[1,2]`)))
	assert.Equal(t, "auth", Text(models.Text("auth")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "سلام...", Truncate("سلام دنیا", 4))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestFieldsUsesJSONNames(t *testing.T) {
	fields := Fields(models.Task{ID: 3, Body: "x", Assignor: 2})
	assert.Equal(t, int64(3), fields["id"])
	assert.Equal(t, "x", fields["body"])
	assert.Equal(t, int64(2), fields["assignor"])
	_, hasEnd := fields["end_date"]
	assert.False(t, hasEnd)
}
