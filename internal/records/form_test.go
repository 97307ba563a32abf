package records

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/querycache"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

func validTaskInput() Values {
	return Values{
		"body":        "Review drawings",
		"ded_line":    "2024-05-01",
		"evaluation":  "80",
		"assignor":    "1",
		"assigned_to": "2",
		"project":     "5",
	}
}

func TestFormCreateSuccess(t *testing.T) {
	api, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": 11, "body": "Review drawings"})
	})
	cache := querycache.New(querycache.Options{})
	invalidations := countInvalidations(cache, "tasks")

	form := NewCreateForm(taskDefinition())
	notices, err := form.Submit(context.Background(), Env{Cache: cache}, nil, apiclient.NewResource[models.Task](client, "tasks"), validTaskInput())
	require.NoError(t, err)

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/api/tasks/", calls[0].Path)
	assert.Equal(t, "Review drawings", calls[0].Body["body"])
	assert.Equal(t, "2024-05-01", calls[0].Body["ded_line"])
	assert.Equal(t, "80", calls[0].Body["evaluation"])
	assert.EqualValues(t, 1, calls[0].Body["assignor"])
	assert.EqualValues(t, 2, calls[0].Body["assigned_to"])
	assert.EqualValues(t, 5, calls[0].Body["project"])
	assert.Equal(t, models.TaskStateInProgress, calls[0].Body["state"])

	assert.Equal(t, 1, *invalidations)
	assert.False(t, form.Open)
	assert.EqualValues(t, 11, form.RecordID)
	assert.Equal(t, []Notice{Success("وظیفه با موفقیت اضافه شد")}, notices)
}

func TestFormValidationFailureMakesNoCall(t *testing.T) {
	api, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": 1})
	})
	cache := querycache.New(querycache.Options{})
	invalidations := countInvalidations(cache, "tasks")

	input := validTaskInput()
	input["body"] = ""
	form := NewCreateForm(taskDefinition())
	notices, err := form.Submit(context.Background(), Env{Cache: cache}, nil, apiclient.NewResource[models.Task](client, "tasks"), input)

	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Nil(t, notices)
	assert.Empty(t, api.Calls())
	assert.Equal(t, 0, *invalidations)
	assert.Equal(t, Errors{"body": "متن وظیفه الزامی است"}, form.Errors)
	assert.True(t, form.Open)
}

func TestFormCreateFailureKeepsFormOpen(t *testing.T) {
	_, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database is down"})
	})
	cache := querycache.New(querycache.Options{})
	invalidations := countInvalidations(cache, "tasks")

	form := NewCreateForm(taskDefinition())
	notices, err := form.Submit(context.Background(), Env{Cache: cache}, nil, apiclient.NewResource[models.Task](client, "tasks"), validTaskInput())

	require.Error(t, err)
	assert.Equal(t, 0, *invalidations)
	assert.True(t, form.Open)
	assert.Equal(t, "Review drawings", form.Values["body"])
	assert.Equal(t, []Notice{Failure("database is down"), Failure("خطا در افزودن وظیفه")}, notices)
}

func TestFormEditPatchesRecord(t *testing.T) {
	api, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 4})
	})
	cache := querycache.New(querycache.Options{})

	existing := models.Task{ID: 4, Body: "Check the site survey", DedLine: "2024-06-01", Evaluation: "70",
		State: models.TaskStateDone, Assignor: 1, AssignedTo: 2, Project: 5}
	form := NewEditForm(taskDefinition(), existing)
	assert.Equal(t, "Check the site survey", form.Values["body"])
	assert.Equal(t, models.TaskStateDone, form.Values["state"])

	notices, err := form.Submit(context.Background(), Env{Cache: cache}, nil, apiclient.NewResource[models.Task](client, "tasks"), Values{"evaluation": "90"})
	require.NoError(t, err)

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.Equal(t, "/api/tasks/4/", calls[0].Path)
	assert.Equal(t, "90", calls[0].Body["evaluation"])
	assert.Equal(t, []Notice{Success("وظیفه با موفقیت ویرایش شد")}, notices)
	assert.False(t, form.Open)
}

func TestFormReferenceOptionsComeFromCache(t *testing.T) {
	_, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]interface{}{{"id": 1, "name": "Ali", "family": "Rezai"}})
	})
	cache := querycache.New(querycache.Options{})
	form := NewCreateForm(taskDefinition())
	field, _ := form.Schema().Field("assignor")

	assert.Empty(t, form.Options(cache, field))

	_, err := querycache.Read(context.Background(), cache, "staffs", apiclient.NewResource[models.Staff](client, "staffs").List)
	require.NoError(t, err)
	assert.Equal(t, []Option{{Value: "1", Label: "Ali Rezai"}}, form.Options(cache, field))
}

func TestEditOnlyFieldsStayOutOfCreate(t *testing.T) {
	api, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": 12})
	})
	cache := querycache.New(querycache.Options{})

	form := NewCreateForm(taskDefinition())
	_, shown := form.Schema().Field("end_date")
	assert.False(t, shown)

	input := validTaskInput()
	input["end_date"] = "2024-07-01"
	_, err := form.Submit(context.Background(), Env{Cache: cache}, nil, apiclient.NewResource[models.Task](client, "tasks"), input)
	require.NoError(t, err)

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.NotContains(t, calls[0].Body, "end_date")
}

func TestEditOnlyFieldsAreEditable(t *testing.T) {
	api, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 4})
	})
	cache := querycache.New(querycache.Options{})

	existing := models.Task{ID: 4, Body: "Check the site survey", DedLine: "2024-06-01", Evaluation: "70",
		State: models.TaskStateInProgress, Assignor: 1, AssignedTo: 2, Project: 5}
	form := NewEditForm(taskDefinition(), existing)
	_, shown := form.Schema().Field("end_date")
	assert.True(t, shown)

	_, err := form.Submit(context.Background(), Env{Cache: cache}, nil, apiclient.NewResource[models.Task](client, "tasks"), Values{"end_date": "2024-07-01"})
	require.NoError(t, err)

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "2024-07-01", calls[0].Body["end_date"])
}

func TestSchemaForCreateDropsEditOnly(t *testing.T) {
	schema := taskDefinition().Schema
	assert.Len(t, schema.For(ModeEdit), len(schema))
	assert.Len(t, schema.For(ModeCreate), len(schema)-1)
}
