package entities

import (
	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/records"
)

func taskDefinition(api *apiclient.Client) *records.Definition[models.Task] {
	return &records.Definition[models.Task]{
		Key:   apiclient.CollectionTasks,
		Title: "Tasks",
		Columns: func(env records.Env) []records.Column[models.Task] {
			staff := records.NewLookup(env, apiclient.CollectionStaffs, staffName)
			projects := records.NewLookup(env, apiclient.CollectionProjects, projectName)
			return []records.Column[models.Task]{
				{Field: "body", Label: "Description"},
				records.RefColumn[models.Task]("assignor", "Assignor", staff),
				records.RefColumn[models.Task]("assigned_to", "Assigned To", staff),
				records.RefColumn[models.Task]("project", "Project", projects),
				{Field: "state", Label: "Status"},
				{Field: "ded_line", Label: "Deadline", Render: func(v interface{}, _ models.Task) string { return dateText(v) }},
				{Field: "evaluation", Label: "Evaluation"},
			}
		},
		Actions: []records.Action{records.ActionEdit, records.ActionDelete},
		Schema: records.Schema{
			{Name: "body", Label: "شرح وظیفه", Kind: records.KindTextarea, Rules: requiredMin("متن وظیفه الزامی است", 10, "متن وظیفه باید حداقل ۱۰ کاراکتر باشد")},
			{Name: "state", Label: "وضعیت", Kind: records.KindSelect, Options: options(models.TaskStates), Default: models.TaskStateInProgress},
			{Name: "evaluation", Label: "ارزیابی", Kind: records.KindText, Rules: required("ارزیابی الزامی است")},
			{Name: "assignor", Label: "تخصیص دهنده", Kind: records.KindReference,
				Rules:   requiredPositive("تخصیص دهنده الزامی است", "تخصیص دهنده باید مثبت باشد"),
				Choices: records.RefChoices(apiclient.CollectionStaffs, staffOption)},
			{Name: "assigned_to", Label: "تخصیص داده شده به", Kind: records.KindReference,
				Rules:   requiredPositive("تخصیص داده شده به الزامی است", "تخصیص داده شده به باید مثبت باشد"),
				Choices: records.RefChoices(apiclient.CollectionStaffs, staffOption)},
			{Name: "project", Label: "پروژه", Kind: records.KindReference,
				Rules:   requiredPositive("پروژه الزامی است", "پروژه باید مثبت باشد"),
				Choices: records.RefChoices(apiclient.CollectionProjects, projectName)},
			{Name: "ded_line", Label: "ددلاین", Kind: records.KindDate, Rules: required("ددلاین الزامی است")},
			{Name: "end_date", Label: "تاریخ پایان", Kind: records.KindDate, EditOnly: true},
		},
		Search: func(t models.Task) []string { return []string{t.Body} },
		Messages: deleteMessages(records.NounMessages("وظیفه"),
			"Task deleted successfully",
			"Failed to delete task",
			"Are you sure you want to delete this task?"),
		Refs: []records.Ref{staffRef(api), projectRef(api)},
	}
}
