package entities

import (
	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/querycache"
	"github.com/noah-isme/office-admin/internal/records"
)

func timesheetDefinition(api *apiclient.Client) *records.Definition[models.TimeSheet] {
	return &records.Definition[models.TimeSheet]{
		Key:   apiclient.CollectionTimesheets,
		Title: "Timesheets",
		Columns: func(env records.Env) []records.Column[models.TimeSheet] {
			staff := records.NewLookup(env, apiclient.CollectionStaffs, staffName)
			projects := records.NewLookup(env, apiclient.CollectionProjects, projectName)
			tasks := records.NewLookup(env, apiclient.CollectionTasks, taskSummary)
			return []records.Column[models.TimeSheet]{
				{Field: "date", Label: "Date", Render: func(v interface{}, _ models.TimeSheet) string { return dateText(v) }},
				{Field: "start_time", Label: "Start Time"},
				{Field: "end_time", Label: "End Time"},
				{Field: "description", Label: "Description"},
				records.RefColumn[models.TimeSheet]("project", "Project", projects),
				records.RefColumn[models.TimeSheet]("manager", "Manager", staff),
				records.RefColumn[models.TimeSheet]("task", "Task", tasks),
				{Field: "mission", Label: "Mission", Render: func(v interface{}, _ models.TimeSheet) string { return yesNo(v) }},
			}
		},
		Actions: []records.Action{records.ActionEdit, records.ActionDelete},
		Schema: records.Schema{
			{Name: "start_time", Label: "زمان شروع", Kind: records.KindTime, Rules: required("زمان شروع الزامی است")},
			{Name: "end_time", Label: "زمان پایان", Kind: records.KindTime, Rules: required("زمان پایان الزامی است")},
			{Name: "description", Label: "توضیحات", Kind: records.KindTextarea, Rules: requiredMin("توضیحات الزامی است", 5, "توضیحات باید حداقل ۵ کاراکتر باشد")},
			{Name: "mission", Label: "این کار شامل ماموریت است", Kind: records.KindCheckbox},
			{Name: "mission_duration", Label: "طول زمان ماموریت", Kind: records.KindText},
			{Name: "verified_duration_mission", Label: "طول زمان تایید شده ماموریت", Kind: records.KindText},
			{Name: "project", Label: "پروژه", Kind: records.KindReference,
				Rules:   requiredPositive("پروژه الزامی است", "پروژه باید مثبت باشد"),
				Choices: records.RefChoices(apiclient.CollectionProjects, projectOption)},
			{Name: "manager", Label: "مدیر", Kind: records.KindReference,
				Rules:   requiredPositive("مدیر الزامی است", "مدیر باید مثبت باشد"),
				Choices: managerChoices},
			{Name: "task", Label: "وظیفه", Kind: records.KindReference,
				Rules:   requiredPositive("وظیفه الزامی است", "وظیفه باید مثبت باشد"),
				Choices: records.RefChoices(apiclient.CollectionTasks, taskSummary)},
		},
		Search: func(t models.TimeSheet) []string { return []string{t.Description} },
		Messages: deleteMessages(records.NounMessages("تایم‌شیت"),
			"Timesheet deleted successfully",
			"Failed to delete timesheet",
			"Are you sure you want to delete this timesheet?"),
		Refs: []records.Ref{staffRef(api), projectRef(api), taskRef(api)},
	}
}

// managerChoices lists only staff whose role is a managerial one.
func managerChoices(cache *querycache.Client) []records.Option {
	all := records.RefChoices(apiclient.CollectionStaffs, func(s models.Staff) string {
		if !isManager(s) {
			return ""
		}
		return staffName(s)
	})(cache)
	out := make([]records.Option, 0, len(all))
	for _, o := range all {
		if o.Label != "" {
			out = append(out, o)
		}
	}
	return out
}
