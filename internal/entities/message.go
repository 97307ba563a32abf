package entities

import (
	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/records"
)

func messageDefinition(api *apiclient.Client) *records.Definition[models.Message] {
	msgs := records.NounMessages("پیام")
	msgs.Created = "پیام با موفقیت ارسال شد"
	msgs.CreateFailed = "خطا در ارسال پیام"
	return &records.Definition[models.Message]{
		Key:   apiclient.CollectionMessages,
		Title: "Messages",
		Columns: func(env records.Env) []records.Column[models.Message] {
			staff := records.NewLookup(env, apiclient.CollectionStaffs, staffName)
			projects := records.NewLookup(env, apiclient.CollectionProjects, projectName)
			return []records.Column[models.Message]{
				{Field: "date", Label: "Date", Render: func(v interface{}, _ models.Message) string { return dateTimeText(v) }},
				{Field: "body", Label: "Message", Render: func(v interface{}, _ models.Message) string { return records.Truncate(records.Text(v), 100) }},
				records.RefColumn[models.Message]("sender", "Sender", staff),
				records.RefColumn[models.Message]("receiver", "Receiver", staff),
				records.RefColumn[models.Message]("project", "Project", projects),
			}
		},
		Actions: []records.Action{records.ActionEdit, records.ActionDelete},
		Schema: records.Schema{
			{Name: "sender", Label: "فرستنده", Kind: records.KindReference,
				Rules:   requiredPositive("فرستنده الزامی است", "فرستنده باید مثبت باشد"),
				Choices: records.RefChoices(apiclient.CollectionStaffs, staffOption)},
			{Name: "receiver", Label: "گیرنده", Kind: records.KindReference,
				Rules:   requiredPositive("گیرنده الزامی است", "گیرنده باید مثبت باشد"),
				Choices: records.RefChoices(apiclient.CollectionStaffs, staffOption)},
			{Name: "project", Label: "پروژه", Kind: records.KindReference,
				Rules:   requiredPositive("پروژه الزامی است", "پروژه باید مثبت باشد"),
				Choices: records.RefChoices(apiclient.CollectionProjects, projectOption)},
			{Name: "body", Label: "متن پیام", Kind: records.KindTextarea, Rules: requiredMin("متن پیام الزامی است", 5, "متن پیام باید حداقل ۵ کاراکتر باشد")},
		},
		Search: func(m models.Message) []string { return []string{m.Body} },
		Messages: deleteMessages(msgs,
			"Message deleted successfully",
			"Failed to delete message",
			"Are you sure you want to delete this message?"),
		Refs: []records.Ref{staffRef(api), projectRef(api)},
	}
}
