package entities

import (
	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/records"
)

func mailDefinition(api *apiclient.Client) *records.Definition[models.Mail] {
	return &records.Definition[models.Mail]{
		Key:   apiclient.CollectionMails,
		Title: "Mails",
		Columns: func(env records.Env) []records.Column[models.Mail] {
			staff := records.NewLookup(env, apiclient.CollectionStaffs, staffName)
			projects := records.NewLookup(env, apiclient.CollectionProjects, projectName)
			return []records.Column[models.Mail]{
				{Field: "subject", Label: "Subject"},
				{Field: "employer", Label: "Employer"},
				{Field: "type", Label: "Type"},
				{Field: "state", Label: "State"},
				records.RefColumn[models.Mail]("sender", "Sender", staff),
				records.RefColumn[models.Mail]("receiver", "Receiver", staff),
				records.RefColumn[models.Mail]("project", "Project", projects),
			}
		},
		Actions: []records.Action{records.ActionEdit, records.ActionDelete},
		Schema: records.Schema{
			{Name: "employer", Label: "کارفرما", Kind: records.KindText, Rules: requiredMin("کارفرما الزامی است", 2, "کارفرما باید حداقل ۲ کاراکتر باشد")},
			{Name: "type", Label: "نوع نامه", Kind: records.KindSelect, Options: options(models.MailTypes), Default: models.MailTypeOutgoing},
			{Name: "subject", Label: "موضوع", Kind: records.KindText, Rules: requiredMin("موضوع الزامی است", 5, "موضوع باید حداقل ۵ کاراکتر باشد")},
			{Name: "body", Label: "متن نامه", Kind: records.KindTextarea, Rules: requiredMin("متن نامه الزامی است", 10, "متن نامه باید حداقل ۱۰ کاراکتر باشد")},
			{Name: "state", Label: "وضعیت", Kind: records.KindSelect, Options: options(models.MailStates), Default: models.MailStateReview},
			{Name: "sender", Label: "فرستنده", Kind: records.KindReference,
				Rules:   requiredPositive("فرستنده الزامی است", "فرستنده باید مثبت باشد"),
				Choices: records.RefChoices(apiclient.CollectionStaffs, staffOption)},
			{Name: "receiver", Label: "گیرنده", Kind: records.KindReference,
				Rules:   requiredPositive("گیرنده الزامی است", "گیرنده باید مثبت باشد"),
				Choices: records.RefChoices(apiclient.CollectionStaffs, staffOption)},
			{Name: "project", Label: "پروژه", Kind: records.KindReference,
				Rules:   requiredPositive("پروژه الزامی است", "پروژه باید مثبت باشد"),
				Choices: records.RefChoices(apiclient.CollectionProjects, projectOption)},
			{Name: "attachment", Label: "فایل ضمیمه", Kind: records.KindURL},
		},
		Search: func(m models.Mail) []string { return []string{m.Subject, m.Employer, m.Body} },
		Messages: deleteMessages(records.NounMessages("نامه"),
			"Mail deleted successfully",
			"Failed to delete mail",
			"Are you sure you want to delete this mail?"),
		Refs: []records.Ref{staffRef(api), projectRef(api)},
	}
}
