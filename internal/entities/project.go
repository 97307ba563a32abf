package entities

import (
	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/records"
)

func projectDefinition() *records.Definition[models.Project] {
	date := func(v interface{}, _ models.Project) string { return dateText(v) }
	return &records.Definition[models.Project]{
		Key:   apiclient.CollectionProjects,
		Title: "Projects",
		Columns: func(records.Env) []records.Column[models.Project] {
			return []records.Column[models.Project]{
				{Field: "project_code", Label: "Code"},
				{Field: "project_name", Label: "Project Name"},
				{Field: "employer", Label: "Employer"},
				{Field: "contractor", Label: "Contractor"},
				{Field: "service_type", Label: "Service Type"},
				{Field: "contract_start_date", Label: "Start Date", Render: date},
				{Field: "contract_completion_date", Label: "End Date", Render: date},
			}
		},
		Actions: []records.Action{records.ActionEdit, records.ActionDelete},
		Schema: records.Schema{
			{Name: "project_code", Label: "کد پروژه", Kind: records.KindNumber, Rules: requiredPositive("کد پروژه الزامی است", "کد پروژه باید مثبت باشد")},
			{Name: "project_name", Label: "نام پروژه", Kind: records.KindText, Rules: requiredMin("نام پروژه الزامی است", 2, "نام پروژه باید حداقل ۲ کاراکتر باشد")},
			{Name: "service_type", Label: "نوع خدمت", Kind: records.KindSelect, Options: options(models.ServiceTypes), Default: models.ServiceTypes[0]},
			{Name: "employer", Label: "کارفرما", Kind: records.KindText, Rules: required("کارفرما الزامی است")},
			{Name: "contractor", Label: "پیمانکار", Kind: records.KindText, Rules: required("پیمانکار الزامی است")},
			{Name: "employer_type", Label: "نوع کارفرما", Kind: records.KindSelect, Options: options(models.EmployerTypes), Default: models.EmployerGovernment},
			{Name: "contract_number", Label: "شماره قرارداد", Kind: records.KindNumber, Rules: requiredPositive("شماره قرارداد الزامی است", "شماره قرارداد باید مثبت باشد")},
			{Name: "contract_row", Label: "ردیف قرارداد", Kind: records.KindText, Rules: required("ردیف قرارداد الزامی است")},
			{Name: "sajat", Label: "ساجات", Kind: records.KindText, Rules: required("ساجات الزامی است")},
			{Name: "contract_start_date", Label: "تاریخ شروع قرارداد", Kind: records.KindDate, Rules: required("تاریخ شروع قرارداد الزامی است")},
			{Name: "contract_notification_date", Label: "تاریخ ابلاغ قرارداد", Kind: records.KindDate, Rules: required("تاریخ ابلاغ قرارداد الزامی است")},
			{Name: "contract_completion_date", Label: "تاریخ پایان قرارداد", Kind: records.KindDate, Rules: required("تاریخ پایان قرارداد الزامی است")},
			{Name: "account_settlement", Label: "تسویه حساب", Kind: records.KindText, Rules: required("تسویه حساب الزامی است")},
			{Name: "as_date", Label: "تاریخ تسویه حساب", Kind: records.KindDate, Rules: required("تاریخ تسویه حساب الزامی است")},
		},
		Search: func(p models.Project) []string { return []string{p.ProjectName, p.Employer, p.Contractor} },
		Messages: deleteMessages(records.NounMessages("پروژه"),
			"Project deleted successfully",
			"Failed to delete project",
			"Are you sure you want to delete this project?"),
	}
}
