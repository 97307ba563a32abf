package entities

import (
	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/records"
)

func staffDefinition() *records.Definition[models.Staff] {
	return &records.Definition[models.Staff]{
		Key:   apiclient.CollectionStaffs,
		Title: "Staff Management",
		Columns: func(records.Env) []records.Column[models.Staff] {
			return []records.Column[models.Staff]{
				{Field: "staff_id", Label: "Staff ID"},
				{Field: "name", Label: "Name"},
				{Field: "family", Label: "Family"},
				{Field: "job_label", Label: "Job Title"},
				{Field: "role", Label: "Role"},
				{Field: "mobile_phone", Label: "Mobile"},
				{Field: "start_date", Label: "Start Date", Render: func(v interface{}, _ models.Staff) string { return dateText(v) }},
			}
		},
		Actions: []records.Action{records.ActionEdit, records.ActionDelete},
		Schema: records.Schema{
			{Name: "staff_id", Label: "کد پرسنلی", Kind: records.KindNumber, Rules: requiredPositive("کد پرسنلی الزامی است", "کد پرسنلی باید مثبت باشد")},
			{Name: "name", Label: "نام", Kind: records.KindText, Rules: requiredMin("نام الزامی است", 2, "نام باید حداقل ۲ کاراکتر باشد")},
			{Name: "family", Label: "نام خانوادگی", Kind: records.KindText, Rules: requiredMin("نام خانوادگی الزامی است", 2, "نام خانوادگی باید حداقل ۲ کاراکتر باشد")},
			{Name: "national_id", Label: "کد ملی", Kind: records.KindNumber, Rules: requiredPositive("کد ملی الزامی است", "کد ملی باید مثبت باشد")},
			{Name: "father_name", Label: "نام پدر", Kind: records.KindText, Rules: required("نام پدر الزامی است")},
			{Name: "birth_date", Label: "تاریخ تولد", Kind: records.KindDate, Rules: required("تاریخ تولد الزامی است")},
			{Name: "marital_status", Label: "وضعیت تاهل", Kind: records.KindSelect, Options: options(models.MaritalStatuses), Default: models.MaritalSingle},
			{Name: "role", Label: "نقش", Kind: records.KindSelect, Options: options(models.StaffRoles), Default: models.StaffRoleExpert},
			{Name: "job_label", Label: "عنوان شغلی", Kind: records.KindText, Rules: required("عنوان شغلی الزامی است")},
			{Name: "start_date", Label: "تاریخ شروع به کار", Kind: records.KindDate, Rules: required("تاریخ شروع به کار الزامی است")},
			{Name: "leave_date", Label: "تاریخ ترک کار", Kind: records.KindDate},
			{Name: "recruitment_group", Label: "گروه پرسنلی", Kind: records.KindText, Rules: required("گروه پرسنلی الزامی است")},
			{Name: "insurance_code", Label: "کد بیمه", Kind: records.KindNumber, Rules: requiredPositive("کد بیمه الزامی است", "کد بیمه باید مثبت باشد")},
			{Name: "mobile_phone", Label: "شماره همراه", Kind: records.KindText, Rules: required("شماره همراه الزامی است")},
			{Name: "home_phone", Label: "تلفن منزل", Kind: records.KindText, Rules: required("تلفن منزل الزامی است")},
			{Name: "emergency_phone", Label: "تلفن اضطراری", Kind: records.KindText, Rules: required("تلفن اضطراری الزامی است")},
			{Name: "home_address", Label: "آدرس منزل", Kind: records.KindTextarea, Rules: required("آدرس منزل الزامی است")},
			{Name: "zip_code", Label: "کد پستی", Kind: records.KindNumber, Rules: requiredPositive("کد پستی الزامی است", "کد پستی باید مثبت باشد")},
			{Name: "education_level", Label: "سطح تحصیلات", Kind: records.KindText, Rules: required("سطح تحصیلات الزامی است")},
			{Name: "study_field", Label: "رشته تحصیلی", Kind: records.KindText, Rules: required("رشته تحصیلی الزامی است")},
			{Name: "id_number", Label: "شماره شناسنامه", Kind: records.KindNumber, Rules: requiredPositive("شماره شناسنامه الزامی است", "شماره شناسنامه باید مثبت باشد")},
			{Name: "id_serial", Label: "سریال شناسنامه", Kind: records.KindText, Rules: required("سریال شناسنامه الزامی است")},
			{Name: "id_code", Label: "کد شناسنامه", Kind: records.KindNumber, Rules: requiredPositive("کد شناسنامه الزامی است", "کد شناسنامه باید مثبت باشد")},
		},
		Search: func(s models.Staff) []string { return []string{s.Name, s.Family, s.JobLabel} },
		Messages: deleteMessages(records.NounMessages("کارمند"),
			"Staff member deleted successfully",
			"Failed to delete staff member",
			"Are you sure you want to delete this staff member?"),
	}
}
