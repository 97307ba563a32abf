package models

// ServiceTypes lists every accepted Project.ServiceType value.
var ServiceTypes = []string{
	"بازسازی",
	"مقاوم سازی",
	"طراحی از ابتدا",
	"بازسازی و مقاوم‌سازی",
	"نظارت بر طراحی از ابتدا",
	"نظارت بر مقاوم‌سازی",
	"نظارت بر بازسازی و مقاوم‌سازی",
	"ارزیابی سریع",
	"تحلیل ریسک",
	"خدمات جانبی",
}

// Employer types.
const (
	EmployerGovernment     = "دولتی"
	EmployerSemiGovernment = "خصولتی"
	EmployerPrivate        = "شخصی"
)

// EmployerTypes lists every accepted Project.EmployerType value.
var EmployerTypes = []string{EmployerGovernment, EmployerSemiGovernment, EmployerPrivate}

// Project is a contract the company works on.
type Project struct {
	ID                       int64  `json:"id"`
	ProjectCode              int64  `json:"project_code"`
	ProjectName              string `json:"project_name"`
	ContractNumber           int64  `json:"contract_number"`
	ContractStartDate        string `json:"contract_start_date"`
	ContractNotificationDate string `json:"contract_notification_date"`
	ContractCompletionDate   string `json:"contract_completion_date"`
	Employer                 string `json:"employer"`
	Contractor               string `json:"contractor"`
	ServiceType              string `json:"service_type"`
	EmployerType             string `json:"employer_type"`
	Sajat                    string `json:"sajat"`
	ContractRow              string `json:"contract_row"`
	AccountSettlement        string `json:"account_settlement"`
	ASDate                   string `json:"as_date"`
}

// RecordID implements Record.
func (p Project) RecordID() int64 { return p.ID }
