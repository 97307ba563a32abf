package models

// Staff roles as stored by the API.
const (
	StaffRoleCEO           = "مدیرعامل"
	StaffRoleExpert        = "کارشناس"
	StaffRoleSeniorManager = "مدیر ارشد"
	StaffRoleConsultant    = "مشاور"
	StaffRoleUnitManager   = "مدیر واحد"
	StaffRoleMiddleManager = "مدیر میانی"
)

// Marital statuses.
const (
	MaritalMarried = "متاهل"
	MaritalSingle  = "مجرد"
)

// StaffRoles lists every accepted Staff.Role value in display order.
var StaffRoles = []string{
	StaffRoleCEO, StaffRoleExpert, StaffRoleSeniorManager,
	StaffRoleConsultant, StaffRoleUnitManager, StaffRoleMiddleManager,
}

// MaritalStatuses lists every accepted Staff.MaritalStatus value.
var MaritalStatuses = []string{MaritalSingle, MaritalMarried}

// Staff is an employee record.
type Staff struct {
	ID               int64  `json:"id"`
	StaffID          int64  `json:"staff_id"`
	Role             string `json:"role"`
	Name             string `json:"name"`
	Family           string `json:"family"`
	NationalID       int64  `json:"national_id"`
	FatherName       string `json:"father_name"`
	BirthDate        string `json:"birth_date"`
	IDNumber         int64  `json:"id_number"`
	IDSerial         string `json:"id_serial"`
	IDCode           int64  `json:"id_code"`
	InsuranceCode    int64  `json:"insurance_code"`
	JobLabel         string `json:"job_label"`
	StartDate        string `json:"start_date"`
	LeaveDate        string `json:"leave_date,omitempty"`
	MaritalStatus    string `json:"marital_status"`
	EducationLevel   string `json:"education_level"`
	StudyField       string `json:"study_field"`
	HomeAddress      string `json:"home_address"`
	ZipCode          int64  `json:"zip_code"`
	MobilePhone      string `json:"mobile_phone"`
	EmergencyPhone   string `json:"emergency_phone"`
	HomePhone        string `json:"home_phone"`
	RecruitmentGroup string `json:"recruitment_group"`
	InterviewForm    string `json:"interview_form,omitempty"`
	ContractForm     string `json:"contract_form,omitempty"`
	PromissoryNote   string `json:"promissory_note,omitempty"`
}

// RecordID implements Record.
func (s Staff) RecordID() int64 { return s.ID }

// FullName joins name and family.
func (s Staff) FullName() string { return s.Name + " " + s.Family }
