package entities

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/querycache"
	"github.com/noah-isme/office-admin/internal/records"
)

// ActionToggleActive flips an account between active and inactive.
const ActionToggleActive records.Action = "toggle-active"

const (
	userToggled      = "وضعیت کاربر تغییر کرد"
	userToggleFailed = "خطا در تغییر وضعیت کاربر"
	neverLoggedIn    = "هرگز"
)

func userDefinition() *records.Definition[models.AdminUser] {
	return &records.Definition[models.AdminUser]{
		Key:   apiclient.CollectionUsers,
		Title: "کاربران",
		Columns: func(records.Env) []records.Column[models.AdminUser] {
			return []records.Column[models.AdminUser]{
				{Field: "username", Label: "نام کاربری", Render: func(_ interface{}, u models.AdminUser) string {
					return u.DisplayName() + " (" + u.Username + ")"
				}},
				{Field: "email", Label: "ایمیل"},
				{Field: "is_active", Label: "وضعیت", Render: func(_ interface{}, u models.AdminUser) string { return u.Status() }},
				{Field: "last_login", Label: "آخرین ورود", Render: func(v interface{}, _ models.AdminUser) string {
					if records.Text(v) == "" {
						return neverLoggedIn
					}
					return dateText(v)
				}},
			}
		},
		Actions: []records.Action{ActionToggleActive, records.ActionDelete},
		Search: func(u models.AdminUser) []string {
			return []string{u.Username, u.Email, u.DisplayName()}
		},
		Messages: records.Messages{
			Deleted:       "کاربر با موفقیت حذف شد",
			DeleteFailed:  "خطا در حذف کاربر",
			ConfirmDelete: "آیا از حذف این کاربر اطمینان دارید؟",
		},
	}
}

func groupDefinition() *records.Definition[models.AdminGroup] {
	return &records.Definition[models.AdminGroup]{
		Key:   apiclient.CollectionGroups,
		Title: "گروه‌ها",
		Columns: func(records.Env) []records.Column[models.AdminGroup] {
			return []records.Column[models.AdminGroup]{
				{Field: "name", Label: "نام"},
				{Field: "permissions", Label: "مجوزها", Render: func(_ interface{}, g models.AdminGroup) string {
					return strconv.Itoa(len(g.Permissions)) + " مجوز"
				}},
			}
		},
		Search: func(g models.AdminGroup) []string { return []string{g.Name} },
	}
}

func permissionDefinition() *records.Definition[models.AdminPermission] {
	return &records.Definition[models.AdminPermission]{
		Key:   apiclient.CollectionPermissions,
		Title: "مجوزها",
		Columns: func(records.Env) []records.Column[models.AdminPermission] {
			return []records.Column[models.AdminPermission]{
				{Field: "name", Label: "نام"},
				{Field: "codename", Label: "کد"},
				{Field: "content_type", Label: "مدل"},
			}
		},
		Search: func(p models.AdminPermission) []string { return []string{p.Name, p.Codename} },
	}
}

// ToggleActive flips is_active of the user with id and invalidates the user list.
func (s *Set) ToggleActive(ctx context.Context, env records.Env, id int64) ([]records.Notice, error) {
	users := apiclient.NewResource[models.AdminUser](s.api, apiclient.CollectionUsers)
	user, ok := s.findUser(env, id)
	if !ok {
		fetched, err := users.Get(ctx, id)
		if err != nil {
			return []records.Notice{records.ErrorNotice(err), records.Failure(userToggleFailed)}, err
		}
		user = fetched
	}

	err := env.Cache.Mutate(ctx, querycache.Mutation{
		Name:     apiclient.CollectionUsers,
		Action:   models.AuditActionUpdate,
		RecordID: id,
		Keys:     []string{apiclient.CollectionUsers},
		Run: func(ctx context.Context) error {
			_, err := users.Update(ctx, id, map[string]interface{}{"is_active": !user.IsActive})
			return err
		},
	})
	if err != nil {
		if env.Logger != nil {
			env.Logger.Info("toggle user failed", zap.Int64("id", id), zap.Error(err))
		}
		return []records.Notice{records.ErrorNotice(err), records.Failure(userToggleFailed)}, err
	}
	return []records.Notice{records.Success(userToggled)}, nil
}

func (s *Set) findUser(env records.Env, id int64) (models.AdminUser, bool) {
	return records.NewPage(s.Users).Find(env, id)
}

// AdminCounters counts the cached user list.
func AdminCounters(users []models.AdminUser) (total, active, superusers int) {
	for _, u := range users {
		total++
		if u.IsActive {
			active++
		}
		if u.IsSuperuser {
			superusers++
		}
	}
	return total, active, superusers
}
