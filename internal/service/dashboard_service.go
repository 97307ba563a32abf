package service

import (
	"context"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/entities"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/records"
)

const recentProjectsLimit = 5

// DashboardService summarises the collections of one session.
type DashboardService struct {
	logger *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{logger: logger}
}

// Build reads every collection the dashboard counts through the session
// cache. A collection that fails is listed in Stats.Failed and counted as
// zero; the dashboard itself never fails.
func (s *DashboardService) Build(ctx context.Context, set *entities.Set, env records.Env) models.Dashboard {
	keys := []string{
		apiclient.CollectionStaffs,
		apiclient.CollectionProjects,
		apiclient.CollectionTasks,
		apiclient.CollectionTimesheets,
		apiclient.CollectionMails,
		apiclient.CollectionMessages,
		apiclient.CollectionUsers,
	}
	listings := make([]entities.Listing, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		i, key := i, key
		c, ok := set.Collection(key)
		if !ok {
			continue
		}
		g.Go(func() error {
			listings[i] = c.Load(gctx, env, "")
			return nil
		})
	}
	_ = g.Wait()

	var dash models.Dashboard
	for i, key := range keys {
		l := listings[i]
		if l.Err != nil && l.Total == 0 {
			if key != apiclient.CollectionUsers {
				dash.Stats.Failed = append(dash.Stats.Failed, key)
			}
			s.logger.Debug("dashboard collection unavailable", zap.String("collection", key), zap.Error(l.Err))
			continue
		}
		switch items := l.Items.(type) {
		case []models.Staff:
			dash.Stats.Staff = len(items)
		case []models.Project:
			dash.Stats.Projects = len(items)
			dash.RecentProjects = recentProjects(items)
		case []models.Task:
			dash.Stats.Tasks = len(items)
			dash.Stats.TasksInProgress, dash.Stats.TasksDone = taskProgress(items)
			dash.Stats.CompletionRate = CompletionRate(dash.Stats.TasksDone, len(items))
		case []models.TimeSheet:
			dash.Stats.Timesheets = len(items)
		case []models.Mail:
			dash.Stats.Mails = len(items)
		case []models.Message:
			dash.Stats.Messages = len(items)
		case []models.AdminUser:
			dash.Admin = true
			dash.Stats.Users, dash.Stats.ActiveUsers, dash.Stats.Superusers = entities.AdminCounters(items)
		}
	}
	if dash.RecentProjects == nil {
		dash.RecentProjects = []models.Project{}
	}
	return dash
}

// CompletionRate is done/total as a percentage rounded half away from zero.
func CompletionRate(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

func taskProgress(tasks []models.Task) (inProgress, done int) {
	for _, t := range tasks {
		switch t.State {
		case models.TaskStateInProgress:
			inProgress++
		case models.TaskStateDone:
			done++
		}
	}
	return inProgress, done
}

func recentProjects(projects []models.Project) []models.Project {
	n := len(projects)
	if n > recentProjectsLimit {
		n = recentProjectsLimit
	}
	out := make([]models.Project, n)
	copy(out, projects[:n])
	return out
}
