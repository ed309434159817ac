package service

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
	"github.com/GTDGit/devhub_api/internal/utils"
)

const recentLimit = 5

// DashboardStats is the payload of GET /api/dashboard.
type DashboardStats struct {
	Overview         DashboardOverview   `json:"overview"`
	RecentActivities RecentActivities    `json:"recentActivities"`
	Statistics       DashboardStatistics `json:"statistics"`
	ActiveProjects   []ActiveProject     `json:"activeProjects"`
}

type DashboardOverview struct {
	TotalClients    int     `json:"totalClients"`
	TotalProducts   int     `json:"totalProducts"`
	TotalDevelopers int     `json:"totalDevelopers"`
	AverageProgress float64 `json:"averageProgress"`
}

// DashboardStatistics holds group-by counts. Empty categories are absent.
type DashboardStatistics struct {
	ClientsByStatus        map[string]int `json:"clientsByStatus"`
	DevelopersByDepartment map[string]int `json:"developersByDepartment"`
	DevelopersByExperience map[string]int `json:"developersByExperience"`
	ProductsByStatus       map[string]int `json:"productsByStatus"`
	ProductsByPriority     map[string]int `json:"productsByPriority"`
}

type RecentActivities struct {
	RecentClients    []RecentClient    `json:"recentClients"`
	RecentDevelopers []RecentDeveloper `json:"recentDevelopers"`
	RecentProducts   []RecentProduct   `json:"recentProducts"`
}

type RecentClient struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Status    models.ClientStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

type RecentDeveloper struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Department models.Department `json:"department"`
	Experience models.Experience `json:"experience"`
	CreatedAt  time.Time         `json:"createdAt"`
}

type RecentProduct struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Type       models.ProductType   `json:"type"`
	Status     models.ProductStatus `json:"status"`
	Priority   models.Priority      `json:"priority"`
	Developers []string             `json:"developers"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// ActiveProject is one row of the in-flight panel.
type ActiveProject struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Priority   models.Priority `json:"priority"`
	Progress   int             `json:"progress"`
	Deadline   *time.Time      `json:"deadline,omitempty"`
	Developers []string        `json:"developers"`
}

// DashboardService computes reporting aggregates. It only reads.
type DashboardService struct {
	clients    ClientStore
	developers DeveloperStore
	products   ProductStore
	resolver   *viewResolver
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(stores Stores) *DashboardService {
	return &DashboardService{
		clients:    stores.Clients,
		developers: stores.Developers,
		products:   stores.Products,
		resolver:   &viewResolver{developers: stores.Developers, clients: stores.Clients},
	}
}

// GetDashboardStats runs the independent queries concurrently. Any store
// error fails the whole call.
func (s *DashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var (
		stats            DashboardStats
		avg              float64
		byClientStatus   []repository.GroupCount
		byDept, byExp    []repository.GroupCount
		byStatus, byPrio []repository.GroupCount
		recentClients    []models.Client
		recentDevelopers []models.Developer
		recentProducts   []models.Product
		active           []models.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { stats.Overview.TotalClients, err = s.clients.Count(gctx); return })
	g.Go(func() (err error) { stats.Overview.TotalProducts, err = s.products.Count(gctx); return })
	g.Go(func() (err error) { stats.Overview.TotalDevelopers, err = s.developers.Count(gctx); return })
	g.Go(func() (err error) { avg, err = s.products.AverageProgress(gctx); return })
	g.Go(func() (err error) { byClientStatus, err = s.clients.CountByStatus(gctx); return })
	g.Go(func() (err error) { byDept, err = s.developers.CountByDepartment(gctx); return })
	g.Go(func() (err error) { byExp, err = s.developers.CountByExperience(gctx); return })
	g.Go(func() (err error) { byStatus, err = s.products.CountByStatus(gctx); return })
	g.Go(func() (err error) { byPrio, err = s.products.CountByPriority(gctx); return })
	g.Go(func() (err error) { recentClients, err = s.clients.Recent(gctx, recentLimit); return })
	g.Go(func() (err error) { recentDevelopers, err = s.developers.Recent(gctx, recentLimit); return })
	g.Go(func() (err error) { recentProducts, err = s.products.Recent(gctx, recentLimit); return })
	g.Go(func() (err error) {
		active, err = s.products.ListByStatus(gctx, models.ProductStatusActive)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, utils.StoreFailure("dashboard stats", err)
	}

	stats.Overview.AverageProgress = round2(avg)
	stats.Statistics = DashboardStatistics{
		ClientsByStatus:        toCountMap(byClientStatus),
		DevelopersByDepartment: toCountMap(byDept),
		DevelopersByExperience: toCountMap(byExp),
		ProductsByStatus:       toCountMap(byStatus),
		ProductsByPriority:     toCountMap(byPrio),
	}

	names, err := s.resolver.developerNames(ctx, assignedIDs(recentProducts, active))
	if err != nil {
		return nil, utils.StoreFailure("dashboard developer names", err)
	}

	stats.RecentActivities.RecentClients = make([]RecentClient, 0, len(recentClients))
	for _, c := range recentClients {
		stats.RecentActivities.RecentClients = append(stats.RecentActivities.RecentClients, RecentClient{
			ID: c.ID, Name: c.Name, Email: c.Email, Status: c.Status, CreatedAt: c.CreatedAt,
		})
	}
	stats.RecentActivities.RecentDevelopers = make([]RecentDeveloper, 0, len(recentDevelopers))
	for _, d := range recentDevelopers {
		stats.RecentActivities.RecentDevelopers = append(stats.RecentActivities.RecentDevelopers, RecentDeveloper{
			ID: d.ID, Name: d.Name, Email: d.Email, Department: d.Department, Experience: d.Experience, CreatedAt: d.CreatedAt,
		})
	}
	stats.RecentActivities.RecentProducts = make([]RecentProduct, 0, len(recentProducts))
	for _, p := range recentProducts {
		stats.RecentActivities.RecentProducts = append(stats.RecentActivities.RecentProducts, RecentProduct{
			ID:         p.ID,
			Name:       p.Name,
			Type:       p.Type,
			Status:     p.Status,
			Priority:   p.Priority,
			Developers: namesFor(p.AssignedDevelopers, names),
			CreatedAt:  p.CreatedAt,
		})
	}
	stats.ActiveProjects = make([]ActiveProject, 0, len(active))
	for _, p := range active {
		stats.ActiveProjects = append(stats.ActiveProjects, ActiveProject{
			ID:         p.ID,
			Name:       p.Name,
			Priority:   p.Priority,
			Progress:   p.Progress,
			Deadline:   p.Deadline,
			Developers: namesFor(p.AssignedDevelopers, names),
		})
	}
	return &stats, nil
}

func toCountMap(rows []repository.GroupCount) map[string]int {
	m := make(map[string]int, len(rows))
	for _, r := range rows {
		if r.Count > 0 {
			m[r.Key] = r.Count
		}
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func assignedIDs(groups ...[]models.Product) []string {
	seen := map[string]bool{}
	var ids []string
	for _, products := range groups {
		for _, p := range products {
			for _, id := range p.AssignedDevelopers.DeveloperIDs() {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}

// namesFor lists developer names in assignment order, skipping developers
// whose record is gone.
func namesFor(assignments models.Assignments, names map[string]string) []string {
	out := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if n, ok := names[a.DeveloperID]; ok {
			out = append(out, n)
		}
	}
	return out
}
