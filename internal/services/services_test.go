package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"brigade_tracker/internal/config"
	"brigade_tracker/internal/events"
	"brigade_tracker/internal/geo"
	"brigade_tracker/internal/models"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB(&config.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type fixture struct {
	*Services
	db     *gorm.DB
	events *recorder
	mail   *fakeNotifier
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db := openTestDB(t)
	rec := &recorder{}
	mail := newFakeNotifier()
	base := []Option{
		WithPublisher(rec),
		WithNotifier(mail),
		WithClock(func() time.Time { return testNow }),
		WithRegisterURL("http://localhost:5173/register"),
	}
	return &fixture{
		Services: New(db, append(base, opts...)...),
		db:       db,
		events:   rec,
		mail:     mail,
	}
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types(topic string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		if ev.Topic == topic {
			out = append(out, ev.Type)
		}
	}
	return out
}

type sentMail struct {
	email string
	data  map[string]interface{}
}

type fakeNotifier struct {
	sent chan sentMail
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan sentMail, 16)}
}

func (f *fakeNotifier) Send(_ context.Context, email string, data map[string]interface{}) error {
	f.sent <- sentMail{email: email, data: data}
	return nil
}

func (f *fakeNotifier) next(t *testing.T) sentMail {
	t.Helper()
	select {
	case m := <-f.sent:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no notification sent")
		return sentMail{}
	}
}

// seedRegion stores one region and returns it.
func (f *fixture) seedRegion(t *testing.T, code, name string) models.Region {
	t.Helper()
	r := models.Region{Code: code, Name: name}
	require.NoError(t, f.db.Create(&r).Error)
	return r
}

// approvedSite generates a site and approves it into region.
func (f *fixture) approvedSite(t *testing.T, region models.Region) models.Site {
	t.Helper()
	ctx := context.Background()
	res, err := f.Sites.Generate(ctx, 1)
	require.NoError(t, err)
	site, err := f.Sites.Approve(ctx, res.Created[0].ID, region.ID, "admin-1")
	require.NoError(t, err)
	return *site
}

// worker inserts an active worker directly.
func (f *fixture) worker(t *testing.T, nationalID, email string, region models.Region) models.Worker {
	t.Helper()
	w := models.Worker{
		NationalID: nationalID,
		Name:       "Worker " + nationalID,
		Email:      email,
		RegionID:   region.ID,
		State:      models.WorkerActive,
	}
	require.NoError(t, f.db.Create(&w).Error)
	return w
}

func (f *fixture) brigade(t *testing.T, site models.Site) models.Brigade {
	t.Helper()
	b, err := f.Brigades.Create(context.Background(), CreateBrigadeInput{
		Name:      "Brigade " + site.Code,
		SiteID:    site.ID,
		CreatorID: "brigade-admin-1",
	})
	require.NoError(t, err)
	return *b
}

// fixedGenerator hands out scripted codes. Once retries run out, Code
// repeats the first candidate.
type fixedGenerator struct {
	mu         sync.Mutex
	candidates []string
	retries    []string
}

func (g *fixedGenerator) Generate(count int) ([]geo.Candidate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]geo.Candidate, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, geo.Candidate{Code: g.candidates[i%len(g.candidates)], Latitude: 4.6, Longitude: -74.08})
	}
	return out, nil
}

func (g *fixedGenerator) Code() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.retries) == 0 {
		return g.candidates[0]
	}
	code := g.retries[0]
	g.retries = g.retries[1:]
	return code
}
