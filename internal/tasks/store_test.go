package tasks

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"golang.org/x/oauth2"

	"taskman/internal/api"
	"taskman/internal/service"
	"taskman/internal/session"
	"taskman/internal/testutil"
)

// newAuthenticated builds a logged-in session backed by svc and a store
// bound to it.
func newAuthenticated(t *testing.T, svc service.Service) (*session.Session, *Store) {
	t.Helper()
	sess, err := session.New(
		testutil.NewMemTokenStore(nil),
		func(ctx context.Context, username, password string) (*oauth2.Token, error) {
			return &oauth2.Token{AccessToken: "t"}, nil
		},
		func(*oauth2.Token) service.Service { return svc },
	)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	store := NewStore(sess)
	if err := sess.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return sess, store
}

// mustMatchServer asserts the cache equals a fresh load, the consistency
// every mutation is supposed to preserve.
func mustMatchServer(t *testing.T, store *Store, svc service.Service) {
	t.Helper()
	fresh, err := svc.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if got := store.Tasks(); !reflect.DeepEqual(got, fresh) {
		t.Errorf("cache diverged from server:\n cache: %+v\nserver: %+v", got, fresh)
	}
}

func TestLoadReplacesCache(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("write report", false)
	fake.AddTask("buy milk", true)
	_, store := newAuthenticated(t, fake)

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := store.Tasks()
	if len(got) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(got))
	}
	// Server order is newest first.
	if got[0].Title != "buy milk" || got[1].Title != "write report" {
		t.Errorf("order = [%s, %s], want newest first", got[0].Title, got[1].Title)
	}
	mustMatchServer(t, store, fake)
}

func TestCreatePrependsServerCopy(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("old task", false)
	_, store := newAuthenticated(t, fake)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	created, err := store.Create(context.Background(), service.NewTask{Title: "new task"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Error("created task has no server-assigned id")
	}
	if created.CreatedAt.IsZero() {
		t.Error("created task has no server timestamp")
	}

	got := store.Tasks()
	if len(got) != 2 || got[0].ID != created.ID {
		t.Errorf("new task not first in cache: %+v", got)
	}
	mustMatchServer(t, store, fake)
}

func TestCreateFailureLeavesCacheUntouched(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("only task", false)
	_, store := newAuthenticated(t, fake)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := store.Create(context.Background(), service.NewTask{Title: ""}); !api.IsValidation(err) {
		t.Fatalf("Create error = %v, want validation kind", err)
	}
	if got := store.Tasks(); len(got) != 1 {
		t.Errorf("cache changed after failed create: %+v", got)
	}
}

func TestUpdateReplacesByIdentity(t *testing.T) {
	fake := testutil.NewFakeService()
	task := fake.AddTask("draft", false)
	fake.AddTask("other", false)
	_, store := newAuthenticated(t, fake)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	title := "final"
	updated, err := store.Update(context.Background(), task.ID, service.TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "final" {
		t.Errorf("updated title = %q, want final", updated.Title)
	}
	if updated.UpdatedAt == nil {
		t.Error("server update timestamp not carried into cache")
	}
	if cached, ok := store.Get(task.ID); !ok || cached.Title != "final" {
		t.Errorf("cache entry = %+v, want final", cached)
	}
	mustMatchServer(t, store, fake)
}

func TestToggleFlipsCachedState(t *testing.T) {
	fake := testutil.NewFakeService()
	task := fake.AddTask("flip me", false)
	_, store := newAuthenticated(t, fake)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	toggled, err := store.Toggle(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !toggled.IsCompleted {
		t.Error("toggle did not complete an open task")
	}

	toggled, err = store.Toggle(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if toggled.IsCompleted {
		t.Error("toggle did not reopen a completed task")
	}
	mustMatchServer(t, store, fake)
}

func TestDeleteRemovesFromCache(t *testing.T) {
	fake := testutil.NewFakeService()
	doomed := fake.AddTask("doomed", false)
	fake.AddTask("survivor", false)
	_, store := newAuthenticated(t, fake)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := store.Delete(context.Background(), doomed.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := store.Get(doomed.ID); ok {
		t.Error("deleted task still cached")
	}
	if got := store.Tasks(); len(got) != 1 || got[0].Title != "survivor" {
		t.Errorf("cache = %+v, want only survivor", got)
	}
	mustMatchServer(t, store, fake)
}

func TestDeleteNotFoundLeavesCacheUntouched(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("only task", false)
	_, store := newAuthenticated(t, fake)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := store.Delete(context.Background(), 999); !api.IsNotFound(err) {
		t.Fatalf("Delete error = %v, want not-found kind", err)
	}
	if got := store.Tasks(); len(got) != 1 {
		t.Errorf("cache changed after failed delete: %+v", got)
	}
}

// blockingService parks DeleteTask until released, so a second mutation
// can be attempted while the first is in flight.
type blockingService struct {
	*testutil.FakeService
	entered     chan struct{}
	enteredOnce sync.Once
	release     chan struct{}
}

func (b *blockingService) DeleteTask(ctx context.Context, id int64) error {
	b.enteredOnce.Do(func() { close(b.entered) })
	<-b.release
	return b.FakeService.DeleteTask(ctx, id)
}

func TestConcurrentMutationSameTaskIsRejected(t *testing.T) {
	fake := testutil.NewFakeService()
	task := fake.AddTask("contested", false)
	svc := &blockingService{
		FakeService: fake,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	_, store := newAuthenticated(t, svc)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- store.Delete(context.Background(), task.ID)
	}()
	<-svc.entered

	if err := store.Delete(context.Background(), task.ID); !errors.Is(err, ErrBusy) {
		t.Errorf("second delete error = %v, want ErrBusy", err)
	}
	done := false
	if _, err := store.Update(context.Background(), task.ID, service.TaskPatch{IsCompleted: &done}); !errors.Is(err, ErrBusy) {
		t.Errorf("update during in-flight delete error = %v, want ErrBusy", err)
	}

	close(svc.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first delete: %v", err)
	}

	// Once the in-flight request ends the id is free again.
	if err := store.Delete(context.Background(), task.ID); !api.IsNotFound(err) {
		t.Errorf("delete after completion error = %v, want not-found", err)
	}
}

func TestMutationOnDifferentTasksAllowed(t *testing.T) {
	fake := testutil.NewFakeService()
	a := fake.AddTask("a", false)
	b := fake.AddTask("b", false)
	svc := &blockingService{
		FakeService: fake,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	_, store := newAuthenticated(t, svc)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- store.Delete(context.Background(), a.ID)
	}()
	<-svc.entered

	// A mutation to a different task must not be blocked by a's request.
	done := true
	if _, err := store.Update(context.Background(), b.ID, service.TaskPatch{IsCompleted: &done}); err != nil {
		t.Errorf("update of unrelated task: %v", err)
	}

	close(svc.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first delete: %v", err)
	}
}

func TestLogoutClearsCache(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("secret", false)
	sess, store := newAuthenticated(t, fake)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(store.Tasks()) != 1 {
		t.Fatal("precondition: cache not populated")
	}

	if err := sess.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if got := store.Tasks(); len(got) != 0 {
		t.Errorf("cache survived logout: %+v", got)
	}
	if err := store.Load(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Load after logout error = %v, want ErrNotAuthenticated", err)
	}
}

func TestFullSessionLifecycle(t *testing.T) {
	fake := testutil.NewFakeService()
	sess, store := newAuthenticated(t, fake)

	if p := sess.Profile(); p == nil || p.Username != "alice" {
		t.Fatalf("profile = %+v, want alice", p)
	}

	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := store.Tasks(); len(got) != 0 {
		t.Fatalf("fresh account has tasks: %+v", got)
	}

	created, err := store.Create(ctx, service.NewTask{Title: "Test"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 1 || created.Title != "Test" || created.IsCompleted {
		t.Errorf("created = %+v, want id 1, title Test, open", created)
	}
	if got := store.Tasks(); len(got) != 1 || got[0].ID != created.ID {
		t.Errorf("collection = %+v, want exactly the created task", got)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := store.Tasks(); len(got) != 0 {
		t.Errorf("collection = %+v, want empty after delete", got)
	}
	mustMatchServer(t, store, fake)
}

func TestOperationsRequireAuthentication(t *testing.T) {
	sess, err := session.New(
		testutil.NewMemTokenStore(nil),
		func(ctx context.Context, username, password string) (*oauth2.Token, error) {
			return &oauth2.Token{AccessToken: "t"}, nil
		},
		func(*oauth2.Token) service.Service { return testutil.NewFakeService() },
	)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	store := NewStore(sess)

	ctx := context.Background()
	if err := store.Load(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Load error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := store.Create(ctx, service.NewTask{Title: "x"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Create error = %v, want ErrNotAuthenticated", err)
	}
	if err := store.Delete(ctx, 1); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Delete error = %v, want ErrNotAuthenticated", err)
	}
}
