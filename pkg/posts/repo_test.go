package post

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"postboard/pkg/kv"
	"postboard/pkg/schema"
)

// racingStore lets another writer slip in right before the first Put.
type racingStore struct {
	kv.Store
	race func()
}

func (s *racingStore) Put(ctx context.Context, key string, value []byte, version int64) (int64, error) {
	if s.race != nil {
		race := s.race
		s.race = nil
		race()
	}
	return s.Store.Put(ctx, key, value, version)
}

type conflictStore struct {
	kv.Store
	puts int
}

func (s *conflictStore) Put(context.Context, string, []byte, int64) (int64, error) {
	s.puts++
	return 0, kv.ErrConflict
}

func TestRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewPostStoreRepository(kv.NewMemoryStore(), 3)

	posts, err := repo.GetAllPosts(ctx)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(posts))
	}

	p, err := repo.AddPost(ctx, &schema.NewPost{Title: "Hello", Username: "alice123", Content: "hi"})
	if err != nil {
		t.Fatalf("add post: %v", err)
	}
	if !strings.HasPrefix(p.ID, "alice123-") {
		t.Fatalf("unexpected id: %s", p.ID)
	}

	if _, err := repo.AddComment(ctx, p.ID, &schema.Comment{Username: "bob1", Comment: "nice"}); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if _, err := repo.AddVote(ctx, p.ID, vote("bob1", 1)); err != nil {
		t.Fatalf("vote: %v", err)
	}
	votes, err := repo.AddVote(ctx, p.ID, vote("bob1", -1))
	if err != nil {
		t.Fatalf("vote again: %v", err)
	}
	if votes.Count != -1 || votes.Map["bob1"] != -1 {
		t.Fatalf("unexpected votes: %+v", votes)
	}

	posts, err = repo.GetAllPosts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	got := posts[0]
	if len(got.Comments) != 1 || got.Comments[0].Text != "nice" {
		t.Fatalf("unexpected comments: %+v", got.Comments)
	}
	if got.Votes.Count != -1 {
		t.Fatalf("unexpected count: %v", got.Votes.Count)
	}
}

func TestRepositoryMissingDocument(t *testing.T) {
	ctx := context.Background()
	repo := NewPostStoreRepository(kv.NewMemoryStore(), 3)

	if _, err := repo.AddComment(ctx, "alice-1", &schema.Comment{Username: "bob1", Comment: "x"}); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if _, err := repo.AddVote(ctx, "alice-1", vote("bob1", 1)); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestRepositoryRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	setup := NewPostStoreRepository(mem, 0)
	p, err := setup.AddPost(ctx, &schema.NewPost{Title: "t", Username: "alice", Content: "c"})
	if err != nil {
		t.Fatalf("add post: %v", err)
	}

	store := &racingStore{Store: mem}
	store.race = func() {
		if _, err := setup.AddVote(ctx, p.ID, vote("carol", 1)); err != nil {
			t.Errorf("competing vote: %v", err)
		}
	}
	repo := NewPostStoreRepository(store, 3)

	if _, err := repo.AddVote(ctx, p.ID, vote("bob1", 1)); err != nil {
		t.Fatalf("vote: %v", err)
	}

	posts, err := repo.GetAllPosts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	votes := posts[0].Votes
	if votes.Count != 2 || votes.Map["bob1"] != 1 || votes.Map["carol"] != 1 {
		t.Fatalf("lost update: %+v", votes)
	}
}

func TestRepositoryGivesUpAfterRetries(t *testing.T) {
	store := &conflictStore{Store: kv.NewMemoryStore()}
	repo := NewPostStoreRepository(store, 2)

	_, err := repo.AddPost(context.Background(), &schema.NewPost{Title: "t", Username: "alice", Content: "c"})
	if !errors.Is(err, ErrTooManyConflicts) {
		t.Fatalf("expected ErrTooManyConflicts, got %v", err)
	}
	if store.puts != 3 {
		t.Fatalf("expected 3 attempts, got %d", store.puts)
	}
}

func TestRepositoryCorruptDocument(t *testing.T) {
	mem := kv.NewMemoryStore()
	if _, err := mem.Put(context.Background(), DocumentKey, []byte(`not json`), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	repo := NewPostStoreRepository(mem, 1)
	if _, err := repo.GetAllPosts(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRepositoryConcurrentVotesSQLite(t *testing.T) {
	ctx := context.Background()
	st, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "board.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	const voters = 20
	// a lost version race means another voter committed, so voters-1 retries
	// cover every race; the rest absorbs lock timeouts
	repo := NewPostStoreRepository(st, 2*voters)
	p, err := repo.AddPost(ctx, &schema.NewPost{Title: "t", Username: "alice", Content: "c"})
	if err != nil {
		t.Fatalf("add post: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := repo.AddVote(ctx, p.ID, vote(fmt.Sprintf("voter%d", i), 1)); err != nil {
				t.Errorf("voter%d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	posts, err := repo.GetAllPosts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	votes := posts[0].Votes
	if votes.Count != voters || len(votes.Map) != voters {
		t.Fatalf("expected %d votes, got count %v over %d voters", voters, votes.Count, len(votes.Map))
	}
}
