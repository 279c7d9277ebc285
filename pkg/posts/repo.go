package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"postboard/pkg/kv"
	"postboard/pkg/schema"
)

// StatusError is a failure that carries the HTTP status it should be reported with.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

func (e *StatusError) StatusCode() int {
	return e.Code
}

var ErrTooManyConflicts = &StatusError{
	Code:    http.StatusConflict,
	Message: "Posts were modified concurrently, please retry",
}

// PostsStoreRepository keeps the posts document in a kv.Store. Every mutation
// reads the whole document, applies the change and writes it back with the
// version it read; a concurrent write makes it start over.
type PostsStoreRepository struct {
	store   kv.Store
	retries int
	now     func() time.Time
}

func NewPostStoreRepository(store kv.Store, retries int) *PostsStoreRepository {
	if retries < 0 {
		retries = 0
	}
	return &PostsStoreRepository{
		store:   store,
		retries: retries,
		now:     time.Now,
	}
}

func (repo *PostsStoreRepository) load(ctx context.Context) (Document, int64, error) {
	entry, err := repo.store.Get(ctx, DocumentKey)
	if errors.Is(err, kv.ErrNotFound) {
		return make(Document), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get posts: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(entry.Value, &doc); err != nil {
		return nil, 0, fmt.Errorf("decode posts: %w", err)
	}
	if doc == nil {
		doc = make(Document)
	}
	return doc, entry.Version, nil
}

func (repo *PostsStoreRepository) update(ctx context.Context, mutate func(doc Document) error) error {
	for attempt := 0; attempt <= repo.retries; attempt++ {
		doc, version, err := repo.load(ctx)
		if errors.Is(err, kv.ErrConflict) {
			continue
		}
		if err != nil {
			return err
		}
		if err := mutate(doc); err != nil {
			return err
		}

		value, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode posts: %w", err)
		}

		_, err = repo.store.Put(ctx, DocumentKey, value, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, kv.ErrConflict) {
			return fmt.Errorf("put posts: %w", err)
		}
	}
	return ErrTooManyConflicts
}

func (repo *PostsStoreRepository) GetAllPosts(ctx context.Context) ([]*Post, error) {
	doc, _, err := repo.load(ctx)
	if err != nil {
		return nil, err
	}
	return ListPosts(doc), nil
}

func (repo *PostsStoreRepository) AddPost(ctx context.Context, in *schema.NewPost) (*Post, error) {
	var created *Post
	err := repo.update(ctx, func(doc Document) error {
		created = CreatePost(doc, in, repo.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo *PostsStoreRepository) AddComment(ctx context.Context, postID string, in *schema.Comment) (*Comment, error) {
	var added *Comment
	err := repo.update(ctx, func(doc Document) error {
		c, err := AddComment(doc, postID, in, repo.now())
		added = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (repo *PostsStoreRepository) AddVote(ctx context.Context, postID string, in *schema.Vote) (*Votes, error) {
	var votes *Votes
	err := repo.update(ctx, func(doc Document) error {
		v, err := CastVote(doc, postID, in)
		votes = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return votes, nil
}
