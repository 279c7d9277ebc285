package post

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"postboard/pkg/schema"
)

var ErrPostNotFound = errors.New("post not found")

// Document maps post id to post. It is the whole persisted state.
type Document map[string]*Post

func makeID(username string, at time.Time) string {
	return fmt.Sprintf("%s-%d", username, at.UnixMilli())
}

// createdMillis extracts the creation timestamp from an id of the form
// username-millis. Usernames are alphanumeric so the last dash is the separator.
func createdMillis(id string) int64 {
	i := strings.LastIndexByte(id, '-')
	if i < 0 {
		return 0
	}
	ms, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return ms
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func CreatePost(doc Document, in *schema.NewPost, now time.Time) *Post {
	id := makeID(in.Username, now)
	for {
		if _, taken := doc[id]; !taken {
			break
		}
		now = now.Add(time.Millisecond)
		id = makeID(in.Username, now)
	}

	p := &Post{
		ID:       id,
		Title:    in.Title,
		Username: in.Username,
		Content:  in.Content,
		Comments: make([]*Comment, 0),
		Votes:    Votes{Count: 0, Map: make(map[string]float64)},
	}
	if in.Media != nil {
		p.Media = Media{File: stringValue(in.Media.File), Type: stringValue(in.Media.Type)}
	}
	doc[id] = p
	return p
}

func AddComment(doc Document, postID string, in *schema.Comment, now time.Time) (*Comment, error) {
	p, ok := doc[postID]
	if !ok {
		return nil, ErrPostNotFound
	}
	c := &Comment{
		ID:       makeID(in.Username, now),
		Text:     in.Comment,
		Username: in.Username,
	}
	p.Comments = append(p.Comments, c)
	return c, nil
}

func CastVote(doc Document, postID string, in *schema.Vote) (*Votes, error) {
	p, ok := doc[postID]
	if !ok {
		return nil, ErrPostNotFound
	}
	if p.Votes.Map == nil {
		p.Votes.Map = make(map[string]float64)
	}
	newVote := in.Value()
	previous := p.Votes.Map[in.Username]
	p.Votes.Map[in.Username] = newVote
	p.Votes.Count += newVote - previous
	return &p.Votes, nil
}

// ListPosts orders posts by vote count, highest first. Equal counts keep
// creation order, oldest first, with the id as the final tie-break.
func ListPosts(doc Document) []*Post {
	posts := make([]*Post, 0, len(doc))
	for _, p := range doc {
		if p.Comments == nil {
			p.Comments = make([]*Comment, 0)
		}
		if p.Votes.Map == nil {
			p.Votes.Map = make(map[string]float64)
		}
		posts = append(posts, p)
	}

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].Votes.Count != posts[j].Votes.Count {
			return posts[i].Votes.Count > posts[j].Votes.Count
		}
		ci, cj := createdMillis(posts[i].ID), createdMillis(posts[j].ID)
		if ci != cj {
			return ci < cj
		}
		return posts[i].ID < posts[j].ID
	})
	return posts
}
