package weibo

import (
	"context"
	"fmt"

	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/weibo/extract"
	"github.com/ncobase/weibo-agent/weibo/structs"
)

// DefaultMaxPosts applies when criteria leave MaxPosts unset.
const DefaultMaxPosts = 100

// ListPosts asks the automation engine for the account's posts matching c.
// Entries without an id are dropped and the list is cut to c.MaxPosts.
func (s *Session) ListPosts(ctx context.Context, c structs.Criteria, events chan<- Event) ([]structs.Post, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	if c.MaxPosts <= 0 {
		c.MaxPosts = DefaultMaxPosts
	}

	emit(ctx, events, Event{Message: "fetching posts"})

	raw, err := s.run(ctx, "list_posts", listPostsTask(c))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListPosts, err)
	}
	rec, err := extract.Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse post list: %w", ErrListPosts, err)
	}
	if rec.Has("success") && !rec.Bool("success", true) {
		return nil, fmt.Errorf("%w: %s", ErrListPosts, rec.String("error", "automation reported failure"))
	}

	items := rec.Records("weibos")
	posts := make([]structs.Post, 0, len(items))
	dropped := 0
	for _, item := range items {
		p, ok := toPost(item)
		if !ok {
			dropped++
			continue
		}
		posts = append(posts, p)
		if len(posts) == c.MaxPosts {
			break
		}
	}
	if dropped > 0 {
		logger.Debug(ctx, "dropped posts without id", "count", dropped)
	}

	return posts, nil
}

func toPost(r extract.Record) (structs.Post, bool) {
	id := r.String("id", "")
	if id == "" {
		return structs.Post{}, false
	}
	return structs.Post{
		ID:           id,
		Content:      r.String("content", ""),
		PublishTime:  r.String("publish_time", ""),
		RepostCount:  r.NonNegativeInt("repost_count", 0),
		CommentCount: r.NonNegativeInt("comment_count", 0),
		LikeCount:    r.NonNegativeInt("like_count", 0),
		HasMedia:     r.Bool("has_media", false),
		URL:          r.String("url", ""),
	}, true
}
