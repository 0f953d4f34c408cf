package store

import (
	"context"
	"errors"

	"github.com/deepclaw/deepclaw/internal/model"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("name taken")
	ErrDuplicateKey  = errors.New("duplicate api key")
)

type FeedOpts struct {
	Limit  int
	Offset int
}

type Store interface {
	AgentStore
	PostStore
	CommentStore
	VoteStore
	GetSiteStats(ctx context.Context) (model.SiteStats, error)
	Close() error
}

type AgentStore interface {
	CreateAgent(ctx context.Context, agent *model.Agent) error
	GetAgentByName(ctx context.Context, name string) (model.Agent, error)
	GetAgentByKey(ctx context.Context, apiKey string) (model.Agent, error)
	ListAgents(ctx context.Context) ([]model.Agent, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (model.Post, error)
	PostExists(ctx context.Context, id string) (bool, error)
	ListFeed(ctx context.Context, opts FeedOpts) ([]model.Post, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	ListCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error)
}

type VoteStore interface {
	SetVote(ctx context.Context, vote *model.Vote) error
	ClearVote(ctx context.Context, agentID, postID string) error
	GetVote(ctx context.Context, agentID, postID string) (model.Vote, error)
	PostScore(ctx context.Context, postID string) (int, error)
}
