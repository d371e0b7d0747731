package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/cexll/prbot/internal/platform"
	gh "github.com/google/go-github/v66/github"
)

// SizeLabelPrefix marks the label carrying the PR size classification.
const SizeLabelPrefix = "Size: "

// maxCommitPages bounds the commit listing of a single PR (GitHub stops at 250 commits).
const maxCommitPages = 3

// Reactions maps the marker pair to GitHub reaction contents
type Reactions struct {
	Primary   string
	Secondary string
}

// DefaultReactions uses rocket for the primary marker and eyes for the secondary.
var DefaultReactions = Reactions{Primary: "rocket", Secondary: "eyes"}

// Platform serves pull requests, reactions and comments of one repository.
type Platform struct {
	client    *gh.Client
	owner     string
	repo      string
	reactions Reactions
}

// NewPlatform creates the adapter for owner/repo.
func NewPlatform(client *gh.Client, owner, repo string, reactions Reactions) *Platform {
	if reactions.Primary == "" {
		reactions.Primary = DefaultReactions.Primary
	}
	if reactions.Secondary == "" {
		reactions.Secondary = DefaultReactions.Secondary
	}
	return &Platform{client: client, owner: owner, repo: repo, reactions: reactions}
}

// Repo returns "owner/repo"
func (p *Platform) Repo() string { return p.owner + "/" + p.repo }

func (p *Platform) remoteErr(op string, err error) error {
	return fmt.Errorf("%w: %s on %s: %w", platform.ErrRemote, op, p.Repo(), err)
}

// ListOpenItems returns the newest open pull requests.
func (p *Platform) ListOpenItems(ctx context.Context, limit int) ([]int, error) {
	prs, _, err := p.client.PullRequests.List(ctx, p.owner, p.repo, &gh.PullRequestListOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, p.remoteErr("list pull requests", err)
	}

	numbers := make([]int, 0, len(prs))
	for _, pr := range prs {
		if pr.Number == nil {
			continue
		}
		numbers = append(numbers, pr.GetNumber())
	}
	if limit > 0 && len(numbers) > limit {
		numbers = numbers[:limit]
	}
	return numbers, nil
}

// GetItem fetches a pull request with its commits.
func (p *Platform) GetItem(ctx context.Context, number int) (*platform.Item, error) {
	pr, _, err := p.client.PullRequests.Get(ctx, p.owner, p.repo, number)
	if err != nil {
		return nil, p.remoteErr(fmt.Sprintf("get pull request #%d", number), err)
	}

	switch {
	case pr.State == nil:
		return nil, fmt.Errorf("%w: pull request #%d has no state", platform.ErrMissingField, number)
	case pr.Body == nil:
		return nil, fmt.Errorf("%w: pull request #%d has no body", platform.ErrMissingField, number)
	case pr.Comments == nil:
		return nil, fmt.Errorf("%w: pull request #%d has no comment count", platform.ErrMissingField, number)
	}

	item := &platform.Item{
		Number:       number,
		State:        platform.ItemState(strings.ToLower(pr.GetState())),
		CommentCount: pr.GetComments() + pr.GetReviewComments(),
		SizeLabel:    sizeLabel(pr.Labels),
		Body:         pr.GetBody(),
	}

	changes, err := p.listCommits(ctx, number)
	if err != nil {
		return nil, err
	}
	item.Changes = changes
	return item, nil
}

func sizeLabel(labels []*gh.Label) string {
	for _, l := range labels {
		if strings.HasPrefix(l.GetName(), SizeLabelPrefix) {
			return l.GetName()
		}
	}
	return ""
}

func (p *Platform) listCommits(ctx context.Context, number int) ([]platform.ChangeRecord, error) {
	var records []platform.ChangeRecord
	opts := &gh.ListOptions{PerPage: 100}
	for page := 0; page < maxCommitPages; page++ {
		commits, resp, err := p.client.PullRequests.ListCommits(ctx, p.owner, p.repo, number, opts)
		if err != nil {
			return nil, p.remoteErr(fmt.Sprintf("list commits of #%d", number), err)
		}
		for _, c := range commits {
			records = append(records, platform.ChangeRecord{Message: c.GetCommit().GetMessage()})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return records, nil
}

func (p *Platform) kindOf(content string) (platform.MarkerKind, bool) {
	switch content {
	case p.reactions.Primary:
		return platform.MarkerPrimary, true
	case p.reactions.Secondary:
		return platform.MarkerSecondary, true
	default:
		return "", false
	}
}

func (p *Platform) contentOf(kind platform.MarkerKind) (string, error) {
	switch kind {
	case platform.MarkerPrimary:
		return p.reactions.Primary, nil
	case platform.MarkerSecondary:
		return p.reactions.Secondary, nil
	default:
		return "", fmt.Errorf("unknown marker kind %q", kind)
	}
}

// ListMarkers returns the marker reactions on the pull request, any author.
func (p *Platform) ListMarkers(ctx context.Context, number int) ([]platform.Marker, error) {
	var markers []platform.Marker
	opts := &gh.ListOptions{PerPage: 100}
	for {
		reactions, resp, err := p.client.Reactions.ListIssueReactions(ctx, p.owner, p.repo, number, opts)
		if err != nil {
			return nil, p.remoteErr(fmt.Sprintf("list reactions of #%d", number), err)
		}
		for _, r := range reactions {
			kind, ok := p.kindOf(r.GetContent())
			if !ok {
				continue
			}
			markers = append(markers, platform.Marker{
				ID:    r.GetID(),
				Kind:  kind,
				Owner: r.GetUser().GetLogin(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			return markers, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateMarker adds the reaction for kind as the authenticated user.
func (p *Platform) CreateMarker(ctx context.Context, number int, kind platform.MarkerKind) (int64, error) {
	content, err := p.contentOf(kind)
	if err != nil {
		return 0, err
	}
	r, _, err := p.client.Reactions.CreateIssueReaction(ctx, p.owner, p.repo, number, content)
	if err != nil {
		return 0, p.remoteErr(fmt.Sprintf("add %s reaction to #%d", content, number), err)
	}
	return r.GetID(), nil
}

// DeleteMarker removes a reaction by ID.
func (p *Platform) DeleteMarker(ctx context.Context, number int, markerID int64) error {
	if _, err := p.client.Reactions.DeleteIssueReaction(ctx, p.owner, p.repo, number, markerID); err != nil {
		return p.remoteErr(fmt.Sprintf("delete reaction %d from #%d", markerID, number), err)
	}
	return nil
}

// CreateComment posts an issue comment on the pull request.
func (p *Platform) CreateComment(ctx context.Context, number int, body string) (*platform.Comment, error) {
	c, _, err := p.client.Issues.CreateComment(ctx, p.owner, p.repo, number, &gh.IssueComment{Body: &body})
	if err != nil {
		return nil, p.remoteErr(fmt.Sprintf("comment on #%d", number), err)
	}
	return &platform.Comment{ID: c.GetID(), Body: c.GetBody()}, nil
}

var _ platform.Platform = (*Platform)(nil)
