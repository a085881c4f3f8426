package forgejo

import (
	"bytes"
	"encoding/json"
)

// EventType classifies a webhook payload, taken from the
// X-Forgejo-Event-Type header.
type EventType string

const (
	EventRepository               EventType = "repository"
	EventCreate                   EventType = "create"
	EventDelete                   EventType = "delete"
	EventPush                     EventType = "push"
	EventRelease                  EventType = "release"
	EventWiki                     EventType = "wiki"
	EventIssues                   EventType = "issues"
	EventIssueAssign              EventType = "issue_assign"
	EventIssueLabel               EventType = "issue_label"
	EventIssueMilestone           EventType = "issue_milestone"
	EventIssueComment             EventType = "issue_comment"
	EventPullRequest              EventType = "pull_request"
	EventPullRequestAssign        EventType = "pull_request_assign"
	EventPullRequestLabel         EventType = "pull_request_label"
	EventPullRequestMilestone     EventType = "pull_request_milestone"
	EventPullRequestComment       EventType = "pull_request_comment"
	EventPullRequestReviewRequest EventType = "pull_request_review_request"
	EventPullRequestReviewComment EventType = "pull_request_review_comment"
	EventPullRequestReviewReject  EventType = "pull_request_review_rejected"
	EventPullRequestReviewApprove EventType = "pull_request_review_approved"
	EventPullRequestSync          EventType = "pull_request_sync"
	EventFork                     EventType = "fork"
)

// User is a Forgejo account reference
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Username  string `json:"username"`
}

// DisplayName returns the full name when set and falls back to the login
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Login
}

// Repository is the repository an event originated from
type Repository struct {
	ID            int64  `json:"id"`
	Owner         User   `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	Private       bool   `json:"private"`
	Fork          bool   `json:"fork"`
	HTMLURL       string `json:"html_url"`
	CloneURL      string `json:"clone_url"`
	DefaultBranch string `json:"default_branch"`
}

// Committer identifies the author or committer of a commit
type Committer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Commit is a single commit in a push payload
type Commit struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	URL       string    `json:"url"`
	Author    Committer `json:"author"`
	Committer Committer `json:"committer"`
	Timestamp string    `json:"timestamp"`
	Added     []string  `json:"added"`
	Removed   []string  `json:"removed"`
	Modified  []string  `json:"modified"`
}

// Release is a published release or pre-release
type Release struct {
	ID         int64  `json:"id"`
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Body       string `json:"body"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	Author     User   `json:"author"`
}

// Label is an issue or pull request label
type Label struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	URL   string `json:"url"`
}

// Milestone groups issues and pull requests
type Milestone struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	State        string `json:"state"`
	OpenIssues   int    `json:"open_issues"`
	ClosedIssues int    `json:"closed_issues"`
}

// Issue is the issue carried by issue-flavoured events
type Issue struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	HTMLURL   string    `json:"html_url"`
	Number    int64     `json:"number"`
	User      User      `json:"user"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Labels    []Label   `json:"labels"`
	Milestone Milestone `json:"milestone"`
	Assignee  User      `json:"assignee"`
	Assignees []User    `json:"assignees"`
	State     string    `json:"state"`
}

// Branch is one side of a pull request
type Branch struct {
	Label string `json:"label"`
	Ref   string `json:"ref"`
	Sha   string `json:"sha"`
}

// PullRequest is the pull request carried by pull-request-flavoured events
type PullRequest struct {
	ID                 int64     `json:"id"`
	URL                string    `json:"url"`
	HTMLURL            string    `json:"html_url"`
	Number             int64     `json:"number"`
	User               User      `json:"user"`
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	Labels             []Label   `json:"labels"`
	Milestone          Milestone `json:"milestone"`
	Assignee           User      `json:"assignee"`
	Assignees          []User    `json:"assignees"`
	RequestedReviewers []User    `json:"requested_reviewers"`
	State              string    `json:"state"`
	Merged             bool      `json:"merged"`
	Base               Branch    `json:"base"`
	Head               Branch    `json:"head"`
}

// Review is the review summary of a review event
type Review struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Comment is polymorphic in webhook payloads: older payloads carry a
// bare string, newer ones a structured object. The accessors branch on
// the shape once so callers never have to.
type Comment struct {
	structured bool
	text       string

	User    User   `json:"user"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

// UnmarshalJSON accepts either a JSON string or a comment object
func (c *Comment) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '"' {
		return json.Unmarshal(data, &c.text)
	}

	type structuredComment Comment
	var sc structuredComment
	if err := json.Unmarshal(data, &sc); err != nil {
		return err
	}
	sc.structured = true
	*c = Comment(sc)
	return nil
}

// Content returns the comment text regardless of payload shape
func (c Comment) Content() string {
	if c.structured {
		return c.Body
	}
	return c.text
}

// Author returns the comment author's display name, falling back to the
// given user when the payload carried no author
func (c Comment) Author(fallback User) string {
	if c.structured {
		return c.User.DisplayName()
	}
	return fallback.DisplayName()
}

// Permalink returns the comment's own URL when present, else the fallback
func (c Comment) Permalink(fallback string) string {
	if c.structured {
		return c.HTMLURL
	}
	return fallback
}

// Event is the webhook payload envelope. Every field is value-typed so
// that a template reading a field the payload did not carry sees a zero
// value instead of a nil dereference.
type Event struct {
	SHA          string `json:"sha"`
	Ref          string `json:"ref"`
	RefType      string `json:"ref_type"`
	Action       string `json:"action"`
	Before       string `json:"before"`
	After        string `json:"after"`
	CompareURL   string `json:"compare_url"`
	TotalCommits int    `json:"total_commits"`

	Commits    []Commit   `json:"commits"`
	HeadCommit Commit     `json:"head_commit"`
	Release    Release    `json:"release"`
	Repository Repository `json:"repository"`
	Pusher     User       `json:"pusher"`
	Sender     User       `json:"sender"`

	// wiki
	Page    string  `json:"page"`
	Comment Comment `json:"comment"`

	// issue & pull_request
	Issue             Issue       `json:"issue"`
	PullRequest       PullRequest `json:"pull_request"`
	RequestedReviewer User        `json:"requested_reviewer"`
	Review            Review      `json:"review"`
	Number            int64       `json:"number"`

	// fork
	Forkee Repository `json:"forkee"`
}
