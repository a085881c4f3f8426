// Package notify turns a classified Forgejo webhook event into a single
// notification message.
package notify

import (
	"fmt"
	"strings"

	"github.com/CDN18/forgejo-relay/internal/forgejo"
	"github.com/CDN18/forgejo-relay/internal/markdown"
)

// Fully qualified refs arrive as refs/heads/<name> or refs/tags/<name>;
// the branch or tag name starts at a fixed offset.
const (
	branchRefPrefixLen = len("refs/heads/")
	tagRefPrefixLen    = len("refs/tags/")
)

// Format renders the notification message for an event. It is total:
// unknown event types and actions render through generic fallback lines,
// and missing sub-fields render as zero values.
func Format(event *forgejo.Event, eventType forgejo.EventType) string {
	var message string
	sender := event.Sender.DisplayName()
	repo := event.Repository.FullName

	switch eventType {
	case forgejo.EventRepository:
		switch event.Action {
		case "created":
			message = fmt.Sprintf("%s created repository %s", sender, repo)
		case "deleted":
			message = fmt.Sprintf("%s deleted repository %s", sender, repo)
		case "archived":
			message = fmt.Sprintf("%s archived repository %s", sender, repo)
		case "unarchived":
			message = fmt.Sprintf("%s restored repository %s from its archived state", sender, repo)
		case "publicized":
			message = fmt.Sprintf("%s made repository %s public", sender, repo)
		case "privatized":
			message = fmt.Sprintf("%s made repository %s private", sender, repo)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on repository %s", sender, event.Action, repo)
		}
		if event.Action != "deleted" {
			message += "\n" + event.Repository.HTMLURL
		}

	case forgejo.EventCreate:
		switch event.RefType {
		case "branch":
			name := stripRefPrefix(event.Ref, branchRefPrefixLen)
			message = fmt.Sprintf("%s created branch %s in repository %s\n%s/src/branch/%s",
				sender, name, repo, event.Repository.HTMLURL, name)
		case "tag":
			name := stripRefPrefix(event.Ref, tagRefPrefixLen)
			message = fmt.Sprintf("%s created tag %s in repository %s\n%s/releases/tag/%s",
				sender, name, repo, event.Repository.HTMLURL, name)
		default:
			message = fmt.Sprintf("%s created a ref of unknown type %s in repository %s", sender, event.RefType, repo)
		}

	case forgejo.EventDelete:
		switch event.RefType {
		case "branch":
			name := stripRefPrefix(event.Ref, branchRefPrefixLen)
			message = fmt.Sprintf("%s deleted branch %s in repository %s", sender, name, repo)
		case "tag":
			name := stripRefPrefix(event.Ref, tagRefPrefixLen)
			message = fmt.Sprintf("%s deleted tag %s in repository %s", sender, name, repo)
		default:
			message = fmt.Sprintf("%s deleted a ref of unknown type %s in repository %s", sender, event.RefType, repo)
		}

	case forgejo.EventPush:
		message = fmt.Sprintf("%s pushed %d commits to repository %s\nfrom %s to %s.\nlatest commit: %s\nadded %d, modified %d, removed %d files.\n%s",
			sender, event.TotalCommits, repo,
			shortSHA(event.Before), shortSHA(event.After),
			event.HeadCommit.Message,
			len(event.HeadCommit.Added), len(event.HeadCommit.Modified), len(event.HeadCommit.Removed),
			event.CompareURL)

	case forgejo.EventRelease:
		name := event.Release.Name
		if name == "" {
			name = event.Release.TagName
		}
		kind := "stable"
		if event.Release.Prerelease {
			kind = "pre-release"
		}
		switch event.Action {
		case "published":
			body := markdown.ConvertImages(event.Release.Body, event.Release.HTMLURL)
			message = fmt.Sprintf("%s published release %s (%s) in repository %s\nrelease notes:\n%s", sender, name, kind, repo, body)
		case "updated":
			body := markdown.ConvertImages(event.Release.Body, event.Release.HTMLURL)
			message = fmt.Sprintf("%s updated release %s (%s) in repository %s\nrelease notes:\n%s", sender, name, kind, repo, body)
		case "deleted":
			message = fmt.Sprintf("%s deleted release %s (%s) in repository %s", sender, name, kind, repo)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on release %s (%s) in repository %s", sender, event.Action, name, kind, repo)
		}
		if event.Action != "deleted" {
			message += "\n" + event.Release.HTMLURL
		}

	case forgejo.EventWiki:
		switch event.Action {
		case "created":
			message = fmt.Sprintf("%s created wiki page %s in repository %s\nchange note: %s", sender, event.Page, repo, event.Comment.Content())
		case "edited":
			message = fmt.Sprintf("%s edited wiki page %s in repository %s\nchange note: %s", sender, event.Page, repo, event.Comment.Content())
		case "renamed":
			message = fmt.Sprintf("%s renamed a wiki page to %s in repository %s", sender, event.Page, repo)
		case "removed":
			message = fmt.Sprintf("%s removed wiki page %s in repository %s", sender, event.Page, repo)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on wiki page %s in repository %s", sender, event.Action, event.Page, repo)
		}
		if event.Action != "removed" {
			message += "\n" + event.Repository.HTMLURL + "/wiki/" + event.Page
		}

	case forgejo.EventIssues:
		issue := issueRef(event)
		switch event.Action {
		case "opened":
			content := markdown.ConvertImages(event.Issue.Body, event.Issue.HTMLURL)
			message = fmt.Sprintf("%s opened issue %s\nissue body:\n%s", sender, issue, content)
		case "edited":
			content := markdown.ConvertImages(event.Issue.Body, event.Issue.HTMLURL)
			message = fmt.Sprintf("%s edited issue %s\nissue body:\n%s", sender, issue, content)
		case "deleted":
			message = fmt.Sprintf("%s deleted issue %s", sender, issue)
		case "closed":
			message = fmt.Sprintf("%s closed issue %s", sender, issue)
		case "reopened":
			message = fmt.Sprintf("%s reopened issue %s", sender, issue)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on issue %s", sender, event.Action, issue)
		}
		if event.Action != "deleted" {
			message += "\n" + event.Issue.HTMLURL
		}

	case forgejo.EventIssueAssign:
		issue := issueRef(event)
		switch event.Action {
		case "assigned":
			message = fmt.Sprintf("%s edited issue %s\nassigned it to: %s", sender, issue, joinDisplayNames(event.Issue.Assignees))
		case "unassigned":
			message = fmt.Sprintf("%s edited issue %s\nremoved some or all of its assignees.", sender, issue)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on issue %s", sender, event.Action, issue)
		}
		message += "\n" + event.Issue.HTMLURL

	case forgejo.EventIssueLabel:
		message = fmt.Sprintf("%s edited issue %s\nupdated its labels. current labels: %s\n%s",
			sender, issueRef(event), joinLabelNames(event.Issue.Labels), event.Issue.HTMLURL)

	case forgejo.EventIssueMilestone:
		issue := issueRef(event)
		milestone := event.Issue.Milestone
		total := milestone.OpenIssues + milestone.ClosedIssues
		switch event.Action {
		case "milestoned":
			message = fmt.Sprintf("%s edited issue %s\nadded it to milestone %s, current progress %d/%d\nissue: %s\nmilestone: %s/milestone/%d",
				sender, issue, milestone.Title, milestone.ClosedIssues, total,
				event.Issue.HTMLURL, event.Repository.HTMLURL, milestone.ID)
		case "demilestoned":
			message = fmt.Sprintf("%s edited issue %s\nremoved it from milestone %s, current progress %d/%d\n%s",
				sender, issue, milestone.Title, milestone.ClosedIssues, total, event.Issue.HTMLURL)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on issue %s\n%s", sender, event.Action, issue, event.Issue.HTMLURL)
		}

	case forgejo.EventIssueComment:
		issue := issueRef(event)
		author := event.Comment.Author(event.Sender)
		permalink := event.Comment.Permalink(event.Issue.HTMLURL)
		switch event.Action {
		case "created":
			content := markdown.ConvertImages(event.Comment.Content(), permalink)
			message = fmt.Sprintf("%s commented on issue %s\ncomment:\n%s", author, issue, content)
		case "edited":
			content := markdown.ConvertImages(event.Comment.Content(), permalink)
			message = fmt.Sprintf("%s edited a comment on issue %s\ncomment:\n%s", author, issue, content)
		case "deleted":
			message = fmt.Sprintf("%s deleted a comment on issue %s", author, issue)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on issue %s", author, event.Action, issue)
		}
		if event.Action != "deleted" {
			message += "\n" + permalink
		}

	case forgejo.EventPullRequest:
		pr := pullRef(event)
		switch event.Action {
		case "opened":
			content := markdown.ConvertImages(event.PullRequest.Body, event.PullRequest.HTMLURL)
			message = fmt.Sprintf("%s opened pull request %s\nit merges %s into %s\ndescription:\n%s",
				sender, pr, event.PullRequest.Head.Label, event.PullRequest.Base.Label, content)
		case "edited":
			content := markdown.ConvertImages(event.PullRequest.Body, event.PullRequest.HTMLURL)
			message = fmt.Sprintf("%s edited pull request %s\nit merges %s into %s\ndescription:\n%s",
				sender, pr, event.PullRequest.Head.Label, event.PullRequest.Base.Label, content)
		case "closed":
			outcome := "it was not merged"
			if event.PullRequest.Merged {
				outcome = "it was merged"
			}
			message = fmt.Sprintf("%s closed pull request %s\n%s", sender, pr, outcome)
		case "reopened":
			content := markdown.ConvertImages(event.PullRequest.Body, event.PullRequest.HTMLURL)
			message = fmt.Sprintf("%s reopened pull request %s\nit merges %s into %s\ndescription:\n%s",
				sender, pr, event.PullRequest.Head.Label, event.PullRequest.Base.Label, content)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on pull request %s", sender, event.Action, pr)
		}
		message += "\n" + event.PullRequest.HTMLURL

	case forgejo.EventPullRequestAssign:
		pr := pullRef(event)
		switch event.Action {
		case "assigned":
			message = fmt.Sprintf("%s edited pull request %s\nassigned it to: %s", sender, pr, joinDisplayNames(event.PullRequest.Assignees))
		case "unassigned":
			message = fmt.Sprintf("%s edited pull request %s\nremoved some or all of its assignees.", sender, pr)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on pull request %s", sender, event.Action, pr)
		}
		message += "\n" + event.PullRequest.HTMLURL

	case forgejo.EventPullRequestLabel:
		message = fmt.Sprintf("%s edited pull request %s\nupdated its labels. current labels: %s\n%s",
			sender, pullRef(event), joinLabelNames(event.PullRequest.Labels), event.PullRequest.HTMLURL)

	case forgejo.EventPullRequestMilestone:
		pr := pullRef(event)
		milestone := event.PullRequest.Milestone
		total := milestone.OpenIssues + milestone.ClosedIssues
		switch event.Action {
		case "milestoned":
			message = fmt.Sprintf("%s edited pull request %s\nadded it to milestone %s, current progress %d/%d\npull request: %s\nmilestone: %s/milestone/%d",
				sender, pr, milestone.Title, milestone.ClosedIssues, total,
				event.PullRequest.HTMLURL, event.Repository.HTMLURL, milestone.ID)
		case "demilestoned":
			message = fmt.Sprintf("%s edited pull request %s\nremoved it from milestone %s, current progress %d/%d\n%s",
				sender, pr, milestone.Title, milestone.ClosedIssues, total, event.PullRequest.HTMLURL)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on pull request %s\n%s", sender, event.Action, pr, event.PullRequest.HTMLURL)
		}

	case forgejo.EventPullRequestComment:
		pr := pullRef(event)
		author := event.Comment.Author(event.Sender)
		permalink := event.Comment.Permalink(event.PullRequest.HTMLURL)
		switch event.Action {
		case "created":
			content := markdown.ConvertImages(event.Comment.Content(), permalink)
			message = fmt.Sprintf("%s commented on pull request %s\ncomment:\n%s", author, pr, content)
		case "edited":
			content := markdown.ConvertImages(event.Comment.Content(), permalink)
			message = fmt.Sprintf("%s edited a comment on pull request %s\ncomment:\n%s", author, pr, content)
		case "deleted":
			message = fmt.Sprintf("%s deleted a comment on pull request %s", author, pr)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on pull request %s", author, event.Action, pr)
		}
		if event.Action != "deleted" {
			message += "\n" + permalink
		}

	case forgejo.EventPullRequestReviewRequest:
		pr := pullRef(event)
		reviewer := event.RequestedReviewer.DisplayName()
		switch event.Action {
		case "review_requested":
			message = fmt.Sprintf("%s requested %s to review pull request %s", sender, reviewer, pr)
		case "review_request_removed":
			message = fmt.Sprintf("%s removed the review request for %s.\npull request: %s", sender, reviewer, pr)
		default:
			message = fmt.Sprintf("%s performed unknown action %s on pull request %s", sender, event.Action, pr)
		}
		message += "\n" + event.PullRequest.HTMLURL

	case forgejo.EventPullRequestReviewComment:
		content := markdown.ConvertImages(event.Review.Content, event.PullRequest.HTMLURL)
		message = fmt.Sprintf("%s reviewed pull request %s\nreview comment:\n%s\n%s",
			sender, pullRef(event), content, event.PullRequest.HTMLURL)

	case forgejo.EventPullRequestReviewReject:
		content := markdown.ConvertImages(event.Review.Content, event.PullRequest.HTMLURL)
		message = fmt.Sprintf("%s reviewed pull request %s\nchanges requested:\n%s\n%s",
			sender, pullRef(event), content, event.PullRequest.HTMLURL)

	case forgejo.EventPullRequestReviewApprove:
		content := markdown.ConvertImages(event.Review.Content, event.PullRequest.HTMLURL)
		message = fmt.Sprintf("%s approved pull request %s\n%s\n%s",
			sender, pullRef(event), content, event.PullRequest.HTMLURL)

	case forgejo.EventPullRequestSync:
		message = fmt.Sprintf("%s pushed new commits to pull request %s\n%s",
			sender, pullRef(event), event.PullRequest.HTMLURL)

	case forgejo.EventFork:
		message = fmt.Sprintf("%s forked repository %s to %s\n%s",
			sender, repo, event.Forkee.FullName, event.Forkee.HTMLURL)

	default:
		message = fmt.Sprintf("%s performed an unknown action on repository %s.\nevent type: %s, action: %s",
			sender, repo, eventType, event.Action)
	}

	// Multi-line templates can leave a comma stuck to a newline; collapse
	// every occurrence before handing the message to the renderer.
	message = strings.ReplaceAll(message, "\n,", "\n")
	return "<>" + message + "</>"
}

// issueRef renders the owner/repo#number: title reference for an issue
func issueRef(event *forgejo.Event) string {
	return fmt.Sprintf("%s#%d: %s", event.Repository.FullName, event.Issue.Number, event.Issue.Title)
}

// pullRef renders the owner/repo#number: title reference for a pull request
func pullRef(event *forgejo.Event) string {
	return fmt.Sprintf("%s#%d: %s", event.Repository.FullName, event.PullRequest.Number, event.PullRequest.Title)
}

// stripRefPrefix removes the fixed-length ref namespace prefix. Refs that
// are shorter than the prefix are returned as-is.
func stripRefPrefix(ref string, prefixLen int) string {
	if len(ref) >= prefixLen {
		return ref[prefixLen:]
	}
	return ref
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func joinDisplayNames(users []forgejo.User) string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.DisplayName())
	}
	return strings.Join(names, ", ")
}

func joinLabelNames(labels []forgejo.Label) string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return strings.Join(names, ", ")
}
