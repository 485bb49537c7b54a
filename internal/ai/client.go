package ai

import (
	"context"
	"fmt"
)

// ReviewRequest carries everything the classifier needs to judge one
// posting.
type ReviewRequest struct {
	Introduction    string
	Keyword         string
	JobTitle        string
	JobDescription  string
	DefaultGreeting string
}

// ReviewResult is the mapped reply. When Recommended is false the
// posting was judged a poor match and Greeting is empty; callers fall
// back to the operator default.
type ReviewResult struct {
	Recommended bool
	Greeting    string
}

// Client is the interface for AI providers
type Client interface {
	// Review judges whether the posting matches the search intent and,
	// when it does, drafts a tailored greeting.
	Review(ctx context.Context, req ReviewRequest) (*ReviewResult, error)
}

// buildSystemPrompt creates the system instruction for the AI model
func buildSystemPrompt() string {
	return `You help a job seeker decide whether a posting matches what they are looking for, and write a short opening message to the recruiter.

Rules:
1. If the job title and description clearly do NOT match the search keyword or the seeker's background, reply with the single word: false
2. Otherwise reply ONLY with a short greeting message to the recruiter, in the same language as the seeker's own greeting. Mention one or two concrete points from the job description. No markdown, no quotes, no explanations.`
}

// buildUserPrompt combines the seeker's background with the posting
func buildUserPrompt(req ReviewRequest) string {
	return fmt.Sprintf(
		"My background: %s\nSearch keyword: %s\n\nJob title: %s\nJob description:\n%s\n\nMy usual greeting for reference:\n%s",
		req.Introduction, req.Keyword, req.JobTitle, req.JobDescription, req.DefaultGreeting,
	)
}
