// Per-posting apply workflow: open the detail view, resolve the chat
// action, check the daily quota, compose a greeting, send, verify.
// Every failure is converted to a result at this boundary; only a hit
// quota stops the surrounding run.

package apply

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go-jobpilot-automation/internal/ai"
	"go-jobpilot-automation/internal/driver"
	"go-jobpilot-automation/internal/ledger"
	"go-jobpilot-automation/internal/pacing"
	"go-jobpilot-automation/internal/site"
)

// ErrQuotaExceeded propagates out of the run loop: the site's daily
// contact cap is global, not per posting.
var ErrQuotaExceeded = errors.New("daily contact quota exceeded")

// ErrDeliveryUnverified marks a send that could not be confirmed in
// the conversation thread.
var ErrDeliveryUnverified = errors.New("greeting not confirmed in conversation thread")

type Outcome string

const (
	OutcomeSent             Outcome = "sent"
	OutcomeSkippedDuplicate Outcome = "skipped_duplicate"
	OutcomeSkippedQuota     Outcome = "skipped_quota_exceeded"
	OutcomeSkippedNoButton  Outcome = "skipped_no_button"
	OutcomeSkippedInactive  Outcome = "skipped_inactive_recruiter"
	OutcomeSkippedMismatch  Outcome = "skipped_ai_mismatch"
	OutcomeFailed           Outcome = "failed"
)

type Result struct {
	Posting  site.Posting
	Outcome  Outcome
	Greeting string
	Err      error
}

// Options is the slice of operator config the machine acts on.
type Options struct {
	DefaultGreeting   string
	Introduction      string
	EnableAI          bool
	StrictAIFilter    bool
	RecordFailedSends bool
	FilterDeadHR      bool
	SendResumeImage   bool
	ResumeImagePath   string
}

type Machine struct {
	adapter    site.Adapter
	ledger     ledger.Ledger
	rate       *pacing.Controller
	classifier ai.Client // nil when AI matching is off
	opts       Options
}

func NewMachine(adapter site.Adapter, led ledger.Ledger, rate *pacing.Controller, classifier ai.Client, opts Options) *Machine {
	return &Machine{
		adapter:    adapter,
		ledger:     led,
		rate:       rate,
		classifier: classifier,
		opts:       opts,
	}
}

// Apply runs the full workflow for one posting and records the
// outcome in the ledger and rate controller. The listing session is
// only used to spawn the detail tab.
func (m *Machine) Apply(ctx context.Context, sess driver.Session, keyword string, p site.Posting) Result {
	res := m.run(ctx, sess, keyword, p)

	switch res.Outcome {
	case OutcomeSent:
		if err := m.ledger.Append(ctx, ledger.NewRecord(p.ID, ledger.OutcomeSent)); err != nil {
			log.Printf("⚠️ Could not record submission for %s: %v", p.ID, err)
		}
		m.rate.RecordSuccess()
		log.Printf("✅ Greeted %s @ %s", p.Title, p.CompanyName)
	case OutcomeFailed:
		if m.opts.RecordFailedSends {
			if err := m.ledger.Append(ctx, ledger.NewRecord(p.ID, ledger.OutcomeFailed)); err != nil {
				log.Printf("⚠️ Could not record failure for %s: %v", p.ID, err)
			}
		}
		m.rate.RecordFailure()
		log.Printf("❌ Failed on %s @ %s: %v", p.Title, p.CompanyName, res.Err)
	case OutcomeSkippedQuota:
		res.Err = ErrQuotaExceeded
	default:
		log.Printf("⏭️ %s: %s", res.Outcome, p.Title)
	}
	return res
}

func (m *Machine) run(ctx context.Context, sess driver.Session, keyword string, p site.Posting) Result {
	sel := m.adapter.Selectors()

	// Opened
	tab, err := sess.NewTab(ctx, p.DetailURL)
	if err != nil {
		return failed(p, fmt.Errorf("open detail view: %w", err))
	}
	// Closed: cleanup runs whatever state was reached
	defer func() {
		if err := tab.Close(); err != nil {
			log.Printf("⚠️ Could not close detail tab: %v", err)
		}
	}()

	// Dedup immediately before contact, so a concurrent session's
	// fresh submission is still seen.
	seen, err := m.ledger.Exists(ctx, p.ID)
	if err != nil {
		return failed(p, fmt.Errorf("ledger lookup: %w", err))
	}
	if seen {
		return Result{Posting: p, Outcome: OutcomeSkippedDuplicate}
	}

	if m.opts.FilterDeadHR {
		if activity, err := tab.Text(sel.RecruiterActivity); err == nil && m.adapter.IsInactiveRecruiter(activity) {
			return Result{Posting: p, Outcome: OutcomeSkippedInactive}
		}
	}

	// ChatButtonResolved
	label, err := tab.Text(sel.ChatButton)
	if err != nil || !m.adapter.ChatButtonReady(label) {
		return Result{Posting: p, Outcome: OutcomeSkippedNoButton}
	}

	greeting, skip := m.composeGreeting(ctx, tab, keyword, p)
	if skip {
		return Result{Posting: p, Outcome: OutcomeSkippedMismatch}
	}

	if err := tab.Click(sel.ChatButton); err != nil {
		return failed(p, fmt.Errorf("click contact action: %w", err))
	}

	// QuotaChecked: the site reports a hit daily cap in the dialog
	if dialogText, err := tab.Text(sel.Dialog); err == nil {
		if m.adapter.MapDialog(dialogText) == site.DialogQuotaExceeded {
			tab.Screenshot("quota-exceeded")
			return Result{Posting: p, Outcome: OutcomeSkippedQuota}
		}
	}

	// GreetingComposed -> Sent
	if err := tab.Type(sel.MessageBox, greeting); err != nil {
		return failed(p, fmt.Errorf("type greeting: %w", err))
	}
	if err := tab.Click(sel.SendButton); err != nil {
		return failed(p, fmt.Errorf("click send: %w", err))
	}

	// Verified: a message attributed to us must show up in the thread
	n, err := tab.Count(sel.MyMessage)
	if err != nil || n == 0 {
		return failed(p, ErrDeliveryUnverified)
	}

	if m.opts.SendResumeImage && m.opts.ResumeImagePath != "" {
		if err := tab.UploadFile(sel.ImageUpload, m.opts.ResumeImagePath); err != nil {
			log.Printf("⚠️ Could not attach resume image: %v", err)
		}
	}

	return Result{Posting: p, Outcome: OutcomeSent, Greeting: greeting}
}

// composeGreeting picks between the operator default and a
// classifier-drafted greeting. A "not recommended" verdict only
// switches back to the default greeting unless strict filtering is
// on; classifier errors never block the send.
func (m *Machine) composeGreeting(ctx context.Context, tab driver.Session, keyword string, p site.Posting) (string, bool) {
	greeting := m.opts.DefaultGreeting
	if !m.opts.EnableAI || m.classifier == nil {
		return greeting, false
	}

	description, err := tab.Text(m.adapter.Selectors().JobDescription)
	if err != nil {
		description = ""
	}

	review, err := m.classifier.Review(ctx, ai.ReviewRequest{
		Introduction:    m.opts.Introduction,
		Keyword:         keyword,
		JobTitle:        p.Title,
		JobDescription:  description,
		DefaultGreeting: m.opts.DefaultGreeting,
	})
	if err != nil {
		log.Printf("⚠️ Classifier error for %s, using default greeting: %v", p.Title, err)
		return greeting, false
	}

	if !review.Recommended {
		if m.opts.StrictAIFilter {
			return "", true
		}
		return greeting, false
	}
	if review.Greeting != "" {
		greeting = review.Greeting
	}
	return greeting, false
}

func failed(p site.Posting, err error) Result {
	return Result{Posting: p, Outcome: OutcomeFailed, Err: err}
}
