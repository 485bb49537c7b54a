package apply

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobpilot-automation/internal/ai"
	"go-jobpilot-automation/internal/driver/drivertest"
	"go-jobpilot-automation/internal/ledger"
	"go-jobpilot-automation/internal/pacing"
	"go-jobpilot-automation/internal/site"
	"go-jobpilot-automation/internal/site/boss"
)

const defaultGreeting = "您好，我对这个岗位很感兴趣。"

var testPosting = site.Posting{
	ID:          "https://example.com/job/abc",
	Title:       "Golang后端开发",
	CompanyName: "清白科技",
	SalaryText:  "15-25K",
	DetailURL:   "https://example.com/job/abc",
}

type fakeClassifier struct {
	result *ai.ReviewResult
	err    error
	calls  int
}

func (f *fakeClassifier) Review(_ context.Context, _ ai.ReviewRequest) (*ai.ReviewResult, error) {
	f.calls++
	return f.result, f.err
}

// newDetailTab scripts a detail page where the whole flow succeeds.
func newDetailTab() *drivertest.FakeSession {
	sel := boss.New(nil).Selectors()
	tab := drivertest.New()
	tab.TextValues[sel.ChatButton] = "立即沟通"
	tab.TextValues[sel.JobDescription] = "负责后端服务开发，Go语言优先。"
	tab.TextValues[sel.RecruiterActivity] = "刚刚活跃"
	tab.CountSeq[sel.MyMessage] = []int{1}
	return tab
}

func newSession(tab *drivertest.FakeSession) *drivertest.FakeSession {
	sess := drivertest.New()
	sess.Tabs[testPosting.DetailURL] = tab
	return sess
}

func newMachine(t *testing.T, classifier ai.Client, opts Options) (*Machine, *pacing.Controller, ledger.Ledger) {
	t.Helper()
	led, err := ledger.NewFileLedger(t.TempDir())
	require.NoError(t, err)
	rate := pacing.NewController(100, 5, 0, 0)
	if opts.DefaultGreeting == "" {
		opts.DefaultGreeting = defaultGreeting
	}
	return NewMachine(boss.New([]string{"半年前活跃"}), led, rate, classifier, opts), rate, led
}

func TestApplySendsAndRecords(t *testing.T) {
	m, rate, led := newMachine(t, nil, Options{})
	tab := newDetailTab()
	sess := newSession(tab)

	res := m.Apply(context.Background(), sess, "golang", testPosting)

	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, defaultGreeting, res.Greeting)

	sel := boss.New(nil).Selectors()
	assert.Equal(t, defaultGreeting, tab.TypedText[sel.MessageBox])
	assert.Equal(t, []string{sel.ChatButton, sel.SendButton}, tab.ClickedSelectors)
	assert.Equal(t, 1, tab.CloseCount, "detail tab is always closed")

	seen, err := led.Exists(context.Background(), testPosting.ID)
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, 1, rate.SuccessCount())
}

// Feed the same posting id across two simulated runs: exactly one
// send happens.
func TestApplyDedupAcrossRuns(t *testing.T) {
	m, rate, _ := newMachine(t, nil, Options{})

	first := m.Apply(context.Background(), newSession(newDetailTab()), "golang", testPosting)
	assert.Equal(t, OutcomeSent, first.Outcome)

	secondTab := newDetailTab()
	second := m.Apply(context.Background(), newSession(secondTab), "golang", testPosting)
	assert.Equal(t, OutcomeSkippedDuplicate, second.Outcome)
	assert.Empty(t, secondTab.ClickedSelectors, "duplicate must not be contacted")
	assert.Equal(t, 1, rate.SuccessCount())
	assert.Equal(t, 1, secondTab.CloseCount)
}

func TestApplyQuotaExceededPropagates(t *testing.T) {
	m, _, led := newMachine(t, nil, Options{})
	sel := boss.New(nil).Selectors()
	tab := newDetailTab()
	tab.TextValues[sel.Dialog] = "今日沟通人数已达上限"
	sess := newSession(tab)

	res := m.Apply(context.Background(), sess, "golang", testPosting)

	assert.Equal(t, OutcomeSkippedQuota, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrQuotaExceeded)
	assert.Empty(t, tab.TypedText, "no greeting after quota hit")

	seen, err := led.Exists(context.Background(), testPosting.ID)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestApplyNoChatButton(t *testing.T) {
	m, _, _ := newMachine(t, nil, Options{})
	sel := boss.New(nil).Selectors()
	tab := newDetailTab()
	tab.TextValues[sel.ChatButton] = "继续沟通"

	res := m.Apply(context.Background(), newSession(tab), "golang", testPosting)

	assert.Equal(t, OutcomeSkippedNoButton, res.Outcome)
	assert.Empty(t, tab.ClickedSelectors)
}

func TestApplyDeliveryUnverified(t *testing.T) {
	m, rate, led := newMachine(t, nil, Options{})
	sel := boss.New(nil).Selectors()
	tab := newDetailTab()
	tab.CountSeq[sel.MyMessage] = []int{0}

	res := m.Apply(context.Background(), newSession(tab), "golang", testPosting)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrDeliveryUnverified)

	// default policy: unverified postings stay eligible for a later run
	seen, err := led.Exists(context.Background(), testPosting.ID)
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, 0, rate.SuccessCount())
}

func TestApplyOpenFailure(t *testing.T) {
	m, _, _ := newMachine(t, nil, Options{})
	sess := drivertest.New()
	sess.NewTabErr = errors.New("navigation timeout")

	res := m.Apply(context.Background(), sess, "golang", testPosting)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestApplyInactiveRecruiter(t *testing.T) {
	m, _, _ := newMachine(t, nil, Options{FilterDeadHR: true})
	sel := boss.New(nil).Selectors()
	tab := newDetailTab()
	tab.TextValues[sel.RecruiterActivity] = "半年前活跃"

	res := m.Apply(context.Background(), newSession(tab), "golang", testPosting)

	assert.Equal(t, OutcomeSkippedInactive, res.Outcome)
	assert.Empty(t, tab.ClickedSelectors)
}

func TestApplyClassifierGreeting(t *testing.T) {
	custom := "您好，我有三年Go经验，和岗位要求很匹配。"
	cls := &fakeClassifier{result: &ai.ReviewResult{Recommended: true, Greeting: custom}}
	m, _, _ := newMachine(t, cls, Options{EnableAI: true})
	tab := newDetailTab()

	res := m.Apply(context.Background(), newSession(tab), "golang", testPosting)

	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, custom, res.Greeting)
	assert.Equal(t, 1, cls.calls)
}

// Observed policy: a "not recommended" verdict still sends, just with
// the operator default greeting.
func TestApplyClassifierNotRecommendedStillSends(t *testing.T) {
	cls := &fakeClassifier{result: &ai.ReviewResult{Recommended: false}}
	m, _, _ := newMachine(t, cls, Options{EnableAI: true})
	tab := newDetailTab()

	res := m.Apply(context.Background(), newSession(tab), "golang", testPosting)

	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, defaultGreeting, res.Greeting)
}

func TestApplyStrictClassifierSkips(t *testing.T) {
	cls := &fakeClassifier{result: &ai.ReviewResult{Recommended: false}}
	m, _, _ := newMachine(t, cls, Options{EnableAI: true, StrictAIFilter: true})
	tab := newDetailTab()

	res := m.Apply(context.Background(), newSession(tab), "golang", testPosting)

	assert.Equal(t, OutcomeSkippedMismatch, res.Outcome)
	assert.Empty(t, tab.ClickedSelectors)
}

func TestApplyClassifierErrorFallsBack(t *testing.T) {
	cls := &fakeClassifier{err: errors.New("api down")}
	m, _, _ := newMachine(t, cls, Options{EnableAI: true})
	tab := newDetailTab()

	res := m.Apply(context.Background(), newSession(tab), "golang", testPosting)

	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, defaultGreeting, res.Greeting)
}

func TestApplyResumeImage(t *testing.T) {
	m, _, _ := newMachine(t, nil, Options{SendResumeImage: true, ResumeImagePath: "/tmp/resume.png"})
	sel := boss.New(nil).Selectors()
	tab := newDetailTab()

	res := m.Apply(context.Background(), newSession(tab), "golang", testPosting)

	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, "/tmp/resume.png", tab.UploadedFiles[sel.ImageUpload])
}
