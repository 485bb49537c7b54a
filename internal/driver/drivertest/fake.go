// Scripted Session double for core tests. Sequenced values (counts,
// fingerprints) are consumed in order; the last entry repeats.

package drivertest

import (
	"context"
	"fmt"
	"sync"

	"go-jobpilot-automation/internal/driver"
)

type FakeSession struct {
	mu sync.Mutex

	URLValue   string
	TitleValue string

	Fingerprints   []string
	FingerprintErr error
	fpIdx          int

	CountSeq map[string][]int
	countIdx map[string]int

	TextValues map[string]string
	TextErrs   map[string]error
	HTMLValues map[string]string
	AttrValues map[string]string // key: selector + "/" + name

	ClickErrs        map[string]error
	ClickedSelectors []string
	TypedText        map[string]string
	TypeErrs         map[string]error
	UploadedFiles    map[string]string

	ScrollErr   error
	ScrollCount int

	NavErr        error
	NavigatedURLs []string

	Tabs      map[string]*FakeSession
	NewTabErr error

	Screenshots []string
	CloseCount  int
}

var _ driver.Session = (*FakeSession)(nil)

func New() *FakeSession {
	return &FakeSession{
		CountSeq:      map[string][]int{},
		countIdx:      map[string]int{},
		TextValues:    map[string]string{},
		TextErrs:      map[string]error{},
		HTMLValues:    map[string]string{},
		AttrValues:    map[string]string{},
		ClickErrs:     map[string]error{},
		TypedText:     map[string]string{},
		TypeErrs:      map[string]error{},
		UploadedFiles: map[string]string{},
		Tabs:          map[string]*FakeSession{},
	}
}

func (f *FakeSession) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.NavigatedURLs = append(f.NavigatedURLs, url)
	if f.NavErr != nil {
		return f.NavErr
	}
	f.URLValue = url
	return nil
}

func (f *FakeSession) CurrentURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.URLValue
}

func (f *FakeSession) Title() (string, error) {
	return f.TitleValue, nil
}

func (f *FakeSession) Count(selector string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, ok := f.CountSeq[selector]
	if !ok || len(seq) == 0 {
		return 0, nil
	}
	i := f.countIdx[selector]
	if i >= len(seq) {
		i = len(seq) - 1
	}
	f.countIdx[selector]++
	return seq[i], nil
}

func (f *FakeSession) Text(selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.TextErrs[selector]; ok {
		return "", err
	}
	v, ok := f.TextValues[selector]
	if !ok {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	return v, nil
}

func (f *FakeSession) Attr(selector, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.AttrValues[selector+"/"+name]
	if !ok {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	return v, nil
}

func (f *FakeSession) InnerHTML(selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.HTMLValues[selector]
	if !ok {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	return v, nil
}

func (f *FakeSession) Click(selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClickedSelectors = append(f.ClickedSelectors, selector)
	return f.ClickErrs[selector]
}

func (f *FakeSession) Type(selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.TypeErrs[selector]; ok {
		return err
	}
	f.TypedText[selector] = text
	return nil
}

func (f *FakeSession) UploadFile(selector, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UploadedFiles[selector] = path
	return nil
}

func (f *FakeSession) ScrollBy(pixels int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ScrollCount++
	return f.ScrollErr
}

func (f *FakeSession) SnapshotFingerprint() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FingerprintErr != nil {
		return "", f.FingerprintErr
	}
	if len(f.Fingerprints) == 0 {
		return "", nil
	}
	i := f.fpIdx
	if i >= len(f.Fingerprints) {
		i = len(f.Fingerprints) - 1
	}
	f.fpIdx++
	return f.Fingerprints[i], nil
}

func (f *FakeSession) NewTab(ctx context.Context, url string) (driver.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NewTabErr != nil {
		return nil, f.NewTabErr
	}
	tab, ok := f.Tabs[url]
	if !ok {
		return nil, fmt.Errorf("no tab scripted for %q", url)
	}
	tab.URLValue = url
	return tab, nil
}

func (f *FakeSession) Screenshot(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Screenshots = append(f.Screenshots, name)
	return nil
}

func (f *FakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CloseCount++
	return nil
}
