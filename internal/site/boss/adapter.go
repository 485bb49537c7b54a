// Boss adapter: owns every zhipin.com selector and all the magic
// dialog text, mapped into the core taxonomy.

package boss

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-jobpilot-automation/internal/site"
)

const baseURL = "https://www.zhipin.com"

// Text markers. The site reports a hit daily cap inside the chat
// dialog rather than through any status code.
const (
	chatReadyLabel = "立即沟通"
	quotaMarker    = "已达上限"
)

var challengeMarkers = []string{"安全验证", "请完成验证", "captcha"}

type Adapter struct {
	deadStatus []string
}

// New builds the adapter. deadStatus lists recruiter-activity phrases
// that mean the recruiter stopped responding long ago.
func New(deadStatus []string) *Adapter {
	return &Adapter{deadStatus: deadStatus}
}

func (a *Adapter) Name() string {
	return "BossZhipin"
}

func (a *Adapter) SearchURL(cityCode, keyword string) string {
	return fmt.Sprintf("%s/web/geek/job?query=%s&city=%s", baseURL, url.QueryEscape(keyword), cityCode)
}

func (a *Adapter) Selectors() site.Selectors {
	return site.Selectors{
		ListingContainer:  "ul.job-list-box",
		ListingItem:       "li.job-card-wrapper",
		ChatButton:        ".job-detail-box .op-btn-chat",
		Dialog:            ".dialog-container",
		MessageBox:        ".chat-conversation .chat-input",
		SendButton:        ".chat-conversation .btn-send",
		MyMessage:         ".chat-message .item-myself .text",
		JobDescription:    ".job-detail-section .job-sec-text",
		RecruiterActivity: ".job-boss-info .boss-active-time",
		ImageUpload:       ".chat-conversation input[type=file]",
	}
}

func (a *Adapter) ChatButtonReady(label string) bool {
	return strings.Contains(label, chatReadyLabel)
}

func (a *Adapter) MapDialog(text string) site.DialogStatus {
	if strings.Contains(text, quotaMarker) {
		return site.DialogQuotaExceeded
	}
	return site.DialogOK
}

func (a *Adapter) IsChallenge(fingerprint string) bool {
	for _, marker := range challengeMarkers {
		if strings.Contains(fingerprint, marker) {
			return true
		}
	}
	return false
}

func (a *Adapter) IsInactiveRecruiter(activityText string) bool {
	for _, phrase := range a.deadStatus {
		if phrase != "" && strings.Contains(activityText, phrase) {
			return true
		}
	}
	return false
}

// ExtractPostings parses the listing container's HTML. The detail link
// doubles as the stable posting id.
func (a *Adapter) ExtractPostings(html string) ([]site.Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	var postings []site.Posting
	doc.Find("li.job-card-wrapper").Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(".job-name").First().Text())
		if title == "" {
			return
		}

		href := card.Find("a.job-card-left").First().AttrOr("href", "")
		detailURL := href
		if strings.HasPrefix(href, "/") {
			detailURL = baseURL + href
		}

		var tags []string
		card.Find(".tag-list li").Each(func(_ int, tag *goquery.Selection) {
			if t := strings.TrimSpace(tag.Text()); t != "" {
				tags = append(tags, t)
			}
		})

		postings = append(postings, site.Posting{
			ID:            detailURL,
			Title:         title,
			CompanyName:   strings.TrimSpace(card.Find(".company-name").First().Text()),
			RecruiterName: strings.TrimSpace(card.Find(".info-public").First().Text()),
			AreaText:      strings.TrimSpace(card.Find(".job-area").First().Text()),
			SalaryText:    strings.TrimSpace(card.Find(".salary").First().Text()),
			Tags:          tags,
			DetailURL:     detailURL,
		})
	})

	return postings, nil
}
