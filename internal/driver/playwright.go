package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"

	"go-jobpilot-automation/utils"
)

// PlaywrightManager owns the browser process and hands out sessions.
type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

// NewPlaywright launches Chromium and prepares a browser context,
// optionally seeded with saved login cookies.
func NewPlaywright(headless bool, cookies []playwright.OptionalCookie) (*PlaywrightManager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not launch playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	if len(cookies) > 0 {
		if err := browserCtx.AddCookies(cookies); err != nil {
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}

	return &PlaywrightManager{pw: pw, browser: browser, context: browserCtx}, nil
}

// NewSession opens a fresh page in the shared browser context.
func (pm *PlaywrightManager) NewSession() (Session, error) {
	page, err := pm.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	return &pwSession{page: page, browserCtx: pm.context}, nil
}

func (pm *PlaywrightManager) Close() error {
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			return err
		}
	}
	if pm.pw != nil {
		return pm.pw.Stop()
	}
	return nil
}

type pwSession struct {
	page       playwright.Page
	browserCtx playwright.BrowserContext
	shots      *utils.ScreenShotDebugger
}

func (s *pwSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	// Human behavior after landing
	utils.RandomDelay(800, 1800)
	utils.MouseJiggle(s.page)
	return nil
}

func (s *pwSession) CurrentURL() string {
	return s.page.URL()
}

func (s *pwSession) Title() (string, error) {
	return s.page.Title()
}

func (s *pwSession) Count(selector string) (int, error) {
	return s.page.Locator(selector).Count()
}

func (s *pwSession) Text(selector string) (string, error) {
	return s.page.Locator(selector).First().TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(3000),
	})
}

func (s *pwSession) Attr(selector, name string) (string, error) {
	return s.page.Locator(selector).First().GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(3000),
	})
}

func (s *pwSession) InnerHTML(selector string) (string, error) {
	return s.page.Locator(selector).First().InnerHTML(playwright.LocatorInnerHTMLOptions{
		Timeout: playwright.Float(5000),
	})
}

func (s *pwSession) Click(selector string) error {
	return s.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(5000),
	})
}

func (s *pwSession) Type(selector, text string) error {
	return s.page.Locator(selector).First().Fill(text, playwright.LocatorFillOptions{
		Timeout: playwright.Float(5000),
	})
}

func (s *pwSession) UploadFile(selector, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read upload file: %w", err)
	}
	return s.page.Locator(selector).First().SetInputFiles([]playwright.InputFile{{
		Name:   filepath.Base(path),
		Buffer: data,
	}})
}

func (s *pwSession) ScrollBy(pixels int) error {
	if err := utils.SmoothScroll(s.page, pixels); err != nil {
		return err
	}
	utils.RandomDelay(300, 700)
	return nil
}

func (s *pwSession) SnapshotFingerprint() (string, error) {
	v, err := s.page.Evaluate(`() => document.title + "|" + document.body.innerText.length`)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func (s *pwSession) NewTab(ctx context.Context, url string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := s.browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	tab := &pwSession{page: page, browserCtx: s.browserCtx, shots: s.shots}
	if err := tab.Navigate(ctx, url); err != nil {
		page.Close()
		return nil, err
	}
	return tab, nil
}

func (s *pwSession) Screenshot(name string) error {
	if s.shots == nil {
		s.shots = utils.NewScreenShotDebugger()
	}
	return s.shots.Capture(s.page, name)
}

func (s *pwSession) Close() error {
	return s.page.Close()
}
