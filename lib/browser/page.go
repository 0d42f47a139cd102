package browser

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

const shortOpTimeout = 10 * time.Second

func (s *Session) Navigate(url string, timeout time.Duration) error {
	return s.run(timeout, chromedp.Navigate(url))
}

func (s *Session) Reload(timeout time.Duration) error {
	return s.run(timeout, chromedp.Reload())
}

func (s *Session) Location() (string, error) {
	var url string
	err := s.run(shortOpTimeout, chromedp.Location(&url))
	return url, err
}

// WaitVisibleAny waits until any element matched by the (possibly
// comma-separated) selector list becomes visible.
func (s *Session) WaitVisibleAny(selector string, timeout time.Duration) error {
	return s.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// IsVisible reports whether the selector currently matches a rendered
// element. It never waits.
func (s *Session) IsVisible(selector string) (bool, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return false, err
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		if (getComputedStyle(el).visibility === "hidden") return false;
		return el.getClientRects().length > 0;
	})()`, quoted)

	var visible bool
	err = s.run(shortOpTimeout, chromedp.Evaluate(script, &visible))
	return visible, err
}

func (s *Session) Fill(selector, value string) error {
	return s.run(shortOpTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (s *Session) Click(selector string) error {
	return s.run(shortOpTimeout, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *Session) PressEnter(selector string) error {
	return s.run(shortOpTimeout, chromedp.SendKeys(selector, kb.Enter, chromedp.ByQuery))
}

// ClickByText clicks the first button-like element whose text matches
// one of the given labels. Returns false when nothing matched.
func (s *Session) ClickByText(labels []string) (bool, error) {
	lowered := make([]string, len(labels))
	for i, l := range labels {
		lowered[i] = strings.ToLower(l)
	}
	quoted, err := json.Marshal(lowered)
	if err != nil {
		return false, err
	}
	script := fmt.Sprintf(`(() => {
		const labels = %s;
		const els = document.querySelectorAll('button, input[type="submit"], [role="button"]');
		for (const el of els) {
			const text = (el.textContent || el.value || "").trim().toLowerCase();
			if (!text) continue;
			if (labels.some(l => text.includes(l))) {
				el.click();
				return true;
			}
		}
		return false;
	})()`, quoted)

	var clicked bool
	err = s.run(shortOpTimeout, chromedp.Evaluate(script, &clicked))
	return clicked, err
}

// WaitTextXPath waits for the element addressed by the XPath expression
// to become visible and returns its text.
func (s *Session) WaitTextXPath(xpath string, timeout time.Duration) (string, error) {
	var text string
	err := s.run(timeout,
		chromedp.WaitVisible(xpath, chromedp.BySearch),
		chromedp.Text(xpath, &text, chromedp.BySearch),
	)
	return text, err
}

// Content returns the full markup of the main document.
func (s *Session) Content() (string, error) {
	var html string
	err := s.run(shortOpTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// FrameDoc is a rendered document: the main page or one of its iframes.
type FrameDoc struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// Frames returns the main document followed by every same-origin
// iframe's document. Cross-origin frames come back with empty HTML
// rather than an error.
func (s *Session) Frames() ([]FrameDoc, error) {
	main, err := s.Content()
	if err != nil {
		return nil, err
	}
	url, err := s.Location()
	if err != nil {
		return nil, err
	}

	const script = `Array.from(document.querySelectorAll("iframe")).map(f => {
		try {
			return {
				name: f.name || f.id || "",
				url: f.src || "",
				html: f.contentDocument ? f.contentDocument.documentElement.outerHTML : "",
			};
		} catch (e) {
			return {name: f.name || f.id || "", url: f.src || "", html: ""};
		}
	})`

	var frames []FrameDoc
	if err := s.run(shortOpTimeout, chromedp.Evaluate(script, &frames)); err != nil {
		return nil, err
	}

	docs := make([]FrameDoc, 0, len(frames)+1)
	docs = append(docs, FrameDoc{Name: "main", URL: url, HTML: main})
	docs = append(docs, frames...)
	return docs, nil
}
