package examtopics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BaseOrigin is the site origin used to absolutize site-relative image paths.
const BaseOrigin = "https://www.examtopics.com"

// TargetDomain is the host search results must belong to.
const TargetDomain = "examtopics.com"

// MarkerSelector is the element whose presence signals a question page has
// finished rendering.
const MarkerSelector = ".question-discussion-header"

// StatSelector locates the question-count stat on an exam index page.
const StatSelector = ".exam-stat-wrapper-item span"

// mostVotedMarker is decorative text stripped from choice display text.
const mostVotedMarker = "Most Voted"

// ErrMissingPageElement signals an expected header/body/choice element was
// absent from the page.
var ErrMissingPageElement = errors.New("expected page element not found")

// ErrUnrecognizedImageURL signals an image src that is neither absolute nor
// site-relative. It indicates the page schema drifted and must surface loudly.
var ErrUnrecognizedImageURL = errors.New("unrecognized image url format")

// ParsePage extracts a Record from a rendered question discussion page.
func ParsePage(doc *goquery.Document) (Record, error) {
	ordinal, err := parseOrdinal(doc)
	if err != nil {
		return Record{}, err
	}

	body := doc.Find("div.question-body").First()
	if body.Length() == 0 {
		return Record{}, fmt.Errorf("question body: %w", ErrMissingPageElement)
	}

	questionText := body.Find("p.card-text").First()
	if questionText.Length() == 0 {
		return Record{}, fmt.Errorf("question text: %w", ErrMissingPageElement)
	}

	questionImages, err := imageURLs(questionText)
	if err != nil {
		return Record{}, err
	}

	answerText := ""
	var answerImages []string
	if answer := body.Find("div.question-answer").First(); answer.Length() > 0 {
		answerText = collapseWhitespace(answer.Text())
		if answerImages, err = imageURLs(answer); err != nil {
			return Record{}, err
		}
	}

	choices, err := parseChoices(body)
	if err != nil {
		return Record{}, err
	}

	return Record{
		Ordinal:        ordinal,
		Question:       strings.TrimSpace(questionText.Text()),
		Choices:        choices,
		QuestionImages: questionImages,
		AnswerText:     answerText,
		AnswerImages:   answerImages,
	}, nil
}

// ParseMaxQuestions reads the total question count from an exam index page.
func ParseMaxQuestions(doc *goquery.Document) (int, error) {
	stat := doc.Find(StatSelector).First()
	if stat.Length() == 0 {
		return 0, fmt.Errorf("question count stat: %w", ErrMissingPageElement)
	}
	n, err := strconv.Atoi(strings.TrimSpace(stat.Text()))
	if err != nil {
		return 0, fmt.Errorf("question count %q: %w", stat.Text(), ErrMissingPageElement)
	}
	return n, nil
}

// NormalizeImageURL rewrites site-relative image paths against BaseOrigin and
// passes absolute URLs through unchanged. Any other form is a hard error.
func NormalizeImageURL(src string) (string, error) {
	switch {
	case strings.HasPrefix(src, "/"):
		return BaseOrigin + src, nil
	case strings.HasPrefix(src, "http"):
		return src, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedImageURL, src)
	}
}

// parseOrdinal pulls the question number out of the discussion header, which
// renders as "Question #: N Topic #: M".
func parseOrdinal(doc *goquery.Document) (int, error) {
	header := doc.Find("div" + MarkerSelector).First()
	if header.Length() == 0 {
		return 0, fmt.Errorf("discussion header: %w", ErrMissingPageElement)
	}
	inner := header.Find("div").First()
	if inner.Length() == 0 {
		return 0, fmt.Errorf("discussion header number: %w", ErrMissingPageElement)
	}

	text := inner.Text()
	if idx := strings.Index(text, "Topic #:"); idx >= 0 {
		text = text[:idx]
	}
	_, numText, found := strings.Cut(text, "#:")
	if !found {
		return 0, fmt.Errorf("discussion header number %q: %w", text, ErrMissingPageElement)
	}
	ordinal, err := strconv.Atoi(strings.TrimSpace(numText))
	if err != nil {
		return 0, fmt.Errorf("question number %q: %w", numText, ErrMissingPageElement)
	}
	return ordinal, nil
}

func parseChoices(body *goquery.Selection) ([]Choice, error) {
	var (
		choices  []Choice
		parseErr error
	)
	body.Find("div.question-choices-container li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		letter, ok := li.Find("span.multi-choice-letter").First().Attr("data-choice-letter")
		if !ok {
			parseErr = fmt.Errorf("choice letter: %w", ErrMissingPageElement)
			return false
		}
		text := strings.TrimSpace(strings.ReplaceAll(li.Text(), mostVotedMarker, ""))
		choices = append(choices, Choice{
			Letter:  letter,
			Text:    text,
			Correct: li.HasClass("correct-hidden"),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return choices, nil
}

func imageURLs(sel *goquery.Selection) ([]string, error) {
	var (
		urls    []string
		normErr error
	)
	sel.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok {
			return true
		}
		url, err := NormalizeImageURL(src)
		if err != nil {
			normErr = err
			return false
		}
		urls = append(urls, url)
		return true
	})
	if normErr != nil {
		return nil, normErr
	}
	return urls, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
