package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/text/unicode/norm"

	"jobpilot/models"
)

// AnswerSource supplies cached answers for normalized question keys. The
// form filler only reads; persistence lives behind this interface.
type AnswerSource interface {
	Lookup(key string) (string, bool)
}

// AnswerStore is an AnswerSource that also accepts writes.
type AnswerStore interface {
	AnswerSource
	Save(entry models.AnswerEntry) error
}

const maxQuestionKeyLen = 160

// NormalizeQuestionKey derives a deterministic lookup key from question label
// text: NFC-normalize, lowercase, keep only letters/digits/underscore and
// whitespace, collapse whitespace runs to single underscores, cap at 160
// runes. Idempotent: applying it twice yields the same key.
func NormalizeQuestionKey(raw string) string {
	s := strings.ToLower(norm.NFC.String(raw))

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	key := strings.Join(strings.Fields(b.String()), "_")
	runes := []rune(key)
	if len(runes) > maxQuestionKeyLen {
		runes = runes[:maxQuestionKeyLen]
	}
	return string(runes)
}

func boolishAnswer(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "true", "yes", "evet", "1", "on":
		return true
	}
	return false
}

const textInputSelector = "input[type='text'], input:not([type]), input[type='email'], input[type='tel'], input[type='number'], textarea"

// formNode is the narrow element-set view the fill strategies need. Like a
// playwright Locator it names a match set; element operations act on the
// first match. Live pages satisfy it through pwNode.
type formNode interface {
	Count() (int, error)
	Nth(i int) formNode
	Find(selector string) formNode
	Text() (string, error)
	Attribute(name string) string
	TypeText(text string) error
	SelectByLabel(value string) bool
	SelectByValue(value string) bool
	Check() error
	IsChecked() (bool, error)
	SetChecked(desired bool) error
}

// formScope is a whole document: selector resolution plus root-level lookup.
type formScope interface {
	DOMProbe
	Find(selector string) formNode
}

type pwNode struct {
	loc playwright.Locator
}

func (n pwNode) Count() (int, error)      { return n.loc.Count() }
func (n pwNode) Nth(i int) formNode       { return pwNode{loc: n.loc.Nth(i)} }
func (n pwNode) Find(sel string) formNode { return pwNode{loc: n.loc.Locator(sel)} }

func (n pwNode) Text() (string, error) { return n.loc.First().TextContent() }

func (n pwNode) Attribute(name string) string {
	value, err := n.loc.First().GetAttribute(name)
	if err != nil || value == "" {
		return ""
	}
	return value
}

func (n pwNode) TypeText(text string) error { return TypeHuman(n.loc.First(), text) }

func (n pwNode) SelectByLabel(value string) bool {
	selected, err := n.loc.First().SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{value},
	})
	return err == nil && len(selected) > 0
}

func (n pwNode) SelectByValue(value string) bool {
	selected, err := n.loc.First().SelectOption(playwright.SelectOptionValues{
		Values: &[]string{value},
	})
	return err == nil && len(selected) > 0
}

func (n pwNode) Check() error             { return n.loc.First().Check() }
func (n pwNode) IsChecked() (bool, error) { return n.loc.First().IsChecked() }
func (n pwNode) SetChecked(d bool) error  { return n.loc.First().SetChecked(d) }

type pwScope struct {
	page  playwright.Page
	probe DOMProbe
}

func newPageScope(page playwright.Page) pwScope {
	return pwScope{page: page, probe: NewPageProbe(page)}
}

func (s pwScope) Count(selector string) int      { return s.probe.Count(selector) }
func (s pwScope) IsVisible(selector string) bool { return s.probe.IsVisible(selector) }
func (s pwScope) Find(selector string) formNode  { return pwNode{loc: s.page.Locator(selector)} }

// AutoFillQuestions walks the page's question containers, resolves each
// label to an answer via the answer source, and applies a type-appropriate
// fill strategy. Fields without an answer are skipped silently; fields with
// an answer that could not be applied are reported as structured errors.
// Never panics and never returns an error: per-field failures are data.
func AutoFillQuestions(page playwright.Page, catalog SelectorCatalog, source AnswerSource) (steps []string, fieldErrors []models.FieldError) {
	if page == nil || source == nil {
		return []string{}, []models.FieldError{}
	}
	return autoFill(newPageScope(page), catalog, source)
}

func autoFill(scope formScope, catalog SelectorCatalog, source AnswerSource) (steps []string, fieldErrors []models.FieldError) {
	steps = []string{}
	fieldErrors = []models.FieldError{}
	if scope == nil || source == nil {
		return steps, fieldErrors
	}

	containerSel, ok := ResolveSelector(scope, catalog.Role(RoleQuestionContainers))
	if !ok {
		return steps, fieldErrors
	}

	containers := scope.Find(containerSel)
	count, err := containers.Count()
	if err != nil {
		return steps, fieldErrors
	}

	for i := 0; i < count; i++ {
		container := containers.Nth(i)

		label := extractQuestionLabel(container, catalog.Role(RoleQuestionLabels))
		if label == "" {
			continue
		}

		key := NormalizeQuestionKey(label)
		answer, found := source.Lookup(key)
		if !found {
			answer, found = source.Lookup(strings.TrimSpace(label))
		}
		if !found || answer == "" {
			continue
		}

		if applyAnswer(scope, container, answer) {
			steps = append(steps, "answer:"+key)
		} else {
			fieldErrors = append(fieldErrors, models.FieldError{Field: key, Reason: "answer-apply-failed"})
		}
	}

	return steps, fieldErrors
}

func extractQuestionLabel(container formNode, labelCandidates []string) string {
	for _, selector := range labelCandidates {
		matches := container.Find(selector)
		count, err := matches.Count()
		if err != nil || count == 0 {
			continue
		}
		text, err := matches.Text()
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// applyAnswer probes input modalities in priority order: text, select,
// radio group, checkbox group.
func applyAnswer(scope formScope, container formNode, answer string) bool {
	if fillTextInput(container, answer) {
		return true
	}
	if fillSelect(container, answer) {
		return true
	}
	if fillRadioGroup(scope, container, answer) {
		return true
	}
	return fillCheckboxGroup(container, answer)
}

func fillTextInput(container formNode, answer string) bool {
	inputs := container.Find(textInputSelector)
	count, err := inputs.Count()
	if err != nil || count == 0 {
		return false
	}
	return inputs.TypeText(answer) == nil
}

func fillSelect(container formNode, answer string) bool {
	selects := container.Find("select")
	count, err := selects.Count()
	if err != nil || count == 0 {
		return false
	}

	// Prefer matching the visible option label, fall back to the value.
	if selects.SelectByLabel(answer) {
		return true
	}
	return selects.SelectByValue(answer)
}

func fillRadioGroup(scope formScope, container formNode, answer string) bool {
	radios := container.Find("input[type='radio']")
	count, err := radios.Count()
	if err != nil || count == 0 {
		return false
	}

	want := strings.ToLower(answer)
	for i := 0; i < count; i++ {
		radio := radios.Nth(i)
		label := radioLabelText(scope, radio)
		if label == "" {
			continue
		}
		if strings.Contains(strings.ToLower(label), want) {
			return radio.Check() == nil
		}
	}
	return false
}

func radioLabelText(scope formScope, radio formNode) string {
	if id := radio.Attribute("id"); id != "" {
		labels := scope.Find(fmt.Sprintf("label[for='%s']", id))
		if count, err := labels.Count(); err == nil && count > 0 {
			if text, err := labels.Text(); err == nil {
				if trimmed := strings.TrimSpace(text); trimmed != "" {
					return trimmed
				}
			}
		}
	}

	if aria := radio.Attribute("aria-label"); aria != "" {
		return aria
	}

	wrapping := radio.Find("xpath=ancestor::label[1]")
	if count, err := wrapping.Count(); err == nil && count > 0 {
		if text, err := wrapping.Text(); err == nil {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

// fillCheckboxGroup drives every checkbox in the container toward the single
// boolean the answer encodes. Single-checkbox semantics; multi-select groups
// keyed by one boolean answer are outside what the answer format can express.
func fillCheckboxGroup(container formNode, answer string) bool {
	boxes := container.Find("input[type='checkbox']")
	count, err := boxes.Count()
	if err != nil || count == 0 {
		return false
	}

	desired := boolishAnswer(answer)
	applied := false
	for i := 0; i < count; i++ {
		box := boxes.Nth(i)
		checked, err := box.IsChecked()
		if err != nil {
			continue
		}
		if checked != desired {
			if box.SetChecked(desired) != nil {
				continue
			}
		}
		applied = true
	}
	return applied
}
