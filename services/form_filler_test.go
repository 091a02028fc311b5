package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuestionKey(t *testing.T) {
	cases := map[string]string{
		"Notice period":                      "notice_period",
		"  Notice   period?  ":               "notice_period",
		"Yıllık maaş beklentiniz (brüt) TL*": "yıllık_maaş_beklentiniz_brüt_tl",
		"Work authorization: US / EU":        "work_authorization_us_eu",
		"":                                   "",
	}

	for input, expected := range cases {
		assert.Equal(t, expected, NormalizeQuestionKey(input), "input %q", input)
	}
}

func TestNormalizeQuestionKey_Idempotent(t *testing.T) {
	inputs := []string{
		"Notice period",
		"Çalışma izniniz var mı?",
		"Désirez-vous télétravailler ?",
		strings.Repeat("soru ", 100),
	}

	for _, input := range inputs {
		once := NormalizeQuestionKey(input)
		assert.Equal(t, once, NormalizeQuestionKey(once), "input %q", input)
	}
}

func TestNormalizeQuestionKey_Truncates(t *testing.T) {
	long := strings.Repeat("abcde ", 60)
	key := NormalizeQuestionKey(long)

	assert.LessOrEqual(t, len([]rune(key)), 160)
	assert.Equal(t, key, NormalizeQuestionKey(key))
}

func TestNormalizeQuestionKey_DiacriticsPreserved(t *testing.T) {
	assert.Equal(t, "çalışma_izni", NormalizeQuestionKey("Çalışma İzni"))
	assert.Equal(t, NormalizeQuestionKey("RÉSUMÉ"), NormalizeQuestionKey("résumé"))
}

func TestBoolishAnswer(t *testing.T) {
	for _, yes := range []string{"true", "TRUE", "yes", " Evet ", "1", "on"} {
		assert.True(t, boolishAnswer(yes), yes)
	}
	for _, no := range []string{"false", "no", "hayır", "0", "", "maybe"} {
		assert.False(t, boolishAnswer(no), no)
	}
}

type mapAnswers map[string]string

func (m mapAnswers) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func TestAutoFillQuestions_NilPageIsSafe(t *testing.T) {
	steps, fieldErrors := AutoFillQuestions(nil, baseCatalog(), mapAnswers{})

	assert.Empty(t, steps)
	assert.Empty(t, fieldErrors)
}

// fakeElem is one element in a headless form document. Children are keyed by
// the literal selector the code under test will ask for.
type fakeElem struct {
	text     string
	attrs    map[string]string
	children map[string][]*fakeElem

	typed    string
	options  []string
	selected string
	checked  bool
}

func (e *fakeElem) attr(name string) string {
	if e.attrs == nil {
		return ""
	}
	return e.attrs[name]
}

// fakeSet mirrors the locator model: a named match set whose element
// operations act on the first match.
type fakeSet struct {
	elems []*fakeElem
}

func (s *fakeSet) first() *fakeElem {
	if len(s.elems) == 0 {
		return nil
	}
	return s.elems[0]
}

func (s *fakeSet) Count() (int, error) { return len(s.elems), nil }

func (s *fakeSet) Nth(i int) formNode {
	if i < 0 || i >= len(s.elems) {
		return &fakeSet{}
	}
	return &fakeSet{elems: s.elems[i : i+1]}
}

func (s *fakeSet) Find(selector string) formNode {
	var matched []*fakeElem
	for _, e := range s.elems {
		matched = append(matched, e.children[selector]...)
	}
	return &fakeSet{elems: matched}
}

func (s *fakeSet) Text() (string, error) {
	e := s.first()
	if e == nil {
		return "", errors.New("no element")
	}
	return e.text, nil
}

func (s *fakeSet) Attribute(name string) string {
	e := s.first()
	if e == nil {
		return ""
	}
	return e.attr(name)
}

func (s *fakeSet) TypeText(text string) error {
	e := s.first()
	if e == nil {
		return errors.New("no element")
	}
	e.typed = text
	return nil
}

func (s *fakeSet) SelectByLabel(value string) bool {
	e := s.first()
	if e == nil {
		return false
	}
	for _, option := range e.options {
		if option == value {
			e.selected = value
			return true
		}
	}
	return false
}

func (s *fakeSet) SelectByValue(value string) bool {
	e := s.first()
	if e == nil {
		return false
	}
	if e.attr("data-value:"+value) != "" {
		e.selected = value
		return true
	}
	return false
}

func (s *fakeSet) Check() error {
	e := s.first()
	if e == nil {
		return errors.New("no element")
	}
	e.checked = true
	return nil
}

func (s *fakeSet) IsChecked() (bool, error) {
	e := s.first()
	if e == nil {
		return false, errors.New("no element")
	}
	return e.checked, nil
}

func (s *fakeSet) SetChecked(desired bool) error {
	e := s.first()
	if e == nil {
		return errors.New("no element")
	}
	e.checked = desired
	return nil
}

// fakeForm is a headless formScope: selector -> root-level match set.
type fakeForm struct {
	root map[string][]*fakeElem
}

func (f *fakeForm) Count(selector string) int      { return len(f.root[selector]) }
func (f *fakeForm) IsVisible(selector string) bool { return len(f.root[selector]) > 0 }
func (f *fakeForm) Find(selector string) formNode  { return &fakeSet{elems: f.root[selector]} }

// questionContainer builds a fieldset-style container with the given label
// text and input children.
func questionContainer(label string, inputs map[string][]*fakeElem) *fakeElem {
	children := map[string][]*fakeElem{
		"label": {{text: label}},
	}
	for selector, elems := range inputs {
		children[selector] = elems
	}
	return &fakeElem{children: children}
}

func formWith(containers ...*fakeElem) *fakeForm {
	return &fakeForm{root: map[string][]*fakeElem{"fieldset": containers}}
}

func TestAutoFillTypesCachedTextAnswer(t *testing.T) {
	input := &fakeElem{}
	form := formWith(questionContainer("Notice period", map[string][]*fakeElem{
		textInputSelector: {input},
	}))

	steps, fieldErrors := autoFill(form, baseCatalog(), mapAnswers{"notice_period": "Immediately"})

	assert.Equal(t, []string{"answer:notice_period"}, steps)
	assert.Empty(t, fieldErrors)
	assert.Equal(t, "Immediately", input.typed)
}

func TestAutoFillSelectsOptionByLabel(t *testing.T) {
	dropdown := &fakeElem{options: []string{"0-2 years", "3-5 years", "6+ years"}}
	form := formWith(questionContainer("Years of experience", map[string][]*fakeElem{
		"select": {dropdown},
	}))

	steps, fieldErrors := autoFill(form, baseCatalog(), mapAnswers{"years_of_experience": "3-5 years"})

	assert.Equal(t, []string{"answer:years_of_experience"}, steps)
	assert.Empty(t, fieldErrors)
	assert.Equal(t, "3-5 years", dropdown.selected)
}

func TestAutoFillChecksRadioByLabelFor(t *testing.T) {
	yes := &fakeElem{attrs: map[string]string{"id": "auth-yes"}}
	no := &fakeElem{attrs: map[string]string{"id": "auth-no"}}
	form := formWith(questionContainer("Work authorization", map[string][]*fakeElem{
		"input[type='radio']": {no, yes},
	}))
	form.root["label[for='auth-yes']"] = []*fakeElem{{text: "Yes"}}
	form.root["label[for='auth-no']"] = []*fakeElem{{text: "No"}}

	steps, fieldErrors := autoFill(form, baseCatalog(), mapAnswers{"work_authorization": "yes"})

	assert.Equal(t, []string{"answer:work_authorization"}, steps)
	assert.Empty(t, fieldErrors)
	assert.True(t, yes.checked)
	assert.False(t, no.checked)
}

func TestAutoFillTogglesCheckboxTowardAnswer(t *testing.T) {
	box := &fakeElem{}
	form := formWith(questionContainer("Willing to relocate", map[string][]*fakeElem{
		"input[type='checkbox']": {box},
	}))

	steps, fieldErrors := autoFill(form, baseCatalog(), mapAnswers{"willing_to_relocate": "evet"})

	assert.Equal(t, []string{"answer:willing_to_relocate"}, steps)
	assert.Empty(t, fieldErrors)
	assert.True(t, box.checked)
}

func TestAutoFillReportsUnappliableAnswer(t *testing.T) {
	// A known answer but no fillable input in the container.
	form := formWith(questionContainer("Notice period", nil))

	steps, fieldErrors := autoFill(form, baseCatalog(), mapAnswers{"notice_period": "Immediately"})

	assert.Empty(t, steps)
	assert.Len(t, fieldErrors, 1)
	assert.Equal(t, "notice_period", fieldErrors[0].Field)
	assert.Equal(t, "answer-apply-failed", fieldErrors[0].Reason)
}

func TestAutoFillSkipsQuestionsWithoutAnswers(t *testing.T) {
	input := &fakeElem{}
	form := formWith(
		questionContainer("Security clearance", map[string][]*fakeElem{
			textInputSelector: {input},
		}),
	)

	steps, fieldErrors := autoFill(form, baseCatalog(), mapAnswers{"notice_period": "Immediately"})

	assert.Empty(t, steps)
	assert.Empty(t, fieldErrors)
	assert.Empty(t, input.typed)
}
