package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer_ParsesEmbeddedTemplates(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	list := r.List()
	for _, key := range []string{"resume_tailoring", "cover_letter", "form_qa", "missing_info"} {
		assert.Contains(t, list, key)
	}
}

func TestRender_SubstitutesVariables(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render("cover_letter", map[string]any{
		"JOB_TEXT":      "Backend engineer",
		"ACHIEVEMENTS":  []string{"Led migration", "Cut latency 40%"},
		"COMPANY_NOTES": "Remote-first",
		"TONE":          "resmi",
		"LANG":          "en",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Backend engineer")
	assert.Contains(t, out, "Led migration, Cut latency 40%")
	assert.Contains(t, out, "resmi")
	assert.NotContains(t, out, "{{JOB_TEXT}}")
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render("does_not_exist", nil)
	assert.Error(t, err)
}

func TestRender_SerializesMapsAsJSON(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render("form_qa", map[string]any{
		"QUESTION": "Notice period?",
		"PROFILE":  map[string]any{"notice_period": "Hazır"},
		"VAULT":    map[string]any{},
	})
	require.NoError(t, err)

	assert.Contains(t, out, `"notice_period": "Hazır"`)
}
