package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbhavake/dentalgpt/internal/model"
)

func TestIsClosingMessage(t *testing.T) {
	closing := []string{
		"thanks",
		"Thanks!",
		"thank you",
		"Thank you so much",
		"ok thanks",
		"bye",
		"Goodbye.",
		"that's all",
		"great, thanks!",
		"perfect thank you",
	}
	for _, msg := range closing {
		require.True(t, isClosingMessage(msg), "expected closing: %q", msg)
	}

	notClosing := []string{
		"",
		"thanks for explaining the root canal procedure in detail",
		"what is the protocol for root canal?",
		"the patient said bye to the hygienist, what should I note?",
		"thank you letter template for referring dentists please",
	}
	for _, msg := range notClosing {
		require.False(t, isClosingMessage(msg), "expected not closing: %q", msg)
	}
}

func TestDeriveTitle(t *testing.T) {
	require.Equal(t, "short question", deriveTitle("short question"))

	long := "What is the recommended protocol for molar root canals?"
	title := deriveTitle(long)
	require.Equal(t, string([]rune(long)[:30])+"...", title)
	require.Len(t, []rune(title), 33)

	exact := strings.Repeat("a", 30)
	require.Equal(t, exact, deriveTitle(exact))
}

func TestTruncateText(t *testing.T) {
	require.Equal(t, "abc", truncateText("abc", 200))

	long := strings.Repeat("x", 500)
	out := truncateText(long, 200)
	require.Len(t, out, 203)
	require.True(t, strings.HasSuffix(out, "..."))
}

func TestShouldReuseImage(t *testing.T) {
	require.True(t, shouldReuseImage("what about this?"))
	require.True(t, shouldReuseImage("zoom in"))
	require.True(t, shouldReuseImage("does the x-ray show any decay near the distal root"))
	require.False(t, shouldReuseImage("what is the standard fluoride concentration for adult toothpaste"))
}

func TestLastUserImage(t *testing.T) {
	history := []*model.ChatMessage{
		{Role: model.RoleUser, Content: "q1", Image: "img1"},
		{Role: model.RoleAI, Content: "a1"},
		{Role: model.RoleUser, Content: "q2"},
		{Role: model.RoleAI, Content: "a2"},
	}
	require.Equal(t, "", lastUserImage(history))

	history[2].Image = "img2"
	require.Equal(t, "img2", lastUserImage(history))

	require.Equal(t, "", lastUserImage(nil))
}

func TestBuildPromptAssembly(t *testing.T) {
	prompt := buildPrompt("Patient Information:\n- Name: A\n", "User: hi\n", "chunk one\n\nchunk two", "is this normal?")
	require.True(t, strings.HasPrefix(prompt, "You are a dental assistant AI."))
	require.Contains(t, prompt, "Patient Information:")
	require.Contains(t, prompt, "Conversation so far:")
	require.Contains(t, prompt, "Dental Guidelines Context:\nchunk one")
	require.Contains(t, prompt, "Question: is this normal?")

	// ordering: patient before history before context before question
	require.Less(t, strings.Index(prompt, "Patient Information"), strings.Index(prompt, "Conversation so far"))
	require.Less(t, strings.Index(prompt, "Conversation so far"), strings.Index(prompt, "Dental Guidelines Context"))
	require.Less(t, strings.Index(prompt, "Dental Guidelines Context"), strings.Index(prompt, "Question:"))
}

func TestRenderPatientBlockSkipsEmptyFields(t *testing.T) {
	block := renderPatientBlock(&model.Patient{
		Name:      "Jordan Smith",
		Allergies: "penicillin",
	})
	require.Contains(t, block, "- Name: Jordan Smith")
	require.Contains(t, block, "- Allergies: penicillin")
	require.NotContains(t, block, "Medications")
	require.NotContains(t, block, "Date of Birth")
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := decodeImage("!!!not-base64!!!")
	require.Error(t, err)

	img, err := decodeImage("")
	require.NoError(t, err)
	require.Nil(t, img)
}

// a 1x1 lossless webp; the upload endpoint hands out webp data URLs, so the
// turn path has to decode them
const tinyWebpB64 = "UklGRhYAAABXRUJQVlA4TAkAAAAvAAAAAIiI/gcA"

func TestDecodeImageWebp(t *testing.T) {
	img, err := decodeImage("data:image/webp;base64," + tinyWebpB64)
	require.NoError(t, err)
	require.NotNil(t, img)
	require.Equal(t, "image/webp", img.MIME)

	// bare base64 without the data-url wrapper decodes too
	img, err = decodeImage(tinyWebpB64)
	require.NoError(t, err)
	require.NotNil(t, img)
}
