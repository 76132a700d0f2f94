package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askgemini/internal/apperr"
)

func resetFlags(t *testing.T) {
	t.Helper()
	chatMode = false
	generateImage = false
	pdfAudioSummary = ""
	filePath = ""
	imagePath = ""
	t.Cleanup(func() {
		chatMode = false
		generateImage = false
		pdfAudioSummary = ""
		filePath = ""
		imagePath = ""
	})
}

func TestValidateModes(t *testing.T) {
	t.Run("chat and generate conflict", func(t *testing.T) {
		resetFlags(t)
		chatMode = true
		generateImage = true

		err := validateModes()
		require.Error(t, err)
		assert.True(t, apperr.IsUsage(err))
	})

	t.Run("chat and pdf summary conflict", func(t *testing.T) {
		resetFlags(t)
		chatMode = true
		pdfAudioSummary = "doc.pdf"

		err := validateModes()
		require.Error(t, err)
		assert.True(t, apperr.IsUsage(err))
	})

	t.Run("single modes pass", func(t *testing.T) {
		resetFlags(t)
		chatMode = true
		assert.NoError(t, validateModes())
	})
}

func TestBuildInput(t *testing.T) {
	t.Run("joins positional args", func(t *testing.T) {
		resetFlags(t)
		input, extra, err := buildInput([]string{"what", "is", "Go?"})
		require.NoError(t, err)
		assert.Equal(t, "what is Go?", input)
		assert.Empty(t, extra)
	})

	t.Run("empty prompt is a usage error", func(t *testing.T) {
		resetFlags(t)
		_, _, err := buildInput(nil)
		require.Error(t, err)
		assert.True(t, apperr.IsUsage(err))
	})

	t.Run("file flag prepends framed content", func(t *testing.T) {
		resetFlags(t)
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("some notes"), 0644))
		filePath = path

		input, _, err := buildInput([]string{"summarize"})
		require.NoError(t, err)
		assert.Contains(t, input, "Content from file '"+path+"':")
		assert.Contains(t, input, "some notes")
		assert.Contains(t, input, "User Prompt:\nsummarize")
	})

	t.Run("missing file is a usage error", func(t *testing.T) {
		resetFlags(t)
		filePath = filepath.Join(t.TempDir(), "absent.txt")

		_, _, err := buildInput([]string{"x"})
		require.Error(t, err)
		assert.True(t, apperr.IsUsage(err))
	})

	t.Run("image flag attaches an inline part", func(t *testing.T) {
		resetFlags(t)
		path := filepath.Join(t.TempDir(), "pic.png")
		require.NoError(t, os.WriteFile(path, []byte("png"), 0644))
		imagePath = path

		_, extra, err := buildInput([]string{"describe"})
		require.NoError(t, err)
		require.Len(t, extra, 1)
		require.NotNil(t, extra[0].InlineData)
		assert.Equal(t, "image/png", extra[0].InlineData.MIMEType)
	})
}
