package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askgemini/internal/apperr"
	"askgemini/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL + "/v1beta"
	return NewClient(cfg, nil)
}

func respond(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
}

func TestGenerate(t *testing.T) {
	t.Run("STOP response returns text without warning", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			respond(t, w, http.StatusOK,
				`{"candidates":[{"content":{"parts":[{"text":"Hi"}]},"finishReason":"STOP"}]}`)
		})

		text, diag, err := client.Generate(context.Background(), "gemini-1.5-flash",
			[]Content{UserTurn("Hello")})
		require.NoError(t, err)
		assert.Nil(t, diag)
		assert.Equal(t, "Hi", text)
	})

	t.Run("request body preserves turn order and roles", func(t *testing.T) {
		var captured Request
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			respond(t, w, http.StatusOK,
				`{"candidates":[{"content":{"parts":[{"text":"ok"}]},"finishReason":"STOP"}]}`)
		})

		turns := []Content{
			UserTurn("first question"),
			ModelTurn("first answer"),
			UserTurn("second question"),
		}
		_, _, err := client.Generate(context.Background(), "gemini-1.5-flash", turns)
		require.NoError(t, err)

		require.Len(t, captured.Contents, 3)
		assert.Equal(t, "user", captured.Contents[0].Role)
		assert.Equal(t, "model", captured.Contents[1].Role)
		assert.Equal(t, "user", captured.Contents[2].Role)
		assert.Equal(t, "second question", captured.Contents[2].Parts[0].Text)
		// Generation defaults and safety settings ride along on every call.
		assert.Equal(t, 2048, captured.GenerationConfig.MaxOutputTokens)
		assert.Len(t, captured.SafetySettings, 4)
	})

	t.Run("safety block yields empty text plus diagnostic", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			respond(t, w, http.StatusOK,
				`{"candidates":[{"finishReason":"SAFETY","safetyRatings":[{"category":"HARM_CATEGORY_DANGEROUS_CONTENT","probability":"HIGH"}]}],"promptFeedback":{"blockReason":"SAFETY"}}`)
		})

		text, diag, err := client.Generate(context.Background(), "gemini-1.5-flash",
			[]Content{UserTurn("hm")})
		require.NoError(t, err)
		assert.Empty(t, text)
		require.NotNil(t, diag)
		assert.Equal(t, "SAFETY", diag.FinishReason)
		require.Len(t, diag.SafetyRatings, 1)
		assert.Equal(t, "HIGH", diag.SafetyRatings[0].Probability)
	})

	t.Run("provider error payload becomes an api error", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			respond(t, w, http.StatusBadRequest,
				`{"error":{"code":400,"message":"invalid key","status":"INVALID_ARGUMENT"}}`)
		})

		_, _, err := client.Generate(context.Background(), "gemini-1.5-flash",
			[]Content{UserTurn("x")})
		require.Error(t, err)
		assert.True(t, apperr.IsAPI(err))
		assert.Contains(t, err.Error(), "invalid key")
	})

	t.Run("unreachable endpoint is a transport error", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.APIKey = "test-key"
		cfg.BaseURL = "http://127.0.0.1:1/v1beta"
		client := NewClient(cfg, nil)

		_, _, err := client.Generate(context.Background(), "gemini-1.5-flash",
			[]Content{UserTurn("x")})
		require.Error(t, err)
		assert.True(t, apperr.IsTransport(err))
	})

	t.Run("missing key fails before any HTTP", func(t *testing.T) {
		cfg := config.DefaultConfig()
		client := NewClient(cfg, nil)

		_, _, err := client.Generate(context.Background(), "gemini-1.5-flash",
			[]Content{UserTurn("x")})
		require.Error(t, err)
		assert.True(t, apperr.IsConfig(err))
	})
}

func TestListModels(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		respond(t, w, http.StatusOK,
			`{"models":[{"name":"models/gemini-1.5-flash","displayName":"Gemini 1.5 Flash"},{"name":"models/gemini-1.5-pro","displayName":"Gemini 1.5 Pro"}]}`)
	})

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "models/gemini-1.5-flash", models[0].Name)
}

func TestGenerateImage(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.GenerationConfig.ResponseModalities, "IMAGE")
		respond(t, w, http.StatusOK,
			`{"candidates":[{"content":{"parts":[{"text":"here you go"},{"inlineData":{"mimeType":"image/png","data":"`+
				base64.StdEncoding.EncodeToString(payload)+`"}}]},"finishReason":"STOP"}]}`)
	})

	raw, mimeType, err := client.GenerateImage(context.Background(), "gemini-2.0-flash", "a lighthouse")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, payload, raw)
}

func TestImagePart(t *testing.T) {
	t.Run("missing file is a usage error", func(t *testing.T) {
		_, err := ImagePart(filepath.Join(t.TempDir(), "nope.png"))
		require.Error(t, err)
		assert.True(t, apperr.IsUsage(err))
	})

	t.Run("encodes file contents with extension-derived mime", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pic.jpg")
		require.NoError(t, os.WriteFile(path, []byte("jpegdata"), 0644))

		part, err := ImagePart(path)
		require.NoError(t, err)
		require.NotNil(t, part.InlineData)
		assert.Equal(t, "image/jpeg", part.InlineData.MIMEType)

		decoded, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		require.NoError(t, err)
		assert.Equal(t, "jpegdata", string(decoded))
	})
}
