package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplan/internal/core"
)

func TestClient_RequestShape(t *testing.T) {
	var gotBody []byte
	var gotAuth, gotPath, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Day 1: lake"}}],"usage":{"total_tokens":12}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1/", 0)
	out, err := c.Complete(context.Background(), Request{APIKey: "k1", Model: "qwen-plus", Prompt: "hi", Temperature: 0.7})
	require.NoError(t, err)

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer k1", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"model":"qwen-plus","messages":[{"role":"user","content":"hi"}],"temperature":0.7}`, string(gotBody))
	assert.Equal(t, "Day 1: lake", out.Content)
	assert.True(t, out.Found)
	assert.Equal(t, 12, out.Usage.TotalTokens)
}

func TestClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid api key"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).Complete(context.Background(), Request{APIKey: "bad"})

	var ue *core.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnauthorized, ue.Status)
	assert.Equal(t, `{"error":"invalid api key"}`, ue.Body)
}

func TestClient_MissingContent(t *testing.T) {
	for name, body := range map[string]string{
		"no choices":   `{"choices":[]}`,
		"null content": `{"choices":[{"message":{"content":null}}]}`,
		"empty":        `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			}))
			defer srv.Close()

			out, err := NewClient(srv.URL, 0).Complete(context.Background(), Request{APIKey: "k"})
			require.NoError(t, err)
			assert.False(t, out.Found)
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>gateway</html>`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).Complete(context.Background(), Request{APIKey: "k"})
	assert.ErrorIs(t, err, core.ErrMalformedUpstream)
}

func TestChatRequest_FieldOrder(t *testing.T) {
	b, err := json.Marshal(chatRequest{Model: "m", Messages: []message{{Role: "user", Content: "p"}}, Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, `{"model":"m","messages":[{"role":"user","content":"p"}],"temperature":0.3}`, string(b))
}
