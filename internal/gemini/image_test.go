package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateImage(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	imageResp := map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"parts": []interface{}{
						map[string]interface{}{"text": "here is your image"},
						map[string]interface{}{
							"inlineData": map[string]interface{}{
								"mimeType": "image/png",
								"data":     base64.StdEncoding.EncodeToString(raw),
							},
						},
					},
				},
			},
		},
	}
	imageBody, _ := json.Marshal(imageResp)

	var validated bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validated {
			validated = true
			fmt.Fprint(w, textResponse("pong"))
			return
		}
		w.Write(imageBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testRetryPolicy())
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	data, mimeType, err := c.GenerateImage(context.Background(), "a lighthouse at dusk")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if !bytes.Equal(data, raw) {
		t.Errorf("image bytes = %v, want %v", data, raw)
	}
	if mimeType != "image/png" {
		t.Errorf("mime type = %q, want %q", mimeType, "image/png")
	}
}

func TestGenerateImageNoData(t *testing.T) {
	var validated bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validated {
			validated = true
			fmt.Fprint(w, textResponse("pong"))
			return
		}
		fmt.Fprint(w, textResponse("sorry, text only"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testRetryPolicy())
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if _, _, err := c.GenerateImage(context.Background(), "anything"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("GenerateImage error = %v, want ErrUpstream", err)
	}
}
