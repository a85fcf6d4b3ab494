package gemini

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/tidwall/gjson"
)

// GenerateImage sends prompt to the image model and returns the decoded
// image bytes plus the reported MIME type. The model replies with mixed
// text/image parts; the first inlineData part wins.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	if c.State() != StateReady {
		return nil, "", ErrNotReady
	}

	body, err := c.post(ctx, c.imageModel, generateRequest{
		Contents: []contentPayload{
			{Role: "user", Parts: []partPayload{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	})
	if err != nil {
		return nil, "", err
	}

	var encoded, mimeType string
	parts := gjson.GetBytes(body, "candidates.0.content.parts")
	parts.ForEach(func(_, part gjson.Result) bool {
		data := part.Get("inlineData.data")
		if !data.Exists() {
			return true
		}
		encoded = data.String()
		mimeType = part.Get("inlineData.mimeType").String()
		return false
	})
	if encoded == "" {
		return nil, "", fmt.Errorf("%w: no image data in response", ErrUpstream)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode image data: %v", ErrUpstream, err)
	}
	return raw, mimeType, nil
}
