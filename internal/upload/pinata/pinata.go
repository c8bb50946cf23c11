// Package pinata uploads finished reports to IPFS through the Pinata
// pinning API. The returned content identifier is the IPFS CID.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// DefaultEndpoint is Pinata's file pinning endpoint.
const DefaultEndpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"

// Uploader pins files with a JWT bearer token.
type Uploader struct {
	endpoint string
	jwt      string
	client   *http.Client
}

// New creates an uploader. An empty endpoint selects DefaultEndpoint.
func New(endpoint, jwt string, timeout time.Duration) *Uploader {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Uploader{
		endpoint: endpoint,
		jwt:      jwt,
		client:   &http.Client{Timeout: timeout},
	}
}

// pinResponse is the pinFileToIPFS response body.
type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type pinMetadata struct {
	Name string `json:"name"`
}

// Upload pins data under filename and returns its IPFS hash.
func (u *Uploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	body, contentType, err := multipartBody(data, filename)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+u.jwt)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling pinata: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pinata returned %s: %s", resp.Status, bytes.TrimSpace(raw))
	}

	var result pinResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if result.IpfsHash == "" {
		return "", fmt.Errorf("pinata response has no IpfsHash")
	}
	return result.IpfsHash, nil
}

func multipartBody(data []byte, filename string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("writing form file: %w", err)
	}

	meta, err := json.Marshal(pinMetadata{Name: filename})
	if err != nil {
		return nil, "", fmt.Errorf("encoding metadata: %w", err)
	}
	if err := w.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, "", fmt.Errorf("writing metadata: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
