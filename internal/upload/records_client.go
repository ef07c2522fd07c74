package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hivehq/hive-bff/internal/auth"
	"github.com/hivehq/hive-bff/internal/models"
)

// RecordsClient implements Records against the upstream Hive API.
type RecordsClient struct {
	baseURL string
	client  *http.Client
	creds   auth.CredentialProvider
}

// NewRecordsClient creates a RecordsClient for the given upstream base URL.
func NewRecordsClient(baseURL string, timeout time.Duration, creds auth.CredentialProvider) *RecordsClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RecordsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		creds:   creds,
	}
}

// CreateFile creates the file record and returns the stored version.
func (c *RecordsClient) CreateFile(ctx context.Context, file models.File) (*models.File, error) {
	var created models.File
	if err := c.post(ctx, "/files", file, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateMemberFile associates a file with a hive member.
func (c *RecordsClient) CreateMemberFile(ctx context.Context, memberID, fileID string) error {
	body := map[string]string{"memberId": memberID, "fileId": fileID}
	return c.post(ctx, "/member-files", body, nil)
}

// CreateTileFile associates a file with a tile/space.
func (c *RecordsClient) CreateTileFile(ctx context.Context, tileID, fileID string) error {
	body := map[string]string{"tileId": tileID, "fileId": fileID}
	return c.post(ctx, "/tile-files", body, nil)
}

func (c *RecordsClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.creds.GetToken()
	if err != nil {
		return fmt.Errorf("resolving credentials: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
