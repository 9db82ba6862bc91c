package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultUploadURL is the upload service's assembly endpoint.
const DefaultUploadURL = "https://api2.transloadit.com/assemblies"

// maxErrorBody caps how much of a failed upload response is kept for the
// error message.
const maxErrorBody = 4 << 10

// Uploader sends file bytes to the external upload service.
type Uploader interface {
	Upload(ctx context.Context, opts UploadOptions, fileName string, file io.Reader) (*Assembly, error)
}

// Compile-time interface check.
var _ Uploader = (*TransloaditUploader)(nil)

// TransloaditUploader posts multipart assemblies to the upload service.
type TransloaditUploader struct {
	httpClient *http.Client
	url        string
}

// NewTransloaditUploader returns an uploader for uploadURL, or
// DefaultUploadURL when it is empty. A nil hc uses http.DefaultClient.
func NewTransloaditUploader(uploadURL string, hc *http.Client) *TransloaditUploader {
	if uploadURL == "" {
		uploadURL = DefaultUploadURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &TransloaditUploader{httpClient: hc, url: uploadURL}
}

// paramsField returns the params form value. The API may hand params back as
// an object or as an already-encoded JSON string.
func paramsField(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("upload options carry no params")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode params: %w", err)
		}
		return s, nil
	}
	return string(raw), nil
}

// Upload streams a multipart form with params, signature and file fields and
// returns the decoded assembly. Non-2xx replies and replies carrying an error
// code both fail.
func (u *TransloaditUploader) Upload(ctx context.Context, opts UploadOptions, fileName string, file io.Reader) (*Assembly, error) {
	params, err := paramsField(opts.Params)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	// Closing the read side unblocks the writer if the request ends early.
	defer func() { _ = pr.Close() }()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, params, opts.Signature, fileName, file)
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, pr)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		details, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("upload failed: %s. Details: %s", resp.Status, strings.TrimSpace(string(details)))
	}

	var asm Assembly
	if err := json.NewDecoder(resp.Body).Decode(&asm); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if asm.Error != "" {
		return nil, fmt.Errorf("upload failed: %s: %s", asm.Error, asm.Message)
	}
	if asm.ID == "" {
		return nil, fmt.Errorf("upload response has no assembly_id")
	}
	return &asm, nil
}

func writeForm(mw *multipart.Writer, params, signature, fileName string, file io.Reader) error {
	if err := mw.WriteField("params", params); err != nil {
		return err
	}
	if err := mw.WriteField("signature", signature); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

// openSource opens a local path or fetches an http(s) URL, returning the
// body and a file name derived from the last path segment.
func openSource(ctx context.Context, hc *http.Client, source string) (io.ReadCloser, string, error) {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		name := path.Base(u.Path)
		if name == "." || name == "/" {
			name = "unknown"
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, "", fmt.Errorf("create download request: %w", err)
		}
		resp, err := hc.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("download %s: %w", source, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			return nil, "", fmt.Errorf("download %s: unexpected HTTP status %d", source, resp.StatusCode)
		}
		return resp.Body, name, nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", source, err)
	}
	return f, filepath.Base(source), nil
}
