package cloudinary

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("school", "key", "secret", "student-photos")
	c.UploadURL = srv.URL
	return c
}

func TestUploadBytes(t *testing.T) {
	var gotFilename, gotFolder, gotSignature string
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFolder = r.FormValue("folder")
		gotSignature = r.FormValue("signature")

		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		gotFilename = header.Filename

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"student-photos/abc","secure_url":"https://res.example/abc.jpg","width":200,"height":200,"bytes":1234}`))
	})

	result, err := c.UploadBytes([]byte("not really a jpeg"), "S1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://res.example/abc.jpg", result.SecureURL)
	assert.Equal(t, "student-photos/abc", result.PublicID)
	assert.Equal(t, "S1.jpg", gotFilename)
	assert.Equal(t, "student-photos", gotFolder)
	assert.NotEmpty(t, gotSignature)
}

func TestUploadBase64(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "data:image/png;base64,AAAA", r.FormValue("file"))
		_, _ = w.Write([]byte(`{"secure_url":"https://res.example/b64.png"}`))
	})

	result, err := c.UploadBase64("data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "https://res.example/b64.png", result.SecureURL)
}

func TestUpload_ErrorStatus(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	})

	_, err := c.UploadBytes([]byte("x"), "S1.jpg")
	assert.ErrorContains(t, err, "upload failed (401)")
}

func TestSign_DeterministicAndSorted(t *testing.T) {
	c := New("school", "key", "secret", "")

	params := map[string]string{
		"timestamp": "1756714500",
		"folder":    "student-photos",
		"api_key":   "key", // excluded from the signature
	}
	sig := c.sign(params)
	assert.Len(t, sig, 40) // hex sha1
	assert.Equal(t, sig, c.sign(params))

	// api_key must not influence the signature.
	params["api_key"] = "other"
	assert.Equal(t, sig, c.sign(params))
}
