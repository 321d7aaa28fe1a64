package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jchiu-fusion/mpn-matcher-web/internal/common"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/export"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/match"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/ocr"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/pipeline"
)

const sampleInvoice = `INVOICE
12-Mar-2024 PO-99231
Order: 881122/01
Ship To: Acme Co
123 Rd
Customer #: 42

100001-1 widget line
Manuf. Part# : ABC-123
Manufacturer : Acme Mfg
Cust. Part# : NA
4,500 PCS
`

type fakeDocs struct {
	text string
	err  error
}

func (f *fakeDocs) DocumentText(_ context.Context, _ string) (string, int, error) {
	return f.text, 1, f.err
}

// fakeEngine looks detections up by the original upload filename, which the
// server embeds in the staged path.
type fakeEngine struct {
	dets map[string][]ocr.Detection
}

func (f *fakeEngine) Detect(_ context.Context, path string) ([]ocr.Detection, error) {
	for name, d := range f.dets {
		if strings.Contains(path, name) {
			return d, nil
		}
	}
	return nil, nil
}

func newTestRouter(t *testing.T, docs pipeline.DocumentReader, engine ocr.Engine, cfg common.ServerConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cls, err := match.NewClassifier(match.DefaultHighThreshold)
	require.NoError(t, err)
	verifier := pipeline.NewVerifier(docs, engine, cls, pipeline.Options{}, nil)
	if cfg.ThumbnailSize == 0 {
		cfg.ThumbnailSize = 150
	}
	return NewServer(cfg, verifier, export.NewService(nil), nil).Router()
}

type filePart struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files []filePart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doPost(r *gin.Engine, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, &fakeDocs{}, &fakeEngine{}, common.ServerConfig{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseInvoice(t *testing.T) {
	r := newTestRouter(t, &fakeDocs{text: sampleInvoice}, &fakeEngine{}, common.ServerConfig{})

	body, ct := multipartBody(t, nil, []filePart{{"invoice", "inv.pdf", []byte("%PDF-fake")}})
	rec := doPost(r, "/api/invoice/parse", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
		Lines []struct {
			RefNumber string `json:"ref_number"`
			MPN       string `json:"mpn"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "100001-1", resp.Lines[0].RefNumber)
	assert.Equal(t, "ABC-123", resp.Lines[0].MPN)
}

func TestParseInvoiceRejectsNonPDF(t *testing.T) {
	r := newTestRouter(t, &fakeDocs{text: sampleInvoice}, &fakeEngine{}, common.ServerConfig{})

	body, ct := multipartBody(t, nil, []filePart{{"invoice", "inv.txt", []byte("nope")}})
	rec := doPost(r, "/api/invoice/parse", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerify(t *testing.T) {
	engine := &fakeEngine{dets: map[string][]ocr.Detection{
		"label.jpg": {{Text: "abc - 123", Confidence: 0.9}},
		"blur.jpg":  {{Text: "ZZ-999", Confidence: 0.8}},
	}}
	r := newTestRouter(t, &fakeDocs{text: sampleInvoice}, engine, common.ServerConfig{MaxPhotos: 60})

	body, ct := multipartBody(t, nil, []filePart{
		{"invoice", "inv.pdf", []byte("%PDF-fake")},
		{"photos", "label.jpg", []byte("jpeg-ish")},
		{"photos", "blur.jpg", []byte("jpeg-ish")},
	})
	rec := doPost(r, "/api/verify", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp verifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ABC-123", resp.Target)
	require.Len(t, resp.Photos, 2)

	assert.Equal(t, "label.jpg", resp.Photos[0].ImageID)
	assert.Equal(t, 100.0, resp.Photos[0].Score)
	assert.Equal(t, "EXACT", resp.Photos[0].Tier)
	assert.Equal(t, colorExact, resp.Photos[0].Color)
	assert.Empty(t, resp.Photos[0].Thumbnail)

	assert.Equal(t, "blur.jpg", resp.Photos[1].ImageID)
	assert.Equal(t, "WEAK", resp.Photos[1].Tier)
	assert.Equal(t, colorWeak, resp.Photos[1].Color)
}

func TestVerifyTargetOverride(t *testing.T) {
	engine := &fakeEngine{dets: map[string][]ocr.Detection{
		"label.jpg": {{Text: "ZZZ999", Confidence: 0.9}},
	}}
	r := newTestRouter(t, &fakeDocs{text: sampleInvoice}, engine, common.ServerConfig{MaxPhotos: 60})

	body, ct := multipartBody(t, map[string]string{"target_mpn": "ZZZ-999"}, []filePart{
		{"invoice", "inv.pdf", []byte("%PDF-fake")},
		{"photos", "label.jpg", []byte("jpeg-ish")},
	})
	rec := doPost(r, "/api/verify", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp verifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ZZZ-999", resp.Target)
}

func TestVerifyPhotoCap(t *testing.T) {
	r := newTestRouter(t, &fakeDocs{text: sampleInvoice}, &fakeEngine{}, common.ServerConfig{MaxPhotos: 2})

	files := []filePart{{"invoice", "inv.pdf", []byte("%PDF-fake")}}
	for _, n := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		files = append(files, filePart{"photos", n, []byte("x")})
	}
	body, ct := multipartBody(t, nil, files)
	rec := doPost(r, "/api/verify", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many photos")
}

func TestVerifyRejectsUnsupportedPhoto(t *testing.T) {
	r := newTestRouter(t, &fakeDocs{text: sampleInvoice}, &fakeEngine{}, common.ServerConfig{MaxPhotos: 60})

	body, ct := multipartBody(t, nil, []filePart{
		{"invoice", "inv.pdf", []byte("%PDF-fake")},
		{"photos", "notes.txt", []byte("not a photo")},
	})
	rec := doPost(r, "/api/verify", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyNoTarget(t *testing.T) {
	r := newTestRouter(t, &fakeDocs{text: "no part numbers in here"}, &fakeEngine{}, common.ServerConfig{MaxPhotos: 60})

	body, ct := multipartBody(t, nil, []filePart{
		{"invoice", "inv.pdf", []byte("%PDF-fake")},
		{"photos", "label.jpg", []byte("jpeg-ish")},
	})
	rec := doPost(r, "/api/verify", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyThumbnails(t *testing.T) {
	engine := &fakeEngine{dets: map[string][]ocr.Detection{
		"label.png": {{Text: "ABC-123", Confidence: 0.9}},
	}}
	r := newTestRouter(t, &fakeDocs{text: sampleInvoice}, engine, common.ServerConfig{MaxPhotos: 60, ThumbnailSize: 32})

	body, ct := multipartBody(t, map[string]string{"thumbnails": "true"}, []filePart{
		{"invoice", "inv.pdf", []byte("%PDF-fake")},
		{"photos", "label.png", pngBytes(t)},
	})
	rec := doPost(r, "/api/verify", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp verifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Photos, 1)
	require.NotEmpty(t, resp.Photos[0].Thumbnail)

	raw, err := base64.StdEncoding.DecodeString(resp.Photos[0].Thumbnail)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}

func TestVerifyExport(t *testing.T) {
	engine := &fakeEngine{dets: map[string][]ocr.Detection{
		"label.jpg": {{Text: "ABC-123", Confidence: 0.9}},
	}}
	r := newTestRouter(t, &fakeDocs{text: sampleInvoice}, engine, common.ServerConfig{MaxPhotos: 60})

	body, ct := multipartBody(t, nil, []filePart{
		{"invoice", "inv.pdf", []byte("%PDF-fake")},
		{"photos", "label.jpg", []byte("jpeg-ish")},
	})
	rec := doPost(r, "/api/verify/export", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "mpn-report.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue("Match Results", "A2")
	require.NoError(t, err)
	assert.Equal(t, "label.jpg", got)
}
