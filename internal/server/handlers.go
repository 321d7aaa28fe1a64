package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jchiu-fusion/mpn-matcher-web/constants"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/common"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/match"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/ocr"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/pipeline"
)

// Tier colors for the web UI. STRONG stays neutral so only definite outcomes
// get a loud color.
const (
	colorExact   = "#28a745"
	colorWeak    = "#dc3545"
	colorNeutral = "#6c757d"
)

type photoVerdict struct {
	ImageID    string            `json:"image_id"`
	Score      float64           `json:"score"`
	Tier       string            `json:"tier"`
	Color      string            `json:"color"`
	Candidates []match.Candidate `json:"candidates"`
	Thumbnail  string            `json:"thumbnail,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type verifyResponse struct {
	Target string         `json:"target"`
	Lines  any            `json:"lines"`
	Photos []photoVerdict `json:"photos"`
}

func (s *Server) handleParseInvoice(c *gin.Context) {
	fh, err := c.FormFile("invoice")
	if err != nil {
		s.abortError(c, common.NewAppError("BAD_UPLOAD", "missing invoice file", common.ErrInvalidInput))
		return
	}

	dir, cleanup, err := s.stageDir()
	if err != nil {
		s.abortError(c, err)
		return
	}
	defer cleanup()

	path, err := s.saveInvoice(c, fh, dir)
	if err != nil {
		s.abortError(c, err)
		return
	}

	lines, err := s.verifier.ParseInvoice(c.Request.Context(), path)
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines, "count": len(lines)})
}

func (s *Server) handleVerify(c *gin.Context) {
	rep, thumbs, ok := s.runVerify(c)
	if !ok {
		return
	}

	resp := verifyResponse{Target: rep.Target, Lines: rep.Lines}
	for i, r := range rep.Results {
		v := photoVerdict{
			ImageID:    r.ImageID,
			Score:      math.Round(r.BestScore*10) / 10,
			Tier:       string(r.Tier),
			Color:      tierColor(r.Tier),
			Candidates: r.Candidates,
			Error:      r.Err,
		}
		if i < len(thumbs) {
			v.Thumbnail = thumbs[i]
		}
		resp.Photos = append(resp.Photos, v)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleVerifyExport(c *gin.Context) {
	rep, _, ok := s.runVerify(c)
	if !ok {
		return
	}

	out, err := s.exporter.ReportXLSX(rep)
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="mpn-report.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
}

// runVerify does the shared multipart work for the verify endpoints: stage
// the uploads, enforce the photo cap, run the pipeline, and (for the JSON
// endpoint) render thumbnails. thumbs[i] corresponds to rep.Results[i].
func (s *Server) runVerify(c *gin.Context) (rep pipeline.Report, thumbs []string, ok bool) {
	form, err := c.MultipartForm()
	if err != nil {
		s.abortError(c, common.NewAppError("BAD_UPLOAD", "invalid multipart form", common.ErrInvalidInput))
		return rep, nil, false
	}

	invoices := form.File["invoice"]
	if len(invoices) != 1 {
		s.abortError(c, common.NewAppError("BAD_UPLOAD", "exactly one invoice file is required", common.ErrInvalidInput))
		return rep, nil, false
	}
	photoFiles := form.File["photos"]
	if len(photoFiles) == 0 {
		s.abortError(c, common.NewAppError("BAD_UPLOAD", "at least one photo is required", common.ErrInvalidInput))
		return rep, nil, false
	}
	if s.cfg.MaxPhotos > 0 && len(photoFiles) > s.cfg.MaxPhotos {
		s.abortError(c, common.NewAppError("BAD_UPLOAD",
			fmt.Sprintf("too many photos: %d exceeds the limit of %d", len(photoFiles), s.cfg.MaxPhotos),
			common.ErrInvalidInput))
		return rep, nil, false
	}

	dir, cleanup, err := s.stageDir()
	if err != nil {
		s.abortError(c, err)
		return rep, nil, false
	}
	defer cleanup()

	invoicePath, err := s.saveInvoice(c, invoices[0], dir)
	if err != nil {
		s.abortError(c, err)
		return rep, nil, false
	}

	photos := make([]pipeline.Photo, 0, len(photoFiles))
	for i, fh := range photoFiles {
		name := filepath.Base(fh.Filename)
		ext := constants.NormalizeExt(filepath.Ext(name))
		if _, allowed := constants.AllowedPhotoExtensions[ext]; !allowed {
			s.abortError(c, common.NewAppError("BAD_UPLOAD",
				fmt.Sprintf("unsupported photo extension: %q", ext), common.ErrInvalidInput))
			return rep, nil, false
		}
		path := filepath.Join(dir, fmt.Sprintf("photo-%03d-%s", i, name))
		if err := c.SaveUploadedFile(fh, path); err != nil {
			s.abortError(c, fmt.Errorf("save photo: %w", err))
			return rep, nil, false
		}
		photos = append(photos, pipeline.Photo{ID: name, Path: path})
	}

	rep, err = s.verifier.Verify(c.Request.Context(), invoicePath, c.PostForm("target_mpn"), photos)
	if err != nil {
		s.abortError(c, err)
		return rep, nil, false
	}

	if wantThumbnails(c) {
		thumbs = s.renderThumbnails(photos)
	}
	return rep, thumbs, true
}

func (s *Server) stageDir() (string, func(), error) {
	dir, err := os.MkdirTemp("", "mpn-upload-")
	if err != nil {
		return "", nil, fmt.Errorf("stage uploads: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

func (s *Server) saveInvoice(c *gin.Context, fh *multipart.FileHeader, dir string) (string, error) {
	if constants.MapExtToFormat(filepath.Ext(fh.Filename)) != constants.PDF {
		return "", common.NewAppError("BAD_UPLOAD", "invoice must be a PDF", common.ErrInvalidInput)
	}
	path := filepath.Join(dir, "invoice.pdf")
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return "", fmt.Errorf("save invoice: %w", err)
	}
	return path, nil
}

// renderThumbnails is best-effort; a photo that fails to decode simply has
// no thumbnail in the response.
func (s *Server) renderThumbnails(photos []pipeline.Photo) []string {
	thumbs := make([]string, len(photos))
	for i, p := range photos {
		png, err := ocr.Thumbnail(p.Path, s.cfg.ThumbnailSize)
		if err != nil {
			s.log.Warn("thumbnail failed", "photo", p.Path, "error", err)
			continue
		}
		thumbs[i] = base64.StdEncoding.EncodeToString(png)
	}
	return thumbs
}

func wantThumbnails(c *gin.Context) bool {
	b, err := strconv.ParseBool(c.PostForm("thumbnails"))
	return err == nil && b
}

func tierColor(t constants.MatchTier) string {
	switch t {
	case constants.TierExact:
		return colorExact
	case constants.TierWeak:
		return colorWeak
	default:
		return colorNeutral
	}
}

func isInvalidInput(err error) bool {
	return errors.Is(err, common.ErrInvalidInput)
}
