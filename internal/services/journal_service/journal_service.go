package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"strings"
	"time"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/logger/sl"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

const (
	JournalTitle = "My Visual Journal"
	dateLayout   = "2 Jan 2006, 15:04"

	maxImageBytes  = 25 << 20
	maxImageWidth  = 170.0
	maxImageHeight = 120.0
)

// форматы, которые fpdf умеет встраивать
var imageTypes = map[string]string{
	"jpeg": "JPG",
	"png":  "PNG",
	"gif":  "GIF",
}

var ErrUnauthorized = errors.New("unauthorized")

type TimelineProvider interface {
	Timeline(ctx context.Context, ownerID uuid.UUID) ([]models.Photo, error)
}

// ImageSource отдаёт загруженные файлы снимков
type ImageSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

type JournalService struct {
	log    *slog.Logger
	photos TimelineProvider
	images ImageSource
	now    func() time.Time
}

func NewJournalService(log *slog.Logger, photos TimelineProvider, images ImageSource) *JournalService {
	return &JournalService{
		log:    log,
		photos: photos,
		images: images,
		now:    time.Now,
	}
}

type journalImage struct {
	data      []byte
	imageType string
}

// Filename имя файла выгрузки на текущую дату
func (s *JournalService) Filename() string {
	return fmt.Sprintf("polaroida-journal-%s.pdf", s.now().Format("2006-01-02"))
}

// Render пишет PDF со всеми снимками владельца в порядке съёмки
func (s *JournalService) Render(ctx context.Context, ownerID uuid.UUID, w io.Writer) error {
	const op = "journal_service.Render"

	log := s.log.With(slog.String("op", op), slog.String("owner_id", ownerID.String()))

	if ownerID == uuid.Nil {
		return ErrUnauthorized
	}

	photos, err := s.photos.Timeline(ctx, ownerID)
	if err != nil {
		log.Error("failed to load timeline", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	images := s.loadImages(ctx, log, photos)

	pdf := buildJournal(log, photos, images, s.now())
	if err := pdf.Output(w); err != nil {
		log.Error("failed to write pdf", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("journal exported", slog.Int("photos", len(photos)), slog.Int("images", len(images)))

	return nil
}

// loadImages читает файлы снимков, нечитаемые пропускаются
func (s *JournalService) loadImages(ctx context.Context, log *slog.Logger, photos []models.Photo) map[int]journalImage {
	images := make(map[int]journalImage, len(photos))
	if s.images == nil {
		return images
	}

	for i, p := range photos {
		if p.StoragePath == "" {
			continue
		}

		img, err := s.loadImage(ctx, p.StoragePath)
		if err != nil {
			log.Warn("skipping photo image", slog.String("path", p.StoragePath), sl.Err(err))
			continue
		}
		images[i] = img
	}

	return images
}

func (s *JournalService) loadImage(ctx context.Context, path string) (journalImage, error) {
	rc, err := s.images.Open(ctx, path)
	if err != nil {
		return journalImage{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxImageBytes))
	if err != nil {
		return journalImage{}, err
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return journalImage{}, err
	}

	tp, ok := imageTypes[format]
	if !ok {
		return journalImage{}, fmt.Errorf("unsupported image format %q", format)
	}

	return journalImage{data: data, imageType: tp}, nil
}

func buildJournal(log *slog.Logger, photos []models.Photo, images map[int]journalImage, generatedAt time.Time) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(JournalTitle, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, JournalTitle, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d photos - generated %s", len(photos), generatedAt.Format(dateLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	if len(photos) == 0 {
		pdf.SetFont("Helvetica", "I", 12)
		pdf.CellFormat(0, 8, "No photos yet.", "", 1, "C", false, 0, "")
		return pdf
	}

	for i, p := range photos {
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, fmt.Sprintf("#%d  %s", i+1, p.TakenAt.Format(dateLayout)), "", 1, "L", false, 0, "")

		if img, ok := images[i]; ok {
			addImage(log, pdf, fmt.Sprintf("photo-%d", i), img)
		}

		if p.Caption != "" {
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 6, tr(p.Caption), "", "L", false)
		}

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("%s | %s | filter: %s", p.LocationName, p.DeviceInfo, p.FilterStyle)), "", "L", false)
		if len(p.Tags) > 0 {
			pdf.MultiCell(0, 5, tr(formatTags(p.Tags)), "", "L", false)
		}

		pdf.Ln(5)
	}

	return pdf
}

// addImage встраивает снимок по центру страницы. Ошибка fpdf сбрасывается, чтобы не испортить документ.
func addImage(log *slog.Logger, pdf *fpdf.Fpdf, name string, img journalImage) {
	opts := fpdf.ImageOptions{ImageType: img.imageType}

	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))
	if err := pdf.Error(); err != nil || info == nil {
		log.Warn("failed to embed photo image", slog.String("image", name), sl.Err(err))
		pdf.ClearError()
		return
	}

	iw, ih := info.Extent()
	if iw <= 0 || ih <= 0 {
		return
	}

	w := maxImageWidth
	h := w * ih / iw
	if h > maxImageHeight {
		h = maxImageHeight
		w = h * iw / ih
	}

	pageW, _ := pdf.GetPageSize()

	pdf.ImageOptions(name, (pageW-w)/2, pdf.GetY()+2, w, h, true, opts, 0, "")
	pdf.Ln(4)
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "#" + strings.Join(tags, " #")
}
