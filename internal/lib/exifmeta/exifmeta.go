// Package exifmeta читает из EXIF модель камеры и время съёмки.
package exifmeta

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dsoprea/go-exif/v3"
)

const dateTimeLayout = "2006:01:02 15:04:05"

var ErrNoExif = errors.New("no exif data")

// Meta данные, которые клиент мог не прислать
type Meta struct {
	Device  string
	TakenAt *time.Time
}

// Extract ищет блок EXIF в потоке. Без EXIF возвращает ErrNoExif.
func Extract(r io.ReadSeeker) (Meta, error) {
	const op = "lib.exifmeta.Extract"

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Meta{}, fmt.Errorf("%s: %w", op, err)
	}

	raw, err := exif.SearchAndExtractExifWithReader(r)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return Meta{}, ErrNoExif
		}
		return Meta{}, fmt.Errorf("%s: %w", op, err)
	}

	entries, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return Meta{}, fmt.Errorf("%s: %w", op, err)
	}

	tags := make(map[string]string, len(entries))
	for _, tag := range entries {
		if tag.TagName == "" {
			continue
		}
		value := strings.TrimSpace(strings.ReplaceAll(tag.FormattedFirst, "\x00", ""))
		if value != "" {
			if _, seen := tags[tag.TagName]; !seen {
				tags[tag.TagName] = value
			}
		}
	}

	return fromTags(tags), nil
}

func fromTags(tags map[string]string) Meta {
	var m Meta

	maker, model := tags["Make"], tags["Model"]
	switch {
	case maker != "" && model != "" && strings.HasPrefix(model, maker):
		m.Device = model
	case maker != "" && model != "":
		m.Device = maker + " " + model
	default:
		m.Device = maker + model
	}

	for _, name := range []string{"DateTimeOriginal", "CreateDate", "DateTime"} {
		if value, ok := tags[name]; ok {
			if t, err := time.Parse(dateTimeLayout, value); err == nil {
				m.TakenAt = &t
				break
			}
		}
	}

	return m
}
