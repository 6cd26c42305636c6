package exifmeta

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_NoExif(t *testing.T) {
	_, err := Extract(bytes.NewReader([]byte("definitely not an image")))
	assert.ErrorIs(t, err, ErrNoExif)
}

func TestFromTags(t *testing.T) {
	tests := []struct {
		name       string
		tags       map[string]string
		wantDevice string
		wantTime   *time.Time
	}{
		{
			name:       "make and model",
			tags:       map[string]string{"Make": "FUJIFILM", "Model": "X100V", "DateTimeOriginal": "2023:07:14 18:30:00"},
			wantDevice: "FUJIFILM X100V",
			wantTime:   ptrTime(time.Date(2023, 7, 14, 18, 30, 0, 0, time.UTC)),
		},
		{
			name:       "model already contains make",
			tags:       map[string]string{"Make": "Canon", "Model": "Canon EOS R6"},
			wantDevice: "Canon EOS R6",
		},
		{
			name:       "fallback to DateTime",
			tags:       map[string]string{"Model": "Pixel 8", "DateTime": "2024:01:02 03:04:05"},
			wantDevice: "Pixel 8",
			wantTime:   ptrTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		},
		{
			name: "garbage date",
			tags: map[string]string{"DateTimeOriginal": "yesterday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := fromTags(tt.tags)
			assert.Equal(t, tt.wantDevice, m.Device)
			if tt.wantTime == nil {
				assert.Nil(t, m.TakenAt)
				return
			}
			require.NotNil(t, m.TakenAt)
			assert.True(t, tt.wantTime.Equal(*m.TakenAt))
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestExtract_File(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "exif.jpg"))
	require.NoError(t, err)
	defer f.Close()

	// поток уже прочитан до конца
	_, err = io.Copy(io.Discard, f)
	require.NoError(t, err)

	meta, err := Extract(f)
	require.NoError(t, err)

	assert.Equal(t, "Canon EOS 5D Mark III", meta.Device)
	require.NotNil(t, meta.TakenAt)
	assert.Equal(t, time.Date(2017, 12, 2, 8, 18, 50, 0, time.UTC), *meta.TakenAt)
}
