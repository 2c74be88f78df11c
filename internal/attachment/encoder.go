// Package attachment validates uploaded files and embeds them into letters as
// data URLs.
package attachment

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/dustin/go-humanize"

	"earsip/internal/domain"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"

	// DefaultMaxBytes is the ceiling used when none is configured.
	DefaultMaxBytes int64 = 10 * 1024 * 1024
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrNotDataURL      = errors.New("attachment is not a base64 data URL")
)

var allowedTypes = map[string]struct{}{
	MimePDF:     {},
	MimeDOCX:    {},
	MimeJPEG:    {},
	MimePNG:     {},
	"image/jpg": {},
}

// Encoder checks declared type and size, then reads the file into a data URL.
type Encoder struct {
	maxBytes int64
}

func NewEncoder(maxBytes int64) *Encoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Encoder{maxBytes: maxBytes}
}

func (e *Encoder) MaxBytes() int64 {
	return e.maxBytes
}

// Allowed reports whether declaredType is on the allow-list.
func Allowed(declaredType string) bool {
	_, ok := allowedTypes[normalizeType(declaredType)]
	return ok
}

// Encode validates the declared type and size and reads r fully. The size is
// enforced again while reading so an understated size cannot slip through.
func (e *Encoder) Encode(ctx context.Context, fileName, declaredType string, size int64, r io.Reader) (domain.Attachment, error) {
	fileType := normalizeType(declaredType)
	if !Allowed(fileType) {
		return domain.Attachment{}, fmt.Errorf("%w: %q, use PDF, DOCX, JPG or PNG", ErrUnsupportedType, declaredType)
	}
	if size > e.maxBytes {
		return domain.Attachment{}, e.tooLarge(size)
	}

	buf := &bytes.Buffer{}
	limited := io.LimitReader(r, e.maxBytes+1)
	chunk := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return domain.Attachment{}, fmt.Errorf("read attachment: %w", err)
		}
		n, err := limited.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if int64(buf.Len()) > e.maxBytes {
				return domain.Attachment{}, e.tooLarge(int64(buf.Len()))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Attachment{}, fmt.Errorf("read attachment: %w", err)
		}
	}

	name := strings.TrimSpace(fileName)
	if name == "" {
		name = "lampiran" + fallbackExtension(fileType)
	}

	return domain.Attachment{
		FileName: name,
		FileType: fileType,
		FileData: EncodeDataURL(fileType, buf.Bytes()),
	}, nil
}

// Verify checks an attachment that arrives already encoded, as in a submitted
// draft: the type must be allowed, the data must be a base64 data URL of that
// type and the decoded file must fit the ceiling.
func (e *Encoder) Verify(att domain.Attachment) error {
	fileType := normalizeType(att.FileType)
	if !Allowed(fileType) {
		return fmt.Errorf("%w: %q, use PDF, DOCX, JPG or PNG", ErrUnsupportedType, att.FileType)
	}
	mediaType, data, err := Decode(att.FileData)
	if err != nil {
		return err
	}
	if normalizeType(mediaType) != fileType {
		return fmt.Errorf("%w: data is %q but fileType is %q", ErrUnsupportedType, mediaType, att.FileType)
	}
	if int64(len(data)) > e.maxBytes {
		return e.tooLarge(int64(len(data)))
	}
	return nil
}

func (e *Encoder) tooLarge(size int64) error {
	return fmt.Errorf("%w: %s exceeds the maximum of %s",
		ErrTooLarge, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(e.maxBytes)))
}

// EncodeDataURL returns data as a base64 data URL of the given media type.
func EncodeDataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode splits a base64 data URL into its media type and bytes.
func Decode(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return mediaType, data, nil
}

func normalizeType(declared string) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(declared))
	}
	return mediaType
}

var mimeExtensionFallback = map[string]string{
	MimePDF:     ".pdf",
	MimeDOCX:    ".docx",
	MimeJPEG:    ".jpg",
	"image/jpg": ".jpg",
	MimePNG:     ".png",
}

func fallbackExtension(mediaType string) string {
	if ext, ok := mimeExtensionFallback[mediaType]; ok {
		return ext
	}
	return ".bin"
}
