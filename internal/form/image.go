package form

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"recipebox/internal/model"
)

var ErrInvalidDataURL = errors.New("invalid image data URL")

// ImagePicker is the image modal. Selecting a picture uploads it right away,
// hands the URL to the form and closes the modal.
type ImagePicker struct {
	uploader   Uploader
	saveImgURL func(string)
	closeModal func()
}

// ImagePicker opens a picker bound to this form.
func (f *Form) ImagePicker(u Uploader) *ImagePicker {
	return &ImagePicker{
		uploader:   u,
		saveImgURL: f.SaveImageURL,
		closeModal: f.CloseImageModal,
	}
}

// Select uploads img. On failure nothing changes and the modal stays open.
func (p *ImagePicker) Select(ctx context.Context, img model.ImageUpload) (*model.Image, error) {
	uploaded, err := p.uploader.UploadImage(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	p.saveImgURL(uploaded.URL)
	p.closeModal()
	return uploaded, nil
}

// DecodeDataURL turns "data:image/<ext>;base64,<payload>" into an upload
// named "<stem>.<ext>".
func DecodeDataURL(dataURL, stem string) (model.ImageUpload, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return model.ImageUpload{}, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURL)
	}
	ct, contents, ok := strings.Cut(rest, ";")
	if !ok {
		return model.ImageUpload{}, fmt.Errorf("%w: missing media type", ErrInvalidDataURL)
	}
	ext, ok := strings.CutPrefix(ct, "image/")
	if !ok || ext == "" {
		return model.ImageUpload{}, fmt.Errorf("%w: only images supported, got %q", ErrInvalidDataURL, ct)
	}
	b64, ok := strings.CutPrefix(contents, "base64,")
	if !ok {
		return model.ImageUpload{}, fmt.Errorf("%w: only base64 payloads supported", ErrInvalidDataURL)
	}
	b, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return model.ImageUpload{}, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if stem == "" {
		stem = "image"
	}
	return model.ImageUpload{
		Reader:      bytes.NewReader(b),
		Filename:    stem + "." + ext,
		ContentType: ct,
		Size:        int64(len(b)),
	}, nil
}
