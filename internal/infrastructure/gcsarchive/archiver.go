// Package gcsarchive stores resident ID images in Google Cloud Storage.
package gcsarchive

import (
	"bytes"
	"context"
	"errors"
	"path"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"

	"github.com/oksasatya/resident-registration/internal/domain/entity"
	"github.com/oksasatya/resident-registration/pkg/helpers"
)

const defaultPrefix = "residents"

type Archiver struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

func New(client *storage.Client, bucket string) *Archiver {
	return &Archiver{Client: client, Bucket: bucket, Prefix: defaultPrefix}
}

// ObjectPath is <prefix>/<resident id>/id<ext>. One object per resident.
func (a *Archiver) ObjectPath(residentID, contentType string) string {
	ext := ".bin"
	if mt := mimetype.Lookup(contentType); mt != nil {
		ext = mt.Extension()
	}
	prefix := a.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return path.Join(prefix, residentID, "id"+ext)
}

func (a *Archiver) Archive(ctx context.Context, r *entity.Resident) (string, error) {
	if a.Client == nil || a.Bucket == "" {
		return "", errors.New("gcs not configured")
	}
	contentType, err := entity.DetectIDImage(r.Profile.IDImage)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		return "", errors.New("resident has no id image")
	}
	meta := map[string]string{
		"resident_id":   r.ID,
		"valid_id_type": r.Profile.ValidIDType,
	}
	return helpers.UploadObject(ctx, a.Client, a.Bucket, a.ObjectPath(r.ID, contentType), contentType, meta, bytes.NewReader(r.Profile.IDImage))
}
