package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vedran77/voiceapp/internal/media"
)

// multipart parts above this size spill to temp files
const uploadMemory = 1 << 20

// Upload stores the multipart file in field before the route handler runs and
// puts the stored filename in the request context.
func Upload(store media.Store, field string, maxBytes int64, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			if err := r.ParseMultipartForm(uploadMemory); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Uploaded file is too large")
					return
				}
				writeError(w, http.StatusBadRequest, "NO_FILE", "No file uploaded")
				return
			}
			defer r.MultipartForm.RemoveAll()

			file, header, err := r.FormFile(field)
			if err != nil {
				writeError(w, http.StatusBadRequest, "NO_FILE", "No file uploaded")
				return
			}
			defer file.Close()

			name := media.NewFilename(header.Filename, time.Now())
			if err := store.Save(r.Context(), name, file); err != nil {
				log.WithError(err).WithField("field", field).Error("storing upload")
				writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
				return
			}

			ctx := context.WithValue(r.Context(), UploadedKey, name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUploadedFile returns the stored filename, or "" outside Upload.
func GetUploadedFile(ctx context.Context) string {
	name, _ := ctx.Value(UploadedKey).(string)
	return name
}
