package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/logger"
	"github.com/example/contact-service/internal/models"
)

// MsgUnreadableForm is returned when the request body cannot be decoded.
const MsgUnreadableForm = "Unable to read the submitted form."

const defaultMaxBodyBytes = 16 << 10

// Submitter handles one contact submission under a caller supplied id.
// *submission.Controller satisfies it.
type Submitter interface {
	SubmitWithID(ctx context.Context, id string, req models.SubmissionRequest) models.SubmissionResult
}

// ContactHandler serves POST /contact.
type ContactHandler struct {
	submitter    Submitter
	maxBodyBytes int64
	logger       zerolog.Logger
}

// NewContactHandler constructs a ContactHandler. maxBodyBytes <= 0 selects the
// default limit.
func NewContactHandler(s Submitter, maxBodyBytes int64, log zerolog.Logger) (*ContactHandler, error) {
	if s == nil {
		return nil, errors.New("httpapi: submitter dependency is required")
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &ContactHandler{
		submitter:    s,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.Component(log, "httpapi"),
	}, nil
}

type successBody struct {
	Success bool `json:"success"`
}

type errorsBody struct {
	Errors models.ValidationErrors `json:"errors"`
}

// Submit decodes the form and runs it through the submitter. The response is
// 200 {"success":true}, 400 {"errors":{...}} for validation failures and
// unreadable bodies, or 500 {"errors":{...}} for server failures.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	req, err := h.decode(r)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("request_id", RequestID(r.Context())).
			Msg("rejecting unreadable contact form")
		JSONResponse(h.logger, w, http.StatusBadRequest, errorsBody{
			Errors: models.ValidationErrors{models.FieldServer: MsgUnreadableForm},
		})
		return
	}

	id := RequestID(r.Context())
	res := h.submitter.SubmitWithID(r.Context(), id, req)

	switch res.Kind {
	case models.ResultSuccess:
		JSONResponse(h.logger, w, http.StatusOK, successBody{Success: true})
	case models.ResultValidationFailure:
		JSONResponse(h.logger, w, http.StatusBadRequest, errorsBody{Errors: res.Errors})
	default:
		JSONResponse(h.logger, w, http.StatusInternalServerError, errorsBody{Errors: res.Errors})
	}
}

func (h *ContactHandler) decode(r *http.Request) (models.SubmissionRequest, error) {
	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return models.SubmissionRequest{}, err
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json":
		var req models.SubmissionRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			return models.SubmissionRequest{}, err
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return models.SubmissionRequest{}, errors.New("httpapi: trailing data after JSON body")
		}
		return req, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxBodyBytes); err != nil {
			return models.SubmissionRequest{}, err
		}
	case "application/x-www-form-urlencoded", "":
		if err := r.ParseForm(); err != nil {
			return models.SubmissionRequest{}, err
		}
	default:
		return models.SubmissionRequest{}, errors.New("httpapi: unsupported content type " + mediaType)
	}

	return models.SubmissionRequest{
		Honeypot: r.PostFormValue(models.FieldHoneypot),
		Email:    r.PostFormValue(models.FieldEmail),
		Message:  r.PostFormValue(models.FieldMessage),
	}, nil
}

