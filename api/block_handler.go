package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/our-little-infinity/errs"
	"github.com/rpupo63/our-little-infinity/journal"
	"github.com/rpupo63/our-little-infinity/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// multipartOverhead is the slack allowed on top of MaxFileSize for the
	// multipart envelope.
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
)

type blockHandler struct {
	responder Responder
	logger    zerolog.Logger
	journal   *journal.Repository
}

func newBlockHandler(repo *journal.Repository) blockHandler {
	logger := log.With().Str("handlerName", "blockHandler").Logger()

	return blockHandler{
		responder: NewResponder(logger),
		logger:    logger,
		journal:   repo,
	}
}

// entryFromPath resolves {entryID} and checks that the entry exists.
func (h blockHandler) entryFromPath(r *http.Request) (*models.Entry, error) {
	entryID, err := uuidParam(r, "entryID")
	if err != nil {
		return nil, err
	}

	entry := h.journal.GetEntry(r.Context(), entryID)
	if entry == nil {
		return nil, errs.NewNotFound("entry")
	}
	return entry, nil
}

// blockFromPath resolves {entryID} and {blockID} and checks that the block
// belongs to the entry.
func (h blockHandler) blockFromPath(r *http.Request) (*models.Entry, *models.Block, error) {
	entry, err := h.entryFromPath(r)
	if err != nil {
		return nil, nil, err
	}

	blockID, err := uuidParam(r, "blockID")
	if err != nil {
		return nil, nil, err
	}

	for i := range entry.Blocks {
		if entry.Blocks[i].ID == blockID {
			return entry, &entry.Blocks[i], nil
		}
	}
	return nil, nil, errs.NewNotFound("block")
}

func (h blockHandler) addTextBlock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := h.entryFromPath(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req textBlockRequest
		if err := h.responder.decodeJSON(w, r, "text block", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("content"))
			return
		}

		block := h.journal.AddTextBlock(r.Context(), entry.ID, req.Content)
		if block == nil {
			h.responder.WriteError(w, errs.NewWriteError("add", "text block", nil))
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, block)
	}
}

// addLinkBlock normalizes the URL before storing it.
func (h blockHandler) addLinkBlock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := h.entryFromPath(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req linkBlockRequest
		if err := h.responder.decodeJSON(w, r, "link block", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		url, err := journal.NormalizeURL(req.URL)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		block := h.journal.AddLinkBlock(r.Context(), entry.ID, url, req.Title)
		if block == nil {
			h.responder.WriteError(w, errs.NewWriteError("add", "link block", nil))
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, block)
	}
}

// addFileBlock accepts a multipart form with a "file" part. Oversized files
// are refused before anything reaches the bucket.
func (h blockHandler) addFileBlock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := h.entryFromPath(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if r.ContentLength > journal.MaxFileSize+multipartOverhead {
			h.responder.WriteError(w, errs.NewFileTooLargeError(r.ContentLength, journal.MaxFileSize))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, journal.MaxFileSize+multipartOverhead)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.responder.WriteError(w, errs.NewFileTooLargeError(maxErr.Limit, journal.MaxFileSize))
				return
			}
			h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
			return
		}
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				h.logger.Warn().Err(err).Msg("Error removing multipart temp files")
			}
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("file"))
			return
		}
		defer file.Close()

		if err := journal.CheckFileSize(header.Size); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		contentType := header.Header.Get("Content-Type")
		kind, err := journal.BlockKindForUpload(header.Filename, contentType)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		block := h.journal.AddFileBlock(r.Context(), entry.ID, journal.Upload{
			Name:        header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			Body:        file,
		}, kind)
		if block == nil {
			h.responder.WriteError(w, errs.NewStorageError("upload", nil))
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, block)
	}
}

// updateBlock replaces the content of a text or link block. Link content is
// normalized like a new link.
func (h blockHandler) updateBlock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, block, err := h.blockFromPath(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if block.Kind().IsFile() {
			h.responder.WriteError(w, errs.NewValidationError("type", "file blocks cannot be edited"))
			return
		}

		var req textBlockRequest
		if err := h.responder.decodeJSON(w, r, "block", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		content := req.Content
		if block.Kind() == models.BlockTypeLink {
			if content, err = journal.NormalizeURL(content); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		} else if strings.TrimSpace(content) == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("content"))
			return
		}

		if !h.journal.UpdateBlock(r.Context(), entry.ID, block.ID, content) {
			h.responder.WriteError(w, errs.NewWriteError("update", "block", nil))
			return
		}

		h.writeEntry(w, r, entry.ID)
	}
}

func (h blockHandler) updateLinkBlock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, block, err := h.blockFromPath(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if block.Kind() != models.BlockTypeLink {
			h.responder.WriteError(w, errs.NewValidationError("type", "block is not a link"))
			return
		}

		var req linkBlockRequest
		if err := h.responder.decodeJSON(w, r, "link block", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		url, err := journal.NormalizeURL(req.URL)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if !h.journal.UpdateLinkBlock(r.Context(), entry.ID, block.ID, url, req.Title) {
			h.responder.WriteError(w, errs.NewWriteError("update", "link block", nil))
			return
		}

		h.writeEntry(w, r, entry.ID)
	}
}

func (h blockHandler) deleteBlock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, block, err := h.blockFromPath(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if !h.journal.DeleteBlock(r.Context(), entry.ID, block.ID) {
			h.responder.WriteError(w, errs.NewWriteError("delete", "block", nil))
			return
		}

		h.writeEntry(w, r, entry.ID)
	}
}

// writeEntry answers with the entry as stored after a block change.
func (h blockHandler) writeEntry(w http.ResponseWriter, r *http.Request, entryID uuid.UUID) {
	entry := h.journal.GetEntry(r.Context(), entryID)
	if entry == nil {
		h.responder.WriteError(w, errs.NewNotFound("entry"))
		return
	}
	h.responder.WriteJSON(w, entry)
}
