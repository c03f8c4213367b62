package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rook-computer/certmaker/internal/app"
	"github.com/rook-computer/certmaker/internal/codec"
	"github.com/rook-computer/certmaker/internal/document"
	"github.com/rook-computer/certmaker/internal/element"
	"github.com/rook-computer/certmaker/internal/export"
	"github.com/rook-computer/certmaker/internal/render"
	"github.com/rook-computer/certmaker/internal/state"
)

// maxJSONBody bounds request bodies that are not file uploads.
const maxJSONBody = 1 << 20

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type selectionResponse struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

type stateResponse struct {
	Revision           uint64                  `json:"revision"`
	Data               element.CertificateData `json:"data"`
	Elements           []element.TextElement   `json:"elements"`
	ImageElements      []element.ImageElement  `json:"imageElements"`
	BackgroundImage    *string                 `json:"backgroundImage"`
	BackgroundGradient *string                 `json:"backgroundGradient,omitempty"`
	Watermark          element.Watermark       `json:"watermark"`
	ShowGrid           bool                    `json:"showGrid"`
	ShowSafeMargins    bool                    `json:"showSafeMargins"`
	Selection          selectionResponse       `json:"selection"`
	HistoryLength      int                     `json:"historyLength"`
	Fullscreen         bool                    `json:"fullscreen"`
}

type templateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type qrCodeRequest struct {
	Payload string `json:"payload"`
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

type api struct {
	deps APIV1Deps
}

func apiV1Router(deps APIV1Deps) http.Handler {
	a := &api{deps: deps.withDefaults()}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", a.handleState)
	mux.HandleFunc("PUT /data", a.handleData)

	mux.HandleFunc("POST /elements", a.handleAddElement)
	mux.HandleFunc("PUT /elements/{id}", a.handleUpdateElement)
	mux.HandleFunc("DELETE /elements/{id}", a.handleDeleteElement)
	mux.HandleFunc("POST /elements/{id}/select", a.handleSelectElement)
	mux.HandleFunc("PUT /images/{id}", a.handleUpdateImage)
	mux.HandleFunc("DELETE /images/{id}", a.handleDeleteImage)
	mux.HandleFunc("POST /images/{id}/select", a.handleSelectImage)
	mux.HandleFunc("DELETE /selection", a.handleClearSelection)

	mux.HandleFunc("POST /uploads/{kind}", a.handleUpload)
	mux.HandleFunc("DELETE /background", a.handleRemoveBackground)
	mux.HandleFunc("POST /qrcode", a.handleQRCode)
	mux.HandleFunc("PUT /watermark", a.handleWatermark)
	mux.HandleFunc("POST /view/grid", a.handleToggleGrid)
	mux.HandleFunc("POST /view/safe-margins", a.handleToggleSafeMargins)
	mux.HandleFunc("POST /view/fullscreen", a.handleFullscreen)
	mux.HandleFunc("POST /reset", a.handleReset)

	mux.HandleFunc("GET /config", a.handleDownloadConfig)
	mux.HandleFunc("POST /config", a.handleUploadConfig)
	mux.HandleFunc("POST /config/save", a.handleSaveConfig)
	mux.HandleFunc("POST /config/load", a.handleLoadConfig)
	mux.HandleFunc("DELETE /config/saved", a.handleClearSaved)

	mux.HandleFunc("GET /templates", a.handleTemplates)
	mux.HandleFunc("POST /templates", a.handleSaveTemplate)
	mux.HandleFunc("DELETE /templates/{id}", a.handleDeleteTemplate)
	mux.HandleFunc("POST /templates/{id}/apply", a.handleApplyTemplate)

	mux.HandleFunc("GET /export/{format}", a.handleExport)
	mux.HandleFunc("GET /preview.png", a.handlePreview)
	mux.HandleFunc("POST /pointer", a.handlePointer)
	mux.HandleFunc("GET /events", a.handleEvents)
	return mux
}

// editor reports 501 when no editor is wired and returns false.
func (a *api) editor(w http.ResponseWriter) (Editor, bool) {
	if a.deps.Editor == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "editor not configured")
		return nil, false
	}
	return a.deps.Editor, true
}

func (a *api) stateResponse() stateResponse {
	snap := a.deps.Store.Snapshot()
	return stateResponse{
		Revision:           snap.Revision,
		Data:               snap.Data,
		Elements:           snap.Elements,
		ImageElements:      snap.Images,
		BackgroundImage:    snap.Background,
		BackgroundGradient: snap.BackgroundGradient,
		Watermark:          snap.Watermark,
		ShowGrid:           snap.ShowGrid,
		ShowSafeMargins:    snap.ShowSafeMargins,
		Selection:          selectionResponse{Kind: snap.Selection.Kind.String(), ID: snap.Selection.ID},
		HistoryLength:      a.deps.Store.HistoryLen(),
		Fullscreen:         a.deps.Canvas.Fullscreen(),
	}
}

func (a *api) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.stateResponse())
}

func (a *api) handleData(w http.ResponseWriter, r *http.Request) {
	var data element.CertificateData
	if !decodeJSON(w, r, &data) {
		return
	}
	a.deps.Store.SetData(data)
	writeJSON(w, http.StatusOK, a.stateResponse())
}

func (a *api) handleAddElement(w http.ResponseWriter, r *http.Request) {
	var el element.TextElement
	if !decodeJSON(w, r, &el) {
		return
	}
	if el.ID == "" {
		el.ID = a.deps.Canvas.NewID()
	}
	if el.Type == "" {
		el.Type = element.TextCustom
	}
	if !el.Type.Valid() {
		writeAPIError(w, http.StatusBadRequest, "invalid_element", "unknown element type "+strconv.Quote(string(el.Type)))
		return
	}
	if _, exists := findText(a.deps.Store.Snapshot(), el.ID); exists {
		writeAPIError(w, http.StatusConflict, "duplicate_id", "element id already in use")
		return
	}
	a.deps.Store.AddElement(el)
	writeJSON(w, http.StatusCreated, el)
}

func (a *api) handleUpdateElement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	el, ok := findText(a.deps.Store.Snapshot(), id)
	if !ok {
		writeAPIError(w, http.StatusNotFound, "element_not_found", "element not found")
		return
	}
	if !decodeJSON(w, r, &el) {
		return
	}
	el.ID = id
	if !el.Type.Valid() {
		writeAPIError(w, http.StatusBadRequest, "invalid_element", "unknown element type "+strconv.Quote(string(el.Type)))
		return
	}
	a.deps.Store.UpdateElement(el)
	writeJSON(w, http.StatusOK, el)
}

func (a *api) handleDeleteElement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := findText(a.deps.Store.Snapshot(), id); !ok {
		writeAPIError(w, http.StatusNotFound, "element_not_found", "element not found")
		return
	}
	a.deps.Store.DeleteElement(id)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleSelectElement(w http.ResponseWriter, r *http.Request) {
	el, ok := findText(a.deps.Store.Snapshot(), r.PathValue("id"))
	if !ok {
		writeAPIError(w, http.StatusNotFound, "element_not_found", "element not found")
		return
	}
	a.deps.Store.SelectElement(el)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleUpdateImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	current, ok := findImage(a.deps.Store.Snapshot(), id)
	if !ok {
		writeAPIError(w, http.StatusNotFound, "image_not_found", "image not found")
		return
	}
	el := current
	if !decodeJSON(w, r, &el) {
		return
	}
	el.ID = id
	if el.Src != current.Src {
		writeAPIError(w, http.StatusBadRequest, "invalid_image", "image source cannot be changed; upload a new image instead")
		return
	}
	a.deps.Store.UpdateImageElement(el)
	writeJSON(w, http.StatusOK, el)
}

func (a *api) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := findImage(a.deps.Store.Snapshot(), id); !ok {
		writeAPIError(w, http.StatusNotFound, "image_not_found", "image not found")
		return
	}
	a.deps.Store.DeleteImageElement(id)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleSelectImage(w http.ResponseWriter, r *http.Request) {
	el, ok := findImage(a.deps.Store.Snapshot(), r.PathValue("id"))
	if !ok {
		writeAPIError(w, http.StatusNotFound, "image_not_found", "image not found")
		return
	}
	a.deps.Store.SelectImageElement(el)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	a.deps.Store.ClearSelection()
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// handleUpload streams the raw request body into the editor. The declared
// Content-Length is what the size limit is checked against. The handler
// returns only after the upload stopped reading r.Body.
func (a *api) handleUpload(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	if err := requireContentLength(r); err != nil {
		writeAPIError(w, http.StatusLengthRequired, "length_required", err.Error())
		return
	}
	body := io.LimitReader(r.Body, r.ContentLength)
	switch kind := r.PathValue("kind"); kind {
	case "logo", "signature":
		var task *app.Task[element.ImageElement]
		if kind == "logo" {
			task = ed.UploadLogo(r.Context(), body, r.ContentLength)
		} else {
			task = ed.UploadSignature(r.Context(), body, r.ContentLength)
		}
		el, err := task.Result()
		if err != nil {
			writeUploadError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, el)
	case "background":
		if _, err := ed.UploadBackground(r.Context(), body, r.ContentLength).Result(); err != nil {
			writeUploadError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	default:
		writeAPIError(w, http.StatusNotFound, "unknown_upload", "unknown upload kind "+strconv.Quote(kind))
	}
}

func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, codec.ErrTooLarge):
		writeAPIError(w, http.StatusRequestEntityTooLarge, "file_too_large", err.Error())
	case errors.Is(err, codec.ErrNotImage):
		writeAPIError(w, http.StatusUnsupportedMediaType, "not_an_image", err.Error())
	default:
		writeAPIError(w, http.StatusInternalServerError, "upload_failed", err.Error())
	}
}

func (a *api) handleRemoveBackground(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	ed.RemoveBackground()
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleQRCode(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	var req qrCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	el, err := ed.AddQRCode(req.Payload)
	if err != nil {
		if errors.Is(err, app.ErrEmptyPayload) {
			writeAPIError(w, http.StatusBadRequest, "invalid_payload", err.Error())
			return
		}
		writeAPIError(w, http.StatusInternalServerError, "qrcode_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, el)
}

func (a *api) handleWatermark(w http.ResponseWriter, r *http.Request) {
	wm := a.deps.Store.Snapshot().Watermark
	if !decodeJSON(w, r, &wm) {
		return
	}
	a.deps.Store.UpdateWatermark(wm)
	writeJSON(w, http.StatusOK, wm)
}

func (a *api) handleToggleGrid(w http.ResponseWriter, r *http.Request) {
	a.deps.Store.ToggleGrid()
	writeJSON(w, http.StatusOK, map[string]bool{"showGrid": a.deps.Store.Snapshot().ShowGrid})
}

func (a *api) handleToggleSafeMargins(w http.ResponseWriter, r *http.Request) {
	a.deps.Store.ToggleSafeMargins()
	writeJSON(w, http.StatusOK, map[string]bool{"showSafeMargins": a.deps.Store.Snapshot().ShowSafeMargins})
}

func (a *api) handleFullscreen(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"fullscreen": a.deps.Canvas.ToggleFullscreen()})
}

// handleReset needs {"confirm": true}; the HTTP client has already asked.
func (a *api) handleReset(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	var req resetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	confirmed := state.ConfirmFunc(func(string) bool { return req.Confirm })
	if !ed.ResetLayout(confirmed) {
		writeAPIError(w, http.StatusPreconditionRequired, "confirmation_required", state.ResetPrompt)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleDownloadConfig(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := ed.DownloadConfig(&buf); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "encode_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+document.DownloadName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (a *api) handleUploadConfig(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	if r.ContentLength > codec.MaxConfigBytes {
		writeAPIError(w, http.StatusRequestEntityTooLarge, "file_too_large", codec.TooLargeMessage(codec.MaxConfigBytes))
		return
	}
	if err := ed.UploadConfig(r.Context(), r.Body); err != nil {
		switch {
		case errors.Is(err, codec.ErrTooLarge):
			writeAPIError(w, http.StatusRequestEntityTooLarge, "file_too_large", err.Error())
		default:
			writeAPIError(w, http.StatusBadRequest, "invalid_config", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, a.stateResponse())
}

func (a *api) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	if !ed.SaveConfig(r.Context()) {
		writeAPIError(w, http.StatusInsufficientStorage, "save_failed", "Failed to save configuration. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleLoadConfig(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	if !ed.LoadSaved(r.Context()) {
		writeAPIError(w, http.StatusNotFound, "no_saved_config", "no saved configuration")
		return
	}
	writeJSON(w, http.StatusOK, a.stateResponse())
}

func (a *api) handleClearSaved(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	if !ed.ClearSaved(r.Context()) {
		writeAPIError(w, http.StatusInternalServerError, "clear_failed", "failed to clear saved configuration")
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleTemplates(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ed.Templates(r.Context()))
}

func (a *api) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	var req templateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tpl, saved := ed.SaveTemplate(r.Context(), req.Name, req.Description)
	if !saved {
		writeAPIError(w, http.StatusInsufficientStorage, "save_failed", "Failed to save template. Please try again.")
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (a *api) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	if !ed.DeleteTemplate(r.Context(), r.PathValue("id")) {
		writeAPIError(w, http.StatusInternalServerError, "delete_failed", "failed to delete template")
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	if !ed.ApplyTemplate(r.Context(), r.PathValue("id")) {
		writeAPIError(w, http.StatusNotFound, "template_not_found", "template not found")
		return
	}
	writeJSON(w, http.StatusOK, a.stateResponse())
}

// handleExport buffers the file so a failed export still gets a JSON error.
func (a *api) handleExport(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.editor(w)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.PathValue("format"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "unknown_format", err.Error())
		return
	}
	var buf bytes.Buffer
	if err := ed.Export(r.Context(), format, &buf); err != nil {
		a.deps.Logger.Errorf("api", "export %s: %v", format, err)
		writeAPIError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.FileName()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handlePreview renders the live canvas with guides, selection and any
// in-flight gesture. ?scale= defaults to 1.
func (a *api) handlePreview(w http.ResponseWriter, r *http.Request) {
	scale := 1.0
	if raw := r.URL.Query().Get("scale"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "invalid_scale", "scale must be a number")
			return
		}
		scale = parsed
	}
	frame := render.BuildFrame(a.deps.Store.Snapshot())
	a.deps.Canvas.Overlay(&frame)
	img, err := a.deps.Raster.Render(frame, render.PreviewOptions(scale))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_scale", err.Error())
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "render_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (a *api) handlePointer(w http.ResponseWriter, r *http.Request) {
	var ev render.PointerEvent
	if !decodeJSON(w, r, &ev) {
		return
	}
	if err := a.deps.Canvas.Dispatch(ev); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_pointer", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.stateResponse())
}

func findText(s state.State, id string) (element.TextElement, bool) {
	for _, el := range s.Elements {
		if el.ID == id {
			return el, true
		}
	}
	return element.TextElement{}, false
}

func findImage(s state.State, id string) (element.ImageElement, bool) {
	for _, el := range s.Images {
		if el.ID == id {
			return el, true
		}
	}
	return element.ImageElement{}, false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_json", "request body is required")
		return false
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		msg := err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeAPIError(w, http.StatusBadRequest, "invalid_json", strings.TrimSpace(msg))
		return false
	}
	return true
}

func requireContentLength(r *http.Request) error {
	// Unknown lengths cannot be checked against the upload limit up front.
	if r.ContentLength <= 0 {
		return errLengthRequired
	}
	return nil
}

var errLengthRequired = errors.New("Content-Length header is required")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
