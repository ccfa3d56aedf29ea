// Package httpapi binds internal/facade and the individual stores to
// coordplane's HTTP surface (spec.md §6). Handlers decode/encode JSON
// directly — no generic request/response framework — the way
// cmd/chrc/main.go's router does it in the teacher repo. Error
// responses carry an empty body (spec.md §7: "clients rely on status
// codes"), which is the one place this package diverges from the
// teacher's writeError, which always attaches a JSON {"error": ...}
// body.
package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vaultmesh/coordplane/internal/apperr"
	"github.com/vaultmesh/coordplane/internal/envelope"
	"github.com/vaultmesh/coordplane/internal/facade"
	"github.com/vaultmesh/coordplane/internal/legacyupload"
	"github.com/vaultmesh/coordplane/internal/nodestore"
	"github.com/vaultmesh/coordplane/internal/sessionstore"
	"github.com/vaultmesh/coordplane/internal/sharestore"
	"github.com/vaultmesh/coordplane/internal/upload"
	"github.com/vaultmesh/coordplane/internal/webauthnstore"
)

// API holds everything the route handlers need. Legacy is nil unless
// the deployment has LEGACY_UPLOAD_DIR configured; NewRouter mounts the
// /legacy/uploads group only when it is non-nil.
type API struct {
	Facade  *facade.Service
	Legacy  *legacyupload.Appender
	Uploads *upload.Coordinator
}

// NewRouter builds the chi router for coordplane's HTTP surface.
// Middlewares (security headers, body-size cap, rate limiting,
// maintenance mode, trace id) are the caller's responsibility — see
// cmd/coordplaned/main.go, which wires internal/shield.DefaultStack
// ahead of this router.
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()

	r.Post("/nodes", api.postNodes)
	r.Get("/nodes", api.getNodes)
	r.Delete("/nodes/{file_id}", api.deleteNode)

	r.Post("/signup", api.postSignup)
	r.Post("/login", api.postLogin)

	r.Get("/users/{uid}", api.getUser)
	r.Get("/users/{uid}/mk", api.getUserMK)
	r.Get("/users/{uid}/webauthn-passkeys", api.getUserPasskeys)
	r.Delete("/users/{uid}/webauthn-passkeys/{pk_id}", api.deletePasskey)

	r.Get("/invite/pinned/{email_b64url}", api.getPinnedInvite)
	r.Post("/invite/pinned", api.postPinnedInvite)
	r.Post("/invite/intent/start", api.postInviteIntentStart)
	r.Get("/invite/intent/fetch/{email_b64url}", api.getInviteIntentFetch)
	r.Post("/invite/intent/finish", api.postInviteIntentFinish)

	r.Post("/sessions/lock/{token_id}", api.postSessionLock)
	r.Post("/sessions/unlock/{token_id}", api.postSessionUnlock)

	r.Post("/webauthn/start-reg/{uid}", api.postWebAuthnStartReg)
	r.Post("/webauthn/finish-reg/{uid}", api.postWebAuthnFinishReg)
	r.Post("/webauthn/start-auth", api.postWebAuthnStartAuth)
	r.Post("/webauthn/finish-auth/{ch_id}", api.postWebAuthnFinishAuth)

	r.Post("/uploads/start/{file_id}", api.postUploadStart)
	r.Post("/uploads/finish/{file_id}", api.postUploadFinish)
	r.Get("/uploads/info/{file_id}", api.getUploadInfo)

	r.Post("/purge", api.postPurge)

	if api.Legacy != nil {
		r.Post("/legacy/uploads/{upload_id}", api.postLegacyUpload)
		r.Head("/legacy/uploads/{upload_id}/length", api.headLegacyLength)
	}

	return r
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeErr maps err to its status code and writes an empty body
// (spec.md §7).
func writeErr(w http.ResponseWriter, err error) {
	w.WriteHeader(apperr.StatusCode(err))
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func parseUidParam(r *http.Request, name string) (envelope.Uid, error) {
	return envelope.ParseUid(chi.URLParam(r, name))
}

func decodeEmailParam(r *http.Request, name string) (string, error) {
	raw, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(chi.URLParam(r, name))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// --- nodes ---

func (a *API) postNodes(w http.ResponseWriter, r *http.Request) {
	var nodes []nodestore.LockedNode
	if err := decodeJSON(r, &nodes); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var firstErr error
	for _, n := range nodes {
		if err := a.Facade.Nodes.Add(n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		writeErr(w, firstErr)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (a *API) getNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Facade.Nodes.GetAll())
}

func (a *API) deleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := parseUidParam(r, "file_id")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	removed := a.Facade.Nodes.Delete(id)
	if len(removed) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- signup / login / users ---

func (a *API) postSignup(w http.ResponseWriter, r *http.Request) {
	var req facade.Signup
	if err := decodeJSON(r, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := a.Facade.Signup(r.Context(), req); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (a *API) postLogin(w http.ResponseWriter, r *http.Request) {
	var req facade.Login
	if err := decodeJSON(r, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	u, err := a.Facade.Login(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	uid, err := parseUidParam(r, "uid")
	if err != nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	u, err := a.Facade.GetUser(r.Context(), uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) getUserMK(w http.ResponseWriter, r *http.Request) {
	uid, err := parseUidParam(r, "uid")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	mk, ok := a.Facade.Users.MasterKeyFor(uid)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, mk)
}

func (a *API) getUserPasskeys(w http.ResponseWriter, r *http.Request) {
	uid, err := parseUidParam(r, "uid")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a.Facade.WebAuthn.PasskeysForUser(uid))
}

func (a *API) deletePasskey(w http.ResponseWriter, r *http.Request) {
	id := webauthnstore.CredentialID(chi.URLParam(r, "pk_id"))
	a.Facade.WebAuthn.RemovePasskey(id)
	w.WriteHeader(http.StatusOK)
}

// --- invites ---

func (a *API) getPinnedInvite(w http.ResponseWriter, r *http.Request) {
	welcome, err := a.Facade.GetInvite(r.Context(), chi.URLParam(r, "email_b64url"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, welcome)
}

func (a *API) postPinnedInvite(w http.ResponseWriter, r *http.Request) {
	var inv sharestore.Invite
	if err := decodeJSON(r, &inv); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	a.Facade.Shares.AddInvite(inv)
	w.WriteHeader(http.StatusCreated)
}

func (a *API) postInviteIntentStart(w http.ResponseWriter, r *http.Request) {
	var intent sharestore.InviteIntent
	if err := decodeJSON(r, &intent); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	a.Facade.Shares.AddInviteIntent(intent)
	w.WriteHeader(http.StatusCreated)
}

func (a *API) getInviteIntentFetch(w http.ResponseWriter, r *http.Request) {
	email, err := decodeEmailParam(r, "email_b64url")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	intent, ok := a.Facade.Shares.GetInviteIntent(email)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

func (a *API) postInviteIntentFinish(w http.ResponseWriter, r *http.Request) {
	var reqs []facade.FinishInviteIntent
	if err := decodeJSON(r, &reqs); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := a.Facade.FinishInviteIntents(r.Context(), reqs); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// --- sessions ---

func (a *API) postSessionLock(w http.ResponseWriter, r *http.Request) {
	uid, err := parseUidParam(r, "token_id")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var seed sessionstore.Seed
	if err := decodeJSON(r, &seed); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	a.Facade.Sessions.AddToken(uid, seed)
	w.WriteHeader(http.StatusCreated)
}

func (a *API) postSessionUnlock(w http.ResponseWriter, r *http.Request) {
	uid, err := parseUidParam(r, "token_id")
	if err != nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	seed, ok := a.Facade.Sessions.ConsumeTokenByID(uid)
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, seed)
}

// --- webauthn ---

func (a *API) postWebAuthnStartReg(w http.ResponseWriter, r *http.Request) {
	uid, err := parseUidParam(r, "uid")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	reg := a.Facade.WebAuthn.StartReg(uid)
	writeJSON(w, http.StatusCreated, reg)
}

func (a *API) postWebAuthnFinishReg(w http.ResponseWriter, r *http.Request) {
	uid, err := parseUidParam(r, "uid")
	if err != nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	var bundle webauthnstore.Bundle
	if err := decodeJSON(r, &bundle); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	pk, err := a.Facade.WebAuthn.FinishReg(uid, bundle)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pk)
}

func (a *API) postWebAuthnStartAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, a.Facade.WebAuthn.StartAuth())
}

func (a *API) postWebAuthnFinishAuth(w http.ResponseWriter, r *http.Request) {
	chID, err := parseUidParam(r, "ch_id")
	if err != nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	var auth webauthnstore.Authentication
	if err := decodeJSON(r, &auth); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	pk, err := a.Facade.WebAuthn.FinishAuth(chID, auth)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pk)
}

// --- uploads ---

func (a *API) postUploadStart(w http.ResponseWriter, r *http.Request) {
	fileID, err := parseUidParam(r, "file_id")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var body struct {
		FileSize int64 `json:"file_size"`
	}
	if err := decodeJSON(r, &body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	res, err := a.Uploads.Start(r.Context(), fileID, fileID.String(), body.FileSize)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *API) postUploadFinish(w http.ResponseWriter, r *http.Request) {
	fileID, err := parseUidParam(r, "file_id")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var body struct {
		UploadID string        `json:"upload_id"`
		Parts    []upload.Part `json:"parts"`
	}
	if err := decodeJSON(r, &body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := a.Uploads.Finish(r.Context(), fileID, fileID.String(), body.UploadID, body.Parts); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *API) getUploadInfo(w http.ResponseWriter, r *http.Request) {
	fileID, err := parseUidParam(r, "file_id")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	status, err := a.Uploads.Status(r.Context(), fileID, fileID.String())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// --- purge ---

func (a *API) postPurge(w http.ResponseWriter, r *http.Request) {
	a.Facade.Purge(r.Context())
	w.WriteHeader(http.StatusOK)
}

// --- legacy uploads ---

func (a *API) postLegacyUpload(w http.ResponseWriter, r *http.Request) {
	if !a.Legacy.Authorized([]byte(r.Header.Get("X-Uploader-Auth"))) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	uploadID := chi.URLParam(r, "upload_id")
	if err := a.Legacy.Append(uploadID, r.Header.Get("Content-Range"), r.Body); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *API) headLegacyLength(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "upload_id")
	length, err := a.Legacy.Length(uploadID)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusOK)
}
