package supabase

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vitaup/VitaUpBack/internal/store"
)

// errorBody covers both GoTrue and PostgREST error shapes. GoTrue sends a
// numeric "code", PostgREST a string one.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Details          string          `json:"details"`
}

func decodeError(status int, raw []byte) error {
	apiErr := &store.APIError{Status: status}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		apiErr.Err = sentinelFor(status, "", apiErr.Message)
		return apiErr
	}

	code := body.ErrorCode
	if code == "" {
		var text string
		if json.Unmarshal(body.Code, &text) == nil {
			code = text
		}
	}
	if code == "" {
		code = body.Error
	}
	apiErr.Code = code
	apiErr.Message = firstNonEmpty(body.Msg, body.Message, body.ErrorDescription, body.Error, body.Details)
	apiErr.Err = sentinelFor(status, code, apiErr.Message)
	return apiErr
}

func sentinelFor(status int, code, message string) error {
	switch code {
	case store.CodeNoRows:
		return store.ErrNoRows
	case store.CodePermissionDenied:
		return store.ErrPermissionDenied
	case "invalid_credentials":
		return store.ErrInvalidCredentials
	case "user_already_exists", "email_exists":
		return store.ErrUserExists
	case "weak_password":
		return store.ErrWeakPassword
	case "refresh_token_not_found", "refresh_token_already_used", "session_not_found", "session_expired":
		return store.ErrSessionExpired
	case "PGRST301", "PGRST302", "bad_jwt", "no_authorization":
		return store.ErrNotAuthenticated
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "invalid login credentials"):
		return store.ErrInvalidCredentials
	case strings.Contains(lower, "already registered"):
		return store.ErrUserExists
	case strings.Contains(lower, "row-level security"):
		return store.ErrPermissionDenied
	case code == "invalid_grant" && strings.Contains(lower, "refresh token"):
		return store.ErrSessionExpired
	case status == http.StatusUnauthorized:
		return store.ErrNotAuthenticated
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
