package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

// Payload holds the top-level fields merged next to success and message.
type Payload map[string]any

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func WriteSuccess(w http.ResponseWriter, payload Payload) {
	WriteSuccessStatus(w, http.StatusOK, "", payload)
}

func WriteMessage(w http.ResponseWriter, message string, payload Payload) {
	WriteSuccessStatus(w, http.StatusOK, message, payload)
}

// WriteSuccessStatus renders {success:true, message?, ...payload}.
func WriteSuccessStatus(w http.ResponseWriter, status int, message string, payload Payload) {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if meta.UserFacing {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := ErrorBody{Message: msg}
	if meta.DetailsAllowed {
		payload.Details = typed.Details()
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)

		fields := map[string]any{
			"error":       dump.TopMessage,
			"error_code":  dump.Code,
			"error_chain": dump.Chain,
			"http_status": meta.HTTPStatus,
		}
		if dump.PGCode != "" {
			fields["pg_code"] = dump.PGCode
			fields["pg_detail"] = dump.PGDetail
			fields["pg_message"] = dump.PGMessage
			fields["pg_table"] = dump.PGTable
			fields["pg_constraint"] = dump.PGConstraint
		}
		if len(dump.MongoCodes) > 0 {
			fields["mongo_codes"] = dump.MongoCodes
		}
		if dump.MongoDupKey {
			fields["mongo_duplicate_key"] = true
		}
		if dump.MongoTimedOut {
			fields["mongo_timeout"] = true
		}

		ctx = logg.WithFields(ctx, fields)
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
