package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/skillspark/apperr"
	"github.com/sirupsen/logrus"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

func writeList(w http.ResponseWriter, data interface{}, count int) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Count: &count, Data: data})
}

// writeError answers with the status for err. Server-side causes are logged and
// replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, op string, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		if log == nil {
			log = logrus.StandardLogger()
		}
		log.WithFields(logrus.Fields{
			"op":         op,
			"path":       r.URL.Path,
			"request_id": chimw.GetReqID(r.Context()),
		}).WithError(err).Error("request failed")
		writeJSON(w, status, Envelope{Error: "Server Error"})
		return
	}
	var e *apperr.Error
	if !errors.As(err, &e) {
		writeJSON(w, status, Envelope{Error: err.Error()})
		return
	}
	if e.Kind == apperr.ValidationFailed && len(e.Messages) > 0 {
		writeJSON(w, status, Envelope{Error: e.Messages})
		return
	}
	writeJSON(w, status, Envelope{Error: e.Message})
}
