package http

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/shuttlereg/internal/pubsub"
)

// decodePushMessage unwraps a Pub/Sub push request into v. It writes the
// error response itself and reports whether decoding succeeded.
func (s *Server) decodePushMessage(w http.ResponseWriter, r *http.Request, v any) bool {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("Failed to read request body", "error", err)
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return false
	}
	log.Debug("Received push message", "path", r.URL.Path, "body", string(bodyBytes))

	var pubsubMsg struct {
		Subscription string `json:"subscription"`
		Message      struct {
			Data string `json:"data"`
		} `json:"message"`
	}

	if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
		log.Error("Failed to unmarshal wrapper JSON", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}

	rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
	if err != nil {
		log.Error("Failed to decode base64 data", "error", err)
		http.Error(w, "Invalid base64 data", http.StatusBadRequest)
		return false
	}
	if err := s.pubsub.ProcessMessage(rawData, v); err != nil {
		http.Error(w, "Invalid message payload", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) RegistrationConfirmedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event pubsub.RegistrationEvent
		if !s.decodePushMessage(w, r, &event) {
			return
		}
		if err := s.Notifier.SendRegistrationConfirmed(event, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to notify registration", "registrationID", event.RegistrationID, "error", err)
			http.Error(w, "Failed to notify registration", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}

func (s *Server) RegistrationCancelledHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event pubsub.RegistrationEvent
		if !s.decodePushMessage(w, r, &event) {
			return
		}
		if err := s.Notifier.SendRegistrationCancelled(event, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to notify cancellation", "registrationID", event.RegistrationID, "error", err)
			http.Error(w, "Failed to notify cancellation", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}
