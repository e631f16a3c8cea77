package webserver

import (
	"encoding/json"
	"net/http"
)

// Toast variants understood by the client script
const (
	ToastDefault     = "default"
	ToastDestructive = "destructive"
)

// Toast messages
const (
	ToastAuthRequiredTitle = "Authentication required"
	ToastErrorTitle        = "Error"
	ToastSignedOut         = "Signed out successfully"
	ToastSignedIn          = "Signed in successfully"
	ToastAccountCreated    = "Account created"
	LoadPlantsFailed       = "Failed to load plants"
	ConsultFailed          = "Failed to get response"
	AnalyzeFailed          = "Failed to analyze plant"
	FavoriteFailed         = "Failed to update favorite"
	SignInRequired         = "Please sign in to save favorites."
)

// Toast is a transient notification
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant"`
}

// InfoToast is a plain notification
func InfoToast(title string) Toast {
	return Toast{Title: title, Variant: ToastDefault}
}

// ErrorToast is a destructive notification
func ErrorToast(title, description string) Toast {
	return Toast{Title: title, Description: description, Variant: ToastDestructive}
}

// triggerToast attaches the toast to an HTMX response as a showToast event
func triggerToast(w http.ResponseWriter, t Toast) {
	payload, err := json.Marshal(map[string]Toast{"showToast": t})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
}
