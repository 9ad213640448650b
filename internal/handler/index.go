package handler

import "net/http"

// HandleIndex answers GET / so a load balancer or a person with curl can
// tell the API is up.
func HandleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Welcome to the Nutrition Buddy API"})
}
