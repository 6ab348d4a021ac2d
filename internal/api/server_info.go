package api

import (
	"net/http"

	"vox/internal/ws"
)

type ServerInfoHandler struct {
	name string
	hub  *ws.Hub
}

func NewServerInfoHandler(name string, hub *ws.Hub) *ServerInfoHandler {
	return &ServerInfoHandler{name: name, hub: hub}
}

func (h *ServerInfoHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   h.name,
		"online": h.hub.OnlineCount(),
	})
}
