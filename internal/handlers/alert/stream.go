package alert

import (
	"fmt"
	"net/http"
	"time"

	"mesa_back_end/internal/alerts"

	"github.com/gin-gonic/gin"
)

// heartbeatInterval espace les trames keep-alive pour éviter les timeouts
// des intermédiaires sur les flux longs
const heartbeatInterval = 20 * time.Second

// Handler expose le bus d'alertes aux dashboards employés
type Handler struct {
	Bus *alerts.Bus
}

func NewHandler(bus *alerts.Bus) *Handler {
	return &Handler{Bus: bus}
}

// Recent retourne l'instantané du tampon d'alertes récentes
func (h *Handler) Recent(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": h.Bus.Recent()})
}

// Stream pousse les alertes en SSE : hello, prime (tampon récent), puis une
// trame par publication, avec un commentaire ping toutes les 20 secondes.
// L'abonnement est libéré à la déconnexion du client, jamais avant.
func (h *Handler) Stream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	sub := h.Bus.Subscribe()
	defer h.Bus.Unsubscribe(sub)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			c.SSEvent(ev.Name, ev.Data)
			c.Writer.Flush()
		case <-heartbeat.C:
			// Échec d'écriture ignoré : le nettoyage passe par la
			// détection de déconnexion, pas par le heartbeat
			fmt.Fprintf(c.Writer, ": ping %d\n\n", time.Now().UnixMilli())
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
