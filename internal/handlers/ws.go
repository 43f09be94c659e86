package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/taskboard-dev/taskboard/internal/authz"
	"github.com/taskboard-dev/taskboard/internal/realtime"
	"github.com/taskboard-dev/taskboard/internal/repositories"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
	"gorm.io/gorm"
)

// WebSocket subscribes the caller to a project's broadcast channel. The
// access check runs before the upgrade so unauthorized callers get a plain
// 403, not a half-open socket.
func WebSocket(c *gin.Context) {
	userID, err := utils.GetCurrentUserID(c)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(c)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := repositories.NewProjectRepository().FindWithMembers(projectID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		} else {
			log.Printf("Failed to retrieve project: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	if !authz.CanAccess(userID, project) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(realtime.MaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(realtime.PongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(realtime.PongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	client := realtime.Register(project.ID, conn)

	defer func() {
		realtime.Unregister(client)
		log.Printf("WebSocket connection %s closed for project %d", client.ID, project.ID)
	}()

	err = client.WriteJSON(realtime.Event{
		Channel: client.Channel,
		Event:   "connected",
		Data:    gin.H{"socket_id": client.ID},
	})

	if err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	ticker := time.NewTicker(realtime.PingPeriod)
	defer ticker.Stop()

	go func() {
		// Keepalive pings until the connection dies
		for range ticker.C {
			if err := client.Ping(); err != nil {
				log.Printf("Ping failed for project %d: %v", project.ID, err)
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(realtime.PongWait)); err != nil {
			log.Printf("Failed to set read deadline for project %d: %v", project.ID, err)
			break
		}

		// Clients only listen; inbound frames keep the connection alive and
		// are otherwise ignored.
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for project %d: %v", project.ID, err)
			}
			break
		}
	}
}
