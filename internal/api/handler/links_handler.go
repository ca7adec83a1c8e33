package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cartelhax/portal/internal/api/metrics"
	"github.com/cartelhax/portal/internal/api/middleware"
	"github.com/cartelhax/portal/internal/core/ports"
)

const writeTimeout = 10 * time.Second

type LinksHandler struct {
	listing  ports.ListingService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewLinksHandler(listing ports.ListingService, log zerolog.Logger) *LinksHandler {
	return &LinksHandler{
		listing: listing,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// List returns the access-filtered link listing for the session.
//
// @Summary      Filtered link listing
// @Tags         links
// @Produce      json
// @Success      200  {object}  ports.ListingView
// @Failure      401  {object}  map[string]string
// @Router       /links [get]
func (h *LinksHandler) List(c echo.Context) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
	}

	view, err := h.listing.View(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Stream upgrades to a websocket and pushes a fresh filtered listing on
// every relevant directory change. When the backing account disappears the
// final frame carries logged_out=true and the socket closes: the client must
// drop its session.
//
// @Summary      Live filtered link listing
// @Tags         links
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /links/stream [get]
func (h *LinksHandler) Stream(c echo.Context) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
	}

	ls, err := h.listing.Open(c.Request().Context(), identity)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		ls.Close()
		return err
	}

	metrics.ListingSessionsActive.Inc()
	defer metrics.ListingSessionsActive.Dec()
	defer conn.Close()
	defer ls.Close()

	// Drain the read side so client close frames are processed; the stream
	// is server-push only.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case view, ok := <-ls.Updates():
			if !ok {
				return nil
			}
			metrics.ListingUpdatesTotal.Inc()
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(view); err != nil {
				h.log.Debug().Err(err).Msg("listing stream write failed")
				return nil
			}
			if view.LoggedOut {
				msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session ended")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
				return nil
			}
		}
	}
}
