package handlers

import (
	"errors"
	"net/http"

	"station_telemetry/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errListStations = "failed to list stations"
	errGetStation   = "failed to load station"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List stations
// @Description  Latest known state of every station that has ever reported.
// @Tags         stations
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, stations"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/stations [get]
// @Security     BearerAuth
func (h *Handler) listStations(c *gin.Context) {
	ctx := c.Request.Context()
	stations, err := h.services.Monitoring.ListStations(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListStations, "stations_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(stations),
		"stations": stations,
	})
}

// @Summary      Get one station
// @Tags         stations
// @Produce      json
// @Param        id   path      string  true  "Station device id"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/stations/{id} [get]
// @Security     BearerAuth
func (h *Handler) getStation(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	st, err := h.services.Monitoring.GetStation(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrStationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "station " + id + " not found"})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStation, "station_get_failed", err, "device_id", id)
		return
	}
	c.JSON(http.StatusOK, st)
}
