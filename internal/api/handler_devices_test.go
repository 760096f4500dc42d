package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"asset-pool-backend/config"
	"asset-pool-backend/internal/media"
	"asset-pool-backend/internal/model"
	"asset-pool-backend/internal/qr"
	"asset-pool-backend/internal/reserve"
	"asset-pool-backend/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Device{}, &model.User{}, &model.PushSubscription{}))

	s, err := store.NewGormStore(db)
	require.NoError(t, err)

	renderer, err := qr.New(&config.CodeConfig{ErrorCorrectionLevel: "H", Size: 300})
	require.NoError(t, err)

	handler := NewHandler(s, media.NewService(s), reserve.NewService(s, nil), renderer, nil)
	router := NewRouter(handler, &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 1,
	})
	return router, s
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterDevice(t *testing.T) {
	router, _ := newTestRouter(t)

	body := map[string]string{
		"name":         "Drill",
		"description":  "Cordless",
		"serialNumber": "SN1",
		"manufacturer": "Acme",
	}

	w := doJSON(t, router, http.MethodPost, "/api/devices", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		QRCode string `json:"qrcode"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "Drill", resp.Name)
	assert.NotEmpty(t, resp.QRCode, "response must carry the rendered code")

	t.Run("same name conflicts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/devices", body)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing name is a bad request", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/devices", map[string]string{"description": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListDevices(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	doJSON(t, router, http.MethodPost, "/api/devices", map[string]string{"name": "Drill"})
	doJSON(t, router, http.MethodPost, "/api/devices", map[string]string{"name": "Saw"})

	w = doJSON(t, router, http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Drill","Saw"]`, w.Body.String())
}

func TestGetDevice(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("empty registry", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/devices/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/devices/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("existing device", func(t *testing.T) {
		doJSON(t, router, http.MethodPost, "/api/devices", map[string]string{"name": "Drill"})

		w := doJSON(t, router, http.MethodGet, "/api/devices/1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var device model.Device
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &device))
		assert.Equal(t, "Drill", device.Name)
		assert.Nil(t, device.TakenBy)
	})
}

func TestUpdateDevice(t *testing.T) {
	router, _ := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/devices", map[string]string{"name": "Drill"})
	doJSON(t, router, http.MethodPost, "/api/devices", map[string]string{"name": "Saw"})

	t.Run("overwrites fields", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/devices/1", map[string]string{
			"name": "Impact Driver", "description": "18V",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var device model.Device
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &device))
		assert.Equal(t, "Impact Driver", device.Name)
		assert.Equal(t, "18V", device.Description)
	})

	t.Run("renaming onto another device conflicts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/devices/1", map[string]string{"name": "Saw"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown device", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/devices/999", map[string]string{"name": "X"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteDevice(t *testing.T) {
	router, _ := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/devices", map[string]string{"name": "Drill"})

	w := doJSON(t, router, http.MethodDelete, "/api/devices/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/devices/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Identifiers are never reused after deletion.
	w = doJSON(t, router, http.MethodPost, "/api/devices", map[string]string{"name": "Saw"})
	var resp struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.ID)
}

func TestRenderCode(t *testing.T) {
	router, _ := newTestRouter(t)

	// The device need not exist; the payload is the raw id.
	w := doJSON(t, router, http.MethodGet, "/api/devices/7/qrcode", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	first := w.Body.Bytes()
	require.NotEmpty(t, first)

	// Second call (served from cache) must return identical bytes.
	w = doJSON(t, router, http.MethodGet, "/api/devices/7/qrcode", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first, w.Body.Bytes())

	w = doJSON(t, router, http.MethodGet, "/api/devices/abc/qrcode", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterUser(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{"login": "alice", "password": "pw"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/users", map[string]string{"login": "alice", "password": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/users", map[string]string{"login": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
