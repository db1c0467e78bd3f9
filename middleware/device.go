package middleware

import (
	"net/http"
	"strings"

	"raffle-bff/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	DeviceHeader       = "X-Device-ID"
	DeviceCookie       = "raffle_device"
	DeviceIDKey        = "device_id"
	DeviceStoreKey     = "device_store"
	deviceIssuedKey    = "device_issued"
	deviceCookieMaxAge = 365 * 24 * 60 * 60
)

// DeviceSession identifies the calling browser and hands handlers the slice
// of the store that belongs to it. A missing or malformed device id is
// replaced with a fresh one, returned as a cookie and a header.
func DeviceSession(base store.Store, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(DeviceHeader))
		if id == "" {
			if v, err := c.Cookie(DeviceCookie); err == nil {
				id = v
			}
		}
		issued := false
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			issued = true
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(DeviceCookie, id, deviceCookieMaxAge, "/", "", secureCookie, true)
		c.Header(DeviceHeader, id)

		c.Set(DeviceIDKey, id)
		c.Set(deviceIssuedKey, issued)
		c.Set(DeviceStoreKey, store.ForDevice(base, id))
		c.Next()
	}
}

// DeviceID returns the id set by DeviceSession.
func DeviceID(c *gin.Context) string {
	return c.GetString(DeviceIDKey)
}

// DeviceStore returns the device's store, or nil outside DeviceSession.
func DeviceStore(c *gin.Context) store.Store {
	v, ok := c.Get(DeviceStoreKey)
	if !ok {
		return nil
	}
	kv, _ := v.(store.Store)
	return kv
}

// deviceIssued reports whether DeviceSession made up the id on this request.
func deviceIssued(c *gin.Context) bool {
	return c.GetBool(deviceIssuedKey)
}
