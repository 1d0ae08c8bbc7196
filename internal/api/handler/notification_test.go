package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/testutil"
)

func setupNotificationRouter(t *testing.T, userID int64, h *NotificationHandler) *gin.Engine {
	t.Helper()

	router := gin.New()
	if userID > 0 {
		router.Use(mockAuth(userID, model.RoleFan))
	}
	router.GET("/notifications", h.Poll)
	router.GET("/notifications/unread-count", h.UnreadCount)
	router.POST("/notifications/read-all", h.MarkAllRead)
	router.POST("/notifications/:id/read", h.MarkRead)
	return router
}

func TestNotificationHandler_PollCursor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestProfile(t, db)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		testutil.TestNotification(t, db, user.ID, base.Add(time.Duration(i)*time.Minute))
	}

	handler := NewNotificationHandler(newNotificationService(db))
	router := setupNotificationRouter(t, user.ID, handler)

	cursor := base.Add(-time.Second).Format(time.RFC3339Nano)
	w := performRequest(router, "GET", "/notifications?since="+url.QueryEscape(cursor), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := dataMap(t, parseResponse(t, w))
	items := data["items"].([]interface{})
	assert.Len(t, items, 3)
	assert.Equal(t, float64(3), data["unread_count"])
	next := data["next_since"].(string)
	require.NotEmpty(t, next)

	// 用返回的游标再拉一次，没有新通知
	w = performRequest(router, "GET", "/notifications?since="+url.QueryEscape(next), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = dataMap(t, parseResponse(t, w))
	assert.Empty(t, data["items"])
	assert.Equal(t, next, data["next_since"])

	// 同一个游标重复拉取结果不变
	w = performRequest(router, "GET", "/notifications?since="+url.QueryEscape(next), nil)
	assert.Empty(t, dataMap(t, parseResponse(t, w))["items"])
}

func TestNotificationHandler_PollSameTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestProfile(t, db)
	at := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		testutil.TestNotification(t, db, user.ID, at)
	}
	router := setupNotificationRouter(t, user.ID, NewNotificationHandler(newNotificationService(db)))

	since := url.QueryEscape(at.Add(-time.Second).Format(time.RFC3339Nano))
	w := performRequest(router, "GET", "/notifications?limit=2&since="+since, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, parseResponse(t, w))
	assert.Len(t, data["items"], 2)

	next := url.QueryEscape(data["next_since"].(string))
	nextID := strconv.FormatInt(int64(data["next_id"].(float64)), 10)
	w = performRequest(router, "GET", "/notifications?limit=2&since="+next+"&after_id="+nextID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataMap(t, parseResponse(t, w))["items"], 1)
}

func TestNotificationHandler_PollValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestProfile(t, db)
	router := setupNotificationRouter(t, user.ID, NewNotificationHandler(newNotificationService(db)))

	w := performRequest(router, "GET", "/notifications?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "GET", "/notifications?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "GET", "/notifications?after_id=3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "GET", "/notifications?limit=500", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNotificationHandler_Unauthorized(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	router := setupNotificationRouter(t, 0, NewNotificationHandler(newNotificationService(db)))

	w := performRequest(router, "GET", "/notifications", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestProfile(t, db)
	other := testutil.TestProfile(t, db)
	mine := testutil.TestNotification(t, db, user.ID, time.Now())
	testutil.TestNotification(t, db, user.ID, time.Now())
	theirs := testutil.TestNotification(t, db, other.ID, time.Now())

	router := setupNotificationRouter(t, user.ID, NewNotificationHandler(newNotificationService(db)))

	w := performRequest(router, "POST", "/notifications/"+strconv.FormatInt(theirs.ID, 10)+"/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, "POST", "/notifications/"+strconv.FormatInt(mine.ID, 10)+"/read", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, "GET", "/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), dataMap(t, parseResponse(t, w))["unread_count"])

	w = performRequest(router, "POST", "/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), dataMap(t, parseResponse(t, w))["updated"])
}
