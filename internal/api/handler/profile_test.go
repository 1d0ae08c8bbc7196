package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/pkg/storage"
	"github.com/qs3c/creatorhub_server/internal/repository"
	"github.com/qs3c/creatorhub_server/internal/service"
	"github.com/qs3c/creatorhub_server/internal/testutil"
)

func setupProfileHandler(t *testing.T, store storage.ObjectStore) (*ProfileHandler, *testContext, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testConfig()

	profileService := service.NewProfileService(
		repository.NewProfileRepository(db),
		repository.NewTierRepository(db),
		store,
		cfg,
	)

	ctx := &testContext{DB: db, Cfg: cfg}
	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}
	return NewProfileHandler(profileService), ctx, cleanup
}

func profileRouter(h *ProfileHandler, userID int64, role string) *gin.Engine {
	router := gin.New()
	if userID > 0 {
		router.Use(mockAuth(userID, role))
	}
	router.GET("/profiles/me", h.GetMe)
	router.PATCH("/profiles/me", h.UpdateMe)
	router.POST("/profiles/me/avatar", h.UploadAvatar)
	router.GET("/profiles/creators", h.ListCreators)
	router.GET("/profiles/:handle", h.GetPublic)
	router.GET("/admin/profiles", h.AdminList)
	router.PATCH("/admin/profiles/:id", h.AdminUpdate)
	return router
}

func TestProfileHandler_GetMe(t *testing.T) {
	handler, ctx, cleanup := setupProfileHandler(t, nil)
	defer cleanup()

	user := testutil.TestProfile(t, ctx.DB, testutil.WithUsername("profileuser"))

	w := performRequest(profileRouter(handler, user.ID, model.RoleFan), "GET", "/profiles/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "profileuser", dataMap(t, parseResponse(t, w))["username"])

	w = performRequest(profileRouter(handler, 0, ""), "GET", "/profiles/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileHandler_UpdateMe(t *testing.T) {
	handler, ctx, cleanup := setupProfileHandler(t, nil)
	defer cleanup()

	fan := testutil.TestProfile(t, ctx.DB)
	creator := testutil.TestProfile(t, ctx.DB, testutil.AsCreator(1000))

	w := performRequest(profileRouter(handler, fan.ID, model.RoleFan), "PATCH", "/profiles/me",
		map[string]interface{}{"video_price_cents": 3000})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(profileRouter(handler, creator.ID, model.RoleCreator), "PATCH", "/profiles/me",
		map[string]interface{}{"video_price_cents": 3000, "accepting_orders": false, "bio": "hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, parseResponse(t, w))
	assert.Equal(t, float64(3000), data["video_price_cents"])
	assert.Equal(t, false, data["accepting_orders"])

	w = performRequest(profileRouter(handler, creator.ID, model.RoleCreator), "PATCH", "/profiles/me",
		map[string]interface{}{"video_price_cents": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileHandler_GetPublic(t *testing.T) {
	handler, ctx, cleanup := setupProfileHandler(t, nil)
	defer cleanup()

	creator := testutil.TestProfile(t, ctx.DB, testutil.AsCreator(1000))
	testutil.TestTier(t, ctx.DB, creator.ID)
	testutil.TestTier(t, ctx.DB, creator.ID, testutil.WithTierInactive())
	suspended := testutil.TestProfile(t, ctx.DB, testutil.AsCreator(1000), testutil.WithSuspended())

	router := profileRouter(handler, 0, "")

	w := performRequest(router, "GET", "/profiles/"+creator.Handle, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tiers := dataMap(t, parseResponse(t, w))["tiers"].([]interface{})
	assert.Len(t, tiers, 1)

	w = performRequest(router, "GET", "/profiles/"+suspended.Handle, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, "GET", "/profiles/nobody-here", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileHandler_ListCreators(t *testing.T) {
	handler, ctx, cleanup := setupProfileHandler(t, nil)
	defer cleanup()

	testutil.TestProfile(t, ctx.DB, testutil.AsCreator(1000), func(p *model.Profile) { p.DisplayName = "Jazz Hands" })
	testutil.TestProfile(t, ctx.DB, testutil.AsCreator(1000))
	testutil.TestProfile(t, ctx.DB)

	router := profileRouter(handler, 0, "")

	w := performRequest(router, "GET", "/profiles/creators", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), dataMap(t, parseResponse(t, w))["total"])

	w = performRequest(router, "GET", "/profiles/creators?q=jazz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), dataMap(t, parseResponse(t, w))["total"])
}

func TestProfileHandler_UploadAvatar(t *testing.T) {
	upload := func(router *gin.Engine, filename string) *httptest.ResponseRecorder {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", filename)
		_, _ = part.Write([]byte("png bytes"))
		_ = writer.Close()

		req := httptest.NewRequest("POST", "/profiles/me/avatar", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("storage configured", func(t *testing.T) {
		handler, ctx, cleanup := setupProfileHandler(t, &memoryStore{})
		defer cleanup()

		user := testutil.TestProfile(t, ctx.DB)
		router := profileRouter(handler, user.ID, model.RoleFan)

		w := upload(router, "me.png")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, dataMap(t, parseResponse(t, w))["avatar_url"], "https://cdn.example.com/")

		w = upload(router, "me.exe")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("storage missing", func(t *testing.T) {
		handler, ctx, cleanup := setupProfileHandler(t, nil)
		defer cleanup()

		user := testutil.TestProfile(t, ctx.DB)
		w := upload(profileRouter(handler, user.ID, model.RoleFan), "me.png")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestProfileHandler_AdminUpdate(t *testing.T) {
	handler, ctx, cleanup := setupProfileHandler(t, nil)
	defer cleanup()

	admin := testutil.TestProfile(t, ctx.DB, testutil.WithRole(model.RoleAdmin))
	fan := testutil.TestProfile(t, ctx.DB)
	router := profileRouter(handler, admin.ID, model.RoleAdmin)
	path := "/admin/profiles/" + strconv.FormatInt(fan.ID, 10)

	w := performRequest(router, "PATCH", path, map[string]interface{}{"role": "overlord"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "PATCH", path, map[string]interface{}{"role": "creator", "is_suspended": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, parseResponse(t, w))
	assert.Equal(t, model.RoleCreator, data["role"])
	assert.Equal(t, true, data["is_suspended"])

	w = performRequest(router, "PATCH", "/admin/profiles/99999", map[string]interface{}{"bio": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, "GET", "/admin/profiles?role=creator", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), dataMap(t, parseResponse(t, w))["total"])

	w = performRequest(router, "GET", "/admin/profiles?role=robot", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
