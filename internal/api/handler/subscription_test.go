package handler

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/repository"
	"github.com/qs3c/creatorhub_server/internal/service"
	"github.com/qs3c/creatorhub_server/internal/testutil"
)

func subscriptionRouter(t *testing.T, ctx *testContext, userID int64, role string) *gin.Engine {
	t.Helper()

	subscriptionService := service.NewSubscriptionService(
		repository.NewSubscriptionRepository(ctx.DB),
		repository.NewTierRepository(ctx.DB),
		repository.NewProfileRepository(ctx.DB),
		nil,
		newNotificationService(ctx.DB),
		ctx.Cfg,
	)
	h := NewSubscriptionHandler(subscriptionService)

	router := gin.New()
	if userID > 0 {
		router.Use(mockAuth(userID, role))
	}
	router.POST("/subscriptions/checkout", h.Checkout)
	router.GET("/subscriptions", h.List)
	router.POST("/subscriptions/:id/cancel", h.Cancel)
	return router
}

func TestSubscriptionHandler_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	ctx := &testContext{DB: db, Cfg: testConfig()}

	fan := testutil.TestProfile(t, db)
	creator := testutil.TestProfile(t, db, testutil.AsCreator(1000))
	tier := testutil.TestTier(t, db, creator.ID)
	testutil.TestSubscriptionOrder(t, db, fan.ID, creator.ID, tier.ID, model.SubscriptionStatusActive)

	w := performRequest(subscriptionRouter(t, ctx, fan.ID, model.RoleFan), "GET", "/subscriptions", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, parseResponse(t, w))
	assert.Equal(t, float64(1), data["total"])
	item := data["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, model.SubscriptionStatusActive, item["status"])

	w = performRequest(subscriptionRouter(t, ctx, creator.ID, model.RoleCreator), "GET", "/subscriptions?as=creator", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), dataMap(t, parseResponse(t, w))["total"])

	w = performRequest(subscriptionRouter(t, ctx, creator.ID, model.RoleCreator), "GET", "/subscriptions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), dataMap(t, parseResponse(t, w))["total"])

	w = performRequest(subscriptionRouter(t, ctx, fan.ID, model.RoleFan), "GET", "/subscriptions?as=admin", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(subscriptionRouter(t, ctx, 0, ""), "GET", "/subscriptions", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubscriptionHandler_PaymentsNotConfigured(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	ctx := &testContext{DB: db, Cfg: testConfig()}

	fan := testutil.TestProfile(t, db)
	creator := testutil.TestProfile(t, db, testutil.AsCreator(1000))
	tier := testutil.TestTier(t, db, creator.ID)
	sub := testutil.TestSubscriptionOrder(t, db, fan.ID, creator.ID, tier.ID, model.SubscriptionStatusActive)
	router := subscriptionRouter(t, ctx, fan.ID, model.RoleFan)

	w := performRequest(router, "POST", "/subscriptions/checkout", map[string]int64{"tier_id": tier.ID})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = performRequest(router, "POST", "/subscriptions/checkout", `{"tier_id": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "POST", "/subscriptions/"+strconv.FormatInt(sub.ID, 10)+"/cancel", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
