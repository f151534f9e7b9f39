package handler

import (
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/pkg/response"
	"github.com/qs3c/vivah_server/internal/testutil"
)

func matchRouter(tc *testContext, userID int64) *gin.Engine {
	router := gin.New()
	router.Use(mockAuth(userID))
	router.GET("/matches", tc.Matches.List)
	router.GET("/matches/with/:user_id", tc.Matches.With)
	router.DELETE("/matches/with/:user_id", tc.Matches.Unmatch)
	return router
}

func TestMatchHandler_With_Symmetric(t *testing.T) {
	tc := setupHandlers(t)
	alice := testutil.TestUser(t, tc.DB)
	bob := testutil.TestUser(t, tc.DB)
	match := testutil.TestMatch(t, tc.DB, alice.ID, bob.ID, model.MatchStatusActive)

	for _, pair := range [][2]int64{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		w := performRequest(matchRouter(tc, pair[0]), "GET", fmt.Sprintf("/matches/with/%d", pair[1]), nil)
		resp := parseResponse(t, w)
		assert.Equal(t, response.CodeSuccess, resp.Code)

		data := dataMap(t, resp)
		assert.Equal(t, true, data["matched"])
		assert.Equal(t, match.PublicID, data["match_id"])
	}
}

func TestMatchHandler_With_NotMatched(t *testing.T) {
	tc := setupHandlers(t)
	alice := testutil.TestUser(t, tc.DB)
	bob := testutil.TestUser(t, tc.DB)

	w := performRequest(matchRouter(tc, alice.ID), "GET", fmt.Sprintf("/matches/with/%d", bob.ID), nil)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, false, dataMap(t, resp)["matched"])
	assert.NotContains(t, dataMap(t, resp), "match_id")

	// 自己和自己永远不算匹配
	w = performRequest(matchRouter(tc, alice.ID), "GET", fmt.Sprintf("/matches/with/%d", alice.ID), nil)
	resp = parseResponse(t, w)
	assert.Equal(t, false, dataMap(t, resp)["matched"])
}

func TestMatchHandler_With_ResolutionFailed(t *testing.T) {
	tc := setupHandlers(t)
	alice := testutil.TestUser(t, tc.DB)
	bob := testutil.TestUser(t, tc.DB)
	tc.breakDB(t)

	w := performRequest(matchRouter(tc, alice.ID), "GET", fmt.Sprintf("/matches/with/%d", bob.ID), nil)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeResultPending, resp.Code)
}

func TestMatchHandler_With_InvalidID(t *testing.T) {
	tc := setupHandlers(t)

	w := performRequest(matchRouter(tc, 1), "GET", "/matches/with/abc", nil)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestMatchHandler_List(t *testing.T) {
	tc := setupHandlers(t)
	alice := testutil.TestUser(t, tc.DB)
	bob := testutil.TestUser(t, tc.DB, testutil.WithName("bob"))
	carol := testutil.TestUser(t, tc.DB)
	testutil.TestMatch(t, tc.DB, alice.ID, bob.ID, model.MatchStatusActive)
	testutil.TestMatch(t, tc.DB, alice.ID, carol.ID, model.MatchStatusUnmatched)

	w := performRequest(matchRouter(tc, alice.ID), "GET", "/matches?page=1&page_size=10", nil)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	items := pageItems(t, resp)
	if assert.Len(t, items, 1) {
		user := items[0].(map[string]interface{})["user"].(map[string]interface{})
		assert.Equal(t, "bob", user["display_name"])
	}
}

func TestMatchHandler_Unmatch(t *testing.T) {
	tc := setupHandlers(t)
	alice := testutil.TestUser(t, tc.DB)
	bob := testutil.TestUser(t, tc.DB)
	testutil.TestMatch(t, tc.DB, alice.ID, bob.ID, model.MatchStatusActive)
	router := matchRouter(tc, alice.ID)

	w := performRequest(router, "DELETE", fmt.Sprintf("/matches/with/%d", bob.ID), nil)
	assert.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	// 重复取消不报错
	w = performRequest(router, "DELETE", fmt.Sprintf("/matches/with/%d", bob.ID), nil)
	assert.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	w = performRequest(router, "GET", fmt.Sprintf("/matches/with/%d", bob.ID), nil)
	assert.Equal(t, false, dataMap(t, parseResponse(t, w))["matched"])
}

func TestMatchHandler_Unmatch_NeverMatched(t *testing.T) {
	tc := setupHandlers(t)
	alice := testutil.TestUser(t, tc.DB)
	bob := testutil.TestUser(t, tc.DB)

	w := performRequest(matchRouter(tc, alice.ID), "DELETE", fmt.Sprintf("/matches/with/%d", bob.ID), nil)
	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)
}
