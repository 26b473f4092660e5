package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	bidding "vehicle-auction/internal/biddingService"
	model "vehicle-auction/internal/models"
	"vehicle-auction/internal/repository"
	"vehicle-auction/internal/seed"
	"vehicle-auction/internal/server"

	"github.com/gin-gonic/gin"
)

// SetupTestRouter initializes the router with in-memory repository for integration testing.
func SetupTestRouter() *gin.Engine {
	router, _ := SetupTestRouterWithAuctions()
	return router
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response.
// Created responses are unwrapped to their data object.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}

		if w.Code == 201 {
			resp = resp["data"].(map[string]any)
		}
	}

	return resp, w
}

// SetupTestRouterWithAuctions initializes the router and registers auctions through the service.
func SetupTestRouterWithAuctions(auctions ...model.Auction) (*gin.Engine, *bidding.BiddingService) {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()
	service := bidding.NewBiddingService(repo)

	for _, a := range auctions {
		if _, err := service.CreateAuction(a); err != nil {
			panic(err)
		}
	}

	return server.SetupRouter(service), service
}

// SetupSeededRouter initializes the router with the demo auctions and their bids.
func SetupSeededRouter(t *testing.T) *gin.Engine {
	t.Helper()
	router, service := SetupTestRouterWithAuctions()
	if err := seed.Load(context.Background(), service, time.Now().UTC()); err != nil {
		t.Fatalf("failed to seed auctions: %v", err)
	}
	return router
}

func testAuction(id string, startingBid int64, reserve *int64, endsIn time.Duration) model.Auction {
	return model.Auction{
		AuctionID:    id,
		Title:        id + " title",
		Brand:        "Toyota",
		StartingBid:  startingBid,
		ReservePrice: reserve,
		EndDate:      time.Now().UTC().Add(endsIn),
	}
}

func bidAmount(v int64) *int64 { return &v }
