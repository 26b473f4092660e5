//go:generate mockgen -package=handler -destination=mock_bidding_service.go -source=bidding_handler.go

package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"vehicle-auction/internal/biddingerrors"
	model "vehicle-auction/internal/models"
	"vehicle-auction/services/bidding/helpers"
	"vehicle-auction/utils"

	"github.com/gin-gonic/gin"
)

// keepAliveInterval keeps idle watch streams open through proxies
const keepAliveInterval = 30 * time.Second

type BiddingServiceInterface interface {
	CreateAuction(auction model.Auction) (model.AuctionSnapshot, error)
	FetchAuction(auctionID string) (model.AuctionSnapshot, error)
	ListAuctions(filter model.AuctionFilter) ([]model.AuctionSnapshot, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount int64, idempotencyKey string) (model.Bid, error)
	WatchAuction(ctx context.Context, auctionID string) (<-chan model.AuctionSnapshot, error)
	GetBidsForAuction(auctionID string) ([]model.Bid, error)
	GetWinningBid(auctionID string) (model.Bid, error)
	GetAuctionsByBidder(bidderID string) ([]model.AuctionSnapshot, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// CreateAuctionHandler handles POST /auctions
func (h *BiddingHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	snap, err := h.service.CreateAuction(req.ToModel())
	if err != nil {
		helpers.RespondError(c, err)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"handler":    "CreateAuctionHandler",
			"auction_id": req.AuctionID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(snap), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": snap.AuctionID,
	})
}

// ListAuctionsHandler handles GET /auctions
func (h *BiddingHandler) ListAuctionsHandler(c *gin.Context) {
	filter := model.AuctionFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Status:   model.AuctionStatus(c.Query("status")),
		SortBy:   c.Query("sort"),
	}

	snaps, err := h.service.ListAuctions(filter)
	if err != nil {
		helpers.RespondError(c, err)
		utils.Warn("ListAuctionsHandler: error listing auctions", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(snaps), "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"count":    len(snaps),
		"search":   filter.Search,
		"category": filter.Category,
		"sort":     filter.SortBy,
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	snap, err := h.service.FetchAuction(auctionID)
	if err != nil {
		helpers.RespondError(c, err)
		utils.Warn("GetAuctionHandler: error fetching auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(snap), "auction retrieved successfully")
}

// WatchAuctionHandler handles GET /auctions/:auction_id/watch as a Server-Sent Events stream
func (h *BiddingHandler) WatchAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	ctx := c.Request.Context()

	stream, err := h.service.WatchAuction(ctx, auctionID)
	if err != nil {
		helpers.RespondError(c, err)
		utils.Warn("WatchAuctionHandler: cannot watch auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	utils.Info("WatchAuctionHandler: watcher connected", map[string]any{"auction_id": auctionID})
	defer utils.Info("WatchAuctionHandler: watcher disconnected", map[string]any{"auction_id": auctionID})

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-stream:
			if !ok {
				return
			}
			c.SSEvent("snapshot", helpers.NewAuctionResponse(snap))
			w.Flush()
		case <-keepAlive.C:
			_, _ = w.WriteString(": keep-alive\n\n")
			w.Flush()
		}
	}
}

// RecordBidHandler handles POST /bids
func (h *BiddingHandler) RecordBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RecordBidHandler", err)
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	// amount rules, including zero and negative bids, belong to the validator
	amount := *req.Amount
	bid, err := h.service.PlaceBid(c.Request.Context(), req.AuctionID, req.BidderID, amount, req.IdempotencyKey)
	if err != nil {
		helpers.RespondError(c, err)
		utils.Error("RecordBidHandler: failed to record bid", map[string]any{
			"handler":    "RecordBidHandler",
			"auction_id": req.AuctionID,
			"bidder_id":  req.BidderID,
			"amount":     amount,
			"reason":     biddingerrors.Reason(err),
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("RecordBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  req.BidderID,
		"amount":     bid.Amount,
	})
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *BiddingHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBidsForAuction(auctionID)
	if err != nil && !errors.Is(err, biddingerrors.ErrNoBids) {
		helpers.RespondError(c, err)
		utils.Warn("GetBidsByAuctionHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.NewBidResponse(b))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByAuctionHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}

// GetWinningBidHandler handles GET /auctions/:auction_id/winning
func (h *BiddingHandler) GetWinningBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.service.GetWinningBid(auctionID)
	if err != nil {
		// For auction, winning bid not found -> 404
		if errors.Is(err, biddingerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"auction_id": auctionID})
			return
		}
		helpers.RespondError(c, err)
		utils.Warn("GetWinningBidHandler: winning bid error", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount,
	})
}

// GetAuctionsByBidderHandler handles GET /bidders/:bidder_id/auctions
func (h *BiddingHandler) GetAuctionsByBidderHandler(c *gin.Context) {
	bidderID := c.Param("bidder_id")
	snaps, err := h.service.GetAuctionsByBidder(bidderID)
	if err != nil && !errors.Is(err, biddingerrors.ErrBidderNoBids) {
		helpers.RespondError(c, err)
		utils.Warn("GetAuctionsByBidderHandler: error retrieving auctions", map[string]any{"bidder_id": bidderID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(snaps), "auctions retrieved successfully")
	helpers.LogSuccess("GetAuctionsByBidderHandler", "auctions retrieved successfully", map[string]any{
		"bidder_id":      bidderID,
		"auctions_count": len(snaps),
	})
}
