package httpserver

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/server/services"
	"github.com/dmitrijs2005/giftauth/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type publicGiftRequest struct {
	RecipientID    string  `json:"recipientId"`
	Amount         any     `json:"amount"`
	Currency       string  `json:"currency"`
	UnlockDatetime *string `json:"unlockDatetime"`
	HideAmount     *bool   `json:"hideAmount"`
	Message        *string `json:"message"`
	SenderName     string  `json:"senderName"`
	SenderEmail    string  `json:"senderEmail"`
	SenderAvatar   *string `json:"senderAvatar"`
}

type createdGiftResponse struct {
	GiftID string `json:"giftId"`
	Status string `json:"status"`
}

type recipientResponse struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email"`
}

type privacySettings struct {
	HideAmount bool `json:"hideAmount"`
	HideSender bool `json:"hideSender"`
}

type giftSummaryResponse struct {
	Recipient       recipientResponse `json:"recipient"`
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency"`
	ProcessingFee   float64           `json:"processingFee"`
	TotalAmount     float64           `json:"totalAmount"`
	PrivacySettings privacySettings   `json:"privacySettings"`
	UnlockDatetime  *time.Time        `json:"unlockDatetime"`
	Message         *string           `json:"message"`
	SenderName      *string           `json:"senderName"`
}

type giftDetailsResponse struct {
	ID        string            `json:"id"`
	Recipient recipientResponse `json:"recipient"`
	Amount    float64           `json:"amount"`
	Currency  string            `json:"currency"`
	Message   *string           `json:"message"`
	Status    string            `json:"status"`
}

type dashboardResponse struct {
	Balance          float64 `json:"balance"`
	TotalSent        float64 `json:"totalSent"`
	TotalReceived    float64 `json:"totalReceived"`
	TransactionCount int64   `json:"transactionCount"`
}

type profileResponse struct {
	DisplayName *string `json:"displayName"`
	Username    *string `json:"username"`
	AvatarURL   *string `json:"avatarUrl"`
}

func (s *Server) createPublicGift(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		s.fail(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	if !validation.ValidateHoneypot(body) {
		s.logger.Warn(c.Request.Context(), "[PUBLIC_GIFT] Honeypot triggered, rejecting bot request", "ip", clientIP(c))
		decoy := services.DecoyGift()
		writeData(c, http.StatusCreated, createdGiftResponse{GiftID: decoy.GiftID, Status: decoy.Status})
		return
	}

	var req publicGiftRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		s.fail(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	created, err := s.gifts.CreatePublic(c.Request.Context(), services.PublicGiftInput{
		RecipientID:    req.RecipientID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		UnlockDatetime: req.UnlockDatetime,
		HideAmount:     req.HideAmount,
		Message:        req.Message,
		SenderName:     req.SenderName,
		SenderEmail:    req.SenderEmail,
		SenderAvatar:   req.SenderAvatar,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	writeData(c, http.StatusCreated, createdGiftResponse{GiftID: created.GiftID, Status: created.Status})
}

func (s *Server) publicGiftSummary(c *gin.Context) {
	g, err := s.gifts.PublicSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, giftSummaryResponse{
		Recipient:       recipientResponse{ID: g.Recipient.ID, Name: g.Recipient.Name, Email: g.Recipient.Email},
		Amount:          g.Amount,
		Currency:        g.Currency,
		ProcessingFee:   g.ProcessingFee,
		TotalAmount:     g.TotalAmount,
		PrivacySettings: privacySettings{HideAmount: g.HideAmount, HideSender: g.HideSender},
		UnlockDatetime:  g.UnlockDatetime,
		Message:         g.Message,
		SenderName:      g.SenderName,
	})
}

func (s *Server) giftDetails(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		s.fail(c, http.StatusUnauthorized, MsgMissingBearer)
		return
	}

	g, err := s.gifts.Details(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, giftDetailsResponse{
		ID:        g.ID,
		Recipient: recipientResponse{ID: g.Recipient.ID, Name: g.Recipient.Name, Email: g.Recipient.Email},
		Amount:    g.Amount,
		Currency:  g.Currency,
		Message:   g.Message,
		Status:    g.Status,
	})
}

func (s *Server) dashboardSummary(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		s.fail(c, http.StatusUnauthorized, MsgMissingBearer)
		return
	}

	d, err := s.gifts.DashboardSummary(c.Request.Context(), claims.UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, dashboardResponse{
		Balance:          d.Balance,
		TotalSent:        d.TotalSent,
		TotalReceived:    d.TotalReceived,
		TransactionCount: d.TransactionCount,
	})
}

func (s *Server) lookupByPhone(c *gin.Context) {
	p, err := s.lookup.ByPhone(c.Request.Context(), c.Query("phone"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, profileResponse{DisplayName: p.DisplayName, Username: p.Username, AvatarURL: p.AvatarURL})
}
