package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	documentdomain "github.com/smallbiznis/billora/internal/document/domain"
)

type lineItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate"`
	ItemType    string  `json:"item_type"`
	SortOrder   int     `json:"sort_order"`
}

type createDocumentRequest struct {
	Kind           string            `json:"kind"`
	ClientID       string            `json:"client_id"`
	Items          []lineItemRequest `json:"items"`
	Currency       string            `json:"currency"`
	PaymentMethod  string            `json:"payment_method"`
	PaymentDetails string            `json:"payment_details"`
	Notes          string            `json:"notes"`
	ValidUntil     *time.Time        `json:"valid_until"`
}

type editDocumentRequest struct {
	Items          []lineItemRequest `json:"items"`
	PaymentMethod  string            `json:"payment_method"`
	PaymentDetails string            `json:"payment_details"`
	Notes          string            `json:"notes"`
	ValidUntil     *time.Time        `json:"valid_until"`
}

func (s *Server) CreateDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client id"))
		return
	}

	doc, err := s.documentSvc.Create(c.Request.Context(), documentdomain.CreateDocumentRequest{
		Kind:           documentdomain.Kind(strings.ToUpper(strings.TrimSpace(req.Kind))),
		ClientID:       clientID,
		Items:          toItemInputs(req.Items),
		Currency:       req.Currency,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
		Notes:          req.Notes,
		ValidUntil:     req.ValidUntil,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": doc})
}

func (s *Server) GetDocumentByID(c *gin.Context) {
	id, ok := s.documentID(c)
	if !ok {
		return
	}

	doc, err := s.documentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	items, err := s.documentSvc.ListItems(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc, "items": items})
}

func (s *Server) EditDocument(c *gin.Context) {
	id, ok := s.documentID(c)
	if !ok {
		return
	}

	var req editDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	doc, err := s.documentSvc.Edit(c.Request.Context(), documentdomain.EditDocumentRequest{
		ID:             id,
		Items:          toItemInputs(req.Items),
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
		Notes:          req.Notes,
		ValidUntil:     req.ValidUntil,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (s *Server) MarkDocumentPaid(c *gin.Context) {
	id, ok := s.documentID(c)
	if !ok {
		return
	}

	doc, err := s.documentSvc.MarkAsPaid(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (s *Server) SendDocument(c *gin.Context) {
	id, ok := s.documentID(c)
	if !ok {
		return
	}

	doc, err := s.documentSvc.Send(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (s *Server) DeleteDocument(c *gin.Context) {
	id, ok := s.documentID(c)
	if !ok {
		return
	}

	if err := s.documentSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) documentID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}

func toItemInputs(items []lineItemRequest) []documentdomain.ItemInput {
	inputs := make([]documentdomain.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, documentdomain.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			ItemType:    documentdomain.ItemType(strings.ToUpper(strings.TrimSpace(item.ItemType))),
			SortOrder:   item.SortOrder,
		})
	}
	return inputs
}
